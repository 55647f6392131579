package bytecode

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
)

const maxExprLen = 96

// Line is one line of reconstructed pseudo-source. Tag is "match:<name>" for
// lines produced by a recognizer and "raw" for the fallback rendering.
type Line struct {
	PC   int    `json:"pc"`
	Text string `json:"text"`
	Tag  string `json:"tag"`
}

func (l Line) String() string {
	return fmt.Sprintf("0x%04x  %-60s // %s", l.PC, l.Text, l.Tag)
}

// Stack is the symbolic evaluation stack. Entries are expressions; popping an
// empty stack yields stackN placeholders for values left by a jump source.
type Stack struct {
	items   []string
	missing int
	temps   int
	spilled []string
}

// Pop removes and returns the top expression.
func (s *Stack) Pop() string {
	if len(s.items) == 0 {
		name := fmt.Sprintf("stack%d", s.missing)
		s.missing++
		return name
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top
}

// PopN pops n expressions, top first.
func (s *Stack) PopN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s.Pop()
	}
	return out
}

// Push adds an expression. Long expressions are assigned to a temporary first.
func (s *Stack) Push(expr string) {
	if len(expr) > maxExprLen {
		name := s.Temp()
		s.spilled = append(s.spilled, name+" = "+expr)
		expr = name
	}
	s.items = append(s.items, expr)
}

// Peek returns the expression n entries below the top without popping.
func (s *Stack) Peek(n int) (string, bool) {
	if n < 0 || n >= len(s.items) {
		return "", false
	}
	return s.items[len(s.items)-1-n], true
}

// Temp allocates a fresh temporary name.
func (s *Stack) Temp() string {
	name := fmt.Sprintf("t%d", s.temps)
	s.temps++
	return name
}

// Reset clears the stack at a jump destination.
func (s *Stack) Reset() {
	s.items = s.items[:0]
	s.missing = 0
}

func (s *Stack) drainSpilled() []string {
	out := s.spilled
	s.spilled = nil
	return out
}

// Recognizer turns an instruction into pseudo-source. Recognize returns
// ok=false without touching the stack when it does not handle op. A handled
// instruction may produce no line.
type Recognizer interface {
	Name() string
	Recognize(s *Stack, op Opcode) (line string, ok bool)
}

type recognizerFunc struct {
	name string
	fn   func(s *Stack, op Opcode) (string, bool)
}

func (r recognizerFunc) Name() string { return r.name }

func (r recognizerFunc) Recognize(s *Stack, op Opcode) (string, bool) {
	return r.fn(s, op)
}

var (
	DispatcherRecognizer  Recognizer = recognizerFunc{"dispatcher", recognizeDispatcher}
	StackRecognizer       Recognizer = recognizerFunc{"stack", recognizeStack}
	ArithmeticRecognizer  Recognizer = recognizerFunc{"arithmetic", recognizeArithmetic}
	EnvironmentRecognizer Recognizer = recognizerFunc{"environment", recognizeEnvironment}
	MemoryRecognizer      Recognizer = recognizerFunc{"memory", recognizeMemory}
	StorageRecognizer     Recognizer = recognizerFunc{"storage", recognizeStorage}
	CallRecognizer        Recognizer = recognizerFunc{"call", recognizeCall}
	LogRecognizer         Recognizer = recognizerFunc{"log", recognizeLog}
	ControlFlowRecognizer Recognizer = recognizerFunc{"control", recognizeControlFlow}
)

// DefaultRecognizers returns the recognizers used by ReconstructSource, in
// priority order.
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		DispatcherRecognizer,
		StackRecognizer,
		ArithmeticRecognizer,
		EnvironmentRecognizer,
		MemoryRecognizer,
		StorageRecognizer,
		CallRecognizer,
		LogRecognizer,
		ControlFlowRecognizer,
	}
}

// Reconstruct produces heuristic pseudo-source for code. The first recognizer
// that handles an instruction wins; anything left over is rendered raw with
// its stack effect applied. It never fails.
func Reconstruct(code []byte, recognizers ...Recognizer) []Line {
	if len(recognizers) == 0 {
		recognizers = DefaultRecognizers()
	}

	var (
		lines []Line
		stack Stack
	)
	it := Disassemble(code)
	for it.Next() {
		op := it.Opcode()

		text, tag := "", "raw"
		handled := false
		if !op.Invalid {
			for _, r := range recognizers {
				if t, ok := r.Recognize(&stack, op); ok {
					text, tag, handled = t, "match:"+r.Name(), true
					break
				}
			}
		}
		if !handled {
			text = renderRaw(&stack, op)
		}

		for _, spilled := range stack.drainSpilled() {
			lines = append(lines, Line{PC: op.PC, Text: spilled, Tag: tag})
		}
		if text != "" {
			lines = append(lines, Line{PC: op.PC, Text: text, Tag: tag})
		}
	}
	return lines
}

// ReconstructSource renders Reconstruct with the default recognizers as text.
func ReconstructSource(code []byte) string {
	lines := Reconstruct(code)
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func renderRaw(s *Stack, op Opcode) string {
	text := op.Name
	if len(op.Operand) > 0 {
		text += " " + literal(op.Operand)
	}
	args := s.PopN(op.Pops)
	if len(args) > 0 {
		text += "(" + strings.Join(args, ", ") + ")"
	}
	for i := 0; i < op.Pushes; i++ {
		if op.Pushes == 1 {
			s.Push(text)
			continue
		}
		s.Push(fmt.Sprintf("%s_%d", strings.ToLower(op.Name), i))
	}
	return text
}

func literal(b []byte) string {
	return "0x" + new(big.Int).SetBytes(b).Text(16)
}

var selectorShift = literal([]byte{0xe0})

// legacySelectorDivisor is 2^224, used by compilers before SHR existed.
var legacySelectorDivisor = "0x1" + strings.Repeat("0", 56)

func recognizeDispatcher(s *Stack, op Opcode) (string, bool) {
	switch op.Op {
	case vm.SHR:
		shift, ok1 := s.Peek(0)
		value, ok2 := s.Peek(1)
		if ok1 && ok2 && shift == selectorShift && value == "calldata[0x0]" {
			s.PopN(2)
			s.Push("msg.sig")
			return "", true
		}
	case vm.DIV:
		value, ok1 := s.Peek(0)
		divisor, ok2 := s.Peek(1)
		if ok1 && ok2 && value == "calldata[0x0]" && divisor == legacySelectorDivisor {
			s.PopN(2)
			s.Push("msg.sig")
			return "", true
		}
	case vm.AND:
		a, ok1 := s.Peek(0)
		b, ok2 := s.Peek(1)
		if ok1 && ok2 && (a == "msg.sig" && b == "0xffffffff" || a == "0xffffffff" && b == "msg.sig") {
			s.PopN(2)
			s.Push("msg.sig")
			return "", true
		}
	case vm.JUMPI:
		cond, ok := s.Peek(1)
		if ok && strings.Contains(cond, "msg.sig") {
			args := s.PopN(2)
			return fmt.Sprintf("if %s goto %s", wrap(args[1]), args[0]), true
		}
	}
	return "", false
}

func recognizeStack(s *Stack, op Opcode) (string, bool) {
	switch {
	case op.Op == vm.PUSH0:
		s.Push("0x0")
	case op.Op == vm.PUSH4:
		s.Push(hexutil.Encode(op.Operand))
	case pushWidth(op.Op) > 0:
		s.Push(literal(op.Operand))
	case op.Op >= vm.DUP1 && op.Op <= vm.DUP16:
		n := int(op.Op-vm.DUP1) + 1
		items := s.PopN(n)
		for i := n - 1; i >= 0; i-- {
			s.items = append(s.items, items[i])
		}
		s.items = append(s.items, items[n-1])
	case op.Op >= vm.SWAP1 && op.Op <= vm.SWAP16:
		n := int(op.Op-vm.SWAP1) + 1
		items := s.PopN(n + 1)
		items[0], items[n] = items[n], items[0]
		for i := n; i >= 0; i-- {
			s.items = append(s.items, items[i])
		}
	case op.Op == vm.POP:
		s.Pop()
	default:
		return "", false
	}
	return "", true
}

var binaryOps = map[vm.OpCode]string{
	vm.ADD: "+", vm.MUL: "*", vm.SUB: "-", vm.DIV: "/", vm.SDIV: "/s", vm.MOD: "%", vm.SMOD: "%s",
	vm.EXP: "**", vm.LT: "<", vm.GT: ">", vm.SLT: "<s", vm.SGT: ">s", vm.EQ: "==",
	vm.AND: "&", vm.OR: "|", vm.XOR: "^",
}

func recognizeArithmetic(s *Stack, op Opcode) (string, bool) {
	if sym, ok := binaryOps[op.Op]; ok {
		args := s.PopN(2)
		s.Push(fmt.Sprintf("(%s %s %s)", args[0], sym, args[1]))
		return "", true
	}
	switch op.Op {
	case vm.SHL, vm.SHR, vm.SAR:
		args := s.PopN(2)
		sym := map[vm.OpCode]string{vm.SHL: "<<", vm.SHR: ">>", vm.SAR: ">>s"}[op.Op]
		s.Push(fmt.Sprintf("(%s %s %s)", args[1], sym, args[0]))
	case vm.ISZERO:
		s.Push("!" + wrap(s.Pop()))
	case vm.NOT:
		s.Push("~" + wrap(s.Pop()))
	case vm.ADDMOD, vm.MULMOD, vm.SIGNEXTEND, vm.BYTE:
		args := s.PopN(op.Pops)
		s.Push(fmt.Sprintf("%s(%s)", strings.ToLower(op.Name), strings.Join(args, ", ")))
	default:
		return "", false
	}
	return "", true
}

var environment = map[vm.OpCode]string{
	vm.ADDRESS:        "address(this)",
	vm.ORIGIN:         "tx.origin",
	vm.CALLER:         "msg.sender",
	vm.CALLVALUE:      "msg.value",
	vm.CALLDATASIZE:   "msg.data.length",
	vm.CODESIZE:       "code.length",
	vm.GASPRICE:       "tx.gasprice",
	vm.RETURNDATASIZE: "returndata.length",
	vm.COINBASE:       "block.coinbase",
	vm.TIMESTAMP:      "block.timestamp",
	vm.NUMBER:         "block.number",
	vm.DIFFICULTY:     "block.prevrandao",
	vm.GASLIMIT:       "block.gaslimit",
	vm.CHAINID:        "block.chainid",
	vm.SELFBALANCE:    "address(this).balance",
	vm.BASEFEE:        "block.basefee",
	vm.BLOBBASEFEE:    "block.blobbasefee",
	vm.PC:             "pc",
	vm.MSIZE:          "msize",
	vm.GAS:            "gasleft()",
}

func recognizeEnvironment(s *Stack, op Opcode) (string, bool) {
	if expr, ok := environment[op.Op]; ok {
		s.Push(expr)
		return "", true
	}
	switch op.Op {
	case vm.CALLDATALOAD:
		s.Push("calldata[" + s.Pop() + "]")
	case vm.BALANCE:
		s.Push("balance(" + s.Pop() + ")")
	case vm.EXTCODESIZE:
		s.Push("extcodesize(" + s.Pop() + ")")
	case vm.EXTCODEHASH:
		s.Push("extcodehash(" + s.Pop() + ")")
	case vm.BLOCKHASH:
		s.Push("blockhash(" + s.Pop() + ")")
	case vm.BLOBHASH:
		s.Push("blobhash(" + s.Pop() + ")")
	case vm.KECCAK256:
		args := s.PopN(2)
		s.Push("keccak256(" + memRange(args[0], args[1]) + ")")
	default:
		return "", false
	}
	return "", true
}

func recognizeMemory(s *Stack, op Opcode) (string, bool) {
	switch op.Op {
	case vm.MLOAD:
		s.Push("memory[" + s.Pop() + "]")
	case vm.MSTORE:
		args := s.PopN(2)
		return fmt.Sprintf("memory[%s] = %s", args[0], args[1]), true
	case vm.MSTORE8:
		args := s.PopN(2)
		return fmt.Sprintf("memory8[%s] = %s", args[0], args[1]), true
	case vm.CALLDATACOPY, vm.CODECOPY, vm.RETURNDATACOPY, vm.MCOPY:
		args := s.PopN(3)
		source := map[vm.OpCode]string{
			vm.CALLDATACOPY:   "calldata",
			vm.CODECOPY:       "code",
			vm.RETURNDATACOPY: "returndata",
			vm.MCOPY:          "memory",
		}[op.Op]
		return fmt.Sprintf("%s = %s[%s:+%s]", memRange(args[0], args[2]), source, args[1], args[2]), true
	case vm.EXTCODECOPY:
		args := s.PopN(4)
		return fmt.Sprintf("%s = extcode(%s)[%s:+%s]", memRange(args[1], args[3]), args[0], args[2], args[3]), true
	default:
		return "", false
	}
	return "", true
}

func recognizeStorage(s *Stack, op Opcode) (string, bool) {
	switch op.Op {
	case vm.SLOAD:
		s.Push("storage[" + s.Pop() + "]")
	case vm.TLOAD:
		s.Push("transient[" + s.Pop() + "]")
	case vm.SSTORE:
		args := s.PopN(2)
		return fmt.Sprintf("storage[%s] = %s", args[0], args[1]), true
	case vm.TSTORE:
		args := s.PopN(2)
		return fmt.Sprintf("transient[%s] = %s", args[0], args[1]), true
	default:
		return "", false
	}
	return "", true
}

func recognizeCall(s *Stack, op Opcode) (string, bool) {
	var expr string
	switch op.Op {
	case vm.CALL, vm.CALLCODE:
		a := s.PopN(7)
		expr = fmt.Sprintf("%s(gas=%s, to=%s, value=%s, in=%s, out=%s)",
			strings.ToLower(op.Name), a[0], a[1], a[2], memRange(a[3], a[4]), memRange(a[5], a[6]))
	case vm.DELEGATECALL, vm.STATICCALL:
		a := s.PopN(6)
		expr = fmt.Sprintf("%s(gas=%s, to=%s, in=%s, out=%s)",
			strings.ToLower(op.Name), a[0], a[1], memRange(a[2], a[3]), memRange(a[4], a[5]))
	case vm.CREATE:
		a := s.PopN(3)
		expr = fmt.Sprintf("create(value=%s, code=%s)", a[0], memRange(a[1], a[2]))
	case vm.CREATE2:
		a := s.PopN(4)
		expr = fmt.Sprintf("create2(value=%s, code=%s, salt=%s)", a[0], memRange(a[1], a[2]), a[3])
	case vm.SELFDESTRUCT:
		return "selfdestruct(" + s.Pop() + ")", true
	default:
		return "", false
	}
	name := s.Temp()
	s.items = append(s.items, name)
	return name + " = " + expr, true
}

func recognizeLog(s *Stack, op Opcode) (string, bool) {
	if op.Op < vm.LOG0 || op.Op > vm.LOG4 {
		return "", false
	}
	n := int(op.Op - vm.LOG0)
	args := s.PopN(n + 2)
	parts := append([]string{memRange(args[0], args[1])}, args[2:]...)
	return fmt.Sprintf("emit log%d(%s)", n, strings.Join(parts, ", ")), true
}

func recognizeControlFlow(s *Stack, op Opcode) (string, bool) {
	switch op.Op {
	case vm.JUMPDEST:
		s.Reset()
		return fmt.Sprintf("label_0x%04x:", op.PC), true
	case vm.JUMP:
		return "goto " + s.Pop(), true
	case vm.JUMPI:
		args := s.PopN(2)
		return fmt.Sprintf("if %s goto %s", wrap(args[1]), args[0]), true
	case vm.STOP:
		return "stop", true
	case vm.RETURN:
		args := s.PopN(2)
		return "return " + memRange(args[0], args[1]), true
	case vm.REVERT:
		args := s.PopN(2)
		return "revert " + memRange(args[0], args[1]), true
	case vm.INVALID:
		return "invalid", true
	}
	return "", false
}

func memRange(offset, size string) string {
	return fmt.Sprintf("memory[%s:+%s]", offset, size)
}

func wrap(expr string) string {
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		return expr
	}
	return "(" + expr + ")"
}
