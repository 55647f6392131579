package bytecode

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Opcode is a single disassembled instruction.
type Opcode struct {
	PC      int
	Op      vm.OpCode
	Name    string
	Operand []byte
	// Size is the number of code bytes consumed, including the opcode byte.
	Size   int
	Pops   int
	Pushes int
	// Truncated marks a push whose immediate runs past the end of the code.
	// The missing bytes read as zero.
	Truncated bool
	// Invalid marks a byte with no defined instruction.
	Invalid bool
}

// OperandInt returns the push immediate as an unsigned integer.
func (o Opcode) OperandInt() *big.Int {
	return new(big.Int).SetBytes(o.Operand)
}

func (o Opcode) String() string {
	s := fmt.Sprintf("0x%04x %s", o.PC, o.Name)
	if len(o.Operand) > 0 {
		s += " " + hexutil.Encode(o.Operand)
	}
	if o.Truncated {
		s += " (truncated)"
	}
	return s
}

// Iterator walks bytecode lazily, one instruction at a time.
type Iterator struct {
	code []byte
	pc   int
	cur  Opcode
}

// Disassemble returns an iterator over code. Disassembly never fails: every
// byte belongs to exactly one instruction.
func Disassemble(code []byte) *Iterator {
	return &Iterator{code: code}
}

// Next advances to the next instruction and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.pc >= len(it.code) {
		return false
	}
	it.cur = decodeAt(it.code, it.pc)
	it.pc += it.cur.Size
	return true
}

// Opcode returns the current instruction.
func (it *Iterator) Opcode() Opcode {
	return it.cur
}

// Reset rewinds the iterator to the start of the code.
func (it *Iterator) Reset() {
	it.pc = 0
	it.cur = Opcode{}
}

// Instructions disassembles the whole of code.
func Instructions(code []byte) []Opcode {
	var out []Opcode
	it := Disassemble(code)
	for it.Next() {
		out = append(out, it.Opcode())
	}
	return out
}

func decodeAt(code []byte, pc int) Opcode {
	op := vm.OpCode(code[pc])
	name, defined := mnemonic(op)
	ins := Opcode{
		PC:      pc,
		Op:      op,
		Name:    name,
		Size:    1,
		Invalid: !defined,
	}
	if !defined {
		return ins
	}

	effect := effects[op]
	ins.Pops, ins.Pushes = effect.pops, effect.pushes

	if width := pushWidth(op); width > 0 {
		ins.Operand = make([]byte, width)
		available := len(code) - pc - 1
		if available < width {
			ins.Truncated = true
		} else {
			available = width
		}
		copy(ins.Operand, code[pc+1:pc+1+available])
		ins.Size += available
	}
	return ins
}
