package bytecode

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"
)

type stackEffect struct {
	pops, pushes int
	defined      bool
}

// effects holds the stack effect of every defined instruction, keyed by byte.
var effects [256]stackEffect

func init() {
	set := func(pops, pushes int, ops ...vm.OpCode) {
		for _, op := range ops {
			effects[op] = stackEffect{pops: pops, pushes: pushes, defined: true}
		}
	}

	set(0, 0, vm.STOP, vm.JUMPDEST, vm.INVALID)
	set(2, 1, vm.ADD, vm.MUL, vm.SUB, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.EXP, vm.SIGNEXTEND)
	set(3, 1, vm.ADDMOD, vm.MULMOD)
	set(2, 1, vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ, vm.AND, vm.OR, vm.XOR, vm.BYTE, vm.SHL, vm.SHR, vm.SAR)
	set(1, 1, vm.ISZERO, vm.NOT)
	set(2, 1, vm.KECCAK256)

	set(0, 1, vm.ADDRESS, vm.ORIGIN, vm.CALLER, vm.CALLVALUE, vm.CALLDATASIZE, vm.CODESIZE,
		vm.GASPRICE, vm.RETURNDATASIZE)
	set(1, 1, vm.BALANCE, vm.CALLDATALOAD, vm.EXTCODESIZE, vm.EXTCODEHASH)
	set(3, 0, vm.CALLDATACOPY, vm.CODECOPY, vm.RETURNDATACOPY)
	set(4, 0, vm.EXTCODECOPY)

	set(1, 1, vm.BLOCKHASH, vm.BLOBHASH)
	set(0, 1, vm.COINBASE, vm.TIMESTAMP, vm.NUMBER, vm.DIFFICULTY, vm.GASLIMIT, vm.CHAINID,
		vm.SELFBALANCE, vm.BASEFEE, vm.BLOBBASEFEE)

	set(1, 0, vm.POP, vm.JUMP)
	set(1, 1, vm.MLOAD, vm.SLOAD, vm.TLOAD)
	set(2, 0, vm.MSTORE, vm.MSTORE8, vm.SSTORE, vm.TSTORE, vm.JUMPI)
	set(3, 0, vm.MCOPY)
	set(0, 1, vm.PC, vm.MSIZE, vm.GAS, vm.PUSH0)

	for op := vm.PUSH1; op <= vm.PUSH32; op++ {
		set(0, 1, op)
	}
	for i := 0; i < 16; i++ {
		set(i+1, i+2, vm.DUP1+vm.OpCode(i))
		set(i+2, i+2, vm.SWAP1+vm.OpCode(i))
	}
	for i := 0; i <= 4; i++ {
		set(i+2, 0, vm.LOG0+vm.OpCode(i))
	}

	set(3, 1, vm.CREATE)
	set(4, 1, vm.CREATE2)
	set(7, 1, vm.CALL, vm.CALLCODE)
	set(6, 1, vm.DELEGATECALL, vm.STATICCALL)
	set(2, 0, vm.RETURN, vm.REVERT)
	set(1, 0, vm.SELFDESTRUCT)
}

// pushWidth returns the number of immediate bytes following op.
func pushWidth(op vm.OpCode) int {
	if op >= vm.PUSH1 && op <= vm.PUSH32 {
		return int(op-vm.PUSH1) + 1
	}
	return 0
}

// mnemonic returns the instruction name and whether the byte is a defined
// instruction.
func mnemonic(op vm.OpCode) (string, bool) {
	if !effects[op].defined {
		return invalidName(op), false
	}
	name := op.String()
	if strings.HasPrefix(name, "opcode ") {
		return invalidName(op), false
	}
	return name, true
}

func invalidName(op vm.OpCode) string {
	return fmt.Sprintf("INVALID(0x%02x)", byte(op))
}

func isHalting(op vm.OpCode) bool {
	switch op {
	case vm.STOP, vm.RETURN, vm.REVERT, vm.INVALID, vm.SELFDESTRUCT:
		return true
	}
	return false
}
