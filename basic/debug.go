package basic

import (
	"fmt"
	"io"
)

// Disassemble writes one line per instruction in code to w, in the
// "offset: mnemonic args" form used by the demo CLI's -debug flag.
func Disassemble(w io.Writer, code *CodeStore) error {
	return code.Walk(func(offset int, instr Instr) bool {
		fmt.Fprintf(w, "%5d: %s\n", offset, formatInstr(instr))
		return true
	})
}

// DumpState writes a snapshot of the interpreter's pc, fp and
// evaluation stack to w, in the same spirit as a register/stack dump
// on a debug console.
func (vm *Interpreter) DumpState(w io.Writer) {
	fmt.Fprintf(w, "pc=%d fp=%d sp=%d\n", vm.pc, vm.fp, vm.sp)
	for i := vm.sp - 1; i >= 0; i-- {
		c := vm.stack[i]
		fmt.Fprintf(w, "  [%3d] %s\n", i, formatInstr(c))
	}
}
