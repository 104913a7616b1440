package basic

// Optimize runs the post-link peephole passes over code: GOTO-chain
// collapsing always, constant folding only if foldConstants is true.
// Both passes rewrite in place and never change the store's total
// length or any offset outside the span they touch, so they're safe
// to run after Link has resolved every jump target.
func Optimize(code *CodeStore, foldConstants bool) error {
	if err := collapseGotoChains(code); err != nil {
		return err
	}
	if foldConstants {
		if err := foldConstantExprs(code); err != nil {
			return err
		}
	}
	return nil
}

// collapseGotoChains rewrites every GOTO/IF/GOSUB whose target is
// itself an unconditional GOTO to jump straight to that GOTO's
// eventual target, so the interpreter never walks a chain of jumps at
// run time. Cycles (a GOTO that chains back to itself) are left
// alone - they're either dead code or an infinite loop either way.
func collapseGotoChains(code *CodeStore) error {
	targets := map[int]int{}
	err := code.Walk(func(offset int, instr Instr) bool {
		if instr.Op == OpGoto {
			targets[offset] = int(instr.Param1)
		}
		return true
	})
	if err != nil {
		return err
	}

	resolve := func(dst int) int {
		seen := map[int]bool{}
		for {
			next, ok := targets[dst]
			if !ok || seen[dst] {
				return dst
			}
			seen[dst] = true
			dst = next
		}
	}

	var patchErr error
	err = code.Walk(func(offset int, instr Instr) bool {
		switch instr.Op {
		case OpGoto, OpIf, OpGosub:
			final := resolve(int(instr.Param1))
			if final != int(instr.Param1) {
				instr.Param1 = uint16(final)
				patchErr = code.Patch(offset, instr)
			}
		}
		return patchErr == nil
	})
	if err != nil {
		return err
	}
	return patchErr
}

// foldConstantExprs collapses an adjacent literal, literal, binary-op
// triple into a single literal when both operands are integers and
// the operator's result is defined without a host round-trip (no
// DIV, which the language always evaluates as float - folding it here
// would have to duplicate the interpreter's int-to-float promotion
// rule, a divergence risk not worth the code size win).
func foldConstantExprs(code *CodeStore) error {
	type lit struct {
		offset int
		value  int32
	}

	var pending []lit
	var foldErr error

	err := code.Walk(func(offset int, instr Instr) bool {
		switch instr.Op {
		case OpZero:
			pending = append(pending, lit{offset, 0})
			return true
		case OpInteger:
			pending = append(pending, lit{offset, int32(instr.Imm32())})
			return true
		}

		if len(pending) >= 2 && isFoldableIntOp(instr.Op) {
			b := pending[len(pending)-1]
			a := pending[len(pending)-2]
			result, ok := foldIntOp(instr.Op, a.value, b.value)
			if ok {
				start := a.offset
				end := offset + instr.Op.Width()
				replacement := intLiteralInstr(result)
				pad := (end - start) - replacement.Op.Width()
				instrs := []Instr{replacement}
				for i := 0; i < pad; i++ {
					instrs = append(instrs, Instr{Op: OpNop})
				}
				if err := code.Rewrite(start, end, instrs); err != nil {
					foldErr = err
					return false
				}
			}
		}
		pending = nil
		return true
	})
	if err != nil {
		return err
	}
	return foldErr
}

func isFoldableIntOp(op Opcode) bool {
	switch op {
	case OpPlus, OpMinus, OpMult, OpIdiv, OpMod:
		return true
	default:
		return false
	}
}

func foldIntOp(op Opcode, a, b int32) (int32, bool) {
	switch op {
	case OpPlus:
		return a + b, true
	case OpMinus:
		return a - b, true
	case OpMult:
		return a * b, true
	case OpIdiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case OpMod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	}
	return 0, false
}

func intLiteralInstr(v int32) Instr {
	if v == 0 {
		return Instr{Op: OpZero}
	}
	u := uint32(v)
	return Instr{Op: OpInteger, Param1: uint16(u >> 16), Param2: uint16(u)}
}
