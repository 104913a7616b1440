package basic

// Link resolves every LNK_GOTO/LNK_GOSUB placeholder the parser left
// behind into a real GOTO/GOSUB, now that every label and SUB in the
// program has been seen, and validates the call sites collected in
// info.Pending against the SUBs they target.
//
// It walks the code store once, rewriting LNK_* instructions in
// place - same width, same opcode family, only the encoded target
// changes - so no offset downstream of the rewritten instruction ever
// moves.
func Link(code *CodeStore, info *LinkInfo) error {
	boundaries := map[int]bool{}
	if err := code.Walk(func(offset int, instr Instr) bool {
		boundaries[offset] = true
		return true
	}); err != nil {
		return err
	}
	boundaries[code.Len()] = true // one-past-the-end is a valid fallthrough target

	var resolveErr error
	err := code.Walk(func(offset int, instr Instr) bool {
		switch instr.Op {
		case OpLnkGoto:
			label := info.Labels[instr.Param1]
			if label.dst < 0 {
				resolveErr = newError(KindMissingLabel)
				return false
			}
			if !boundaries[label.dst] {
				resolveErr = newError(KindInvalidLabel)
				return false
			}
			resolveErr = code.Patch(offset, Instr{Op: OpGoto, Param1: uint16(label.dst)})
		case OpLnkGosub:
			sub := info.Subs[instr.Param1]
			if sub.entry < 0 {
				resolveErr = newError(KindSubNotFound)
				return false
			}
			if !boundaries[sub.entry] {
				resolveErr = newError(KindInvalidLabel)
				return false
			}
			resolveErr = code.Patch(offset, Instr{Op: OpGosub, Param1: uint16(sub.entry)})
		}
		return resolveErr == nil
	})
	if err != nil {
		return err
	}
	if resolveErr != nil {
		return resolveErr
	}

	for _, call := range info.Pending {
		sub := info.Subs[call.subIdx]
		if sub.entry < 0 {
			return newErrorAt(KindSubNotFound, call.pos)
		}
		if sub.argc != call.argc {
			return newErrorAt(KindArgCountMismatch, call.pos)
		}
	}
	return nil
}
