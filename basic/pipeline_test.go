package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkResolvesForwardGoto(t *testing.T) {
	code := NewCodeStore(64)

	gotoOff, err := code.Append(Instr{Op: OpLnkGoto, Param1: 0})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpPop, Param1: 0})
	require.NoError(t, err)
	labelOff := code.Len()
	_, err = code.Append(Instr{Op: OpEnd})
	require.NoError(t, err)

	info := &LinkInfo{Labels: []labelSym{{dst: labelOff}}}
	require.NoError(t, Link(code, info))

	instr, _, err := code.Decode(gotoOff)
	require.NoError(t, err)
	assert.Equal(t, OpGoto, instr.Op)
	assert.Equal(t, uint16(labelOff), instr.Param1)
}

func TestLinkFailsOnUnresolvedLabel(t *testing.T) {
	code := NewCodeStore(64)
	_, err := code.Append(Instr{Op: OpLnkGoto, Param1: 0})
	require.NoError(t, err)

	info := &LinkInfo{Labels: []labelSym{{dst: -1}}}
	err = Link(code, info)
	require.Error(t, err)
	assert.Equal(t, KindMissingLabel, KindOf(err))
}

func TestLinkRejectsLabelIntoInstructionPayload(t *testing.T) {
	code := NewCodeStore(64)
	_, err := code.Append(Instr{Op: OpLnkGoto, Param1: 0})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpInteger, Param1: 0, Param2: 42})
	require.NoError(t, err)

	// Offset 4 sits inside the OpInteger instruction's payload, never a
	// decoded instruction boundary.
	info := &LinkInfo{Labels: []labelSym{{dst: 4}}}
	err = Link(code, info)
	require.Error(t, err)
	assert.Equal(t, KindInvalidLabel, KindOf(err))
}

func TestLinkRejectsArityMismatch(t *testing.T) {
	code := NewCodeStore(64)
	info := &LinkInfo{
		Subs:    []subSym{{entry: 0, argc: 2}},
		Pending: []pendingCall{{subIdx: 0, argc: 1}},
	}
	err := Link(code, info)
	require.Error(t, err)
	assert.Equal(t, KindArgCountMismatch, KindOf(err))
}

func TestOptimizeCollapsesGotoChains(t *testing.T) {
	code := NewCodeStore(64)
	jmp, err := code.Append(Instr{Op: OpGoto, Param1: 0}) // patched below
	require.NoError(t, err)
	mid, err := code.Append(Instr{Op: OpGoto, Param1: 0}) // patched below
	require.NoError(t, err)
	final := code.Len()
	_, err = code.Append(Instr{Op: OpEnd})
	require.NoError(t, err)

	require.NoError(t, code.Patch(jmp, Instr{Op: OpGoto, Param1: uint16(mid)}))
	require.NoError(t, code.Patch(mid, Instr{Op: OpGoto, Param1: uint16(final)}))

	require.NoError(t, Optimize(code, false))

	instr, _, err := code.Decode(jmp)
	require.NoError(t, err)
	assert.Equal(t, uint16(final), instr.Param1, "a goto-to-a-goto should collapse straight to the final target")
}

func TestOptimizeFoldsConstantIntExpression(t *testing.T) {
	code := NewCodeStore(64)
	_, err := code.Append(Instr{Op: OpInteger, Param1: 0, Param2: 2})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpInteger, Param1: 0, Param2: 3})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpPlus})
	require.NoError(t, err)

	require.NoError(t, Optimize(code, true))

	var ops []Opcode
	var vals []int32
	err = code.Walk(func(_ int, instr Instr) bool {
		if instr.Op != OpNop {
			ops = append(ops, instr.Op)
			if instr.Op == OpInteger {
				vals = append(vals, int32(instr.Imm32()))
			}
		}
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []Opcode{OpInteger}, ops)
	assert.Equal(t, []int32{5}, vals)
}

func TestOptimizeLeavesDivisionUnfoldedEvenWithConstants(t *testing.T) {
	code := NewCodeStore(64)
	_, err := code.Append(Instr{Op: OpInteger, Param1: 0, Param2: 6})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpInteger, Param1: 0, Param2: 2})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpDiv})
	require.NoError(t, err)

	require.NoError(t, Optimize(code, true))

	var ops []Opcode
	err = code.Walk(func(_ int, instr Instr) bool {
		ops = append(ops, instr.Op)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []Opcode{OpInteger, OpInteger, OpDiv}, ops)
}
