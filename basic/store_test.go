package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringPoolDedupesViaTailOverlap(t *testing.T) {
	pool := NewStringPool(64)

	off1, err := pool.Intern([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, off1)
	assert.Equal(t, 5, pool.Len())

	// "lo world" shares its leading "lo" with the tail of "hello"
	// already in the pool, so only " world" needs to be appended.
	off2, err := pool.Intern([]byte("lo world"))
	require.NoError(t, err)
	assert.Equal(t, 3, off2) // "lo world" starts at the "lo" inside "hello"
	assert.Equal(t, 11, pool.Len())

	b, err := pool.Bytes(off2, len("lo world"))
	require.NoError(t, err)
	assert.Equal(t, "lo world", string(b))
}

func TestStringPoolExhaustion(t *testing.T) {
	pool := NewStringPool(4)
	_, err := pool.Intern([]byte("abcd"))
	require.NoError(t, err)
	_, err = pool.Intern([]byte("xyz"))
	assert.ErrorIs(t, err, ErrStringMemExhausted)
}

func TestStringTooLongForEmptyPool(t *testing.T) {
	pool := NewStringPool(2)
	_, err := pool.Intern([]byte("abc"))
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestCodeStoreWalkVisitsVariableWidthInstructions(t *testing.T) {
	code := NewCodeStore(64)
	_, err := code.Append(Instr{Op: OpNop})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpPop, Param1: 2})
	require.NoError(t, err)
	_, err = code.Append(Instr{Op: OpLetGlobal, Param1: 3, Param2: 0})
	require.NoError(t, err)

	var ops []Opcode
	err = code.Walk(func(_ int, instr Instr) bool {
		ops = append(ops, instr.Op)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []Opcode{OpNop, OpPop, OpLetGlobal}, ops)
}
