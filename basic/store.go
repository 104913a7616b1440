package basic

import (
	"fmt"
	"math"
)

// Size limits for the fixed-size memory regions the parser, linker
// and interpreter all share. An embedding can override the code and
// string memory sizes at construction time (see NewCodeStore/
// NewStringPool, or Options) to fit a particular host's memory
// budget; the other limits are fixed constants.
const (
	DefaultCodeMem   = 16 * 1024
	DefaultStringMem = 4 * 1024

	// MaxRegNum and MaxSvcNum bound the host-owned register and
	// service tables.
	MaxRegNum = 64
	MaxSvcNum = 64

	// MaxName bounds identifier length in the lexer.
	MaxName = 32

	// StackSize is the fixed length of the interpreter's evaluation
	// stack, in cells.
	StackSize = 256
)

// HostEOL is the line terminator PRINT appends when a statement
// doesn't end in a trailing ";". It's an embedding constant, not a
// language constant - a host emitting to a terminal over UART wants
// "\r\n", one logging to a single-line display wants "".
var HostEOL = "\n"

// CodeStore is a byte-indexed, append-only-then-mutable region holding
// the emitted instruction stream. It is append-only while the parser
// runs, in-place mutable (at existing offsets, preserving opcode
// width) while the linker and optimizer run, and read-only during
// execution.
//
// INVARIANT: walking the store from offset 0 using Opcode.Width
// enumerates exactly the instructions Append produced, in order.
type CodeStore struct {
	buf []byte
	len int
}

// NewCodeStore allocates a code store with the given byte capacity.
func NewCodeStore(capacity int) *CodeStore {
	return &CodeStore{buf: make([]byte, capacity)}
}

// Len returns the next free append offset, i.e. the byte length of
// the program emitted so far.
func (c *CodeStore) Len() int { return c.len }

// Cap returns the store's fixed byte capacity.
func (c *CodeStore) Cap() int { return len(c.buf) }

// Append encodes instr at the current end of the store and returns the
// offset it was written at. Returns ErrCodeMemExhausted if there is
// not enough room.
func (c *CodeStore) Append(instr Instr) (int, error) {
	width := instr.Op.Width()
	if c.len+width > len(c.buf) {
		return 0, ErrCodeMemExhausted
	}
	offset := c.len
	c.encodeAt(offset, instr)
	c.len += width
	return offset, nil
}

// Patch overwrites the instruction at offset in place. The caller must
// ensure the new instruction's opcode has the same width as whatever
// is already there - the linker and optimizer both guarantee this.
func (c *CodeStore) Patch(offset int, instr Instr) error {
	if offset < 0 || offset >= c.len {
		return ErrInvalidAddress
	}
	c.encodeAt(offset, instr)
	return nil
}

// Rewrite replaces the byte range [start, end) with instrs, whose
// total encoded width must equal end-start exactly - the optimizer's
// constant-folding pass uses this to collapse a literal/literal/op
// triple into one literal padded out with NOP, without disturbing any
// jump target outside the range.
func (c *CodeStore) Rewrite(start, end int, instrs []Instr) error {
	if start < 0 || end > c.len || start > end {
		return ErrInvalidAddress
	}
	width := 0
	for _, in := range instrs {
		width += in.Op.Width()
	}
	if width != end-start {
		return ErrInvalidAddress
	}
	offset := start
	for _, in := range instrs {
		c.encodeAt(offset, in)
		offset += in.Op.Width()
	}
	return nil
}

func (c *CodeStore) encodeAt(offset int, instr Instr) {
	buf := c.buf[offset:]
	buf[0] = byte(instr.Op)
	switch numParams[instr.Op] {
	case 1:
		putUint16(buf[1:], instr.Param1)
	case 2:
		putUint16(buf[1:], instr.Param1)
		putUint16(buf[3:], instr.Param2)
	}
}

// Decode reads the instruction at offset and returns it along with the
// offset immediately following it (for chaining a walk).
func (c *CodeStore) Decode(offset int) (Instr, int, error) {
	if offset < 0 || offset >= c.len {
		return Instr{}, 0, ErrInvalidAddress
	}
	op := Opcode(c.buf[offset])
	width := op.Width()
	if offset+width > c.len {
		return Instr{}, 0, ErrInvalidAddress
	}
	instr := Instr{Op: op}
	switch numParams[op] {
	case 1:
		instr.Param1 = getUint16(c.buf[offset+1:])
	case 2:
		instr.Param1 = getUint16(c.buf[offset+1:])
		instr.Param2 = getUint16(c.buf[offset+3:])
	}
	return instr, offset + width, nil
}

// Walk calls fn for every instruction in the store in order, stopping
// early if fn returns false. It is the basis for the linker, the
// optimizer and the disassembler - none of them decode width any
// other way.
func (c *CodeStore) Walk(fn func(offset int, instr Instr) bool) error {
	offset := 0
	for offset < c.len {
		instr, next, err := c.Decode(offset)
		if err != nil {
			return err
		}
		if !fn(offset, instr) {
			return nil
		}
		offset = next
	}
	return nil
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// StringPool is a deduplicating byte arena. Interning a string that
// already occurs anywhere in the pool returns its first occurrence, so
// equal content always shares one offset. Otherwise it scans existing
// content for the longest prefix of the new string that matches a tail
// of the pool, and appends only the remainder - so interning "ab" then
// "bc" may produce a pool containing just "abc", with "bc" found at
// offset 1.
//
// INVARIANT: every (start,len) pair ever returned by Intern names a
// byte range fully contained in the pool.
type StringPool struct {
	buf []byte
	len int
}

// NewStringPool allocates a string pool with the given byte capacity.
func NewStringPool(capacity int) *StringPool {
	return &StringPool{buf: make([]byte, capacity)}
}

// Len returns the number of bytes currently used in the pool.
func (s *StringPool) Len() int { return s.len }

// Intern deduplicates and inserts bytes, returning the offset at which
// they can be found. Returns ErrStringMemExhausted if the pool is
// full, or ErrStringTooLong if bytes alone wouldn't fit even in an
// empty pool.
func (s *StringPool) Intern(bytes []byte) (int, error) {
	if len(bytes) > len(s.buf) {
		return 0, ErrStringTooLong
	}
	for i := 0; i+len(bytes) <= s.len; i++ {
		if bytesEqual(s.buf[i:i+len(bytes)], bytes) {
			return i, nil
		}
	}

	overlap := s.longestTailOverlap(bytes)
	remainder := bytes[overlap:]
	if s.len+len(remainder) > len(s.buf) {
		return 0, ErrStringMemExhausted
	}

	start := s.len - overlap
	copy(s.buf[s.len:], remainder)
	s.len += len(remainder)
	return start, nil
}

// longestTailOverlap returns the length of the longest prefix of s
// that matches some suffix of the pool's current content.
func (p *StringPool) longestTailOverlap(s []byte) int {
	max := len(s)
	if max > p.len {
		max = p.len
	}
	for n := max; n > 0; n-- {
		if bytesEqual(p.buf[p.len-n:p.len], s[:n]) {
			return n
		}
	}
	return 0
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Bytes returns the byte range [start, start+length) from the pool.
func (s *StringPool) Bytes(start, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length > s.len {
		return nil, ErrInvalidAddress
	}
	return s.buf[start : start+length], nil
}

// formatInstr renders an instruction's mnemonic and parameters, used
// by the debug printer and disassembler.
func formatInstr(instr Instr) string {
	switch numParams[instr.Op] {
	case 0:
		return instr.Op.String()
	case 1:
		return fmt.Sprintf("%s %d", instr.Op, int16(instr.Param1))
	default:
		switch instr.Op {
		case OpInteger:
			return fmt.Sprintf("%s %d", instr.Op, int32(instr.Imm32()))
		case OpFloat:
			return fmt.Sprintf("%s %g", instr.Op, math.Float32frombits(instr.Imm32()))
		default:
			return fmt.Sprintf("%s %d %d", instr.Op, instr.Param1, instr.Param2)
		}
	}
}
