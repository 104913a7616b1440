package basic

import "strings"

// lexer turns a CharSource into a single preprocessed byte buffer and
// a cursor over it, with the small set of primitives the parser's
// recursive-descent grammar needs: keycon (whole-word keyword match),
// strcon (literal prefix match), chrcon (single character match) and
// namecon (identifier scan).
//
// The source material's ring buffer of MAX_NAME+2 characters exists
// to guarantee one character of lookbehind on a host with no
// general-purpose heap. A Go slice already gives indexed lookbehind
// for free, so the ring is replaced here by draining the CharSource
// into a preprocessed []byte once up front (tabs folded to space, CR
// discarded, a synthetic leading newline prepended) - same guarantee,
// no reimplemented circular buffer.
type lexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

// keywords that namecon refuses to treat as an identifier.
var keywords = map[string]bool{
	"dim": true, "print": true, "if": true, "then": true, "elseif": true,
	"else": true, "end": true, "do": true, "while": true, "until": true,
	"loop": true, "for": true, "to": true, "step": true, "next": true,
	"sub": true, "exit": true, "return": true, "goto": true, "rem": true,
	"option": true, "explicit": true, "on": true, "off": true, "let": true,
	"true": true, "false": true, "not": true, "and": true, "or": true, "xor": true,
	"mod": true, "mult": true, "div": true, "idiv": true,
}

func newLexer(src CharSource) *lexer {
	var raw []byte
	for {
		b, ok := src.NextChar()
		if !ok {
			break
		}
		if b == '\t' {
			b = ' '
		}
		if b == '\r' {
			continue
		}
		raw = append(raw, b)
	}

	// Strip comments ('...) to end of line, respecting string literal
	// boundaries so a quote mark inside a comment or an apostrophe
	// inside a string doesn't confuse the other.
	stripped := make([]byte, 0, len(raw)+1)
	stripped = append(stripped, '\n') // synthetic leading newline
	inString := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '"' {
			inString = !inString
			stripped = append(stripped, c)
			continue
		}
		if c == '\'' && !inString {
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
			if i < len(raw) {
				stripped = append(stripped, '\n')
			}
			continue
		}
		stripped = append(stripped, c)
	}

	return &lexer{src: stripped, pos: 1, line: 1, col: 1}
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peekAt(offset int) byte {
	i := l.pos + offset
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *lexer) prev() byte { return l.peekAt(-1) }

func (l *lexer) cur() byte { return l.peekAt(0) }

func (l *lexer) position() Position { return Position{Line: l.line, Col: l.col} }

func (l *lexer) advance() {
	if l.eof() {
		return
	}
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// skipSpaces consumes horizontal whitespace only, never newlines -
// the grammar treats newlines as statement terminators.
func (l *lexer) skipSpaces() {
	for !l.eof() && l.cur() == ' ' {
		l.advance()
	}
}

// skipBlankLines consumes runs of whitespace-only lines, used
// wherever the grammar allows "blank" between statements.
func (l *lexer) skipBlankLines() {
	for {
		save := l.pos
		l.skipSpaces()
		if !l.eof() && l.cur() == '\n' {
			l.advance()
			continue
		}
		l.pos = save
		return
	}
}

func isWordChar(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// keycon matches a whole keyword case-insensitively, bounded by word
// boundaries on both sides, and consumes it (plus any trailing
// spaces) on success.
func (l *lexer) keycon(kw string) bool {
	if isWordChar(l.prev()) {
		return false
	}
	if !l.matchesFold(kw) {
		return false
	}
	if isWordChar(l.peekAt(len(kw))) {
		return false
	}
	for range kw {
		l.advance()
	}
	l.skipSpaces()
	return true
}

// strcon matches a literal prefix case-insensitively (no word
// boundary requirement - used for punctuation-adjacent tokens like
// "<>" or "<=").
func (l *lexer) strcon(s string) bool {
	if !l.matchesFold(s) {
		return false
	}
	for range s {
		l.advance()
	}
	l.skipSpaces()
	return true
}

func (l *lexer) matchesFold(s string) bool {
	for i := 0; i < len(s); i++ {
		c := l.peekAt(i)
		if c == 0 {
			return false
		}
		if toLower(c) != toLower(s[i]) {
			return false
		}
	}
	return true
}

// chrcon matches a single character exactly and consumes it (plus any
// trailing spaces) on success.
func (l *lexer) chrcon(c byte) bool {
	if l.cur() != c {
		return false
	}
	l.advance()
	l.skipSpaces()
	return true
}

// namecon scans an identifier: a letter, '$' or '_' followed by
// alnum/'_', bounded by MaxName, rejecting reserved keywords. Returns
// ("", false) if the current position isn't a valid identifier start
// or names a keyword.
func (l *lexer) namecon() (string, bool) {
	c := l.cur()
	if !(c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')) {
		return "", false
	}

	var sb strings.Builder
	for {
		c := l.cur()
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			if sb.Len() >= MaxName {
				return "", false
			}
			sb.WriteByte(c)
			l.advance()
			continue
		}
		if sb.Len() == 0 && c == '$' {
			sb.WriteByte(c)
			l.advance()
			continue
		}
		break
	}

	name := sb.String()
	if keywords[toLowerString(name)] {
		return "", false
	}
	l.skipSpaces()
	return name, true
}

// atLineEnd reports whether the cursor sits on a newline or EOF -
// the grammar's NL terminal.
func (l *lexer) atLineEnd() bool {
	return l.eof() || l.cur() == '\n'
}

// expectNL consumes a single NL (newline or EOF), skipping any run of
// further blank lines after it.
func (l *lexer) expectNL() bool {
	if l.eof() {
		return true
	}
	if l.cur() != '\n' {
		return false
	}
	l.advance()
	l.skipBlankLines()
	return true
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func toLowerString(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[i] = toLower(s[i])
	}
	return string(b)
}
