package basic

import (
	"math"
	"strconv"
	"strings"
)

// varSym is a parse-time symbol table entry for one BASIC variable.
// Index is an absolute stack position for a global (level == 0) or an
// offset relative to the enclosing sub's frame pointer for a local
// (negative for parameters, non-negative for DIMed locals).
type varSym struct {
	name  string
	level int
	index int
	dim   int // 0 scalar, >0 inline array, <0 by-reference array parameter
}

// labelSym is a GOTO target. Name is empty for the synthetic labels
// EXIT DO/EXIT FOR allocate lazily.
type labelSym struct {
	name string
	dst  int // -1 while unresolved
}

// subSym is a GOSUB target. Argc is -1 until the SUB's parameter list
// has actually been parsed.
type subSym struct {
	name  string
	entry int // -1 while unresolved
	argc  int // -1 while unknown
}

// pendingCall records a call site's observed argument count so the
// linker can validate it once every SUB has been parsed - the one
// extra pass a single-pass parser needs to check arity against a SUB
// that's defined later in the source.
type pendingCall struct {
	subIdx int
	argc   int
	pos    Position
}

type blockKind int

const (
	blockIf blockKind = iota
	blockDo
	blockFor
	blockSub
)

// blockFrame tracks one nested construct for scope retirement and for
// EXIT DO/EXIT FOR/EXIT SUB targeting.
type blockFrame struct {
	kind       blockKind
	level      int
	localWidth int
	entrySP    int // p.sp when this block was pushed, for EXIT's pop count
	exitLabel  int // -1 until EXIT DO/EXIT FOR allocates it; unused for blockSub
}

// LinkInfo is everything the parser hands the linker: the resolved-or-not
// label and sub tables, and the call sites awaiting an arity check.
type LinkInfo struct {
	Labels  []labelSym
	Subs    []subSym
	Pending []pendingCall
	// TopFrameSize is the compile-time stack depth at CMD_END -
	// testable against the top-level locals count per the universal
	// invariants.
	TopFrameSize int
}

// Parser lowers BASIC source to bytecode in a single pass, emitting
// directly into a CodeStore and StringPool while performing scoping,
// forward-reference bookkeeping and stack-depth tracking.
type Parser struct {
	lex  *lexer
	code *CodeStore
	strs *StringPool
	regs *RegisterTable
	svcs *ServiceTable

	vars    []varSym
	labels  []labelSym
	subs    []subSym
	pending []pendingCall

	level  int
	sp     int // current frame-relative compile-time stack depth
	blocks []blockFrame

	optionExplicit bool
	inSub          bool
	curSubArgc     int
}

// NewParser constructs a parser over src, emitting into code and strs
// and resolving `$name`/name(...) references against regs and svcs.
func NewParser(src CharSource, code *CodeStore, strs *StringPool, regs *RegisterTable, svcs *ServiceTable) *Parser {
	return &Parser{
		lex:  newLexer(src),
		code: code,
		strs: strs,
		regs: regs,
		svcs: svcs,
	}
}

// Parse consumes the entire program, emitting bytecode, and returns
// the tables the linker needs. On error, the returned Position marks
// the cursor at the offending character.
func (p *Parser) Parse() (*LinkInfo, error) {
	p.lex.skipBlankLines()
	for !p.lex.eof() {
		if err := p.parseStatement(); err != nil {
			return nil, err
		}
		p.lex.skipBlankLines()
	}
	if _, err := p.emit(Instr{Op: OpEnd}); err != nil {
		return nil, err
	}
	return &LinkInfo{
		Labels:       p.labels,
		Subs:         p.subs,
		Pending:      p.pending,
		TopFrameSize: p.sp,
	}, nil
}

// ---- emission helpers -----------------------------------------------------

func (p *Parser) fail(kind Kind) error {
	return newErrorAt(kind, p.lex.position())
}

func (p *Parser) emit(instr Instr) (int, error) {
	off, err := p.code.Append(instr)
	if err != nil {
		return 0, p.fail(KindCodeMemExhausted)
	}
	return off, nil
}

func (p *Parser) push() { p.sp++ }
func (p *Parser) pop(n int) { p.sp -= n }

// emitLiteral pushes one cell and tracks sp.
func (p *Parser) emitLiteral(instr Instr) (int, error) {
	off, err := p.emit(instr)
	if err != nil {
		return 0, err
	}
	p.push()
	return off, nil
}

func (p *Parser) placeholder(op Opcode) (int, error) {
	return p.emit(Instr{Op: op})
}

func (p *Parser) patchTarget(offset int, target int) error {
	instr, _, err := p.code.Decode(offset)
	if err != nil {
		return err
	}
	instr.Param1 = uint16(target)
	return p.code.Patch(offset, instr)
}

func (p *Parser) nextIndex() int { return p.code.Len() }

// ---- symbol tables ---------------------------------------------------------

// getVar scans newest-first so inner shadowing wins.
func (p *Parser) getVar(name string) (*varSym, bool) {
	for i := len(p.vars) - 1; i >= 0; i-- {
		if equalFold(p.vars[i].name, name) {
			return &p.vars[i], true
		}
	}
	return nil, false
}

// getVarAtCurrentLevel reports whether name is already declared at
// the current block level (a duplicate DIM).
func (p *Parser) getVarAtCurrentLevel(name string) bool {
	for i := len(p.vars) - 1; i >= 0 && p.vars[i].level == p.level; i-- {
		if equalFold(p.vars[i].name, name) {
			return true
		}
	}
	return false
}

func varWidth(dim int) int {
	if dim > 0 {
		return dim
	}
	return 1
}

// addVar registers a variable's symbol-table entry at the current
// level and frame-relative depth, advancing sp by its slot width. It
// performs no code emission - callers that need the runtime stack to
// actually hold the slot (every caller except addParam, whose
// parameters already live in cells the call site pushed) must go
// through declareVar or bindPushedValue instead, so the compile-time
// sp tracker never claims a slot the emitted bytecode doesn't also
// produce.
func (p *Parser) addVar(name string, dim int) (*varSym, error) {
	if name != "" {
		if p.getVarAtCurrentLevel(name) {
			return nil, p.fail(KindDuplicateLabel)
		}
		if _, ok := p.svcs.Lookup(name); ok {
			return nil, p.fail(KindNameClashWithService)
		}
	}
	idx := p.sp
	p.vars = append(p.vars, varSym{name: name, level: p.level, index: idx, dim: dim})
	p.sp += varWidth(dim)
	if len(p.blocks) > 0 {
		top := &p.blocks[len(p.blocks)-1]
		if top.level == p.level {
			top.localWidth += varWidth(dim)
		}
	}
	return &p.vars[len(p.vars)-1], nil
}

// declareVar reserves a fresh, zero-valued variable with no
// initializer: it emits the zero cell(s) that make the runtime stack
// advance to match addVar's bookkeeping, then registers the symbol.
// Used for a bare "DIM X", a "DIM A(n)" array, and reading an
// undeclared variable for the first time (auto-declare-on-read).
func (p *Parser) declareVar(name string, dim int) (*varSym, error) {
	width := varWidth(dim)
	for i := 0; i < width; i++ {
		if _, err := p.emit(Instr{Op: OpZero}); err != nil {
			return nil, err
		}
	}
	return p.addVar(name, dim)
}

// bindPushedValue registers name as a new variable whose slot is the
// width cells an expression just pushed - the value already sits
// exactly where addVar would otherwise reserve a slot for it, so no
// further store instruction is emitted and sp is left untouched.
// Used for "DIM X = expr", a FOR loop's induction variable and its
// hidden limit/step locals, and auto-declare-on-assignment.
func (p *Parser) bindPushedValue(name string, dim int) (*varSym, error) {
	if name != "" {
		if p.getVarAtCurrentLevel(name) {
			return nil, p.fail(KindDuplicateLabel)
		}
		if _, ok := p.svcs.Lookup(name); ok {
			return nil, p.fail(KindNameClashWithService)
		}
	}
	width := varWidth(dim)
	idx := p.sp - width
	p.vars = append(p.vars, varSym{name: name, level: p.level, index: idx, dim: dim})
	if len(p.blocks) > 0 {
		top := &p.blocks[len(p.blocks)-1]
		if top.level == p.level {
			top.localWidth += width
		}
	}
	return &p.vars[len(p.vars)-1], nil
}

// addParam allocates a SUB parameter at a negative frame offset; argc
// is the sub's total declared parameter count and pos is this
// parameter's 0-based position.
func (p *Parser) addParam(name string, byRef bool, argc, pos int) {
	dim := 0
	if byRef {
		dim = -1
	}
	rel := -(argc - pos)
	p.vars = append(p.vars, varSym{name: name, level: p.level, index: rel, dim: dim})
}

func (p *Parser) findOrAddLabel(name string) int {
	for i := range p.labels {
		if equalFold(p.labels[i].name, name) {
			return i
		}
	}
	p.labels = append(p.labels, labelSym{name: name, dst: -1})
	return len(p.labels) - 1
}

func (p *Parser) findOrAddSub(name string) int {
	for i := range p.subs {
		if equalFold(p.subs[i].name, name) {
			return i
		}
	}
	p.subs = append(p.subs, subSym{name: name, entry: -1, argc: -1})
	return len(p.subs) - 1
}

func (p *Parser) newSyntheticLabel() int {
	p.labels = append(p.labels, labelSym{dst: -1})
	return len(p.labels) - 1
}

// retireBlock emits the POP that collapses every variable declared at
// level back off the stack, then drops them from the symbol table.
func (p *Parser) retireBlock(frame blockFrame) error {
	if frame.localWidth > 0 {
		if _, err := p.emit(Instr{Op: OpPop, Param1: uint16(frame.localWidth - 1)}); err != nil {
			return err
		}
		p.pop(frame.localWidth)
	}
	n := 0
	for i := len(p.vars) - 1; i >= 0 && p.vars[i].level == frame.level; i-- {
		n++
	}
	p.vars = p.vars[:len(p.vars)-n]
	if frame.exitLabel >= 0 {
		p.labels[frame.exitLabel].dst = p.nextIndex()
	}
	return nil
}

func (p *Parser) pushBlock(kind blockKind) {
	p.level++
	p.blocks = append(p.blocks, blockFrame{kind: kind, level: p.level, entrySP: p.sp, exitLabel: -1})
}

func (p *Parser) popBlock() (blockFrame, error) {
	frame := p.blocks[len(p.blocks)-1]
	p.blocks = p.blocks[:len(p.blocks)-1]
	err := p.retireBlock(frame)
	p.level--
	return frame, err
}

// exitTarget finds the nearest enclosing block of kind and lazily
// allocates its exit label, for EXIT DO / EXIT FOR / EXIT SUB. The
// second return value is the number of cells EXIT must pop before
// jumping - every local still live between the current compile-time
// sp and the block's entry sp, across however many nested frames
// EXIT jumps out of, since it skips their own retirement POPs.
func (p *Parser) exitTarget(kind blockKind) (int, int, error) {
	for i := len(p.blocks) - 1; i >= 0; i-- {
		if p.blocks[i].kind == kind {
			if kind == blockSub {
				return -1, 0, nil
			}
			if p.blocks[i].exitLabel < 0 {
				p.blocks[i].exitLabel = p.newSyntheticLabel()
			}
			return p.blocks[i].exitLabel, p.sp - p.blocks[i].entrySP, nil
		}
	}
	return 0, 0, p.fail(KindExitOutsideConstruct)
}

// ---- statements -------------------------------------------------------------

func (p *Parser) parseStatement() error {
	l := p.lex

	if l.keycon("dim") {
		return p.parseDim()
	}
	if l.keycon("print") {
		return p.parsePrint()
	}
	if l.keycon("if") {
		return p.parseIf()
	}
	if l.keycon("do") {
		return p.parseDo()
	}
	if l.keycon("for") {
		return p.parseFor()
	}
	if l.keycon("sub") {
		return p.parseSub()
	}
	if l.keycon("exit") {
		return p.parseExit()
	}
	if l.keycon("return") {
		return p.parseReturn()
	}
	if l.keycon("goto") {
		return p.parseGoto()
	}
	if l.keycon("rem") {
		for !l.atLineEnd() {
			l.advance()
		}
		l.expectNL()
		return nil
	}
	if l.keycon("end") {
		// A bare "end" reaches here as a program-terminating statement
		// at top level or inside a DO/FOR body: inside IF and SUB
		// blocks parseBlockUntil stops before "end" without eating it,
		// so "end if"/"end sub" are consumed by parseIf/parseSub
		// themselves.
		if _, err := p.emit(Instr{Op: OpEnd}); err != nil {
			return err
		}
		return l.requireNL(p)
	}
	if l.keycon("option") {
		return p.parseOption()
	}
	if l.keycon("let") {
		return p.parseAssignmentOrCall(true)
	}

	return p.parseAssignmentOrCall(false)
}

func (l *lexer) requireNL(p *Parser) error {
	if !l.expectNL() {
		return p.fail(KindExpectedNewline)
	}
	return nil
}

func (p *Parser) parseOption() error {
	l := p.lex
	if !l.keycon("explicit") {
		return p.fail(KindExpectedExpression)
	}
	p.optionExplicit = true
	if l.keycon("off") {
		p.optionExplicit = false
	} else {
		l.keycon("on")
	}
	return l.requireNL(p)
}

func (p *Parser) parseDim() error {
	l := p.lex
	name, ok := l.namecon()
	if !ok {
		return p.fail(KindInvalidName)
	}

	dim := 0
	if l.chrcon('(') {
		n, err := p.parseIntLiteralArg()
		if err != nil {
			return err
		}
		if n <= 0 {
			return p.fail(KindBadDimension)
		}
		dim = n
		if !l.chrcon(')') {
			return p.fail(KindBracketsUnbalanced)
		}
	}

	if l.chrcon('=') {
		if dim != 0 {
			return p.fail(KindArrayScalarMisuse)
		}
		if err := p.parseExpr(); err != nil {
			return err
		}
		if _, err := p.bindPushedValue(name, 0); err != nil {
			return err
		}
	} else if _, err := p.declareVar(name, dim); err != nil {
		return err
	}
	return l.requireNL(p)
}

// parseIntLiteralArg parses a decimal integer used for a DIM size; it
// does not touch the expression stack.
func (p *Parser) parseIntLiteralArg() (int, error) {
	l := p.lex
	start := l.pos
	for !l.eof() && l.cur() >= '0' && l.cur() <= '9' {
		l.advance()
	}
	if l.pos == start {
		return 0, p.fail(KindNumberInvalid)
	}
	s := string(l.src[start:l.pos])
	l.skipSpaces()
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.fail(KindNumberInvalid)
	}
	return n, nil
}

func (p *Parser) parsePrint() error {
	l := p.lex
	n := 0
	for {
		if l.atLineEnd() {
			break
		}
		if err := p.parseExpr(); err != nil {
			return err
		}
		n++
		if l.chrcon(';') {
			if l.atLineEnd() {
				// trailing ";" suppresses the newline
				if _, err := p.emit(Instr{Op: OpPrint, Param1: uint16(n - 1)}); err != nil {
					return err
				}
				p.pop(n)
				return l.requireNL(p)
			}
			continue
		}
		break
	}
	// No trailing ";": print an extra cell holding the host EOL, so
	// PRINT(n) always pops exactly n+1 cells.
	if err := p.emitEOLLiteral(); err != nil {
		return err
	}
	n++
	if _, err := p.emit(Instr{Op: OpPrint, Param1: uint16(n - 1)}); err != nil {
		return err
	}
	p.pop(n)
	return l.requireNL(p)
}

// emitEOLLiteral pushes the host-chosen end-of-line string as a
// STRING literal; the EOL bytes themselves are an embedding constant,
// not a language constant (see HostEOL).
func (p *Parser) emitEOLLiteral() error {
	start, err := p.strs.Intern([]byte(HostEOL))
	if err != nil {
		return p.fail(KindStringMemExhausted)
	}
	_, err = p.emitLiteral(Instr{Op: OpString, Param1: uint16(start), Param2: uint16(len(HostEOL))})
	return err
}

func (p *Parser) parseIf() error {
	l := p.lex
	if err := p.parseExpr(); err != nil {
		return err
	}
	if !l.keycon("then") {
		return p.fail(KindExpectedThen)
	}

	// Single-line IF: body is everything up to the newline, no ELSE
	// permitted (source anomaly in the original left this
	// unimplemented; we implement it per the invariant-preserving
	// reading in SPEC_FULL.md §9).
	if !l.atLineEnd() {
		branch, err := p.placeholder(OpIf)
		if err != nil {
			return err
		}
		p.pop(1)
		if err := p.parseStatement(); err != nil {
			return err
		}
		if err := p.patchTarget(branch, p.nextIndex()); err != nil {
			return err
		}
		return nil
	}
	l.expectNL()

	branch, err := p.placeholder(OpIf)
	if err != nil {
		return err
	}
	p.pop(1)

	p.pushBlock(blockIf)
	if err := p.parseBlockUntil("elseif", "else", "end"); err != nil {
		return err
	}
	if _, err := p.popBlock(); err != nil {
		return err
	}

	endJumps := []int{}
	for l.keycon("elseif") {
		skip, err := p.placeholder(OpGoto)
		if err != nil {
			return err
		}
		endJumps = append(endJumps, skip)

		if err := p.patchTarget(branch, p.nextIndex()); err != nil {
			return err
		}
		if err := p.parseExpr(); err != nil {
			return err
		}
		if !l.keycon("then") {
			return p.fail(KindExpectedThen)
		}
		if !l.expectNL() {
			return p.fail(KindExpectedNewline)
		}
		branch, err = p.placeholder(OpIf)
		if err != nil {
			return err
		}
		p.pop(1)

		p.pushBlock(blockIf)
		if err := p.parseBlockUntil("elseif", "else", "end"); err != nil {
			return err
		}
		if _, err := p.popBlock(); err != nil {
			return err
		}
	}

	if l.keycon("else") {
		skip, err := p.placeholder(OpGoto)
		if err != nil {
			return err
		}
		endJumps = append(endJumps, skip)

		if err := p.patchTarget(branch, p.nextIndex()); err != nil {
			return err
		}
		if !l.expectNL() {
			return p.fail(KindExpectedNewline)
		}

		p.pushBlock(blockIf)
		if err := p.parseBlockUntil("end"); err != nil {
			return err
		}
		if _, err := p.popBlock(); err != nil {
			return err
		}
	} else if err := p.patchTarget(branch, p.nextIndex()); err != nil {
		return err
	}

	if !l.keycon("end") || !l.keycon("if") {
		return p.fail(KindExpectedEndIf)
	}
	for _, j := range endJumps {
		if err := p.patchTarget(j, p.nextIndex()); err != nil {
			return err
		}
	}
	return l.requireNL(p)
}

// parseBlockUntil parses statements until the lexer is positioned at
// one of the given (case-insensitive) keywords, without consuming it.
func (p *Parser) parseBlockUntil(stopWords ...string) error {
	l := p.lex
	for {
		l.skipBlankLines()
		if l.eof() {
			return p.fail(KindExpectedEOF)
		}
		matched := false
		for _, w := range stopWords {
			save := *l
			if l.keycon(w) {
				*l = save
				matched = true
				break
			}
		}
		if matched {
			return nil
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseDo() error {
	l := p.lex
	top := p.nextIndex()

	type guard struct {
		negate bool
		active bool
	}
	var pre guard
	if l.keycon("while") {
		pre = guard{active: true}
	} else if l.keycon("until") {
		pre = guard{active: true, negate: true}
	}

	var preBranch int
	if pre.active {
		if err := p.parseExpr(); err != nil {
			return err
		}
		if pre.negate {
			if _, err := p.emit(Instr{Op: OpNot}); err != nil {
				return err
			}
		}
		var err error
		preBranch, err = p.placeholder(OpIf)
		if err != nil {
			return err
		}
		p.pop(1)
	}
	if !l.expectNL() {
		return p.fail(KindExpectedNewline)
	}

	p.pushBlock(blockDo)
	if err := p.parseBlockUntil("loop"); err != nil {
		return err
	}
	frame, err := p.popBlock()
	if err != nil {
		return err
	}

	if !l.keycon("loop") {
		return p.fail(KindExpectedLoop)
	}

	var post guard
	if l.keycon("while") {
		post = guard{active: true}
	} else if l.keycon("until") {
		post = guard{active: true, negate: true}
	}
	if post.active {
		if err := p.parseExpr(); err != nil {
			return err
		}
		if post.negate {
			if _, err := p.emit(Instr{Op: OpNot}); err != nil {
				return err
			}
		}
		skip, err := p.placeholder(OpIf)
		if err != nil {
			return err
		}
		p.pop(1)
		if _, err := p.emit(Instr{Op: OpGoto, Param1: uint16(top)}); err != nil {
			return err
		}
		if err := p.patchTarget(skip, p.nextIndex()); err != nil {
			return err
		}
	} else {
		if _, err := p.emit(Instr{Op: OpGoto, Param1: uint16(top)}); err != nil {
			return err
		}
	}

	if pre.active {
		if err := p.patchTarget(preBranch, p.nextIndex()); err != nil {
			return err
		}
	}
	if frame.exitLabel >= 0 {
		p.labels[frame.exitLabel].dst = p.nextIndex()
	}
	return l.requireNL(p)
}

func (p *Parser) parseFor() error {
	l := p.lex
	name, ok := l.namecon()
	if !ok {
		return p.fail(KindInvalidName)
	}
	if !l.chrcon('=') {
		return p.fail(KindExpectedEquals)
	}
	if err := p.parseExpr(); err != nil {
		return err
	}

	// The loop variable and the three compiler-synthesized hidden
	// locals below all bind the value an expression *just* pushed,
	// rather than reserving a slot and storing into it afterward -
	// a reserve-then-store here would leave the reserved cell one
	// slot shallower than the value it's meant to hold once the
	// runtime stack is accounted for, since nothing else pushes a
	// placeholder for addVar's bookkeeping-only slot. bindPushedValue
	// claims the already-pushed value directly instead.
	p.pushBlock(blockFor)
	// The initial value is already on the stack and belongs to the
	// loop, so EXIT FOR must pop it too.
	p.blocks[len(p.blocks)-1].entrySP--
	v, err := p.bindPushedValue(name, 0)
	if err != nil {
		return err
	}

	if !l.keycon("to") {
		return p.fail(KindExpectedTo)
	}
	if err := p.parseExpr(); err != nil {
		return err
	}
	limitIdx, err := p.bindPushedValue("", 0)
	if err != nil {
		return err
	}

	if l.keycon("step") {
		if err := p.parseExpr(); err != nil {
			return err
		}
	} else if _, err := p.emitLiteral(Instr{Op: OpInteger, Param1: 0, Param2: 1}); err != nil {
		return err
	}
	stepIdx, err := p.bindPushedValue("", 0)
	if err != nil {
		return err
	}

	// Cache whether STEP is non-negative once, so a negative STEP
	// walks the loop downward (continue while var >= limit) without
	// re-deriving direction from a possibly side-effecting STEP
	// expression on every iteration.
	if err := p.emitLoadIndex(stepIdx); err != nil {
		return err
	}
	if _, err := p.emitLiteral(Instr{Op: OpZero}); err != nil {
		return err
	}
	if err := p.emitBinOp(OpGteq); err != nil {
		return err
	}
	stepNonNeg, err := p.bindPushedValue("", 0)
	if err != nil {
		return err
	}

	if !l.requireNLOK() {
		return p.fail(KindExpectedNewline)
	}
	l.expectNL()

	top := p.nextIndex()
	// cond = (var <= limit AND step >= 0) OR (var >= limit AND step < 0)
	if err := p.emitLoad(v); err != nil {
		return err
	}
	if err := p.emitLoadIndex(limitIdx); err != nil {
		return err
	}
	if err := p.emitBinOp(OpLteq); err != nil {
		return err
	}
	if err := p.emitLoadIndex(stepNonNeg); err != nil {
		return err
	}
	if err := p.emitBinOp(OpAnd); err != nil {
		return err
	}
	if err := p.emitLoad(v); err != nil {
		return err
	}
	if err := p.emitLoadIndex(limitIdx); err != nil {
		return err
	}
	if err := p.emitBinOp(OpGteq); err != nil {
		return err
	}
	if err := p.emitLoadIndex(stepNonNeg); err != nil {
		return err
	}
	if _, err := p.emit(Instr{Op: OpNot}); err != nil {
		return err
	}
	if err := p.emitBinOp(OpAnd); err != nil {
		return err
	}
	if err := p.emitBinOp(OpOr); err != nil {
		return err
	}
	branch, err := p.placeholder(OpIf)
	if err != nil {
		return err
	}
	p.pop(1)

	if err := p.parseBlockUntil("next"); err != nil {
		return err
	}
	if !l.keycon("next") {
		return p.fail(KindExpectedNext)
	}
	l.namecon() // optional loop variable name after NEXT, discarded

	if err := p.emitLoad(v); err != nil {
		return err
	}
	if err := p.emitLoadIndex(stepIdx); err != nil {
		return err
	}
	if _, err := p.emit(Instr{Op: OpPlus}); err != nil {
		return err
	}
	p.pop(1)
	if err := p.emitStore(v); err != nil {
		return err
	}
	if _, err := p.emit(Instr{Op: OpGoto, Param1: uint16(top)}); err != nil {
		return err
	}
	if err := p.patchTarget(branch, p.nextIndex()); err != nil {
		return err
	}

	frame, err := p.popBlock()
	if err != nil {
		return err
	}
	if frame.exitLabel >= 0 {
		p.labels[frame.exitLabel].dst = p.nextIndex()
	}
	return l.requireNL(p)
}

func (l *lexer) requireNLOK() bool { return l.atLineEnd() }

// slotParam2 encodes the Param2 field for an *indexed* array access:
// 0 means unindexed, a nonzero value signals "pop an index cell".
// Inline arrays carry their real declared width so the interpreter can
// bounds-check directly; a by-reference array parameter carries a
// placeholder sentinel, since only the PTR cell it resolves to (at
// run time) actually knows its width.
func slotParam2(dim int) uint16 {
	if dim < 0 {
		return 1
	}
	return uint16(dim)
}

// emitStore/emitLoad always address a single cell - a scalar, or, for
// a by-reference parameter, the first cell its pointer refers to
// (LET_PTR/GET_PTR dereference it) - so Param2 is always 0 (no index
// cell to pop). Indexed access goes through
// emitIndexedStore/emitIndexedLoad instead.
func (p *Parser) emitStore(v *varSym) error {
	op := OpLetGlobal
	if v.level > 0 {
		op = OpLetLocal
	}
	if v.dim < 0 {
		op = OpLetPtr
	}
	_, err := p.emit(Instr{Op: op, Param1: uint16(int16(v.index))})
	p.pop(1)
	return err
}

func (p *Parser) emitLoad(v *varSym) error {
	op := OpGetGlobal
	if v.level > 0 {
		op = OpGetLocal
	}
	if v.dim < 0 {
		op = OpGetPtr
	}
	_, err := p.emit(Instr{Op: op, Param1: uint16(int16(v.index))})
	if err == nil {
		p.push()
	}
	return err
}

func (p *Parser) emitLoadIndex(v *varSym) error { return p.emitLoad(v) }

func (p *Parser) parseSub() error {
	l := p.lex
	if p.inSub {
		return p.fail(KindNestedSub)
	}
	name, ok := l.namecon()
	if !ok {
		return p.fail(KindInvalidName)
	}
	if !l.chrcon('(') {
		return p.fail(KindCallBracketsMissing)
	}

	type paramInfo struct {
		name  string
		byRef bool
	}
	var params []paramInfo
	if !l.chrcon(')') {
		for {
			pname, ok := l.namecon()
			if !ok {
				return p.fail(KindInvalidName)
			}
			byRef := false
			if l.chrcon('(') {
				byRef = true
				if !l.chrcon(')') {
					return p.fail(KindBracketsUnbalanced)
				}
			}
			params = append(params, paramInfo{name: pname, byRef: byRef})
			if l.chrcon(',') {
				continue
			}
			break
		}
		if !l.chrcon(')') {
			return p.fail(KindBracketsUnbalanced)
		}
	}
	if !l.requireNLOK() {
		return p.fail(KindExpectedNewline)
	}
	l.expectNL()

	if _, ok := p.svcs.Lookup(name); ok {
		return p.fail(KindNameClashWithService)
	}
	subIdx := p.findOrAddSub(name)
	if p.subs[subIdx].entry >= 0 {
		return p.fail(KindDuplicateSub)
	}

	// A SUB body is never reached by falling through the top-level
	// program; jump around it and patch the entry once we know it.
	skip, err := p.placeholder(OpGoto)
	if err != nil {
		return err
	}
	entry := p.nextIndex()
	p.subs[subIdx].entry = entry
	p.subs[subIdx].argc = len(params)

	savedSP, savedLevel := p.sp, p.level
	// GOSUB pushes argc args + a return slot, then sets fp = sp-1, so
	// the LABEL cell sits at fp+0. The first real local must start at
	// fp+1, not fp+0.
	p.sp = 1
	p.level++
	p.inSub = true
	p.curSubArgc = len(params)
	for i, prm := range params {
		p.addParam(prm.name, prm.byRef, len(params), i)
	}
	p.blocks = append(p.blocks, blockFrame{kind: blockSub, level: p.level, exitLabel: -1})

	if err := p.parseBlockUntil("end"); err != nil {
		return err
	}

	// Drop the parameter symbols and the sub's synthetic block frame;
	// RETURN (not a POP) is what actually collapses this frame at
	// runtime, so no POP is emitted here.
	p.blocks = p.blocks[:len(p.blocks)-1]
	n := 0
	for i := len(p.vars) - 1; i >= 0 && p.vars[i].level == p.level; i-- {
		n++
	}
	p.vars = p.vars[:len(p.vars)-n]

	p.inSub = false
	p.level = savedLevel
	p.sp = savedSP

	if !l.keycon("end") || !l.keycon("sub") {
		return p.fail(KindExpectedEndIf)
	}
	if err := p.patchTarget(skip, p.nextIndex()); err != nil {
		return err
	}
	return l.requireNL(p)
}

func (p *Parser) parseExit() error {
	l := p.lex
	var kind blockKind
	switch {
	case l.keycon("sub"):
		kind = blockSub
	case l.keycon("do"):
		kind = blockDo
	case l.keycon("for"):
		kind = blockFor
	default:
		return p.fail(KindExpectedExpression)
	}

	target, popCount, err := p.exitTarget(kind)
	if err != nil {
		return err
	}
	if kind == blockSub {
		// No result value is well-defined for a bare EXIT SUB; return
		// zero, matching the RETURN 0 a caller would see from a sub
		// whose only path falls through without computing anything.
		if _, err := p.emitLiteral(Instr{Op: OpZero}); err != nil {
			return err
		}
		if _, err := p.emit(Instr{Op: OpReturn, Param1: uint16(p.curSubArgc)}); err != nil {
			return err
		}
		p.pop(1)
		return l.requireNL(p)
	}

	// Jumping straight to the loop's exit label skips the POP its own
	// retirement emits, so EXIT must collapse those slots itself - the
	// fallthrough sp tracker is left alone since this is a jump, not a
	// fallthrough.
	if popCount > 0 {
		if _, err := p.emit(Instr{Op: OpPop, Param1: uint16(popCount - 1)}); err != nil {
			return err
		}
	}
	if _, err := p.emit(Instr{Op: OpLnkGoto, Param1: uint16(target)}); err != nil {
		return err
	}
	return l.requireNL(p)
}

func (p *Parser) parseReturn() error {
	l := p.lex
	if !p.inSub {
		return p.fail(KindExitOutsideConstruct)
	}
	if err := p.parseExpr(); err != nil {
		return err
	}
	if _, err := p.emit(Instr{Op: OpReturn, Param1: uint16(p.curSubArgc)}); err != nil {
		return err
	}
	p.pop(1)
	return l.requireNL(p)
}

func (p *Parser) parseGoto() error {
	l := p.lex
	name, ok := l.namecon()
	if !ok {
		return p.fail(KindInvalidName)
	}
	idx := p.findOrAddLabel(name)
	if _, err := p.emit(Instr{Op: OpLnkGoto, Param1: uint16(idx)}); err != nil {
		return err
	}
	return l.requireNL(p)
}

// parseAssignmentOrCall handles every statement form that starts with
// a bare name: a label definition, an assignment (LET optional), an
// array-element store, or a SUB call used as a statement.
func (p *Parser) parseAssignmentOrCall(afterLet bool) error {
	l := p.lex
	name, ok := l.namecon()
	if !ok {
		return p.fail(KindInvalidName)
	}

	if strings.HasPrefix(name, "$") {
		return p.parseRegisterWrite(name[1:])
	}

	if !afterLet && l.chrcon(':') {
		idx := p.findOrAddLabel(name)
		if p.labels[idx].dst >= 0 {
			return p.fail(KindDuplicateLabel)
		}
		p.labels[idx].dst = p.nextIndex()
		if l.atLineEnd() {
			return l.requireNL(p)
		}
		return p.parseStatement()
	}

	if l.chrcon('(') {
		if v, ok := p.getVar(name); ok && v.dim != 0 {
			if err := p.parseExpr(); err != nil {
				return err
			}
			if !l.chrcon(')') {
				return p.fail(KindBracketsUnbalanced)
			}
			if !l.chrcon('=') {
				return p.fail(KindExpectedEquals)
			}
			if err := p.parseExpr(); err != nil {
				return err
			}
			if !l.requireNLOK() {
				return p.fail(KindExpectedNewline)
			}
			if err := p.emitIndexedStore(v); err != nil {
				return err
			}
			return l.requireNL(p)
		}
		return p.parseSubCallStatement(name)
	}

	v, ok := p.getVar(name)
	if !ok && p.optionExplicit {
		return p.fail(KindVarUndefined)
	}
	if !l.chrcon('=') {
		return p.fail(KindExpectedEquals)
	}
	if err := p.parseExpr(); err != nil {
		return err
	}
	if ok {
		if err := p.emitStore(v); err != nil {
			return err
		}
	} else if _, err := p.bindPushedValue(name, 0); err != nil {
		return err
	}
	return l.requireNL(p)
}

func (p *Parser) emitIndexedStore(v *varSym) error {
	op := OpLetGlobal
	if v.level > 0 {
		op = OpLetLocal
	}
	if v.dim < 0 {
		op = OpLetPtr
	}
	_, err := p.emit(Instr{Op: op, Param1: uint16(int16(v.index)), Param2: slotParam2(v.dim)})
	p.pop(2)
	return err
}

func (p *Parser) parseSubCallStatement(name string) error {
	if svcIdx, ok := p.svcs.Lookup(name); ok {
		return p.parseServiceCall(svcIdx, true)
	}

	l := p.lex
	subIdx := p.findOrAddSub(name)

	// The return slot sits at the bottom of the callee's frame, below
	// every argument - RETURN's retSlot := fp-argc-1 and addParam's
	// per-parameter offsets both assume this order, so it must be
	// pushed before any argument is evaluated, not after.
	if _, err := p.emitLiteral(Instr{Op: OpZero}); err != nil { // return slot
		return err
	}

	argc := 0
	if !l.chrcon(')') {
		for {
			if err := p.parseExpr(); err != nil {
				return err
			}
			argc++
			if l.chrcon(',') {
				continue
			}
			break
		}
		if !l.chrcon(')') {
			return p.fail(KindBracketsUnbalanced)
		}
	}

	p.pending = append(p.pending, pendingCall{subIdx: subIdx, argc: argc, pos: p.lex.position()})
	if _, err := p.emit(Instr{Op: OpLnkGosub, Param1: uint16(subIdx)}); err != nil {
		return err
	}
	// Result discarded as a statement: pop the retslot. p.pop(argc)
	// first undoes the inflated depth the argument pushes left behind
	// once GOSUB/RETURN collapse them into that one retslot value.
	p.pop(argc)
	if _, err := p.emit(Instr{Op: OpPop, Param1: 0}); err != nil {
		return err
	}
	p.pop(1)
	return l.requireNL(p)
}

// ---- expressions ------------------------------------------------------------

func (p *Parser) parseExpr() error { return p.parseXor() }

func (p *Parser) parseXor() error {
	if err := p.parseOr(); err != nil {
		return err
	}
	for p.lex.keycon("xor") {
		if err := p.parseOr(); err != nil {
			return err
		}
		if err := p.emitBinOp(OpXor); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseOr() error {
	if err := p.parseAnd(); err != nil {
		return err
	}
	for p.lex.keycon("or") {
		if err := p.parseAnd(); err != nil {
			return err
		}
		if err := p.emitBinOp(OpOr); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseAnd() error {
	if err := p.parseNot(); err != nil {
		return err
	}
	for p.lex.keycon("and") {
		if err := p.parseNot(); err != nil {
			return err
		}
		if err := p.emitBinOp(OpAnd); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseNot() error {
	if p.lex.keycon("not") {
		if err := p.parseComparison(); err != nil {
			return err
		}
		_, err := p.emit(Instr{Op: OpNot})
		return err
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() error {
	if err := p.parseShift(); err != nil {
		return err
	}
	for {
		var op Opcode
		switch {
		case p.lex.strcon("<>"):
			op = OpNeq
		case p.lex.strcon("<="):
			op = OpLteq
		case p.lex.strcon(">="):
			op = OpGteq
		case p.lex.strcon("<"):
			op = OpLt
		case p.lex.strcon(">"):
			op = OpGt
		case p.lex.strcon("="):
			op = OpEqual
		default:
			return nil
		}
		if err := p.parseShift(); err != nil {
			return err
		}
		if err := p.emitBinOp(op); err != nil {
			return err
		}
	}
}

func (p *Parser) parseShift() error {
	if err := p.parseAdd(); err != nil {
		return err
	}
	for {
		var op Opcode
		switch {
		case p.lex.keycon("shl"):
			op = OpShl
		case p.lex.keycon("shr"):
			op = OpShr
		default:
			return nil
		}
		if err := p.parseAdd(); err != nil {
			return err
		}
		if err := p.emitBinOp(op); err != nil {
			return err
		}
	}
}

func (p *Parser) parseAdd() error {
	if err := p.parseMul(); err != nil {
		return err
	}
	for {
		var op Opcode
		switch {
		case p.lex.chrcon('+'):
			op = OpPlus
		case p.lex.chrcon('-'):
			op = OpMinus
		default:
			return nil
		}
		if err := p.parseMul(); err != nil {
			return err
		}
		if err := p.emitBinOp(op); err != nil {
			return err
		}
	}
}

func (p *Parser) parseMul() error {
	if err := p.parsePow(); err != nil {
		return err
	}
	for {
		var op Opcode
		switch {
		case p.lex.keycon("mod"):
			op = OpMod
		case p.lex.chrcon('*'):
			op = OpMult
		case p.lex.keycon("idiv"):
			op = OpIdiv
		case p.lex.chrcon('/'):
			op = OpDiv
		default:
			return nil
		}
		if err := p.parsePow(); err != nil {
			return err
		}
		if err := p.emitBinOp(op); err != nil {
			return err
		}
	}
}

func (p *Parser) parsePow() error {
	if err := p.parseUnary(); err != nil {
		return err
	}
	for p.lex.chrcon('^') {
		if err := p.parseUnary(); err != nil {
			return err
		}
		if err := p.emitBinOp(OpPow); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseUnary() error {
	if p.lex.chrcon('-') {
		if err := p.parseAtom(); err != nil {
			return err
		}
		_, err := p.emit(Instr{Op: OpSign})
		return err
	}
	return p.parseAtom()
}

func (p *Parser) emitBinOp(op Opcode) error {
	_, err := p.emit(Instr{Op: op})
	if err == nil {
		p.pop(1)
	}
	return err
}

func (p *Parser) parseAtom() error {
	l := p.lex

	if l.keycon("true") {
		_, err := p.emitLiteral(Instr{Op: OpInteger, Param1: 0xffff, Param2: 0xffff})
		return err
	}
	if l.keycon("false") {
		_, err := p.emitLiteral(Instr{Op: OpZero})
		return err
	}
	if l.chrcon('(') {
		if err := p.parseExpr(); err != nil {
			return err
		}
		if !l.chrcon(')') {
			return p.fail(KindBracketsUnbalanced)
		}
		return nil
	}
	if l.cur() == '"' {
		return p.parseStringLiteral()
	}
	if c := l.cur(); c == '$' {
		return p.parseRegisterRead()
	}
	if c := l.cur(); (c >= '0' && c <= '9') || c == '.' {
		return p.parseNumber()
	}

	name, ok := l.namecon()
	if !ok {
		return p.fail(KindExpectedExpression)
	}
	return p.parseNameAtom(name)
}

func (p *Parser) parseRegisterRead() error {
	l := p.lex
	l.advance() // consume '$'
	name, ok := l.namecon()
	if !ok {
		return p.fail(KindInvalidName)
	}
	idx, ok := p.regs.Lookup(name)
	if !ok {
		return p.fail(KindRegisterNotFound)
	}
	_, err := p.emitLiteral(Instr{Op: OpGetReg, Param1: uint16(idx)})
	return err
}

// parseRegisterWrite handles a "$name = expr" statement, the only
// other place a register reference can appear beyond parseRegisterRead.
// name has already had its leading '$' stripped.
func (p *Parser) parseRegisterWrite(name string) error {
	l := p.lex
	idx, ok := p.regs.Lookup(name)
	if !ok {
		return p.fail(KindRegisterNotFound)
	}
	if !l.chrcon('=') {
		return p.fail(KindExpectedEquals)
	}
	if err := p.parseExpr(); err != nil {
		return err
	}
	if _, err := p.emit(Instr{Op: OpLetReg, Param1: uint16(idx)}); err != nil {
		return err
	}
	p.pop(1)
	return l.requireNL(p)
}

func (p *Parser) parseNameAtom(name string) error {
	l := p.lex

	if l.chrcon('(') {
		if v, ok := p.getVar(name); ok && v.dim != 0 {
			if err := p.parseExpr(); err != nil {
				return err
			}
			if !l.chrcon(')') {
				return p.fail(KindBracketsUnbalanced)
			}
			return p.emitIndexedLoad(v)
		}
		return p.parseCallExpr(name)
	}

	if v, ok := p.getVar(name); ok {
		if v.dim != 0 {
			// Array name used bare: materialize a pointer to its
			// first slot and declared dim.
			return p.emitArrayPointer(v)
		}
		return p.emitLoad(v)
	}
	if p.optionExplicit {
		return p.fail(KindVarUndefined)
	}
	v, err := p.declareVar(name, 0)
	if err != nil {
		return err
	}
	return p.emitLoad(v)
}

func (p *Parser) emitIndexedLoad(v *varSym) error {
	op := OpGetGlobal
	if v.level > 0 {
		op = OpGetLocal
	}
	if v.dim < 0 {
		op = OpGetPtr
	}
	_, err := p.emit(Instr{Op: op, Param1: uint16(int16(v.index)), Param2: slotParam2(v.dim)})
	// one index popped, one result pushed: net zero
	return err
}

func (p *Parser) emitArrayPointer(v *varSym) error {
	if v.dim < 0 {
		// v's slot already holds a PTR cell (a by-reference array
		// parameter) - read the slot verbatim and forward it, rather
		// than dereferencing through OpGetPtr or constructing a new
		// pointer to the parameter slot itself.
		_, err := p.emit(Instr{Op: OpGetLocal, Param1: uint16(int16(v.index))})
		if err == nil {
			p.push()
		}
		return err
	}
	if v.level == 0 {
		_, err := p.emitLiteral(Instr{Op: OpPtr, Param1: uint16(v.index), Param2: uint16(v.dim)})
		return err
	}
	_, err := p.emitLiteral(Instr{Op: OpCreatePtr, Param1: uint16(int16(v.index)), Param2: uint16(v.dim)})
	return err
}

func (p *Parser) parseCallExpr(name string) error {
	if svcIdx, ok := p.svcs.Lookup(name); ok {
		return p.parseServiceCall(svcIdx, false)
	}

	l := p.lex
	subIdx := p.findOrAddSub(name)

	// See parseSubCallStatement: the return slot must be pushed before
	// any argument, since it sits below them in the callee's frame.
	if _, err := p.emitLiteral(Instr{Op: OpZero}); err != nil { // return slot
		return err
	}

	argc := 0
	if !l.chrcon(')') {
		for {
			if err := p.parseExpr(); err != nil {
				return err
			}
			argc++
			if l.chrcon(',') {
				continue
			}
			break
		}
		if !l.chrcon(')') {
			return p.fail(KindBracketsUnbalanced)
		}
	}

	p.pending = append(p.pending, pendingCall{subIdx: subIdx, argc: argc, pos: p.lex.position()})
	if _, err := p.emit(Instr{Op: OpLnkGosub, Param1: uint16(subIdx)}); err != nil {
		return err
	}
	// GOSUB/RETURN collapse the argc args and the return slot down to a
	// single result cell at runtime; bring the compile-time depth
	// tracker back in step so a variable DIMed right after this
	// expression gets the slot that actually sits above the result,
	// not one inflated by the argument count.
	p.pop(argc)
	return nil
}

// parseServiceCall parses a call site's argument list against a
// host-registered service resolved by svcIdx and emits SVC - unlike a
// SUB call, arity is known immediately (Argc is fixed at registration
// time) so there is nothing for the linker to check later. statement
// discards the service's result the same way parseSubCallStatement
// discards a SUB's.
func (p *Parser) parseServiceCall(svcIdx int, statement bool) error {
	l := p.lex
	svc := p.svcs.At(svcIdx)

	argc := 0
	if !l.chrcon(')') {
		for {
			if err := p.parseExpr(); err != nil {
				return err
			}
			argc++
			if l.chrcon(',') {
				continue
			}
			break
		}
		if !l.chrcon(')') {
			return p.fail(KindBracketsUnbalanced)
		}
	}
	if argc != svc.Argc {
		return p.fail(KindArgCountMismatch)
	}

	if _, err := p.emitLiteral(Instr{Op: OpZero}); err != nil { // return slot
		return err
	}
	if _, err := p.emit(Instr{Op: OpSvc, Param1: uint16(svcIdx)}); err != nil {
		return err
	}
	p.pop(argc)
	if !statement {
		return nil
	}
	if _, err := p.emit(Instr{Op: OpPop, Param1: 0}); err != nil {
		return err
	}
	p.pop(1)
	return l.requireNL(p)
}

func (p *Parser) parseStringLiteral() error {
	l := p.lex
	l.advance() // opening quote
	start := l.pos
	for !l.eof() && l.cur() != '"' {
		l.advance()
	}
	if l.eof() {
		return p.fail(KindStringInvalid)
	}
	raw := l.src[start:l.pos]
	l.advance() // closing quote
	l.skipSpaces()

	off, err := p.strs.Intern(raw)
	if err != nil {
		return p.fail(KindStringMemExhausted)
	}
	_, err = p.emitLiteral(Instr{Op: OpString, Param1: uint16(off), Param2: uint16(len(raw))})
	return err
}

func (p *Parser) parseNumber() error {
	l := p.lex
	start := l.pos

	isHex := false
	if l.cur() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		isHex = true
		l.advance()
		l.advance()
		for isHexDigit(l.cur()) {
			l.advance()
		}
	} else if l.cur() == '&' && (l.peekAt(1) == 'h' || l.peekAt(1) == 'H') {
		isHex = true
		l.advance()
		l.advance()
		for isHexDigit(l.cur()) {
			l.advance()
		}
	} else {
		isFloat := false
		for l.cur() >= '0' && l.cur() <= '9' {
			l.advance()
		}
		if l.cur() == '.' {
			isFloat = true
			l.advance()
			for l.cur() >= '0' && l.cur() <= '9' {
				l.advance()
			}
		}
		if l.cur() == 'e' || l.cur() == 'E' {
			isFloat = true
			l.advance()
			if l.cur() == '+' || l.cur() == '-' {
				l.advance()
			}
			for l.cur() >= '0' && l.cur() <= '9' {
				l.advance()
			}
		}
		text := string(l.src[start:l.pos])
		l.skipSpaces()
		if isFloat {
			f, err := strconv.ParseFloat(text, 32)
			if err != nil {
				return p.fail(KindNumberInvalid)
			}
			bits := math.Float32bits(float32(f))
			_, err2 := p.emitLiteral(Instr{Op: OpFloat, Param1: uint16(bits >> 16), Param2: uint16(bits)})
			return err2
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return p.fail(KindNumberInvalid)
		}
		return p.emitIntLiteral(uint32(n))
	}

	text := string(l.src[start:l.pos])
	l.skipSpaces()
	text = strings.TrimPrefix(text, "0x")
	text = strings.TrimPrefix(text, "0X")
	text = strings.TrimPrefix(text, "&h")
	text = strings.TrimPrefix(text, "&H")
	n, err := strconv.ParseUint(text, 16, 64)
	if err != nil || !isHex {
		return p.fail(KindNumberInvalid)
	}
	return p.emitIntLiteral(uint32(n))
}

func (p *Parser) emitIntLiteral(v uint32) error {
	if v == 0 {
		_, err := p.emitLiteral(Instr{Op: OpZero})
		return err
	}
	_, err := p.emitLiteral(Instr{Op: OpInteger, Param1: uint16(v >> 16), Param2: uint16(v)})
	return err
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
