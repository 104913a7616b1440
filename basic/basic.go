// Package basic implements an embeddable BASIC runtime: a one-pass
// parser/emitter, a linker that resolves forward-referenced jumps and
// calls, a peephole optimizer, and a stack-machine interpreter meant
// to run on resource-constrained hosts - fixed-size code and string
// arenas, a bounded evaluation stack, and host capabilities exposed
// only through named Register and Service tables the embedding
// builds up front.
package basic

// Program is a compiled, linked and optimized BASIC program ready to
// be handed to NewInterpreter, along with the tables it was compiled
// against.
type Program struct {
	Code  *CodeStore
	Strs  *StringPool
	Regs  *RegisterTable
	Svcs  *ServiceTable
	Links *LinkInfo
}

// Options configures Compile. A zero Options uses the package's
// default memory sizes and disables constant folding.
type Options struct {
	CodeMem       int
	StringMem     int
	FoldConstants bool
}

// Compile parses src, links forward references and runs the peephole
// optimizer, returning a Program ready for NewInterpreter. regs and
// svcs are the host capability tables the source may reference; they
// may be nil, equivalent to empty tables.
func Compile(src CharSource, regs *RegisterTable, svcs *ServiceTable, opts Options) (*Program, error) {
	if regs == nil {
		regs = &RegisterTable{}
	}
	if svcs == nil {
		svcs = &ServiceTable{}
	}
	codeMem := opts.CodeMem
	if codeMem <= 0 {
		codeMem = DefaultCodeMem
	}
	stringMem := opts.StringMem
	if stringMem <= 0 {
		stringMem = DefaultStringMem
	}

	code := NewCodeStore(codeMem)
	strs := NewStringPool(stringMem)

	p := NewParser(src, code, strs, regs, svcs)
	info, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if err := Link(code, info); err != nil {
		return nil, err
	}
	if err := Optimize(code, opts.FoldConstants); err != nil {
		return nil, err
	}

	return &Program{Code: code, Strs: strs, Regs: regs, Svcs: svcs, Links: info}, nil
}

// NewInterpreter builds an interpreter ready to execute prog from its
// entry point.
func (prog *Program) NewInterpreter() *Interpreter {
	return NewInterpreter(prog.Code, prog.Strs, prog.Regs, prog.Svcs)
}
