package interpreter

import (
	"io"
	"os"

	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

// DefaultMaxCallDepth bounds nested user calls unless overridden.
const DefaultMaxCallDepth = 10000

// Interpreter drives evaluation of C-- declaration lists.
type Interpreter struct {
	out          io.Writer
	maxCallDepth int
	strict       bool
	sourceName   string
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput redirects Print and Println.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		if w != nil {
			i.out = w
		}
	}
}

// WithMaxCallDepth caps nested user calls; zero or less disables the cap.
func WithMaxCallDepth(depth int) Option {
	return func(i *Interpreter) {
		i.maxCallDepth = depth
	}
}

// WithStrictDeclarations rejects a second top-level declaration of the same
// function or global name instead of letting the last one win.
func WithStrictDeclarations() Option {
	return func(i *Interpreter) {
		i.strict = true
	}
}

// WithSourceName sets the file name reported in issue locations when the
// program itself carries none.
func WithSourceName(name string) Option {
	return func(i *Interpreter) {
		i.sourceName = name
	}
}

// New returns an interpreter writing to os.Stdout.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		out:          os.Stdout,
		maxCallDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Program is the state built by registering a declaration list: the function
// table and the global environment. One Program backs one evaluation run.
type Program struct {
	interp    *Interpreter
	functions map[string]*ast.FunctionDeclaration
	order     []string
	global    *runtime.Environment
	source    string
	depth     int
}

// Evaluate registers decls into a fresh Program and calls Main with args.
func (i *Interpreter) Evaluate(decls []ast.Declaration, args []runtime.Value) (runtime.Value, error) {
	program, err := i.Load(decls)
	if err != nil {
		return nil, err
	}
	return program.Main(args)
}

// EvaluateProgram is Evaluate for a decoded AST document.
func (i *Interpreter) EvaluateProgram(prog *ast.Program, args []runtime.Value) (runtime.Value, error) {
	program, err := i.LoadProgram(prog)
	if err != nil {
		return nil, err
	}
	return program.Main(args)
}

// Load registers declarations in source order. Global initializers run
// immediately against the globals declared so far.
func (i *Interpreter) Load(decls []ast.Declaration) (*Program, error) {
	return i.load(decls, i.sourceName)
}

// LoadProgram is Load for a decoded AST document; issue locations use the
// document's source path.
func (i *Interpreter) LoadProgram(prog *ast.Program) (*Program, error) {
	if prog == nil {
		return i.load(nil, i.sourceName)
	}
	source := prog.Source
	if source == "" {
		source = i.sourceName
	}
	return i.load(prog.Declarations, source)
}

func (i *Interpreter) load(decls []ast.Declaration, source string) (*Program, error) {
	p := &Program{
		interp:    i,
		functions: make(map[string]*ast.FunctionDeclaration),
		global:    runtime.NewEnvironment(),
		source:    source,
	}
	for _, decl := range decls {
		if err := p.declare(decl); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Program) declare(decl ast.Declaration) error {
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		if d == nil {
			return p.evalError(nil, UnexpectedDeclaration, issue.H{"kind": "<nil> FunctionDeclaration"})
		}
		if _, exists := p.functions[d.Name]; exists {
			if p.interp.strict {
				return p.evalError(d, DuplicateFunction, issue.H{"name": d.Name})
			}
		} else {
			p.order = append(p.order, d.Name)
		}
		p.functions[d.Name] = d
		return nil
	case *ast.VariableDeclaration:
		if d == nil {
			return p.evalError(nil, UnexpectedDeclaration, issue.H{"kind": "<nil> VariableDeclaration"})
		}
		value, err := p.evaluate(d.Initializer, runtime.Scope{Global: p.global})
		if err != nil {
			return err
		}
		if p.global.Has(d.Name) {
			if p.interp.strict {
				return p.evalError(d, DuplicateBinding, issue.H{"name": d.Name})
			}
			return p.global.Assign(d.Name, value)
		}
		return p.global.Define(d.Name, value)
	case *ast.RawDeclaration:
		if d == nil {
			return p.evalError(nil, UnexpectedDeclaration, issue.H{"kind": "<nil> RawDeclaration"})
		}
		return p.evalError(d, UnexpectedDeclaration, issue.H{"kind": d.Kind})
	case nil:
		return p.evalError(nil, UnexpectedDeclaration, issue.H{"kind": "<nil>"})
	default:
		return p.evalError(decl, UnexpectedDeclaration, issue.H{"kind": string(decl.NodeType())})
	}
}

// Main invokes the entry point with args.
func (p *Program) Main(args []runtime.Value) (runtime.Value, error) {
	fn, ok := p.functions[EntryPoint]
	if !ok {
		return nil, p.evalError(nil, EntryPointNotFound, issue.H{"name": EntryPoint})
	}
	return p.callFunction(fn, fn, args)
}

// Call invokes a registered function by name with function-call semantics:
// the body must return a value.
func (p *Program) Call(name string, args []runtime.Value) (runtime.Value, error) {
	fn, ok := p.functions[name]
	if !ok {
		return nil, p.evalError(nil, FunctionNotFound, issue.H{"name": name})
	}
	return p.callFunction(fn, fn, args)
}

// Perform invokes a registered function by name with procedure-call
// semantics; any returned value is discarded.
func (p *Program) Perform(name string, args []runtime.Value) error {
	fn, ok := p.functions[name]
	if !ok {
		return p.evalError(nil, FunctionNotFound, issue.H{"name": name})
	}
	return p.callProcedure(fn, fn, args)
}

// Globals returns a copy of the global environment.
func (p *Program) Globals() map[string]runtime.Value {
	return p.global.Snapshot()
}

// GlobalNames lists global variables in sorted order.
func (p *Program) GlobalNames() []string {
	return p.global.Keys()
}

// Functions lists registered function names in first-declaration order.
func (p *Program) Functions() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Function returns the declaration registered under name.
func (p *Program) Function(name string) (*ast.FunctionDeclaration, bool) {
	fn, ok := p.functions[name]
	return fn, ok
}
