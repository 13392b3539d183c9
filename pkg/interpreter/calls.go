package interpreter

import (
	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

// invoke runs fn's body in a fresh local environment bound from args. The
// call site node locates arity and depth failures.
func (p *Program) invoke(site ast.Node, fn *ast.FunctionDeclaration, args []runtime.Value) (runtime.Value, bool, error) {
	if len(args) != len(fn.Parameters) {
		return nil, false, p.evalError(site, ArityMismatch, issue.H{
			"name":     fn.Name,
			"expected": len(fn.Parameters),
			"actual":   len(args),
		})
	}
	if limit := p.interp.maxCallDepth; limit > 0 && p.depth >= limit {
		return nil, false, p.evalError(site, CallDepthExceeded, issue.H{"limit": limit, "name": fn.Name})
	}
	p.depth++
	defer func() { p.depth-- }()

	scope := runtime.NewScope(p.global)
	for idx, param := range fn.Parameters {
		if err := scope.Bind(param.Name, args[idx]); err != nil {
			return nil, false, p.evalError(param, DuplicateBinding, issue.H{"name": param.Name})
		}
	}
	return p.executeBody(fn.Body, scope)
}

func (p *Program) callFunction(site ast.Node, fn *ast.FunctionDeclaration, args []runtime.Value) (runtime.Value, error) {
	val, returned, err := p.invoke(site, fn, args)
	if err != nil {
		return nil, err
	}
	if !returned {
		return nil, p.evalError(fn, MissingReturn, issue.H{"name": fn.Name})
	}
	return val, nil
}

// callProcedure discards whatever the body returns.
func (p *Program) callProcedure(site ast.Node, fn *ast.FunctionDeclaration, args []runtime.Value) error {
	_, _, err := p.invoke(site, fn, args)
	return err
}
