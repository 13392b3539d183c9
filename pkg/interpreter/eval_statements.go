package interpreter

import (
	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

// executeBody binds the body's locals into scope.Local, then runs its
// statements. The returned bool reports an early return carrying the value.
func (p *Program) executeBody(body *ast.Body, scope runtime.Scope) (runtime.Value, bool, error) {
	if body == nil {
		return nil, false, nil
	}
	for _, local := range body.Locals {
		val, err := p.evaluate(local.Initializer, scope)
		if err != nil {
			return nil, false, err
		}
		if err := scope.Bind(local.Name, val); err != nil {
			return nil, false, p.evalError(local, DuplicateBinding, issue.H{"name": local.Name})
		}
	}
	for _, stmt := range body.Statements {
		val, returned, err := p.executeStatement(stmt, scope)
		if err != nil || returned {
			return val, returned, err
		}
	}
	return nil, false, nil
}

func (p *Program) executeStatement(node ast.Statement, scope runtime.Scope) (runtime.Value, bool, error) {
	switch n := node.(type) {
	case *ast.AssignValue:
		val, err := p.evaluate(n.Value, scope)
		if err != nil {
			return nil, false, err
		}
		if n.IsReturn() {
			return val, true, nil
		}
		if err := scope.Assign(n.Target, val); err != nil {
			return nil, false, p.evalError(n, NameNotFound, issue.H{"name": n.Target})
		}
		return nil, false, nil
	case *ast.If:
		cond, err := p.condition(n, n.Condition, "If", scope)
		if err != nil {
			return nil, false, err
		}
		if cond {
			return p.executeBody(n.Then, scope)
		}
		return p.executeBody(n.Else, scope)
	case *ast.While:
		for {
			cond, err := p.condition(n, n.Condition, "While", scope)
			if err != nil || !cond {
				return nil, false, err
			}
			val, returned, err := p.executeBody(n.Body, scope)
			if err != nil || returned {
				return val, returned, err
			}
		}
	case *ast.ProcedureCall:
		return nil, false, p.executeProcedureCall(n, scope)
	case *ast.Block:
		return p.executeBody(n.Body, scope)
	case nil:
		return nil, false, p.evalError(nil, UnexpectedNode, issue.H{"kind": "empty statement"})
	default:
		return nil, false, p.evalError(node, UnexpectedNode, issue.H{"kind": string(node.NodeType())})
	}
}

func (p *Program) condition(node ast.Node, expr ast.Expression, construct string, scope runtime.Scope) (bool, error) {
	val, err := p.evaluate(expr, scope)
	if err != nil {
		return false, err
	}
	b, ok := val.(runtime.BoolValue)
	if !ok {
		return false, p.evalError(node, TypeMismatch, issue.H{
			"operation": construct + " condition",
			"expected":  "Boolean",
			"actual":    runtime.Describe(val),
		})
	}
	return b.Val, nil
}

func (p *Program) executeProcedureCall(call *ast.ProcedureCall, scope runtime.Scope) error {
	if IsBuiltinProcedure(call.Name) {
		return p.builtinWrite(call, scope)
	}
	fn, ok := p.functions[call.Name]
	if !ok {
		return p.evalError(call, FunctionNotFound, issue.H{"name": call.Name})
	}
	args, err := p.evaluateArguments(call.Arguments, scope)
	if err != nil {
		return err
	}
	return p.callProcedure(call, fn, args)
}
