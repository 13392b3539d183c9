package interpreter

import (
	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

func (p *Program) evaluate(node ast.Expression, scope runtime.Scope) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return runtime.IntegerValue{Val: n.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.UseVariable:
		val, err := scope.Lookup(n.Name)
		if err != nil {
			return nil, p.evalError(n, NameNotFound, issue.H{"name": n.Name})
		}
		return val, nil
	case *ast.Operation:
		if n.IsUnary() {
			return p.evaluateUnary(n, scope)
		}
		return p.evaluateBinary(n, scope)
	case *ast.FunctionCall:
		return p.evaluateFunctionCall(n, scope)
	case nil:
		return nil, p.evalError(nil, UnexpectedNode, issue.H{"kind": "empty expression"})
	default:
		return nil, p.evalError(node, UnexpectedNode, issue.H{"kind": string(node.NodeType())})
	}
}

func (p *Program) evaluateUnary(op *ast.Operation, scope runtime.Scope) (runtime.Value, error) {
	switch op.Operator {
	case ast.OpNot:
		operand, err := p.evaluate(op.Left, scope)
		if err != nil {
			return nil, err
		}
		b, ok := operand.(runtime.BoolValue)
		if !ok {
			return nil, p.typeMismatch(op, "Boolean", operand)
		}
		return runtime.BoolValue{Val: !b.Val}, nil
	case ast.OpMinus:
		operand, err := p.evaluate(op.Left, scope)
		if err != nil {
			return nil, err
		}
		n, ok := operand.(runtime.IntegerValue)
		if !ok {
			return nil, p.typeMismatch(op, "Integer", operand)
		}
		return runtime.IntegerValue{Val: -n.Val}, nil
	default:
		if !knownOperator(op.Operator) {
			return nil, p.evalError(op, UnknownOperator, issue.H{"operator": string(op.Operator)})
		}
		return nil, p.evalError(op, InvalidOperatorArity, issue.H{"operator": string(op.Operator), "reason": "needs two operands"})
	}
}

func (p *Program) evaluateBinary(op *ast.Operation, scope runtime.Scope) (runtime.Value, error) {
	switch op.Operator {
	case ast.OpNot:
		return nil, p.evalError(op, InvalidOperatorArity, issue.H{"operator": string(op.Operator), "reason": "takes exactly one operand"})
	case ast.OpEquals:
		return nil, p.evalError(op, InvalidOperatorPosition, issue.H{"operator": string(op.Operator)})
	}
	if !knownOperator(op.Operator) {
		return nil, p.evalError(op, UnknownOperator, issue.H{"operator": string(op.Operator)})
	}

	left, err := p.evaluate(op.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := p.evaluate(op.Right, scope)
	if err != nil {
		return nil, err
	}

	switch op.Operator {
	case ast.OpDoubleEquals:
		return runtime.BoolValue{Val: runtime.ValuesEqual(left, right)}, nil
	case ast.OpNotEqual:
		return runtime.BoolValue{Val: !runtime.ValuesEqual(left, right)}, nil
	case ast.OpPlus:
		switch l := left.(type) {
		case runtime.IntegerValue:
			if r, ok := right.(runtime.IntegerValue); ok {
				return runtime.IntegerValue{Val: l.Val + r.Val}, nil
			}
			return nil, p.typeMismatch(op, "Integer", right)
		case runtime.StringValue:
			if r, ok := right.(runtime.StringValue); ok {
				return runtime.StringValue{Val: l.Val + r.Val}, nil
			}
			return nil, p.typeMismatch(op, "String", right)
		default:
			return nil, p.typeMismatch(op, "Integer or String", left)
		}
	case ast.OpMinus, ast.OpMultiply, ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEquals:
		l, ok := left.(runtime.IntegerValue)
		if !ok {
			return nil, p.typeMismatch(op, "Integer", left)
		}
		r, ok := right.(runtime.IntegerValue)
		if !ok {
			return nil, p.typeMismatch(op, "Integer", right)
		}
		return integerOperation(op.Operator, l.Val, r.Val), nil
	case ast.OpAnd, ast.OpOr:
		l, ok := left.(runtime.BoolValue)
		if !ok {
			return nil, p.typeMismatch(op, "Boolean", left)
		}
		r, ok := right.(runtime.BoolValue)
		if !ok {
			return nil, p.typeMismatch(op, "Boolean", right)
		}
		if op.Operator == ast.OpAnd {
			return runtime.BoolValue{Val: l.Val && r.Val}, nil
		}
		return runtime.BoolValue{Val: l.Val || r.Val}, nil
	}
	return nil, p.evalError(op, UnknownOperator, issue.H{"operator": string(op.Operator)})
}

func integerOperation(op ast.Operator, l, r int64) runtime.Value {
	switch op {
	case ast.OpMinus:
		return runtime.IntegerValue{Val: l - r}
	case ast.OpMultiply:
		return runtime.IntegerValue{Val: l * r}
	case ast.OpLess:
		return runtime.BoolValue{Val: l < r}
	case ast.OpLessEqual:
		return runtime.BoolValue{Val: l <= r}
	case ast.OpGreater:
		return runtime.BoolValue{Val: l > r}
	default:
		return runtime.BoolValue{Val: l >= r}
	}
}

func knownOperator(op ast.Operator) bool {
	_, ok := ast.ParseOperator(string(op))
	return ok
}

func (p *Program) typeMismatch(op *ast.Operation, expected string, actual runtime.Value) error {
	return p.evalError(op, TypeMismatch, issue.H{
		"operation": "Operator '" + string(op.Operator) + "'",
		"expected":  expected,
		"actual":    runtime.Describe(actual),
	})
}

func (p *Program) evaluateFunctionCall(call *ast.FunctionCall, scope runtime.Scope) (runtime.Value, error) {
	if IsBuiltinFunction(call.Name) {
		return p.builtinToString(call, scope)
	}
	fn, ok := p.functions[call.Name]
	if !ok {
		return nil, p.evalError(call, FunctionNotFound, issue.H{"name": call.Name})
	}
	args, err := p.evaluateArguments(call.Arguments, scope)
	if err != nil {
		return nil, err
	}
	return p.callFunction(call, fn, args)
}

func (p *Program) evaluateArguments(exprs []ast.Expression, scope runtime.Scope) ([]runtime.Value, error) {
	values := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := p.evaluate(expr, scope)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return values, nil
}
