package ast

// Literal and reference helpers.

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Use(name string) *UseVariable {
	return NewUseVariable(name)
}

// Operation helpers.

func Bin(op Operator, left, right Expression) *Operation {
	return NewOperation(op, left, right)
}

func Un(op Operator, operand Expression) *Operation {
	return NewOperation(op, operand, nil)
}

func Call(name string, args ...Expression) *FunctionCall {
	return NewFunctionCall(name, args)
}

// Statement helpers.

func Assign(target string, value Expression) *AssignValue {
	return NewAssignValue(target, value)
}

func Ret(value Expression) *AssignValue {
	return NewAssignValue(ReturnTarget, value)
}

func IfElse(condition Expression, then, otherwise *Body) *If {
	return NewIf(condition, then, otherwise)
}

func Loop(condition Expression, body *Body) *While {
	return NewWhile(condition, body)
}

func Proc(name string, args ...Expression) *ProcedureCall {
	return NewProcedureCall(name, args)
}

func Blk(body *Body) *Block {
	return NewBlock(body)
}

// Declaration helpers.

func Stmts(statements ...Statement) *Body {
	return NewBody(nil, statements)
}

func BodyWith(locals []*VariableDeclaration, statements ...Statement) *Body {
	return NewBody(locals, statements)
}

func Var(name string, declaredType TypeName, initializer Expression) *VariableDeclaration {
	return NewVariableDeclaration(name, declaredType, initializer)
}

func Param(name string, declaredType TypeName) *Parameter {
	return NewParameter(name, declaredType)
}

func Fn(name string, params []*Parameter, returnType TypeName, body *Body) *FunctionDeclaration {
	return NewFunctionDeclaration(name, params, returnType, body)
}

func Prog(declarations ...Declaration) *Program {
	return NewProgram(declarations)
}
