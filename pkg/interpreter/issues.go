package interpreter

import (
	"errors"

	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
)

const (
	NameNotFound            issue.Code = `CMM_NAME_NOT_FOUND`
	FunctionNotFound        issue.Code = `CMM_FUNCTION_NOT_FOUND`
	DuplicateBinding        issue.Code = `CMM_DUPLICATE_BINDING`
	DuplicateFunction       issue.Code = `CMM_DUPLICATE_FUNCTION`
	ArityMismatch           issue.Code = `CMM_ARITY_MISMATCH`
	TypeMismatch            issue.Code = `CMM_TYPE_MISMATCH`
	InvalidOperatorArity    issue.Code = `CMM_INVALID_OPERATOR_ARITY`
	InvalidOperatorPosition issue.Code = `CMM_INVALID_OPERATOR_POSITION`
	UnknownOperator         issue.Code = `CMM_UNKNOWN_OPERATOR`
	MissingReturn           issue.Code = `CMM_MISSING_RETURN`
	UnexpectedDeclaration   issue.Code = `CMM_UNEXPECTED_DECLARATION`
	UnexpectedNode          issue.Code = `CMM_UNEXPECTED_NODE`
	EntryPointNotFound      issue.Code = `CMM_ENTRY_POINT_NOT_FOUND`
	CallDepthExceeded       issue.Code = `CMM_CALL_DEPTH_EXCEEDED`
	OutputFailed            issue.Code = `CMM_OUTPUT_FAILED`
)

func init() {
	issue.Hard(NameNotFound, `Unknown variable '%{name}'`)

	issue.Hard(FunctionNotFound, `Unknown function '%{name}'`)

	issue.Hard(DuplicateBinding, `Variable '%{name}' can't be initialized twice`)

	issue.Hard(DuplicateFunction, `Function '%{name}' is already declared`)

	issue.Hard(ArityMismatch, `'%{name}' expects %{expected} argument(s), got %{actual}`)

	issue.Hard(TypeMismatch, `%{operation} expects %{expected}, got %{actual}`)

	issue.Hard(InvalidOperatorArity, `Operator '%{operator}' %{reason}`)

	issue.Hard(InvalidOperatorPosition, `Operator '%{operator}' is not allowed in an expression`)

	issue.Hard(UnknownOperator, `Unknown operator '%{operator}'`)

	issue.Hard(MissingReturn, `Function '%{name}' ended without returning a value`)

	issue.Hard(UnexpectedDeclaration, `Unexpected top-level declaration %{kind}`)

	issue.Hard(UnexpectedNode, `Unexpected %{kind} node`)

	issue.Hard(EntryPointNotFound, `No function named '%{name}' to start the program`)

	issue.Hard(CallDepthExceeded, `Call depth limit %{limit} exceeded calling '%{name}'`)

	issue.Hard(OutputFailed, `Writing program output failed: %{message}`)
}

// EntryPoint names the function Evaluate invokes.
const EntryPoint = "Main"

func (p *Program) location(node ast.Node) issue.Location {
	var line, column int
	if node != nil {
		span := node.Span()
		line, column = span.Start.Line, span.Start.Column
	}
	return issue.NewLocation(p.source, line, column)
}

func (p *Program) evalError(node ast.Node, code issue.Code, args issue.H) issue.Reported {
	return issue.NewReported(code, issue.SEVERITY_ERROR, args, p.location(node))
}

// IssueCode extracts the issue code of an evaluation failure, or "" when err
// did not originate in the evaluator.
func IssueCode(err error) issue.Code {
	var reported issue.Reported
	if errors.As(err, &reported) {
		return reported.Code()
	}
	return ""
}
