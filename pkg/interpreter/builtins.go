package interpreter

import (
	"io"

	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

const (
	builtinPrint    = "Print"
	builtinPrintln  = "Println"
	builtinToString = "ToString"
)

// IsBuiltinFunction reports whether a function call to name in expression
// position is handled by the evaluator rather than a user declaration.
func IsBuiltinFunction(name string) bool {
	return name == builtinToString
}

// IsBuiltinProcedure reports whether a procedure call statement to name is
// handled by the evaluator rather than a user declaration.
func IsBuiltinProcedure(name string) bool {
	return name == builtinPrint || name == builtinPrintln
}

// builtinWrite evaluates every argument before writing any of them. Println
// terminates each rendered argument with a newline.
func (p *Program) builtinWrite(call *ast.ProcedureCall, scope runtime.Scope) error {
	values, err := p.evaluateArguments(call.Arguments, scope)
	if err != nil {
		return err
	}
	for _, val := range values {
		text := runtime.Render(val)
		if call.Name == builtinPrintln {
			text += "\n"
		}
		if _, err := io.WriteString(p.interp.out, text); err != nil {
			return p.evalError(call, OutputFailed, issue.H{"message": err.Error()})
		}
	}
	return nil
}

func (p *Program) builtinToString(call *ast.FunctionCall, scope runtime.Scope) (runtime.Value, error) {
	if len(call.Arguments) != 1 {
		return nil, p.evalError(call, ArityMismatch, issue.H{
			"name":     builtinToString,
			"expected": 1,
			"actual":   len(call.Arguments),
		})
	}
	val, err := p.evaluate(call.Arguments[0], scope)
	if err != nil {
		return nil, err
	}
	return runtime.StringValue{Val: runtime.Render(val)}, nil
}
