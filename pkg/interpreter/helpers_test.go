package interpreter

import (
	"bytes"
	"testing"

	"github.com/lyraproj/issue/issue"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/runtime"
)

// evalMain evaluates decls with output captured.
func evalMain(t *testing.T, decls []ast.Declaration, args []runtime.Value, opts ...Option) (runtime.Value, string, error) {
	t.Helper()
	var out bytes.Buffer
	interp := New(append([]Option{WithOutput(&out)}, opts...)...)
	val, err := interp.Evaluate(decls, args)
	return val, out.String(), err
}

// mainReturning wraps expr in a parameterless Main that returns it.
func mainReturning(expr ast.Expression, extra ...ast.Declaration) []ast.Declaration {
	return append(extra, ast.Fn("Main", nil, ast.TypeInteger, ast.Stmts(ast.Ret(expr))))
}

func expectCode(t *testing.T, err error, code issue.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got no error", code)
	}
	if got := IssueCode(err); got != code {
		t.Fatalf("expected %s, got %q (%v)", code, got, err)
	}
}

func expectInteger(t *testing.T, val runtime.Value, want int64) {
	t.Helper()
	iv, ok := val.(runtime.IntegerValue)
	if !ok {
		t.Fatalf("expected Integer %d, got %#v", want, val)
	}
	if iv.Val != want {
		t.Fatalf("expected Integer %d, got %d", want, iv.Val)
	}
}

func expectBool(t *testing.T, val runtime.Value, want bool) {
	t.Helper()
	bv, ok := val.(runtime.BoolValue)
	if !ok || bv.Val != want {
		t.Fatalf("expected Boolean %v, got %#v", want, val)
	}
}

func expectString(t *testing.T, val runtime.Value, want string) {
	t.Helper()
	sv, ok := val.(runtime.StringValue)
	if !ok || sv.Val != want {
		t.Fatalf("expected String %q, got %#v", want, val)
	}
}
