package ast

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const loopProgram = `
declarations:
  - type: VariableDeclaration
    name: limit
    declaredType: Integer
    initializer: 5
  - type: FunctionDeclaration
    name: Main
    returnType: Integer
    parameters:
      - name: start
        declaredType: Integer
    body:
      locals:
        - type: VariableDeclaration
          name: a
          declaredType: Integer
          initializer: {type: UseVariable, name: start}
      statements:
        - type: While
          condition: {type: Operation, operator: "==", left: {type: UseVariable, name: a}, right: 5}
          body:
            statements:
              - type: AssignValue
                target: a
                value: {type: Operation, operator: Plus, left: {type: UseVariable, name: a}, right: {type: IntegerLiteral, value: 5}}
        - type: ProcedureCall
          name: Println
          arguments:
            - {type: FunctionCall, name: ToString, arguments: [{type: UseVariable, name: a}]}
        - type: AssignValue
          target: return
          value: {type: UseVariable, name: a}
`

func TestDecodeProgramStructure(t *testing.T) {
	program, err := DecodeProgram(strings.NewReader(loopProgram))
	if err != nil {
		t.Fatalf("DecodeProgram returned error: %v", err)
	}
	if len(program.Declarations) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(program.Declarations))
	}

	global, ok := program.Declarations[0].(*VariableDeclaration)
	if !ok {
		t.Fatalf("expected variable declaration, got %T", program.Declarations[0])
	}
	if lit, ok := global.Initializer.(*IntegerLiteral); !ok || lit.Value != 5 {
		t.Fatalf("bare scalar initializer not decoded as integer literal: %#v", global.Initializer)
	}

	main, ok := program.Declarations[1].(*FunctionDeclaration)
	if !ok {
		t.Fatalf("expected function declaration, got %T", program.Declarations[1])
	}
	if main.Name != "Main" || main.ReturnType != TypeInteger {
		t.Fatalf("unexpected function header %q %q", main.Name, main.ReturnType)
	}
	if len(main.Parameters) != 1 || main.Parameters[0].Name != "start" || main.Parameters[0].DeclaredType != TypeInteger {
		t.Fatalf("unexpected parameters %#v", main.Parameters)
	}
	if len(main.Body.Locals) != 1 || main.Body.Locals[0].Name != "a" {
		t.Fatalf("unexpected locals %#v", main.Body.Locals)
	}
	if len(main.Body.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(main.Body.Statements))
	}

	loop, ok := main.Body.Statements[0].(*While)
	if !ok {
		t.Fatalf("expected while, got %T", main.Body.Statements[0])
	}
	cond, ok := loop.Condition.(*Operation)
	if !ok || cond.Operator != OpDoubleEquals || cond.IsUnary() {
		t.Fatalf("unexpected loop condition %#v", loop.Condition)
	}
	assign, ok := loop.Body.Statements[0].(*AssignValue)
	if !ok || assign.Target != "a" || assign.IsReturn() {
		t.Fatalf("unexpected loop body %#v", loop.Body.Statements[0])
	}
	if op, ok := assign.Value.(*Operation); !ok || op.Operator != OpPlus {
		t.Fatalf("named operator not resolved: %#v", assign.Value)
	}

	call, ok := main.Body.Statements[1].(*ProcedureCall)
	if !ok || call.Name != "Println" || len(call.Arguments) != 1 {
		t.Fatalf("unexpected procedure call %#v", main.Body.Statements[1])
	}
	if fn, ok := call.Arguments[0].(*FunctionCall); !ok || fn.Name != "ToString" {
		t.Fatalf("unexpected call argument %#v", call.Arguments[0])
	}

	ret, ok := main.Body.Statements[2].(*AssignValue)
	if !ok || !ret.IsReturn() {
		t.Fatalf("expected return statement, got %#v", main.Body.Statements[2])
	}
}

func TestDecodeRecordsPositions(t *testing.T) {
	program, err := DecodeProgram(strings.NewReader(loopProgram))
	if err != nil {
		t.Fatalf("DecodeProgram returned error: %v", err)
	}
	main := program.Declarations[1].(*FunctionDeclaration)
	if got := main.Span().Start.Line; got != 7 {
		t.Fatalf("function line = %d, want 7", got)
	}
	loop := main.Body.Statements[0]
	if loop.Span().IsZero() {
		t.Fatalf("expected statement span to be populated")
	}
}

func TestDecodeExplicitPositionWins(t *testing.T) {
	src := `
- type: FunctionDeclaration
  name: Main
  line: 42
  column: 7
  body: []
`
	program, err := DecodeProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeProgram returned error: %v", err)
	}
	span := program.Declarations[0].Span()
	if span.Start.Line != 42 || span.Start.Column != 7 {
		t.Fatalf("unexpected span %#v", span)
	}
	if body := program.Declarations[0].(*FunctionDeclaration).Body; len(body.Statements) != 0 {
		t.Fatalf("expected empty body, got %#v", body.Statements)
	}
}

func TestDecodeUnknownDeclarationIsPreserved(t *testing.T) {
	src := `{"declarations": [{"type": "StructDeclaration", "name": "Point"}]}`
	program, err := DecodeProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeProgram returned error: %v", err)
	}
	raw, ok := program.Declarations[0].(*RawDeclaration)
	if !ok {
		t.Fatalf("expected raw declaration, got %T", program.Declarations[0])
	}
	if raw.Kind != "StructDeclaration" || raw.Name != "Point" {
		t.Fatalf("unexpected raw declaration %#v", raw)
	}
}

func TestDecodeJSONTreatsNullMembersAsAbsent(t *testing.T) {
	src := `{"declarations": [{
  "type": "FunctionDeclaration", "name": "Main", "returnType": "Integer", "parameters": null,
  "body": {"locals": null, "statements": [
    {"type": "If",
     "condition": {"type": "Operation", "operator": "!", "left": true, "right": null},
     "then": {"locals": null, "statements": [{"type": "ProcedureCall", "name": "Println", "arguments": null}]},
     "else": null},
    {"type": "AssignValue", "target": "return",
     "value": {"type": "Operation", "operator": "-", "left": {"type": "IntegerLiteral", "value": 3}, "right": null}}
  ]}
}]}`
	program, err := DecodeProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeProgram returned error: %v", err)
	}
	main := program.Declarations[0].(*FunctionDeclaration)
	if len(main.Parameters) != 0 || len(main.Body.Locals) != 0 {
		t.Fatalf("expected no parameters or locals, got %#v", main)
	}
	ifStmt, ok := main.Body.Statements[0].(*If)
	if !ok {
		t.Fatalf("expected If, got %T", main.Body.Statements[0])
	}
	if ifStmt.Else != nil {
		t.Fatalf("expected no else body, got %#v", ifStmt.Else)
	}
	if cond := ifStmt.Condition.(*Operation); !cond.IsUnary() || cond.Operator != OpNot {
		t.Fatalf("expected unary !, got %#v", cond)
	}
	call := ifStmt.Then.Statements[0].(*ProcedureCall)
	if call.Name != "Println" || len(call.Arguments) != 0 {
		t.Fatalf("unexpected call %#v", call)
	}
	ret := main.Body.Statements[1].(*AssignValue)
	neg, ok := ret.Value.(*Operation)
	if !ok || !neg.IsUnary() || neg.Operator != OpMinus {
		t.Fatalf("expected unary -, got %#v", ret.Value)
	}

	_, err = DecodeProgram(strings.NewReader(`[{"type": "FunctionDeclaration", "name": null, "body": []}]`))
	if err == nil || !strings.Contains(err.Error(), `missing "name"`) {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"missing declarations": `name: nothing`,
		"unknown statement":    "- type: FunctionDeclaration\n  name: Main\n  body: [{type: Goto}]",
		"unknown operator":     "- type: VariableDeclaration\n  name: x\n  initializer: {type: Operation, operator: '%', left: 1, right: 2}",
		"null initializer":     "- type: VariableDeclaration\n  name: x\n  initializer: ~",
		"missing body":         "- type: FunctionDeclaration\n  name: Main",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeProgram(strings.NewReader(src))
			if err == nil {
				t.Fatalf("expected decode error")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %T: %v", err, err)
			}
			if decodeErr.Line == 0 {
				t.Fatalf("expected error position, got %#v", decodeErr)
			}
		})
	}
}

func TestLoadProgramFileSetsSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cmm.yml")
	if err := os.WriteFile(path, []byte(loopProgram), 0o644); err != nil {
		t.Fatalf("write program: %v", err)
	}
	program, err := LoadProgramFile(path)
	if err != nil {
		t.Fatalf("LoadProgramFile returned error: %v", err)
	}
	if program.Source != path {
		t.Fatalf("Source = %q, want %q", program.Source, path)
	}

	empty := filepath.Join(dir, "empty.yml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if _, err := LoadProgramFile(empty); err == nil || !strings.Contains(err.Error(), "empty document") {
		t.Fatalf("expected empty document error, got %v", err)
	}
}

func TestParseOperator(t *testing.T) {
	for text, want := range map[string]Operator{
		"+": OpPlus, "Minus": OpMinus, "GreaterEquals": OpGreaterEquals, "!=": OpNotEqual, "=": OpEquals,
	} {
		got, ok := ParseOperator(text)
		if !ok || got != want {
			t.Fatalf("ParseOperator(%q) = %q,%v want %q", text, got, ok, want)
		}
	}
	if _, ok := ParseOperator("%"); ok {
		t.Fatalf("expected %% to be rejected")
	}
}
