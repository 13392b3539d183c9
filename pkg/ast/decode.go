package ast

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DecodeError reports a malformed AST document together with the offending
// position inside the document.
type DecodeError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("ast: %s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("ast: %d:%d: %s", e.Line, e.Column, e.Msg)
}

// LoadProgramFile reads a parser output document (YAML or JSON) from disk.
func LoadProgramFile(path string) (*Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ast: open %s: %w", path, err)
	}
	defer file.Close()

	program, err := decodeProgram(file, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	program.Source = path
	return program, nil
}

// DecodeProgram decodes a parser output document. The root is either a
// mapping with a `declarations` sequence or the sequence itself.
func DecodeProgram(r io.Reader) (*Program, error) {
	return decodeProgram(r, "")
}

func decodeProgram(r io.Reader, file string) (*Program, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{File: file, Msg: "empty document"}
		}
		return nil, fmt.Errorf("ast: parse %s: %w", file, err)
	}
	d := &decoder{file: file}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	list := root
	if root.Kind == yaml.MappingNode {
		list = d.field(root, "declarations")
		if list == nil {
			return nil, d.errorf(root, "missing declarations")
		}
	}
	if list.Kind != yaml.SequenceNode {
		return nil, d.errorf(list, "declarations must be a sequence")
	}

	decls := make([]Declaration, 0, len(list.Content))
	for _, item := range list.Content {
		decl, err := d.declaration(item)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	program := NewProgram(decls)
	d.position(program, root)
	return program, nil
}

type decoder struct {
	file string
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return &DecodeError{File: d.file, Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

// field returns the value under key. An explicit null counts as absent, the
// way JSON emitters write unset optional members.
func (d *decoder) field(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value != key {
			continue
		}
		v := n.Content[i+1]
		if v.Kind == yaml.ScalarNode && v.ShortTag() == "!!null" {
			return nil
		}
		return v
	}
	return nil
}

func (d *decoder) str(n *yaml.Node, key string, required bool) (string, error) {
	v := d.field(n, key)
	if v == nil {
		if required {
			return "", d.errorf(n, "missing %q", key)
		}
		return "", nil
	}
	if v.Kind != yaml.ScalarNode {
		return "", d.errorf(v, "%q must be a scalar", key)
	}
	return v.Value, nil
}

func (d *decoder) kind(n *yaml.Node) (string, error) {
	if n.Kind != yaml.MappingNode {
		return "", d.errorf(n, "expected a mapping node")
	}
	return d.str(n, "type", true)
}

// position copies explicit line/column keys, falling back to the document
// position of the node.
func (d *decoder) position(node Node, n *yaml.Node) {
	pos := Position{Line: n.Line, Column: n.Column}
	if v := d.field(n, "line"); v != nil {
		var line int
		if err := v.Decode(&line); err == nil {
			pos = Position{Line: line}
			if c := d.field(n, "column"); c != nil {
				_ = c.Decode(&pos.Column)
			}
		}
	}
	SetSpan(node, Span{Start: pos})
}

func (d *decoder) declaration(n *yaml.Node) (Declaration, error) {
	kind, err := d.kind(n)
	if err != nil {
		return nil, err
	}
	var decl Declaration
	switch NodeType(kind) {
	case NodeFunctionDeclaration:
		decl, err = d.function(n)
	case NodeVariableDeclaration:
		decl, err = d.variable(n)
	default:
		name, _ := d.str(n, "name", false)
		decl = NewRawDeclaration(kind, name)
	}
	if err != nil {
		return nil, err
	}
	d.position(decl, n)
	return decl, nil
}

func (d *decoder) function(n *yaml.Node) (*FunctionDeclaration, error) {
	name, err := d.str(n, "name", true)
	if err != nil {
		return nil, err
	}
	returnType, err := d.str(n, "returnType", false)
	if err != nil {
		return nil, err
	}
	var params []*Parameter
	if list := d.field(n, "parameters"); list != nil {
		if list.Kind != yaml.SequenceNode {
			return nil, d.errorf(list, "parameters must be a sequence")
		}
		for _, item := range list.Content {
			pname, err := d.str(item, "name", true)
			if err != nil {
				return nil, err
			}
			ptype, err := d.str(item, "declaredType", false)
			if err != nil {
				return nil, err
			}
			param := NewParameter(pname, TypeName(ptype))
			d.position(param, item)
			params = append(params, param)
		}
	}
	bodyNode := d.field(n, "body")
	if bodyNode == nil {
		return nil, d.errorf(n, "function %s missing body", name)
	}
	body, err := d.body(bodyNode)
	if err != nil {
		return nil, err
	}
	return NewFunctionDeclaration(name, params, TypeName(returnType), body), nil
}

func (d *decoder) variable(n *yaml.Node) (*VariableDeclaration, error) {
	name, err := d.str(n, "name", true)
	if err != nil {
		return nil, err
	}
	declaredType, err := d.str(n, "declaredType", false)
	if err != nil {
		return nil, err
	}
	initNode := d.field(n, "initializer")
	if initNode == nil {
		return nil, d.errorf(n, "variable %s missing initializer", name)
	}
	initializer, err := d.expression(initNode)
	if err != nil {
		return nil, err
	}
	decl := NewVariableDeclaration(name, TypeName(declaredType), initializer)
	d.position(decl, n)
	return decl, nil
}

// body accepts either a Body mapping or a bare statement sequence.
func (d *decoder) body(n *yaml.Node) (*Body, error) {
	var (
		locals    []*VariableDeclaration
		statsNode = n
	)
	if n.Kind == yaml.MappingNode {
		if list := d.field(n, "locals"); list != nil {
			if list.Kind != yaml.SequenceNode {
				return nil, d.errorf(list, "locals must be a sequence")
			}
			for _, item := range list.Content {
				local, err := d.variable(item)
				if err != nil {
					return nil, err
				}
				locals = append(locals, local)
			}
		}
		statsNode = d.field(n, "statements")
	}
	var stmts []Statement
	if statsNode != nil {
		if statsNode.Kind != yaml.SequenceNode {
			return nil, d.errorf(statsNode, "statements must be a sequence")
		}
		stmts = make([]Statement, 0, len(statsNode.Content))
		for _, item := range statsNode.Content {
			stmt, err := d.statement(item)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
	}
	body := NewBody(locals, stmts)
	d.position(body, n)
	return body, nil
}

func (d *decoder) optionalBody(n *yaml.Node, key string) (*Body, error) {
	v := d.field(n, key)
	if v == nil {
		return nil, nil
	}
	return d.body(v)
}

func (d *decoder) statement(n *yaml.Node) (Statement, error) {
	kind, err := d.kind(n)
	if err != nil {
		return nil, err
	}
	var stmt Statement
	switch NodeType(kind) {
	case NodeAssignValue:
		target, err := d.str(n, "target", true)
		if err != nil {
			return nil, err
		}
		value, err := d.requiredExpression(n, "value")
		if err != nil {
			return nil, err
		}
		stmt = NewAssignValue(target, value)
	case NodeIf:
		cond, err := d.requiredExpression(n, "condition")
		if err != nil {
			return nil, err
		}
		then, err := d.optionalBody(n, "then")
		if err != nil {
			return nil, err
		}
		if then == nil {
			return nil, d.errorf(n, "if missing then body")
		}
		otherwise, err := d.optionalBody(n, "else")
		if err != nil {
			return nil, err
		}
		stmt = NewIf(cond, then, otherwise)
	case NodeWhile:
		cond, err := d.requiredExpression(n, "condition")
		if err != nil {
			return nil, err
		}
		body, err := d.optionalBody(n, "body")
		if err != nil {
			return nil, err
		}
		if body == nil {
			body = NewBody(nil, nil)
		}
		stmt = NewWhile(cond, body)
	case NodeProcedureCall:
		name, err := d.str(n, "name", true)
		if err != nil {
			return nil, err
		}
		args, err := d.arguments(n)
		if err != nil {
			return nil, err
		}
		stmt = NewProcedureCall(name, args)
	case NodeBlock:
		body, err := d.optionalBody(n, "body")
		if err != nil {
			return nil, err
		}
		if body == nil {
			body = NewBody(nil, nil)
		}
		stmt = NewBlock(body)
	default:
		return nil, d.errorf(n, "unknown statement type %q", kind)
	}
	d.position(stmt, n)
	return stmt, nil
}

func (d *decoder) requiredExpression(n *yaml.Node, key string) (Expression, error) {
	v := d.field(n, key)
	if v == nil {
		return nil, d.errorf(n, "missing %q", key)
	}
	return d.expression(v)
}

func (d *decoder) arguments(n *yaml.Node) ([]Expression, error) {
	list := d.field(n, "arguments")
	if list == nil {
		return nil, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, d.errorf(list, "arguments must be a sequence")
	}
	args := make([]Expression, 0, len(list.Content))
	for _, item := range list.Content {
		arg, err := d.expression(item)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (d *decoder) expression(n *yaml.Node) (Expression, error) {
	if n.Kind == yaml.ScalarNode {
		return d.scalar(n)
	}
	kind, err := d.kind(n)
	if err != nil {
		return nil, err
	}
	var expr Expression
	switch NodeType(kind) {
	case NodeIntegerLiteral:
		v := d.field(n, "value")
		if v == nil {
			return nil, d.errorf(n, "integer literal missing value")
		}
		var i int64
		if err := v.Decode(&i); err != nil {
			return nil, d.errorf(v, "invalid integer %q", v.Value)
		}
		expr = NewIntegerLiteral(i)
	case NodeBooleanLiteral:
		v := d.field(n, "value")
		if v == nil {
			return nil, d.errorf(n, "boolean literal missing value")
		}
		var b bool
		if err := v.Decode(&b); err != nil {
			return nil, d.errorf(v, "invalid boolean %q", v.Value)
		}
		expr = NewBooleanLiteral(b)
	case NodeStringLiteral:
		s, err := d.str(n, "value", false)
		if err != nil {
			return nil, err
		}
		expr = NewStringLiteral(s)
	case NodeUseVariable:
		name, err := d.str(n, "name", true)
		if err != nil {
			return nil, err
		}
		expr = NewUseVariable(name)
	case NodeOperation:
		text, err := d.str(n, "operator", true)
		if err != nil {
			return nil, err
		}
		op, ok := ParseOperator(text)
		if !ok {
			return nil, d.errorf(n, "unknown operator %q", text)
		}
		left, err := d.requiredExpression(n, "left")
		if err != nil {
			return nil, err
		}
		var right Expression
		if v := d.field(n, "right"); v != nil {
			if right, err = d.expression(v); err != nil {
				return nil, err
			}
		}
		expr = NewOperation(op, left, right)
	case NodeFunctionCall:
		name, err := d.str(n, "name", true)
		if err != nil {
			return nil, err
		}
		args, err := d.arguments(n)
		if err != nil {
			return nil, err
		}
		expr = NewFunctionCall(name, args)
	default:
		return nil, d.errorf(n, "unknown expression type %q", kind)
	}
	d.position(expr, n)
	return expr, nil
}

func (d *decoder) scalar(n *yaml.Node) (Expression, error) {
	var expr Expression
	switch n.ShortTag() {
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, d.errorf(n, "invalid integer %q", n.Value)
		}
		expr = NewIntegerLiteral(i)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "invalid boolean %q", n.Value)
		}
		expr = NewBooleanLiteral(b)
	case "!!str":
		expr = NewStringLiteral(n.Value)
	default:
		return nil, d.errorf(n, "unsupported literal %q (%s)", n.Value, n.ShortTag())
	}
	SetSpan(expr, Span{Start: Position{Line: n.Line, Column: n.Column}})
	return expr, nil
}
