package ast

// Definitions

type TypeName string

const (
	TypeInteger TypeName = "Integer"
	TypeBoolean TypeName = "Boolean"
	TypeString  TypeName = "String"
	TypeVoid    TypeName = "Void"
)

type Parameter struct {
	nodeImpl

	Name         string   `json:"name"`
	DeclaredType TypeName `json:"declaredType"`
}

func NewParameter(name string, declaredType TypeName) *Parameter {
	return &Parameter{nodeImpl: newNodeImpl(NodeParameter), Name: name, DeclaredType: declaredType}
}

// Body owns its local declarations; they are bound into the enclosing call's
// local environment on entry.
type Body struct {
	nodeImpl

	Locals     []*VariableDeclaration `json:"locals,omitempty"`
	Statements []Statement            `json:"statements"`
}

func NewBody(locals []*VariableDeclaration, statements []Statement) *Body {
	return &Body{nodeImpl: newNodeImpl(NodeBody), Locals: locals, Statements: statements}
}

type FunctionDeclaration struct {
	nodeImpl
	declarationMarker

	Name       string       `json:"name"`
	Parameters []*Parameter `json:"parameters,omitempty"`
	ReturnType TypeName     `json:"returnType,omitempty"`
	Body       *Body        `json:"body"`
}

func NewFunctionDeclaration(name string, parameters []*Parameter, returnType TypeName, body *Body) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), Name: name, Parameters: parameters, ReturnType: returnType, Body: body}
}

type VariableDeclaration struct {
	nodeImpl
	declarationMarker

	Name         string     `json:"name"`
	DeclaredType TypeName   `json:"declaredType"`
	Initializer  Expression `json:"initializer"`
}

func NewVariableDeclaration(name string, declaredType TypeName, initializer Expression) *VariableDeclaration {
	return &VariableDeclaration{nodeImpl: newNodeImpl(NodeVariableDeclaration), Name: name, DeclaredType: declaredType, Initializer: initializer}
}

// RawDeclaration preserves a top-level node the parser produced but which is
// neither a function nor a variable declaration.
type RawDeclaration struct {
	nodeImpl
	declarationMarker

	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

func NewRawDeclaration(kind, name string) *RawDeclaration {
	return &RawDeclaration{nodeImpl: newNodeImpl(NodeRawDeclaration), Kind: kind, Name: name}
}
