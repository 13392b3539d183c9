package ast

type NodeType string

const (
	NodeProgram             NodeType = "Program"
	NodeFunctionDeclaration NodeType = "FunctionDeclaration"
	NodeVariableDeclaration NodeType = "VariableDeclaration"
	NodeRawDeclaration      NodeType = "RawDeclaration"
	NodeParameter           NodeType = "Parameter"
	NodeBody                NodeType = "Body"
	NodeAssignValue         NodeType = "AssignValue"
	NodeIf                  NodeType = "If"
	NodeWhile               NodeType = "While"
	NodeProcedureCall       NodeType = "ProcedureCall"
	NodeBlock               NodeType = "Block"
	NodeIntegerLiteral      NodeType = "IntegerLiteral"
	NodeBooleanLiteral      NodeType = "BooleanLiteral"
	NodeStringLiteral       NodeType = "StringLiteral"
	NodeUseVariable         NodeType = "UseVariable"
	NodeOperation           NodeType = "Operation"
	NodeFunctionCall        NodeType = "FunctionCall"
)

type Node interface {
	NodeType() NodeType
	Span() Span
	isNode()
}

type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsZero reports whether the span carries no source information.
func (s Span) IsZero() bool {
	return s == Span{}
}

type nodeImpl struct {
	Type NodeType `json:"type"`
	span Span
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Span() Span         { return n.span }
func (nodeImpl) isNode()              {}
func (n *nodeImpl) setSpan(span Span) { n.span = span }

// SetSpan annotates the node with the provided span.
func SetSpan(node Node, span Span) {
	if node == nil {
		return
	}
	if setter, ok := node.(interface{ setSpan(Span) }); ok {
		setter.setSpan(span)
	}
}

// Marker interfaces.

type Declaration interface {
	Node
	declarationNode()
}

type declarationMarker struct{}

func (declarationMarker) declarationNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Literal interface {
	Expression
	literalNode()
}

type literalMarker struct{}

func (literalMarker) literalNode() {}

// Program is the ordered list of top-level declarations handed over by the parser.
type Program struct {
	nodeImpl

	Source       string        `json:"source,omitempty"`
	Declarations []Declaration `json:"declarations"`
}

func NewProgram(declarations []Declaration) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Declarations: declarations}
}

// Literals

type IntegerLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker

	Value int64 `json:"value"`
}

func NewIntegerLiteral(value int64) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	literalMarker

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

// Expressions

type UseVariable struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewUseVariable(name string) *UseVariable {
	return &UseVariable{nodeImpl: newNodeImpl(NodeUseVariable), Name: name}
}

type Operator string

const (
	OpPlus          Operator = "+"
	OpMinus         Operator = "-"
	OpMultiply      Operator = "*"
	OpAnd           Operator = "&&"
	OpOr            Operator = "||"
	OpNot           Operator = "!"
	OpDoubleEquals  Operator = "=="
	OpNotEqual      Operator = "!="
	OpLess          Operator = "<"
	OpLessEqual     Operator = "<="
	OpGreater       Operator = ">"
	OpGreaterEquals Operator = ">="
	OpEquals        Operator = "="
)

var operatorNames = map[string]Operator{
	"Plus":          OpPlus,
	"Minus":         OpMinus,
	"Multiply":      OpMultiply,
	"And":           OpAnd,
	"Or":            OpOr,
	"Not":           OpNot,
	"DoubleEquals":  OpDoubleEquals,
	"NotEqual":      OpNotEqual,
	"Less":          OpLess,
	"LessEqual":     OpLessEqual,
	"Greater":       OpGreater,
	"GreaterEquals": OpGreaterEquals,
	"Equals":        OpEquals,
}

// ParseOperator accepts either the symbol or the operator's name.
func ParseOperator(text string) (Operator, bool) {
	if op, ok := operatorNames[text]; ok {
		return op, true
	}
	for _, op := range operatorNames {
		if string(op) == text {
			return op, true
		}
	}
	return "", false
}

// Operation is a unary operation when Right is nil.
type Operation struct {
	nodeImpl
	expressionMarker

	Operator Operator   `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right,omitempty"`
}

func NewOperation(operator Operator, left, right Expression) *Operation {
	return &Operation{nodeImpl: newNodeImpl(NodeOperation), Operator: operator, Left: left, Right: right}
}

func (o *Operation) IsUnary() bool { return o.Right == nil }

type FunctionCall struct {
	nodeImpl
	expressionMarker

	Name      string       `json:"name"`
	Arguments []Expression `json:"arguments,omitempty"`
}

func NewFunctionCall(name string, arguments []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Name: name, Arguments: arguments}
}

// Statements

// ReturnTarget is the assignment target that signals an early return.
const ReturnTarget = "return"

type AssignValue struct {
	nodeImpl
	statementMarker

	Target string     `json:"target"`
	Value  Expression `json:"value"`
}

func NewAssignValue(target string, value Expression) *AssignValue {
	return &AssignValue{nodeImpl: newNodeImpl(NodeAssignValue), Target: target, Value: value}
}

func (a *AssignValue) IsReturn() bool { return a.Target == ReturnTarget }

type If struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Then      *Body      `json:"then"`
	Else      *Body      `json:"else,omitempty"`
}

func NewIf(condition Expression, then, otherwise *Body) *If {
	return &If{nodeImpl: newNodeImpl(NodeIf), Condition: condition, Then: then, Else: otherwise}
}

type While struct {
	nodeImpl
	statementMarker

	Condition Expression `json:"condition"`
	Body      *Body      `json:"body"`
}

func NewWhile(condition Expression, body *Body) *While {
	return &While{nodeImpl: newNodeImpl(NodeWhile), Condition: condition, Body: body}
}

type ProcedureCall struct {
	nodeImpl
	statementMarker

	Name      string       `json:"name"`
	Arguments []Expression `json:"arguments,omitempty"`
}

func NewProcedureCall(name string, arguments []Expression) *ProcedureCall {
	return &ProcedureCall{nodeImpl: newNodeImpl(NodeProcedureCall), Name: name, Arguments: arguments}
}

type Block struct {
	nodeImpl
	statementMarker

	Body *Body `json:"body"`
}

func NewBlock(body *Body) *Block {
	return &Block{nodeImpl: newNodeImpl(NodeBlock), Body: body}
}
