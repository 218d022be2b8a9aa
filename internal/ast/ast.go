// Package ast defines the typed syntax tree the ctrl backend consumes.
// The tree arrives already typed from an external front end; this package
// only describes and transports it.
package ast

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents integer and boolean literals.
	ExprLiteral ExprKind = iota
	// ExprIdentifier represents a reference to a bound name.
	ExprIdentifier
	// ExprAssign represents a binding `name = value`.
	ExprAssign
	// ExprBinary represents a binary operation.
	ExprBinary
	// ExprReturn represents `return value`.
	ExprReturn
	// ExprBlock represents a braced statement sequence.
	ExprBlock
	// ExprFunction represents a function declaration.
	ExprFunction
	// ExprCall is reserved for calls; lowering rejects it.
	ExprCall
	// ExprUnary is reserved for unary operators; lowering rejects it.
	ExprUnary
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprIdentifier:
		return "Identifier"
	case ExprAssign:
		return "Assign"
	case ExprBinary:
		return "Binary"
	case ExprReturn:
		return "Return"
	case ExprBlock:
		return "Block"
	case ExprFunction:
		return "Function"
	case ExprCall:
		return "Call"
	case ExprUnary:
		return "Unary"
	default:
		return "Unknown"
	}
}

// BinOp enumerates binary operators.
type BinOp uint8

const (
	// OpAdd is addition.
	OpAdd BinOp = iota
	// OpSub is subtraction.
	OpSub
	// OpMul is multiplication.
	OpMul
	// OpDiv is signed division.
	OpDiv
	// OpEq is reserved; lowering rejects it.
	OpEq
	// OpLt is reserved; lowering rejects it.
	OpLt
)

// String returns the operator spelling.
func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpLt:
		return "<"
	default:
		return "?"
	}
}

// UnOp enumerates unary operators.
type UnOp uint8

const (
	// OpNeg is arithmetic negation.
	OpNeg UnOp = iota
	// OpNot is boolean negation.
	OpNot
)

// Expr is one expression node.
type Expr struct {
	Kind ExprKind
	Data ExprData // Kind-specific payload
}

// ExprData is the interface for expression-specific payloads.
type ExprData interface {
	exprData()
}

// LitKind enumerates literal kinds.
type LitKind uint8

const (
	// LitInt is an integer literal.
	LitInt LitKind = iota
	// LitBool is a boolean literal.
	LitBool
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind      LitKind
	IntValue  int64
	BoolValue bool
}

func (LiteralData) exprData() {}

// IdentifierData holds data for ExprIdentifier.
type IdentifierData struct {
	Name string
}

func (IdentifierData) exprData() {}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Name  string
	Value *Expr
}

func (AssignData) exprData() {}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// ReturnData holds data for ExprReturn.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) exprData() {}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Stmts []*Expr
}

func (BlockData) exprData() {}

// Param is one declared function parameter.
type Param struct {
	Name string
	Type Type
}

// FuncData holds data for ExprFunction.
type FuncData struct {
	Name   string
	Params []Param
	Result Type
	Body   []*Expr
}

func (FuncData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee string
	Args   []*Expr
}

func (CallData) exprData() {}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// Program is one compilation input: a module name and its top-level items.
type Program struct {
	Name  string
	Items []*Expr
}

// Constructors used by front ends and tests.

// IntLit returns an integer literal expression.
func IntLit(v int64) *Expr {
	return &Expr{Kind: ExprLiteral, Data: LiteralData{Kind: LitInt, IntValue: v}}
}

// BoolLit returns a boolean literal expression.
func BoolLit(v bool) *Expr {
	return &Expr{Kind: ExprLiteral, Data: LiteralData{Kind: LitBool, BoolValue: v}}
}

// Ident returns an identifier expression.
func Ident(name string) *Expr {
	return &Expr{Kind: ExprIdentifier, Data: IdentifierData{Name: name}}
}

// Assign returns an assignment expression.
func Assign(name string, value *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Data: AssignData{Name: name, Value: value}}
}

// Binary returns a binary operation expression.
func Binary(op BinOp, left, right *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Data: BinaryData{Op: op, Left: left, Right: right}}
}

// Ret returns a return expression.
func Ret(value *Expr) *Expr {
	return &Expr{Kind: ExprReturn, Data: ReturnData{Value: value}}
}

// Block returns a block expression over the given statements.
func Block(stmts ...*Expr) *Expr {
	return &Expr{Kind: ExprBlock, Data: BlockData{Stmts: stmts}}
}

// FuncDecl returns a function declaration expression.
func FuncDecl(name string, params []Param, result Type, body ...*Expr) *Expr {
	return &Expr{Kind: ExprFunction, Data: FuncData{
		Name:   name,
		Params: params,
		Result: result,
		Body:   body,
	}}
}
