package expr

// SlotID identifies one materialized slot in a statement's descriptor table.
type SlotID int

// TypedExpr represents an analyzed expression with its result type. The set
// of implementations is closed; passes over the tree switch exhaustively.
type TypedExpr interface {
	ResultType() Type
	typedExpr()
}

// LiteralKind identifies the literal category.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBoolean
	LiteralNull
)

// Literal represents a constant expression.
type Literal struct {
	Kind  LiteralKind
	Value string
	typ   Type
}

// NewLiteral constructs a literal expression.
func NewLiteral(kind LiteralKind, value string, typ Type) *Literal {
	return &Literal{Kind: kind, Value: value, typ: typ}
}

// ResultType implements TypedExpr.
func (l *Literal) ResultType() Type { return l.typ }

// SlotRef references a column slot of a registered table reference. Label is
// the reference as written by the user.
type SlotRef struct {
	Slot  SlotID
	Label string
	typ   Type
}

// NewSlotRef constructs a typed slot reference.
func NewSlotRef(slot SlotID, label string, typ Type) *SlotRef {
	return &SlotRef{Slot: slot, Label: label, typ: typ}
}

// ResultType implements TypedExpr.
func (s *SlotRef) ResultType() Type { return s.typ }

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpPlus UnaryOp = iota
	OpNegate
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpNegate:
		return "-"
	default:
		return "NOT"
	}
}

// UnaryExpr models a unary expression.
type UnaryExpr struct {
	Op   UnaryOp
	Expr TypedExpr
	typ  Type
}

// NewUnary constructs a typed unary expression.
func NewUnary(op UnaryOp, expr TypedExpr, typ Type) *UnaryExpr {
	return &UnaryExpr{Op: op, Expr: expr, typ: typ}
}

// ResultType implements TypedExpr.
func (u *UnaryExpr) ResultType() Type { return u.typ }

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
)

var binaryOpText = map[BinaryOp]string{
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulo:       "%",
	OpEqual:        "=",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpAnd:          "AND",
	OpOr:           "OR",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool { return op >= OpEqual && op <= OpGreaterEqual }

// IsArithmetic reports whether op is an arithmetic operator.
func (op BinaryOp) IsArithmetic() bool { return op <= OpModulo }

// BinaryExpr describes a binary expression.
type BinaryExpr struct {
	Op    BinaryOp
	Left  TypedExpr
	Right TypedExpr
	typ   Type
}

// NewBinary constructs a typed binary expression.
func NewBinary(op BinaryOp, left, right TypedExpr, typ Type) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: left, Right: right, typ: typ}
}

// ResultType implements TypedExpr.
func (b *BinaryExpr) ResultType() Type { return b.typ }

// IsNullExpr tests whether the operand yields NULL.
type IsNullExpr struct {
	Expr    TypedExpr
	Negated bool
}

// ResultType implements TypedExpr.
func (i *IsNullExpr) ResultType() Type { return TypeBoolean }

// CastExpr converts its operand to a target type.
type CastExpr struct {
	Expr TypedExpr
	typ  Type
}

// NewCast constructs a cast expression.
func NewCast(expr TypedExpr, typ Type) *CastExpr {
	return &CastExpr{Expr: expr, typ: typ}
}

// ResultType implements TypedExpr.
func (c *CastExpr) ResultType() Type { return c.typ }

// FunctionExpr captures scalar function invocations.
type FunctionExpr struct {
	Name string
	Args []TypedExpr
	typ  Type
}

// NewFunction constructs a typed function call.
func NewFunction(name string, args []TypedExpr, typ Type) *FunctionExpr {
	return &FunctionExpr{Name: name, Args: args, typ: typ}
}

// ResultType implements TypedExpr.
func (f *FunctionExpr) ResultType() Type { return f.typ }

// AggregateExpr is an aggregate function call. Name is upper-cased.
type AggregateExpr struct {
	Name     string
	Distinct bool
	Star     bool
	Args     []TypedExpr
	typ      Type
}

// NewAggregate constructs a typed aggregate call.
func NewAggregate(name string, distinct, star bool, args []TypedExpr, typ Type) *AggregateExpr {
	return &AggregateExpr{Name: name, Distinct: distinct, Star: star, Args: args, typ: typ}
}

// ResultType implements TypedExpr.
func (a *AggregateExpr) ResultType() Type { return a.typ }

// OutputRef references a slot of an aggregation output tuple.
type OutputRef struct {
	Slot SlotID
	typ  Type
}

// NewOutputRef constructs a reference to an aggregation output slot.
func NewOutputRef(slot SlotID, typ Type) *OutputRef {
	return &OutputRef{Slot: slot, typ: typ}
}

// ResultType implements TypedExpr.
func (o *OutputRef) ResultType() Type { return o.typ }

func (*Literal) typedExpr()       {}
func (*SlotRef) typedExpr()       {}
func (*UnaryExpr) typedExpr()     {}
func (*BinaryExpr) typedExpr()    {}
func (*IsNullExpr) typedExpr()    {}
func (*CastExpr) typedExpr()      {}
func (*FunctionExpr) typedExpr()  {}
func (*AggregateExpr) typedExpr() {}
func (*OutputRef) typedExpr()     {}
