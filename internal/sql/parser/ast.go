package parser

// Statement represents a top-level SQL statement.
type Statement interface {
	stmt()
}

// QueryStmt is a row-producing statement: SELECT, UNION or VALUES.
type QueryStmt interface {
	Statement
	query()
	WithClause() []*WithView
}

// Expression represents an expression node.
type Expression interface {
	expr()
}

// TableRef is one FROM-clause item.
type TableRef interface {
	tableRef()
	JoinClause() *JoinSpec
}

// SelectItem is one entry of a select list or VALUES row.
type SelectItem interface {
	selectItem()
}

// WithView binds an alias to a query inside a WITH clause.
type WithView struct {
	Alias string
	Query QueryStmt
}

// SelectStmt models SELECT statements.
type SelectStmt struct {
	With     []*WithView
	Distinct bool
	Items    []SelectItem
	From     []TableRef
	Where    Expression
	GroupBy  []Expression
	Having   Expression
	OrderBy  []OrderItem
	Limit    *LimitClause
}

// UnionOperand is one operand of a UNION chain. All describes the operator
// that joins the operand to its predecessor and is ignored for the first.
type UnionOperand struct {
	Query QueryStmt
	All   bool
}

// UnionStmt models a chain of queries combined with UNION.
type UnionStmt struct {
	With     []*WithView
	Operands []*UnionOperand
	OrderBy  []OrderItem
	Limit    *LimitClause
}

// ValuesStmt models VALUES with one or more constant rows.
type ValuesStmt struct {
	With    []*WithView
	Rows    [][]SelectItem
	OrderBy []OrderItem
	Limit   *LimitClause
}

// PartitionItem is one PARTITION clause entry. A nil Value marks a dynamic
// partition column.
type PartitionItem struct {
	Column string
	Value  Expression
}

// InsertStmt models INSERT INTO/OVERWRITE.
type InsertStmt struct {
	With          []*WithView
	Overwrite     bool
	Database      string
	Table         string
	HasColumnList bool
	Columns       []string
	Partition     []PartitionItem
	Query         QueryStmt
}

// LoadDataStmt models LOAD DATA INPATH.
type LoadDataStmt struct {
	Path      string
	Overwrite bool
	Database  string
	Table     string
	Partition []PartitionItem
}

// DescribeStmt models DESCRIBE [FORMATTED].
type DescribeStmt struct {
	Formatted bool
	Database  string
	Table     string
}

func (*SelectStmt) stmt()   {}
func (*UnionStmt) stmt()    {}
func (*ValuesStmt) stmt()   {}
func (*InsertStmt) stmt()   {}
func (*LoadDataStmt) stmt() {}
func (*DescribeStmt) stmt() {}

func (*SelectStmt) query() {}
func (*UnionStmt) query()  {}
func (*ValuesStmt) query() {}

// WithClause returns the statement's WITH views.
func (s *SelectStmt) WithClause() []*WithView { return s.With }

// WithClause returns the statement's WITH views.
func (s *UnionStmt) WithClause() []*WithView { return s.With }

// WithClause returns the statement's WITH views.
func (s *ValuesStmt) WithClause() []*WithView { return s.With }

// SelectStarItem represents `*` or `qualifier.*`.
type SelectStarItem struct {
	Database string
	Table    string
}

// SelectExprItem represents an expression projection with optional alias.
type SelectExprItem struct {
	Expr  Expression
	Alias string
}

func (*SelectStarItem) selectItem() {}
func (*SelectExprItem) selectItem() {}

// JoinKind enumerates join operators.
type JoinKind int

const (
	JoinCross JoinKind = iota
	JoinInner
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
	JoinLeftSemi
)

func (k JoinKind) String() string {
	switch k {
	case JoinCross:
		return "CROSS JOIN"
	case JoinInner:
		return "INNER JOIN"
	case JoinLeftOuter:
		return "LEFT OUTER JOIN"
	case JoinRightOuter:
		return "RIGHT OUTER JOIN"
	case JoinFullOuter:
		return "FULL OUTER JOIN"
	case JoinLeftSemi:
		return "LEFT SEMI JOIN"
	default:
		return "JOIN"
	}
}

// JoinSpec describes how a table reference joins the refs to its left.
// Comma-separated refs use JoinCross.
type JoinSpec struct {
	Kind  JoinKind
	Hints []string
	On    Expression
	Using []string
}

// TableName references a catalog table or a WITH view.
type TableName struct {
	Database string
	Name     string
	Alias    string
	Join     *JoinSpec
}

// InlineView references a parenthesised subquery.
type InlineView struct {
	Query QueryStmt
	Alias string
	Join  *JoinSpec
}

func (*TableName) tableRef()  {}
func (*InlineView) tableRef() {}

// JoinClause returns the join specification or nil for the first ref.
func (t *TableName) JoinClause() *JoinSpec { return t.Join }

// JoinClause returns the join specification or nil for the first ref.
func (v *InlineView) JoinClause() *JoinSpec { return v.Join }

// OrderItem represents an ORDER BY entry.
type OrderItem struct {
	Expr Expression
	Desc bool
}

// LimitClause describes LIMIT/OFFSET.
type LimitClause struct {
	Limit  int64
	Offset int64
}

// LiteralKind identifies the literal category.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBoolean
	LiteralNull
)

// Literal represents a literal value as it appeared in the query.
type Literal struct {
	Kind  LiteralKind
	Value string
}

// ColumnRef references a column, optionally qualified by table and database.
type ColumnRef struct {
	Database string
	Table    string
	Name     string
}

// LiteralExpr wraps a literal.
type LiteralExpr struct {
	Literal Literal
}

// UnaryOp enumerates unary operators.
type UnaryOp string

const (
	UnaryPlus  UnaryOp = "+"
	UnaryMinus UnaryOp = "-"
	UnaryNot   UnaryOp = "NOT"
)

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	Op   UnaryOp
	Expr Expression
}

// BinaryOp enumerates binary operators.
type BinaryOp string

const (
	BinaryAdd          BinaryOp = "+"
	BinarySubtract     BinaryOp = "-"
	BinaryMultiply     BinaryOp = "*"
	BinaryDivide       BinaryOp = "/"
	BinaryModulo       BinaryOp = "%"
	BinaryEqual        BinaryOp = "="
	BinaryNotEqual     BinaryOp = "!="
	BinaryLess         BinaryOp = "<"
	BinaryLessEqual    BinaryOp = "<="
	BinaryGreater      BinaryOp = ">"
	BinaryGreaterEqual BinaryOp = ">="
	BinaryAnd          BinaryOp = "AND"
	BinaryOr           BinaryOp = "OR"
)

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether op is an arithmetic operator.
func (op BinaryOp) IsArithmetic() bool {
	switch op {
	case BinaryAdd, BinarySubtract, BinaryMultiply, BinaryDivide, BinaryModulo:
		return true
	default:
		return false
	}
}

// BinaryExpr combines two expressions.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expression
	Right Expression
}

// IsNullExpr represents IS [NOT] NULL checks.
type IsNullExpr struct {
	Expr    Expression
	Negated bool
}

// FunctionCallExpr invokes a scalar or aggregate function.
type FunctionCallExpr struct {
	Name     string
	Distinct bool
	Star     bool
	Args     []Expression
}

// CastExpr converts an expression to a named type.
type CastExpr struct {
	Expr     Expression
	TypeName string
}

func (*ColumnRef) expr()        {}
func (*LiteralExpr) expr()      {}
func (*UnaryExpr) expr()        {}
func (*BinaryExpr) expr()       {}
func (*IsNullExpr) expr()       {}
func (*FunctionCallExpr) expr() {}
func (*CastExpr) expr()         {}
