package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// TupleID identifies one registered row source of a statement.
type TupleID int

// TupleKind distinguishes the row sources a tuple can describe.
type TupleKind int

const (
	TupleBaseTable TupleKind = iota
	TupleInlineView
	TupleWithView
	TupleUnionResult
	TupleAggregation
)

func (k TupleKind) String() string {
	switch k {
	case TupleBaseTable:
		return "TABLE"
	case TupleInlineView:
		return "INLINE VIEW"
	case TupleWithView:
		return "WITH VIEW"
	case TupleUnionResult:
		return "UNION"
	case TupleAggregation:
		return "AGGREGATION"
	default:
		return "UNKNOWN"
	}
}

// ColumnDesc is one output column of a tuple.
type ColumnDesc struct {
	Name string
	Type expr.Type
}

// TupleDescriptor describes a table reference or derived row shape. Alias is
// the name the reference is displayed under: the explicit alias, the
// database-qualified table name or the view name.
type TupleDescriptor struct {
	ID       TupleID
	Kind     TupleKind
	Alias    string
	Explicit bool
	Table    *catalog.Table
	Block    BlockID
	Columns  []ColumnDesc

	key   string
	slots map[int]expr.SlotID
}

// Column finds a column by case-insensitive name.
func (t *TupleDescriptor) Column(name string) (ColumnDesc, int, bool) {
	for i, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, i, true
		}
	}
	return ColumnDesc{}, -1, false
}

// SlotDescriptor is one materialized column of a tuple.
type SlotDescriptor struct {
	ID     expr.SlotID
	Tuple  TupleID
	Column string
	Type   expr.Type
}

// DescriptorTable owns every tuple and slot created while analyzing one
// statement. Slot ids are dense and assigned in materialization order.
type DescriptorTable struct {
	Tuples []*TupleDescriptor
	Slots  []*SlotDescriptor
}

func newDescriptorTable() *DescriptorTable {
	return &DescriptorTable{}
}

func (d *DescriptorTable) addTuple(kind TupleKind, alias string, columns []ColumnDesc) *TupleDescriptor {
	tuple := &TupleDescriptor{
		ID:      TupleID(len(d.Tuples)),
		Kind:    kind,
		Alias:   alias,
		Block:   -1,
		Columns: columns,
		slots:   make(map[int]expr.SlotID),
	}
	d.Tuples = append(d.Tuples, tuple)
	return tuple
}

// slotFor returns the slot of a tuple column, materializing it on first use.
func (d *DescriptorTable) slotFor(tuple *TupleDescriptor, column int) expr.SlotID {
	if id, ok := tuple.slots[column]; ok {
		return id
	}
	col := tuple.Columns[column]
	id := expr.SlotID(len(d.Slots))
	d.Slots = append(d.Slots, &SlotDescriptor{ID: id, Tuple: tuple.ID, Column: col.Name, Type: col.Type})
	tuple.slots[column] = id
	return id
}

// Tuple returns the tuple with the given id.
func (d *DescriptorTable) Tuple(id TupleID) *TupleDescriptor {
	return d.Tuples[id]
}

// Slot returns the slot with the given id.
func (d *DescriptorTable) Slot(id expr.SlotID) *SlotDescriptor {
	return d.Slots[id]
}

// BlockID indexes the block arena of an Analysis.
type BlockID int

// BlockKind distinguishes select blocks from set operations.
type BlockKind int

const (
	BlockSelect BlockKind = iota
	BlockUnion
)

// OrderingExpr is one analyzed ORDER BY entry.
type OrderingExpr struct {
	Expr expr.TypedExpr
	Desc bool
}

// JoinInfo records the validated join of a FROM-clause item to the refs on
// its left. The first item has no JoinInfo.
type JoinInfo struct {
	Right TupleID
	Kind  parser.JoinKind
	Hints []string
	On    expr.TypedExpr
	Using []expr.TypedExpr
}

// AggregateMember is one slot of the aggregation output.
type AggregateMember struct {
	Slot expr.SlotID
	Expr expr.TypedExpr
}

// AggregationInfo is the derived aggregation output of a block: grouping
// expressions first, then aggregate calls in order of appearance.
type AggregationInfo struct {
	Tuple    TupleID
	Grouping []AggregateMember
	Calls    []AggregateMember
}

// Block is one analyzed query block. Children are the blocks of inline
// views, WITH views and union operands nested directly inside it.
type Block struct {
	ID       BlockID
	Kind     BlockKind
	Children []BlockID

	Labels      []string
	Types       []expr.Type
	ResultExprs []expr.TypedExpr

	Distinct    bool
	Tuples      []TupleID
	Joins       []JoinInfo
	Where       expr.TypedExpr
	GroupBy     []expr.TypedExpr
	Having      expr.TypedExpr
	Aggregation *AggregationInfo

	Operands []BlockID
	All      []bool

	OrderBy []OrderingExpr
	Limit   *parser.LimitClause
}

// IsAggregate reports whether the block computes an aggregation output.
func (b *Block) IsAggregate() bool {
	return b.Aggregation != nil
}
