package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// setOperand is one input of a UNION together with its rendering for
// diagnostics.
type setOperand struct {
	query parser.QueryStmt
	all   bool
	text  string
}

func (a *statementAnalyzer) analyzeUnion(f int, stmt *parser.UnionStmt) (BlockID, error) {
	operands := make([]setOperand, len(stmt.Operands))
	for i, op := range stmt.Operands {
		operands[i] = setOperand{query: op.Query, all: op.All, text: parser.FormatQuery(op.Query)}
	}
	return a.analyzeSetOperation(f, stmt.With, operands, stmt.OrderBy, stmt.Limit)
}

// analyzeValues treats a single row as a select without FROM and several
// rows as a UNION ALL of such selects.
func (a *statementAnalyzer) analyzeValues(f int, stmt *parser.ValuesStmt) (BlockID, error) {
	if len(stmt.Rows) == 1 {
		return a.analyzeSelect(f, &parser.SelectStmt{
			With:    stmt.With,
			Items:   stmt.Rows[0],
			OrderBy: stmt.OrderBy,
			Limit:   stmt.Limit,
		})
	}
	operands := make([]setOperand, len(stmt.Rows))
	for i, row := range stmt.Rows {
		operands[i] = setOperand{
			query: &parser.SelectStmt{Items: row},
			all:   true,
			text:  parser.FormatValuesRow(row),
		}
	}
	return a.analyzeSetOperation(f, stmt.With, operands, stmt.OrderBy, stmt.Limit)
}

func (a *statementAnalyzer) analyzeSetOperation(f int, with []*parser.WithView, operands []setOperand, orderBy []parser.OrderItem, limit *parser.LimitClause) (BlockID, error) {
	block := &Block{Kind: BlockUnion, Limit: limit}
	views, err := a.analyzeWith(f, with)
	if err != nil {
		return -1, err
	}
	block.Children = append(block.Children, views...)

	var (
		first  *Block
		common []expr.Type
		blocks []*Block
	)
	for i, op := range operands {
		id, err := a.analyzeQuery(a.newFrame(f), op.query)
		if err != nil {
			return -1, err
		}
		current := a.block(id)
		block.Children = append(block.Children, id)
		block.Operands = append(block.Operands, id)
		block.All = append(block.All, op.all)
		blocks = append(blocks, current)

		if i == 0 {
			first = current
			common = append([]expr.Type(nil), current.Types...)
			continue
		}
		if len(current.Labels) != len(first.Labels) {
			return -1, errorf(UnequalColumnCount,
				"Operands have unequal number of columns:\n'%s' has %d column(s)\n'%s' has %d column(s)",
				operands[0].text, len(first.Labels), op.text, len(current.Labels))
		}
		for c := range common {
			merged, ok := expr.CommonType(common[c], current.Types[c])
			if ok {
				common[c] = merged
				continue
			}
			blame := blocks[0]
			for _, earlier := range blocks[:i] {
				if _, ok := expr.CommonType(earlier.Types[c], current.Types[c]); !ok {
					blame = earlier
					break
				}
			}
			return -1, errorf(IncompatibleTypes, "Incompatible return types '%s' and '%s' of exprs '%s' and '%s'.",
				blame.Types[c], current.Types[c], expr.Format(blame.ResultExprs[c]), expr.Format(current.ResultExprs[c]))
		}
	}

	block.Labels = first.Labels
	block.ResultExprs = first.ResultExprs
	block.Types = common

	ordering, err := a.analyzeUnionOrderBy(f, block, orderBy)
	if err != nil {
		return -1, err
	}
	block.OrderBy = ordering
	return a.addBlock(block), nil
}

// analyzeUnionOrderBy resolves ORDER BY of a set operation against its
// result columns only.
func (a *statementAnalyzer) analyzeUnionOrderBy(f int, block *Block, items []parser.OrderItem) ([]OrderingExpr, error) {
	if len(items) == 0 {
		return nil, nil
	}
	resultFrame := a.newFrame(f)
	tuple := a.desc.addTuple(TupleUnionResult, "", viewColumns(block.Labels, block.Types))
	a.frames[resultFrame].refs = append(a.frames[resultFrame].refs, tuple.ID)

	columns := make([]expr.TypedExpr, len(block.Labels))
	for i, label := range block.Labels {
		columns[i] = expr.NewSlotRef(a.desc.slotFor(tuple, i), label, block.Types[i])
	}

	out := make([]OrderingExpr, 0, len(items))
	for _, item := range items {
		var built expr.TypedExpr
		if n, text, ok := ordinal(item.Expr); ok {
			if err := checkOrdinal("ORDER BY", n, text, len(columns)); err != nil {
				return nil, err
			}
			built = columns[n-1]
		} else {
			if ref, ok := item.Expr.(*parser.ColumnRef); ok && ref.Table == "" {
				matches := 0
				for _, label := range block.Labels {
					if strings.EqualFold(label, ref.Name) {
						matches++
					}
				}
				if matches > 1 {
					return nil, errorf(AmbiguousAlias, "Column %s in order clause is ambiguous", ref.Name)
				}
			}
			var err error
			built, err = a.buildExpression(resultFrame, item.Expr)
			if err != nil {
				return nil, err
			}
			if expr.ContainsAggregate(built) {
				return nil, errorf(InvalidAggregateCall, "ORDER BY of a UNION must not contain aggregate functions")
			}
		}
		out = append(out, OrderingExpr{Expr: built, Desc: item.Desc})
	}
	return out, nil
}
