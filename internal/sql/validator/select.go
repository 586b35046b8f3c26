package validator

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// selectListItem is one unexpanded select list entry. A star item expands to
// several expressions.
type selectListItem struct {
	star   bool
	exprs  []expr.TypedExpr
	labels []string
}

type selectList struct {
	items  []selectListItem
	exprs  []expr.TypedExpr
	labels []string
}

func (l *selectList) hasStar() bool {
	for _, item := range l.items {
		if item.star {
			return true
		}
	}
	return false
}

// analyzeQuery dispatches a row-producing statement to its block analyzer.
func (a *statementAnalyzer) analyzeQuery(f int, q parser.QueryStmt) (BlockID, error) {
	if err := a.ctx.Err(); err != nil {
		return -1, errors.WithStack(err)
	}
	switch s := q.(type) {
	case *parser.SelectStmt:
		return a.analyzeSelect(f, s)
	case *parser.UnionStmt:
		return a.analyzeUnion(f, s)
	case *parser.ValuesStmt:
		return a.analyzeValues(f, s)
	default:
		return -1, errors.Errorf("validator: unsupported query %T", q)
	}
}

func (a *statementAnalyzer) analyzeSelect(f int, stmt *parser.SelectStmt) (BlockID, error) {
	block := &Block{Kind: BlockSelect, Distinct: stmt.Distinct, Limit: stmt.Limit}

	views, err := a.analyzeWith(f, stmt.With)
	if err != nil {
		return -1, err
	}
	block.Children = append(block.Children, views...)

	if err := a.analyzeFrom(f, block, stmt.From); err != nil {
		return -1, err
	}

	list, err := a.analyzeSelectList(f, stmt.Items)
	if err != nil {
		return -1, err
	}

	var where expr.TypedExpr
	if stmt.Where != nil {
		where, err = a.buildExpression(f, stmt.Where)
		if err != nil {
			return -1, err
		}
		if expr.ContainsAggregate(where) {
			return -1, errorf(AggregateInWhere, "aggregation function not allowed in WHERE clause")
		}
		if err := requireBoolean(where, "WHERE", stmt.Where); err != nil {
			return -1, err
		}
	}

	groupBy, err := a.analyzeGroupBy(f, list, stmt.GroupBy)
	if err != nil {
		return -1, err
	}

	var having expr.TypedExpr
	if stmt.Having != nil {
		having, err = a.buildExpression(f, stmt.Having)
		if err != nil {
			return -1, err
		}
		if err := requireBoolean(having, "HAVING", stmt.Having); err != nil {
			return -1, err
		}
	}

	orderBy, err := a.analyzeOrderBy(f, list, stmt.OrderBy)
	if err != nil {
		return -1, err
	}

	var calls []*expr.AggregateExpr
	for _, e := range list.exprs {
		calls = append(calls, expr.Aggregates(e)...)
	}
	if having != nil {
		calls = append(calls, expr.Aggregates(having)...)
	}
	for _, item := range orderBy {
		calls = append(calls, expr.Aggregates(item.Expr)...)
	}

	if len(stmt.From) == 0 && len(calls) > 0 {
		return -1, errorf(NoFromClauseAggregation, "aggregation without a FROM clause is not allowed")
	}
	if stmt.Distinct && (len(calls) > 0 || len(groupBy) > 0) {
		return -1, errorf(DistinctWithAggregate, "cannot combine SELECT DISTINCT with aggregate functions or GROUP BY")
	}
	if err := checkDistinctParams(calls); err != nil {
		return -1, err
	}

	block.Labels = list.labels
	block.ResultExprs = list.exprs
	block.Where = where
	block.GroupBy = groupBy
	block.Having = having
	block.OrderBy = orderBy

	if len(groupBy) > 0 || len(calls) > 0 || having != nil {
		if err := a.applyAggregation(block, calls); err != nil {
			return -1, err
		}
	}

	block.Types = make([]expr.Type, len(block.ResultExprs))
	for i, e := range block.ResultExprs {
		block.Types[i] = e.ResultType()
	}
	return a.addBlock(block), nil
}

func (a *statementAnalyzer) analyzeSelectList(f int, items []parser.SelectItem) (*selectList, error) {
	list := &selectList{}
	for _, item := range items {
		var entry selectListItem
		switch it := item.(type) {
		case *parser.SelectStarItem:
			exprs, labels, err := a.expandStar(f, it)
			if err != nil {
				return nil, err
			}
			entry = selectListItem{star: true, exprs: exprs, labels: labels}
		case *parser.SelectExprItem:
			built, err := a.buildExpression(f, it.Expr)
			if err != nil {
				return nil, err
			}
			entry = selectListItem{exprs: []expr.TypedExpr{built}, labels: []string{itemLabel(it)}}
		default:
			return nil, errors.Errorf("validator: unsupported select item %T", item)
		}
		list.items = append(list.items, entry)
		list.exprs = append(list.exprs, entry.exprs...)
		list.labels = append(list.labels, entry.labels...)
	}
	return list, nil
}

func itemLabel(item *parser.SelectExprItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if ref, ok := item.Expr.(*parser.ColumnRef); ok {
		return ref.Name
	}
	return parser.FormatExpression(item.Expr)
}

// ordinal reports whether node is an integer literal, optionally signed, and
// returns its value and text. Literals beyond the int64 range saturate.
func ordinal(node parser.Expression) (int64, string, bool) {
	sign := ""
	if unary, ok := node.(*parser.UnaryExpr); ok {
		if unary.Op != parser.UnaryMinus && unary.Op != parser.UnaryPlus {
			return 0, "", false
		}
		sign, node = string(unary.Op), unary.Expr
	}
	lit, ok := node.(*parser.LiteralExpr)
	if !ok || lit.Literal.Kind != parser.LiteralNumber || strings.ContainsAny(lit.Literal.Value, ".eE") {
		return 0, "", false
	}
	text := lit.Literal.Value
	if sign == "-" {
		text = "-" + text
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		if sign == "-" {
			return math.MinInt64, text, true
		}
		return math.MaxInt64, text, true
	}
	return n, text, true
}

// checkOrdinal validates a 1-based ordinal against count select list items.
func checkOrdinal(clause string, n int64, text string, count int) error {
	if n < 1 {
		return errorf(InvalidOrdinal, "%s: ordinal must be >= 1: %s", clause, text)
	}
	if n > int64(count) {
		return errorf(InvalidOrdinal, "%s: ordinal exceeds number of items in select list: %s", clause, text)
	}
	return nil
}

// resolveOrdinal maps a 1-based ordinal onto the unexpanded select list.
func resolveOrdinal(clause string, list *selectList, n int64, text string) (expr.TypedExpr, error) {
	if err := checkOrdinal(clause, n, text, len(list.items)); err != nil {
		return nil, err
	}
	item := list.items[n-1]
	if item.star {
		return nil, errorf(InvalidOrdinal, "%s: ordinal refers to '*' in select list", clause)
	}
	return item.exprs[0], nil
}

// resolveAlias matches an unqualified column reference against the labels of
// the non-star select list items. It returns nil when no label matches; a
// label shared by several items is ambiguous.
func resolveAlias(clause string, list *selectList, node parser.Expression) (expr.TypedExpr, error) {
	ref, ok := node.(*parser.ColumnRef)
	if !ok || ref.Table != "" {
		return nil, nil
	}
	var match expr.TypedExpr
	for _, item := range list.items {
		if item.star || !strings.EqualFold(item.labels[0], ref.Name) {
			continue
		}
		if match != nil {
			return nil, errorf(AmbiguousAlias, "Column %s in %s clause is ambiguous", ref.Name, clause)
		}
		match = item.exprs[0]
	}
	return match, nil
}

func (a *statementAnalyzer) analyzeGroupBy(f int, list *selectList, nodes []parser.Expression) ([]expr.TypedExpr, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if list.hasStar() {
		return nil, errorf(InvalidStarUsage, "cannot combine '*' in select list with GROUP BY")
	}
	out := make([]expr.TypedExpr, 0, len(nodes))
	for _, node := range nodes {
		var (
			built expr.TypedExpr
			err   error
		)
		if n, text, ok := ordinal(node); ok {
			built, err = resolveOrdinal("GROUP BY", list, n, text)
		} else if built, err = resolveAlias("group by", list, node); err == nil && built == nil {
			built, err = a.buildExpression(f, node)
		}
		if err != nil {
			return nil, err
		}
		if expr.ContainsAggregate(built) {
			return nil, errorf(GroupByContainsAggregate, "GROUP BY expression must not contain aggregate functions")
		}
		out = append(out, built)
	}
	return out, nil
}

func (a *statementAnalyzer) analyzeOrderBy(f int, list *selectList, items []parser.OrderItem) ([]OrderingExpr, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]OrderingExpr, 0, len(items))
	for _, item := range items {
		var (
			built expr.TypedExpr
			err   error
		)
		if n, text, ok := ordinal(item.Expr); ok {
			built, err = resolveOrdinal("ORDER BY", list, n, text)
		} else if built, err = resolveAlias("order", list, item.Expr); err == nil && built == nil {
			built, err = a.buildExpression(f, item.Expr)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, OrderingExpr{Expr: built, Desc: item.Desc})
	}
	return out, nil
}

// applyAggregation allocates the aggregation output of block and rewrites
// its select list, HAVING and ORDER BY in terms of that output.
func (a *statementAnalyzer) applyAggregation(block *Block, calls []*expr.AggregateExpr) error {
	builder := newAggregationBuilder(a.desc)
	for _, e := range block.GroupBy {
		builder.addGrouping(e)
	}
	for _, call := range calls {
		builder.addCall(call)
	}
	block.Aggregation = builder.info

	results := make([]expr.TypedExpr, len(block.ResultExprs))
	for i, e := range block.ResultExprs {
		results[i] = builder.substitute(e)
		if expr.ContainsSlotRef(results[i]) {
			return errorf(NotProducedByAggregation,
				"select list expression not produced by aggregation output (missing from GROUP BY clause?): %s", expr.Format(e))
		}
	}
	block.ResultExprs = results

	if block.Having != nil {
		having := builder.substitute(block.Having)
		if expr.ContainsSlotRef(having) {
			return errorf(HavingNotProducedByAggregation,
				"HAVING clause not produced by aggregation output (missing from GROUP BY clause?): %s", expr.Format(block.Having))
		}
		block.Having = having
	}

	for i, item := range block.OrderBy {
		ordered := builder.substitute(item.Expr)
		if expr.ContainsSlotRef(ordered) {
			return errorf(OrderByNotProducedByAggregation,
				"ORDER BY expression not produced by aggregation output (missing from GROUP BY clause?): %s", expr.Format(item.Expr))
		}
		block.OrderBy[i].Expr = ordered
	}
	return nil
}
