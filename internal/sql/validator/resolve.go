package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// resolveQualifier maps `t` or `db.t` onto a registered tuple of frame f.
// Explicit aliases and view names match first; implicit table references
// also match by bare table name.
func (a *statementAnalyzer) resolveQualifier(f int, database, table string) (*TupleDescriptor, error) {
	fr := a.frames[f]
	written := table
	if database != "" {
		written = database + "." + table
	}
	if id, ok := fr.aliases[strings.ToLower(written)]; ok {
		return a.desc.Tuple(id), nil
	}
	if database != "" {
		return nil, errorf(UnknownTableAlias, "unknown table alias: '%s'", written)
	}
	var matches []*TupleDescriptor
	for _, id := range fr.refs {
		tuple := a.desc.Tuple(id)
		if tuple.Kind != TupleBaseTable || tuple.Explicit {
			continue
		}
		if strings.EqualFold(tuple.Table.Name, table) {
			matches = append(matches, tuple)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errorf(UnknownTableAlias, "unknown table alias: '%s'", written)
	case 1:
		return matches[0], nil
	default:
		return nil, errorf(AmbiguousTableAlias, "unqualified table alias is ambiguous: '%s'", written)
	}
}

// resolveColumn binds a column reference to a slot of frame f.
func (a *statementAnalyzer) resolveColumn(f int, ref *parser.ColumnRef) (*expr.SlotRef, error) {
	label := parser.FormatExpression(ref)
	if ref.Table != "" {
		tuple, err := a.resolveQualifier(f, ref.Database, ref.Table)
		if err != nil {
			return nil, err
		}
		col, idx, ok := tuple.Column(ref.Name)
		if !ok {
			qualifier := ref.Table
			if ref.Database != "" {
				qualifier = ref.Database + "." + ref.Table
			}
			return nil, errorf(UnknownColumn, "unknown column '%s' (table alias '%s')", ref.Name, qualifier)
		}
		return expr.NewSlotRef(a.desc.slotFor(tuple, idx), label, col.Type), nil
	}

	var (
		found    *TupleDescriptor
		foundIdx int
		count    int
	)
	for _, id := range a.frames[f].refs {
		tuple := a.desc.Tuple(id)
		if _, idx, ok := tuple.Column(ref.Name); ok {
			found, foundIdx = tuple, idx
			count++
		}
	}
	switch {
	case count == 0:
		return nil, errorf(UnresolvedColumnReference, "couldn't resolve column reference: '%s'", ref.Name)
	case count > 1:
		return nil, errorf(AmbiguousColumnReference, "Unqualified column reference '%s' is ambiguous", ref.Name)
	}
	return expr.NewSlotRef(a.desc.slotFor(found, foundIdx), label, found.Columns[foundIdx].Type), nil
}

// expandStar expands `*` or `qualifier.*` into one slot reference per
// column, labelled with the bare column name.
func (a *statementAnalyzer) expandStar(f int, item *parser.SelectStarItem) ([]expr.TypedExpr, []string, error) {
	fr := a.frames[f]
	var tuples []*TupleDescriptor
	if item.Table != "" {
		tuple, err := a.resolveQualifier(f, item.Database, item.Table)
		if err != nil {
			return nil, nil, err
		}
		tuples = append(tuples, tuple)
	} else {
		if len(fr.refs) == 0 {
			return nil, nil, errorf(InvalidStarUsage, "'*' expression in select list requires FROM clause.")
		}
		for _, id := range fr.refs {
			tuples = append(tuples, a.desc.Tuple(id))
		}
	}
	var (
		exprs  []expr.TypedExpr
		labels []string
	)
	for _, tuple := range tuples {
		for idx, col := range tuple.Columns {
			slot := a.desc.slotFor(tuple, idx)
			exprs = append(exprs, expr.NewSlotRef(slot, tuple.Alias+"."+col.Name, col.Type))
			labels = append(labels, col.Name)
		}
	}
	return exprs, labels, nil
}
