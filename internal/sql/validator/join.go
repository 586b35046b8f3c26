package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

var joinHints = map[string]struct{}{
	"broadcast": {},
	"shuffle":   {},
}

// analyzeFrom registers the FROM clause of a select block left to right.
// Each join condition sees the refs to its left and the joined ref itself.
func (a *statementAnalyzer) analyzeFrom(f int, block *Block, refs []parser.TableRef) error {
	for i, ref := range refs {
		tuple, child, err := a.registerTableRef(f, ref)
		if err != nil {
			return err
		}
		if child >= 0 {
			block.Children = append(block.Children, child)
		}
		block.Tuples = append(block.Tuples, tuple.ID)
		if i == 0 {
			continue
		}
		left := a.desc.Tuple(block.Tuples[i-1])
		join, err := a.analyzeJoin(f, left, tuple, ref.JoinClause())
		if err != nil {
			return err
		}
		block.Joins = append(block.Joins, join)
	}
	return nil
}

func (a *statementAnalyzer) analyzeJoin(f int, left, right *TupleDescriptor, spec *parser.JoinSpec) (JoinInfo, error) {
	join := JoinInfo{Right: right.ID, Kind: parser.JoinCross}
	if spec == nil {
		return join, nil
	}
	join.Kind = spec.Kind

	hints, err := checkJoinHints(spec.Hints)
	if err != nil {
		return join, err
	}
	join.Hints = hints

	switch spec.Kind {
	case parser.JoinLeftOuter, parser.JoinRightOuter, parser.JoinFullOuter, parser.JoinLeftSemi:
		if spec.On == nil && len(spec.Using) == 0 {
			return join, errorf(RequiresOnOrUsing, "%s requires an ON or USING clause", spec.Kind)
		}
	}

	if len(spec.Using) > 0 {
		using, err := a.buildUsing(left, right, spec.Using)
		if err != nil {
			return join, err
		}
		join.Using = using
	}

	if spec.On != nil {
		on, err := a.buildExpression(f, spec.On)
		if err != nil {
			return join, err
		}
		if expr.ContainsAggregate(on) {
			return join, errorf(AggregateInWhere, "aggregation function not allowed in ON clause")
		}
		if err := requireBoolean(on, "ON", spec.On); err != nil {
			return join, err
		}
		join.On = on
	}
	return join, nil
}

func checkJoinHints(hints []string) ([]string, error) {
	var chosen string
	out := make([]string, 0, len(hints))
	for _, hint := range hints {
		key := strings.ToLower(hint)
		if _, ok := joinHints[key]; !ok {
			return nil, errorf(UnknownJoinHint, "JOIN hint not recognized: %s", hint)
		}
		if chosen != "" && chosen != key {
			return nil, errorf(ConflictingJoinHint, "Conflicting JOIN hint: %s", hint)
		}
		chosen = key
		out = append(out, key)
	}
	return out, nil
}

// buildUsing turns `USING (c1, ...)` into equality predicates between the
// preceding ref and the joined ref.
func (a *statementAnalyzer) buildUsing(left, right *TupleDescriptor, columns []string) ([]expr.TypedExpr, error) {
	preds := make([]expr.TypedExpr, 0, len(columns))
	for _, name := range columns {
		leftCol, leftIdx, ok := left.Column(name)
		if !ok {
			return nil, errorf(UnknownUsingColumn, "unknown column %s for alias %s", name, left.Alias)
		}
		rightCol, rightIdx, ok := right.Column(name)
		if !ok {
			return nil, errorf(UnknownUsingColumn, "unknown column %s for alias %s", name, right.Alias)
		}
		leftRef := expr.NewSlotRef(a.desc.slotFor(left, leftIdx), left.Alias+"."+leftCol.Name, leftCol.Type)
		rightRef := expr.NewSlotRef(a.desc.slotFor(right, rightIdx), right.Alias+"."+rightCol.Name, rightCol.Type)
		if _, ok := expr.CommonType(leftCol.Type, rightCol.Type); !ok {
			return nil, errorf(IncomparableOperands, "operands are not comparable: %s = %s", leftRef.Label, rightRef.Label)
		}
		preds = append(preds, expr.NewBinary(expr.OpEqual, leftRef, rightRef, expr.TypeBoolean))
	}
	return preds, nil
}
