package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

func (a *statementAnalyzer) buildAggregate(f int, call *parser.FunctionCallExpr) (expr.TypedExpr, error) {
	name := strings.ToUpper(call.Name)
	if call.Star {
		if name != "COUNT" {
			return nil, errorf(InvalidAggregateCall, "'*' can only be used in conjunction with COUNT")
		}
		return expr.NewAggregate(name, false, true, nil, expr.TypeBigInt), nil
	}
	switch {
	case len(call.Args) == 0 && name == "COUNT":
		return nil, errorf(InvalidAggregateCall, "COUNT requires at least one parameter")
	case len(call.Args) > 1 && name == "COUNT" && !call.Distinct:
		return nil, errorf(InvalidAggregateCall, "COUNT must have DISTINCT for multiple arguments: %s", parser.FormatExpression(call))
	case len(call.Args) != 1 && name != "COUNT":
		return nil, errorf(InvalidAggregateCall, "%s requires exactly one parameter", name)
	}

	args := make([]expr.TypedExpr, len(call.Args))
	for i, arg := range call.Args {
		built, err := a.buildExpression(f, arg)
		if err != nil {
			return nil, err
		}
		if expr.ContainsAggregate(built) {
			return nil, errorf(NestedAggregate, "aggregate function cannot contain aggregate parameters")
		}
		args[i] = built
	}

	var result expr.Type
	argType := args[0].ResultType()
	switch name {
	case "COUNT":
		result = expr.TypeBigInt
	case "MIN", "MAX":
		result = argType
	case "SUM":
		if !numericOrNull(argType) {
			return nil, errorf(InvalidAggregateCall, "SUM requires a numeric parameter: %s", parser.FormatExpression(call))
		}
		result = expr.TypeBigInt
		if argType.IsFloat() {
			result = expr.TypeDouble
		}
	case "AVG":
		if !numericOrNull(argType) && argType != expr.TypeTimestamp {
			return nil, errorf(InvalidAggregateCall, "AVG requires a numeric or timestamp parameter: %s", parser.FormatExpression(call))
		}
		result = expr.TypeDouble
		if argType == expr.TypeTimestamp {
			result = expr.TypeTimestamp
		}
	}
	return expr.NewAggregate(name, call.Distinct, false, args, result), nil
}

// aggregationBuilder allocates the output tuple of an aggregating block and
// rewrites expressions in terms of it.
type aggregationBuilder struct {
	desc  *DescriptorTable
	tuple *TupleDescriptor
	info  *AggregationInfo
	// avg maps the position of an AVG call in info.Calls to the positions of
	// its SUM and COUNT members.
	avg map[int][2]int
}

func newAggregationBuilder(desc *DescriptorTable) *aggregationBuilder {
	tuple := desc.addTuple(TupleAggregation, "", nil)
	return &aggregationBuilder{
		desc:  desc,
		tuple: tuple,
		info:  &AggregationInfo{Tuple: tuple.ID},
		avg:   make(map[int][2]int),
	}
}

func (b *aggregationBuilder) allocate(e expr.TypedExpr) expr.SlotID {
	b.tuple.Columns = append(b.tuple.Columns, ColumnDesc{Name: expr.Format(e), Type: e.ResultType()})
	return b.desc.slotFor(b.tuple, len(b.tuple.Columns)-1)
}

func (b *aggregationBuilder) addGrouping(e expr.TypedExpr) {
	for _, member := range b.info.Grouping {
		if expr.Equal(member.Expr, e) {
			return
		}
	}
	b.info.Grouping = append(b.info.Grouping, AggregateMember{Slot: b.allocate(e), Expr: e})
}

func (b *aggregationBuilder) findCall(e expr.TypedExpr) int {
	for i, member := range b.info.Calls {
		if expr.Equal(member.Expr, e) {
			return i
		}
	}
	return -1
}

func (b *aggregationBuilder) addCall(call *expr.AggregateExpr) int {
	if idx := b.findCall(call); idx >= 0 {
		return idx
	}
	if call.Name == "AVG" && call.ResultType() == expr.TypeDouble {
		arg := call.Args[0]
		sum := b.addCall(sumOf(call.Distinct, arg))
		count := b.addCall(expr.NewAggregate("COUNT", call.Distinct, false, []expr.TypedExpr{arg}, expr.TypeBigInt))
		// AVG is represented by its SUM and COUNT members only.
		b.info.Calls = append(b.info.Calls, AggregateMember{Slot: -1, Expr: call})
		idx := len(b.info.Calls) - 1
		b.avg[idx] = [2]int{sum, count}
		return idx
	}
	b.info.Calls = append(b.info.Calls, AggregateMember{Slot: b.allocate(call), Expr: call})
	return len(b.info.Calls) - 1
}

func sumOf(distinct bool, arg expr.TypedExpr) *expr.AggregateExpr {
	typ := expr.TypeBigInt
	if arg.ResultType().IsFloat() {
		typ = expr.TypeDouble
	}
	return expr.NewAggregate("SUM", distinct, false, []expr.TypedExpr{arg}, typ)
}

// substitute rewrites grouping expressions and aggregate calls into
// references to the aggregation output.
func (b *aggregationBuilder) substitute(e expr.TypedExpr) expr.TypedExpr {
	return expr.Substitute(e, func(n expr.TypedExpr) expr.TypedExpr {
		for _, member := range b.info.Grouping {
			if expr.Equal(member.Expr, n) {
				return expr.NewOutputRef(member.Slot, member.Expr.ResultType())
			}
		}
		if _, ok := n.(*expr.AggregateExpr); !ok {
			return nil
		}
		idx := b.findCall(n)
		if idx < 0 {
			return nil
		}
		if parts, ok := b.avg[idx]; ok {
			sum, count := b.info.Calls[parts[0]], b.info.Calls[parts[1]]
			return expr.NewBinary(expr.OpDivide,
				expr.NewOutputRef(sum.Slot, sum.Expr.ResultType()),
				expr.NewOutputRef(count.Slot, count.Expr.ResultType()),
				expr.TypeDouble)
		}
		member := b.info.Calls[idx]
		return expr.NewOutputRef(member.Slot, member.Expr.ResultType())
	})
}

// checkDistinctParams verifies that all DISTINCT aggregates other than MIN
// and MAX share the same argument list.
func checkDistinctParams(calls []*expr.AggregateExpr) error {
	var first *expr.AggregateExpr
	for _, call := range calls {
		if !call.Distinct || call.Name == "MIN" || call.Name == "MAX" {
			continue
		}
		if first == nil {
			first = call
			continue
		}
		if !expr.EqualLists(first.Args, call.Args) {
			return errorf(AllDistinctParamsMustMatch,
				"all DISTINCT aggregate functions need to have the same set of parameters as %s; deviating function: %s",
				expr.Format(first), expr.Format(call))
		}
	}
	return nil
}
