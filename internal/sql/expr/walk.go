package expr

import (
	"fmt"
	"strings"
)

// Children returns the direct operands of e.
func Children(e TypedExpr) []TypedExpr {
	switch n := e.(type) {
	case *Literal, *SlotRef, *OutputRef:
		return nil
	case *UnaryExpr:
		return []TypedExpr{n.Expr}
	case *BinaryExpr:
		return []TypedExpr{n.Left, n.Right}
	case *IsNullExpr:
		return []TypedExpr{n.Expr}
	case *CastExpr:
		return []TypedExpr{n.Expr}
	case *FunctionExpr:
		return n.Args
	case *AggregateExpr:
		return n.Args
	default:
		panic(fmt.Sprintf("expr: unexpected node %T", e))
	}
}

// Any reports whether pred holds for e or any of its descendants.
func Any(e TypedExpr, pred func(TypedExpr) bool) bool {
	if pred(e) {
		return true
	}
	for _, child := range Children(e) {
		if Any(child, pred) {
			return true
		}
	}
	return false
}

// IsConstant reports whether e references no slots and no aggregates.
func IsConstant(e TypedExpr) bool {
	return !Any(e, func(n TypedExpr) bool {
		switch n.(type) {
		case *SlotRef, *OutputRef, *AggregateExpr:
			return true
		}
		return false
	})
}

// ContainsAggregate reports whether e contains an aggregate call.
func ContainsAggregate(e TypedExpr) bool {
	return Any(e, func(n TypedExpr) bool {
		_, ok := n.(*AggregateExpr)
		return ok
	})
}

// ContainsSlotRef reports whether e still references a table slot.
func ContainsSlotRef(e TypedExpr) bool {
	return Any(e, func(n TypedExpr) bool {
		_, ok := n.(*SlotRef)
		return ok
	})
}

// Aggregates collects the outermost aggregate calls of e in pre-order.
func Aggregates(e TypedExpr) []*AggregateExpr {
	var out []*AggregateExpr
	var walk func(TypedExpr)
	walk = func(n TypedExpr) {
		if agg, ok := n.(*AggregateExpr); ok {
			out = append(out, agg)
			return
		}
		for _, child := range Children(n) {
			walk(child)
		}
	}
	walk(e)
	return out
}

// Equal reports structural equality. Slot references compare by slot and
// function names case-insensitively; labels are ignored.
func Equal(a, b TypedExpr) bool {
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Kind == y.Kind && x.typ == y.typ && x.Value == y.Value
	case *SlotRef:
		y, ok := b.(*SlotRef)
		return ok && x.Slot == y.Slot
	case *OutputRef:
		y, ok := b.(*OutputRef)
		return ok && x.Slot == y.Slot
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && Equal(x.Expr, y.Expr)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *IsNullExpr:
		y, ok := b.(*IsNullExpr)
		return ok && x.Negated == y.Negated && Equal(x.Expr, y.Expr)
	case *CastExpr:
		y, ok := b.(*CastExpr)
		return ok && x.typ == y.typ && Equal(x.Expr, y.Expr)
	case *FunctionExpr:
		y, ok := b.(*FunctionExpr)
		return ok && strings.EqualFold(x.Name, y.Name) && EqualLists(x.Args, y.Args)
	case *AggregateExpr:
		y, ok := b.(*AggregateExpr)
		return ok && x.Name == y.Name && x.Distinct == y.Distinct && x.Star == y.Star && EqualLists(x.Args, y.Args)
	default:
		panic(fmt.Sprintf("expr: unexpected node %T", a))
	}
}

// EqualLists compares two expression lists element-wise.
func EqualLists(a, b []TypedExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Substitute returns a copy of e in which every subtree for which replace
// returns a non-nil expression is swapped for that expression. Replacement
// is attempted top-down, so a replaced subtree is not visited further. The
// input tree is never modified.
func Substitute(e TypedExpr, replace func(TypedExpr) TypedExpr) TypedExpr {
	if repl := replace(e); repl != nil {
		return repl
	}
	switch n := e.(type) {
	case *Literal, *SlotRef, *OutputRef:
		return n
	case *UnaryExpr:
		return &UnaryExpr{Op: n.Op, Expr: Substitute(n.Expr, replace), typ: n.typ}
	case *BinaryExpr:
		return &BinaryExpr{Op: n.Op, Left: Substitute(n.Left, replace), Right: Substitute(n.Right, replace), typ: n.typ}
	case *IsNullExpr:
		return &IsNullExpr{Expr: Substitute(n.Expr, replace), Negated: n.Negated}
	case *CastExpr:
		return &CastExpr{Expr: Substitute(n.Expr, replace), typ: n.typ}
	case *FunctionExpr:
		return &FunctionExpr{Name: n.Name, Args: substituteList(n.Args, replace), typ: n.typ}
	case *AggregateExpr:
		return &AggregateExpr{Name: n.Name, Distinct: n.Distinct, Star: n.Star, Args: substituteList(n.Args, replace), typ: n.typ}
	default:
		panic(fmt.Sprintf("expr: unexpected node %T", e))
	}
}

func substituteList(args []TypedExpr, replace func(TypedExpr) TypedExpr) []TypedExpr {
	if args == nil {
		return nil
	}
	out := make([]TypedExpr, len(args))
	for i, arg := range args {
		out[i] = Substitute(arg, replace)
	}
	return out
}
