package expr

import (
	"fmt"
	"strings"
)

const (
	lowestPrecedence         = 0
	orPrecedence             = 1
	andPrecedence            = 2
	notPrecedence            = 3
	comparisonPrecedence     = 4
	additivePrecedence       = 5
	multiplicativePrecedence = 6
	prefixPrecedence         = 7
)

// Format renders an analyzed expression as SQL. Slot references render as
// written by the user; aggregation output references render as `<slot N>`.
func Format(e TypedExpr) string {
	return formatWithPrecedence(e, lowestPrecedence)
}

func formatWithPrecedence(e TypedExpr, parent int) string {
	wrap := func(text string, prec int) string {
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	}
	switch n := e.(type) {
	case *Literal:
		switch n.Kind {
		case LiteralString:
			return "'" + strings.ReplaceAll(n.Value, "'", "''") + "'"
		case LiteralBoolean:
			return strings.ToUpper(n.Value)
		case LiteralNull:
			return "NULL"
		default:
			return n.Value
		}
	case *SlotRef:
		return n.Label
	case *OutputRef:
		return fmt.Sprintf("<slot %d>", n.Slot)
	case *UnaryExpr:
		if n.Op == OpNot {
			return wrap("NOT "+formatWithPrecedence(n.Expr, notPrecedence), notPrecedence)
		}
		return wrap(n.Op.String()+formatWithPrecedence(n.Expr, prefixPrecedence), prefixPrecedence)
	case *BinaryExpr:
		prec := binaryPrecedence(n.Op)
		left := formatWithPrecedence(n.Left, prec)
		right := formatWithPrecedence(n.Right, prec+1)
		return wrap(left+" "+n.Op.String()+" "+right, prec)
	case *IsNullExpr:
		text := formatWithPrecedence(n.Expr, comparisonPrecedence) + " IS"
		if n.Negated {
			text += " NOT"
		}
		return wrap(text+" NULL", comparisonPrecedence)
	case *CastExpr:
		return "CAST(" + Format(n.Expr) + " AS " + n.typ.String() + ")"
	case *FunctionExpr:
		return n.Name + "(" + formatList(n.Args) + ")"
	case *AggregateExpr:
		if n.Star {
			return n.Name + "(*)"
		}
		prefix := ""
		if n.Distinct {
			prefix = "DISTINCT "
		}
		return n.Name + "(" + prefix + formatList(n.Args) + ")"
	default:
		panic(fmt.Sprintf("expr: unexpected node %T", e))
	}
}

func formatList(args []TypedExpr) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = Format(arg)
	}
	return strings.Join(parts, ", ")
}

func binaryPrecedence(op BinaryOp) int {
	switch op {
	case OpOr:
		return orPrecedence
	case OpAnd:
		return andPrecedence
	case OpAdd, OpSubtract:
		return additivePrecedence
	case OpMultiply, OpDivide, OpModulo:
		return multiplicativePrecedence
	default:
		return comparisonPrecedence
	}
}
