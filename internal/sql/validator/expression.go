package validator

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// buildExpression resolves and type-checks an expression against frame f.
func (a *statementAnalyzer) buildExpression(f int, node parser.Expression) (expr.TypedExpr, error) {
	switch e := node.(type) {
	case *parser.ColumnRef:
		return a.resolveColumn(f, e)
	case *parser.LiteralExpr:
		return buildLiteral(e.Literal)
	case *parser.UnaryExpr:
		return a.buildUnary(f, e)
	case *parser.BinaryExpr:
		return a.buildBinary(f, e)
	case *parser.IsNullExpr:
		operand, err := a.buildExpression(f, e.Expr)
		if err != nil {
			return nil, err
		}
		return &expr.IsNullExpr{Expr: operand, Negated: e.Negated}, nil
	case *parser.CastExpr:
		return a.buildCast(f, e)
	case *parser.FunctionCallExpr:
		if parser.IsAggregateName(e.Name) {
			return a.buildAggregate(f, e)
		}
		return a.buildFunction(f, e)
	default:
		return nil, errors.Errorf("validator: unsupported expression %T", node)
	}
}

func buildLiteral(lit parser.Literal) (expr.TypedExpr, error) {
	switch lit.Kind {
	case parser.LiteralNull:
		return expr.NewLiteral(expr.LiteralNull, "NULL", expr.TypeNull), nil
	case parser.LiteralString:
		return expr.NewLiteral(expr.LiteralString, lit.Value, expr.TypeString), nil
	case parser.LiteralBoolean:
		return expr.NewLiteral(expr.LiteralBoolean, strings.ToUpper(lit.Value), expr.TypeBoolean), nil
	case parser.LiteralNumber:
		return numberLiteral(lit.Value)
	default:
		return nil, errors.Errorf("validator: unsupported literal kind %d", lit.Kind)
	}
}

func numberLiteral(text string) (expr.TypedExpr, error) {
	typ, err := expr.NumericLiteralType(text)
	if err != nil {
		return nil, errorf(InvalidLiteral, "invalid numeric literal: %s", text)
	}
	return expr.NewLiteral(expr.LiteralNumber, text, typ), nil
}

func (a *statementAnalyzer) buildUnary(f int, node *parser.UnaryExpr) (expr.TypedExpr, error) {
	operand, err := a.buildExpression(f, node.Expr)
	if err != nil {
		return nil, err
	}
	typ := operand.ResultType()
	switch node.Op {
	case parser.UnaryNot:
		if err := checkPredicateOperand(operand, node.Expr, node); err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.OpNot, operand, expr.TypeBoolean), nil
	case parser.UnaryPlus, parser.UnaryMinus:
		if lit, ok := operand.(*expr.Literal); ok && lit.Kind == expr.LiteralNumber {
			if node.Op == parser.UnaryPlus {
				return lit, nil
			}
			return numberLiteral(negateText(lit.Value))
		}
		if !typ.IsNumeric() && typ != expr.TypeNull {
			return nil, errorf(WrongOperandType, "Arithmetic operation requires numeric operands: %s", parser.FormatExpression(node))
		}
		if node.Op == parser.UnaryPlus {
			return expr.NewUnary(expr.OpPlus, operand, typ), nil
		}
		return expr.NewUnary(expr.OpNegate, operand, typ), nil
	default:
		return nil, errors.Errorf("validator: unsupported unary operator %s", node.Op)
	}
}

func negateText(text string) string {
	if strings.HasPrefix(text, "-") {
		return text[1:]
	}
	return "-" + text
}

func (a *statementAnalyzer) buildBinary(f int, node *parser.BinaryExpr) (expr.TypedExpr, error) {
	left, err := a.buildExpression(f, node.Left)
	if err != nil {
		return nil, err
	}
	right, err := a.buildExpression(f, node.Right)
	if err != nil {
		return nil, err
	}
	leftType, rightType := left.ResultType(), right.ResultType()
	switch {
	case node.Op.IsArithmetic():
		if !numericOrNull(leftType) || !numericOrNull(rightType) {
			return nil, errorf(WrongOperandType, "Arithmetic operation requires numeric operands: %s", parser.FormatExpression(node))
		}
		op := mapArithmeticOp(node.Op)
		return expr.NewBinary(op, left, right, expr.ArithmeticType(op, leftType, rightType)), nil
	case node.Op.IsComparison():
		if _, ok := expr.CommonType(leftType, rightType); !ok {
			return nil, errorf(IncomparableOperands, "operands are not comparable: %s", parser.FormatExpression(node))
		}
		return expr.NewBinary(mapComparisonOp(node.Op), left, right, expr.TypeBoolean), nil
	case node.Op == parser.BinaryAnd || node.Op == parser.BinaryOr:
		if err := checkPredicateOperand(left, node.Left, node); err != nil {
			return nil, err
		}
		if err := checkPredicateOperand(right, node.Right, node); err != nil {
			return nil, err
		}
		return expr.NewBinary(mapBooleanOp(node.Op), left, right, expr.TypeBoolean), nil
	default:
		return nil, errors.Errorf("validator: unsupported binary operator %s", node.Op)
	}
}

func (a *statementAnalyzer) buildCast(f int, node *parser.CastExpr) (expr.TypedExpr, error) {
	operand, err := a.buildExpression(f, node.Expr)
	if err != nil {
		return nil, err
	}
	target, err := expr.ParseType(node.TypeName)
	if err != nil {
		return nil, errorf(InvalidCast, "Unknown type in CAST: %s", node.TypeName)
	}
	from := operand.ResultType()
	if !expr.CanCast(from, target) {
		return nil, errorf(InvalidCast, "Invalid type cast of %s from %s to %s",
			parser.FormatExpression(node.Expr), from, target)
	}
	return expr.NewCast(operand, target), nil
}

func numericOrNull(t expr.Type) bool {
	return t.IsNumeric() || t == expr.TypeNull
}

func checkPredicateOperand(operand expr.TypedExpr, node, predicate parser.Expression) error {
	typ := operand.ResultType()
	if typ == expr.TypeBoolean || typ == expr.TypeNull {
		return nil
	}
	return errorf(WrongOperandType, "Operand '%s' part of predicate '%s' should return type 'BOOLEAN' but returns type '%s'.",
		parser.FormatExpression(node), parser.FormatExpression(predicate), typ)
}

// requireBoolean checks that a clause predicate yields BOOLEAN.
func requireBoolean(e expr.TypedExpr, clause string, node parser.Expression) error {
	typ := e.ResultType()
	if typ == expr.TypeBoolean || typ == expr.TypeNull {
		return nil
	}
	return errorf(WrongClauseType, "%s clause '%s' requires return type 'BOOLEAN'. Actual type is '%s'.",
		clause, parser.FormatExpression(node), typ)
}

func mapArithmeticOp(op parser.BinaryOp) expr.BinaryOp {
	switch op {
	case parser.BinaryAdd:
		return expr.OpAdd
	case parser.BinarySubtract:
		return expr.OpSubtract
	case parser.BinaryMultiply:
		return expr.OpMultiply
	case parser.BinaryDivide:
		return expr.OpDivide
	default:
		return expr.OpModulo
	}
}

func mapComparisonOp(op parser.BinaryOp) expr.BinaryOp {
	switch op {
	case parser.BinaryEqual:
		return expr.OpEqual
	case parser.BinaryNotEqual:
		return expr.OpNotEqual
	case parser.BinaryLess:
		return expr.OpLess
	case parser.BinaryLessEqual:
		return expr.OpLessEqual
	case parser.BinaryGreater:
		return expr.OpGreater
	default:
		return expr.OpGreaterEqual
	}
}

func mapBooleanOp(op parser.BinaryOp) expr.BinaryOp {
	if op == parser.BinaryAnd {
		return expr.OpAnd
	}
	return expr.OpOr
}
