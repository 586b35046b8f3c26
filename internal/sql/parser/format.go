package parser

import (
	"strconv"
	"strings"
)

var aggregateNames = map[string]struct{}{
	"COUNT": {},
	"MIN":   {},
	"MAX":   {},
	"SUM":   {},
	"AVG":   {},
}

// IsAggregateName reports whether name denotes a built-in aggregate function.
func IsAggregateName(name string) bool {
	_, ok := aggregateNames[strings.ToUpper(name)]
	return ok
}

// FormatExpression renders the AST expression into a deterministic SQL string
// used for derived column names and diagnostics.
func FormatExpression(expr Expression) string {
	return formatExpressionWithPrecedence(expr, lowestPrecedence)
}

func formatExpressionWithPrecedence(expr Expression, parent int) string {
	switch e := expr.(type) {
	case *ColumnRef:
		parts := make([]string, 0, 3)
		if e.Database != "" {
			parts = append(parts, e.Database)
		}
		if e.Table != "" {
			parts = append(parts, e.Table)
		}
		return strings.Join(append(parts, e.Name), ".")
	case *LiteralExpr:
		return formatLiteral(e.Literal)
	case *UnaryExpr:
		var text string
		prec := prefixPrecedence
		if e.Op == UnaryNot {
			prec = notPrecedence
			text = "NOT " + formatExpressionWithPrecedence(e.Expr, prec)
		} else {
			text = string(e.Op) + formatExpressionWithPrecedence(e.Expr, prec)
		}
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	case *BinaryExpr:
		prec := precedenceForBinary(e.Op)
		left := formatExpressionWithPrecedence(e.Left, prec)
		right := formatExpressionWithPrecedence(e.Right, prec+1)
		text := left + " " + string(e.Op) + " " + right
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	case *FunctionCallExpr:
		name := e.Name
		if IsAggregateName(name) {
			name = strings.ToUpper(name)
		}
		if e.Star {
			return name + "(*)"
		}
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = FormatExpression(arg)
		}
		prefix := ""
		if e.Distinct {
			prefix = "DISTINCT "
		}
		return name + "(" + prefix + strings.Join(parts, ", ") + ")"
	case *CastExpr:
		return "CAST(" + FormatExpression(e.Expr) + " AS " + e.TypeName + ")"
	case *IsNullExpr:
		prec := comparisonPrecedence
		inner := formatExpressionWithPrecedence(e.Expr, prec)
		text := inner + " IS"
		if e.Negated {
			text += " NOT"
		}
		text += " NULL"
		if prec < parent {
			return "(" + text + ")"
		}
		return text
	default:
		return "<expr>"
	}
}

func formatLiteral(l Literal) string {
	switch l.Kind {
	case LiteralBoolean:
		return strings.ToUpper(l.Value)
	case LiteralNull:
		return "NULL"
	case LiteralString:
		escaped := strings.ReplaceAll(l.Value, "'", "''")
		return "'" + escaped + "'"
	default:
		return l.Value
	}
}

// FormatSelectItem renders a select list entry including its alias.
func FormatSelectItem(item SelectItem) string {
	switch it := item.(type) {
	case *SelectStarItem:
		switch {
		case it.Database != "":
			return it.Database + "." + it.Table + ".*"
		case it.Table != "":
			return it.Table + ".*"
		default:
			return "*"
		}
	case *SelectExprItem:
		text := FormatExpression(it.Expr)
		if it.Alias != "" {
			text += " " + it.Alias
		}
		return text
	default:
		return "<item>"
	}
}

// FormatValuesRow renders one VALUES row, e.g. "(1, 2)".
func FormatValuesRow(row []SelectItem) string {
	parts := make([]string, len(row))
	for i, item := range row {
		parts[i] = FormatSelectItem(item)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatQuery renders a query statement in canonical upper-case keyword form.
func FormatQuery(q QueryStmt) string {
	var sb strings.Builder
	if with := q.WithClause(); len(with) > 0 {
		sb.WriteString("WITH ")
		for i, view := range with {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(view.Alias + " AS (" + FormatQuery(view.Query) + ")")
		}
		sb.WriteString(" ")
	}
	var orderBy []OrderItem
	var limit *LimitClause
	switch s := q.(type) {
	case *SelectStmt:
		formatSelectCore(&sb, s)
		orderBy, limit = s.OrderBy, s.Limit
	case *UnionStmt:
		for i, op := range s.Operands {
			if i > 0 {
				sb.WriteString(" UNION ")
				if op.All {
					sb.WriteString("ALL ")
				}
			}
			if _, nested := op.Query.(*SelectStmt); nested && len(op.Query.WithClause()) == 0 {
				sb.WriteString(FormatQuery(op.Query))
			} else {
				sb.WriteString("(" + FormatQuery(op.Query) + ")")
			}
		}
		orderBy, limit = s.OrderBy, s.Limit
	case *ValuesStmt:
		rows := make([]string, len(s.Rows))
		for i, row := range s.Rows {
			rows[i] = FormatValuesRow(row)
		}
		sb.WriteString("VALUES" + strings.Join(rows, ", "))
		orderBy, limit = s.OrderBy, s.Limit
	}
	if len(orderBy) > 0 {
		items := make([]string, len(orderBy))
		for i, item := range orderBy {
			items[i] = FormatExpression(item.Expr)
			if item.Desc {
				items[i] += " DESC"
			}
		}
		sb.WriteString(" ORDER BY " + strings.Join(items, ", "))
	}
	if limit != nil {
		sb.WriteString(" LIMIT " + strconv.FormatInt(limit.Limit, 10))
		if limit.Offset > 0 {
			sb.WriteString(" OFFSET " + strconv.FormatInt(limit.Offset, 10))
		}
	}
	return sb.String()
}

func formatSelectCore(sb *strings.Builder, s *SelectStmt) {
	sb.WriteString("SELECT ")
	if s.Distinct {
		sb.WriteString("DISTINCT ")
	}
	items := make([]string, len(s.Items))
	for i, item := range s.Items {
		items[i] = FormatSelectItem(item)
	}
	sb.WriteString(strings.Join(items, ", "))
	if len(s.From) > 0 {
		sb.WriteString(" FROM ")
		for i, ref := range s.From {
			if i > 0 {
				spec := ref.JoinClause()
				if spec == nil || spec.Kind == JoinCross && len(spec.Hints) == 0 && spec.On == nil && len(spec.Using) == 0 {
					sb.WriteString(", ")
				} else {
					sb.WriteString(" " + spec.Kind.String() + " ")
				}
			}
			sb.WriteString(formatTableRef(ref))
		}
	}
	if s.Where != nil {
		sb.WriteString(" WHERE " + FormatExpression(s.Where))
	}
	if len(s.GroupBy) > 0 {
		exprs := make([]string, len(s.GroupBy))
		for i, expr := range s.GroupBy {
			exprs[i] = FormatExpression(expr)
		}
		sb.WriteString(" GROUP BY " + strings.Join(exprs, ", "))
	}
	if s.Having != nil {
		sb.WriteString(" HAVING " + FormatExpression(s.Having))
	}
}

func formatTableRef(ref TableRef) string {
	var text string
	switch r := ref.(type) {
	case *TableName:
		text = r.Name
		if r.Database != "" {
			text = r.Database + "." + r.Name
		}
		if r.Alias != "" {
			text += " " + r.Alias
		}
	case *InlineView:
		text = "(" + FormatQuery(r.Query) + ") " + r.Alias
	}
	spec := ref.JoinClause()
	if spec == nil {
		return text
	}
	if len(spec.Hints) > 0 {
		text = "[" + strings.Join(spec.Hints, ", ") + "] " + text
	}
	if spec.On != nil {
		text += " ON " + FormatExpression(spec.On)
	}
	if len(spec.Using) > 0 {
		text += " USING (" + strings.Join(spec.Using, ", ") + ")"
	}
	return text
}
