package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/example/granite-db/analyzer/internal/sql/lexer"
)

// Parse parses a single SQL statement into an AST.
func Parse(input string) (Statement, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	// Allow optional trailing semicolon
	if p.cur().Type == lexer.Semicolon {
		p.nextToken()
	}
	if p.cur().Type != lexer.EOF {
		return nil, fmt.Errorf("parser: unexpected token %s", p.cur().Literal)
	}
	return stmt, nil
}

// ParseExpression parses a standalone scalar expression.
func ParseExpression(input string) (Expression, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	expr, err := p.parseExpression(lowestPrecedence)
	if err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.EOF {
		return nil, fmt.Errorf("parser: unexpected token %s", p.cur().Literal)
	}
	return expr, nil
}

// Parser implements a hand-rolled recursive descent parser over a
// pre-tokenised statement. Keeping every token allows cheap backtracking
// where the grammar is ambiguous.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		end := 0
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			end = last.Pos + len(last.Literal)
		}
		return lexer.Token{Type: lexer.EOF, Pos: end}
	}
	return p.tokens[idx]
}

func (p *Parser) cur() lexer.Token  { return p.peekAt(0) }
func (p *Parser) peek() lexer.Token { return p.peekAt(1) }

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) isKeyword(keyword string) bool {
	tok := p.cur()
	return tok.Type == lexer.Keyword && tok.Literal == keyword
}

func (p *Parser) expectKeyword(keyword string) error {
	if !p.isKeyword(keyword) {
		return fmt.Errorf("parser: expected %s but found %s", keyword, p.describeCur())
	}
	return nil
}

func (p *Parser) consumeKeyword(keyword string) error {
	if err := p.expectKeyword(keyword); err != nil {
		return err
	}
	p.nextToken()
	return nil
}

func (p *Parser) consume(tt lexer.TokenType, what string) error {
	if p.cur().Type != tt {
		return fmt.Errorf("parser: expected %s but found %s", what, p.describeCur())
	}
	p.nextToken()
	return nil
}

func (p *Parser) describeCur() string {
	if p.cur().Type == lexer.EOF {
		return "end of input"
	}
	return p.cur().Literal
}

func (p *Parser) parseStatement() (Statement, error) {
	switch {
	case p.isKeyword("WITH"):
		with, err := p.parseWithClause()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("INSERT") {
			return p.parseInsert(with)
		}
		return p.parseQueryBody(with)
	case p.isKeyword("INSERT"):
		return p.parseInsert(nil)
	case p.isKeyword("LOAD"):
		return p.parseLoadData()
	case p.isKeyword("DESCRIBE"):
		return p.parseDescribe()
	case p.isKeyword("SELECT"), p.isKeyword("VALUES"), p.cur().Type == lexer.LParen:
		return p.parseQueryBody(nil)
	default:
		return nil, fmt.Errorf("parser: unexpected token %s", p.describeCur())
	}
}

func (p *Parser) parseWithClause() ([]*WithView, error) {
	if err := p.consumeKeyword("WITH"); err != nil {
		return nil, err
	}
	var views []*WithView
	for {
		if p.cur().Type != lexer.Ident {
			return nil, fmt.Errorf("parser: expected WITH view name but found %s", p.describeCur())
		}
		alias := p.cur().Literal
		p.nextToken()
		if err := p.consumeKeyword("AS"); err != nil {
			return nil, err
		}
		if err := p.consume(lexer.LParen, "("); err != nil {
			return nil, err
		}
		query, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RParen, ")"); err != nil {
			return nil, err
		}
		views = append(views, &WithView{Alias: alias, Query: query})
		if p.cur().Type != lexer.Comma {
			return views, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseQuery() (QueryStmt, error) {
	var with []*WithView
	if p.isKeyword("WITH") {
		var err error
		if with, err = p.parseWithClause(); err != nil {
			return nil, err
		}
	}
	return p.parseQueryBody(with)
}

// parseQueryBody parses a UNION chain of operands followed by the optional
// ORDER BY and LIMIT clauses that apply to the whole chain.
func (p *Parser) parseQueryBody(with []*WithView) (QueryStmt, error) {
	first, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	operands := []*UnionOperand{{Query: first}}
	for p.isKeyword("UNION") {
		p.nextToken()
		all := false
		switch {
		case p.isKeyword("ALL"):
			all = true
			p.nextToken()
		case p.isKeyword("DISTINCT"):
			p.nextToken()
		}
		next, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		operands = append(operands, &UnionOperand{Query: next, All: all})
	}

	orderBy, err := p.parseOrderBy()
	if err != nil {
		return nil, err
	}
	limit, err := p.parseLimit()
	if err != nil {
		return nil, err
	}

	if len(operands) > 1 {
		return &UnionStmt{With: with, Operands: operands, OrderBy: orderBy, Limit: limit}, nil
	}
	return wrapSingle(first, with, orderBy, limit), nil
}

// wrapSingle attaches trailing clauses to a lone operand. A one-operand union
// is used when the operand already carries clauses of its own.
func wrapSingle(q QueryStmt, with []*WithView, orderBy []OrderItem, limit *LimitClause) QueryStmt {
	hasOwn := len(q.WithClause()) > 0 && len(with) > 0
	switch s := q.(type) {
	case *SelectStmt:
		hasOwn = hasOwn || (len(orderBy) > 0 && len(s.OrderBy) > 0) || (limit != nil && s.Limit != nil)
	case *UnionStmt:
		hasOwn = hasOwn || (len(orderBy) > 0 && len(s.OrderBy) > 0) || (limit != nil && s.Limit != nil)
	case *ValuesStmt:
		hasOwn = hasOwn || (len(orderBy) > 0 && len(s.OrderBy) > 0) || (limit != nil && s.Limit != nil)
	}
	if hasOwn {
		return &UnionStmt{With: with, Operands: []*UnionOperand{{Query: q}}, OrderBy: orderBy, Limit: limit}
	}
	switch s := q.(type) {
	case *SelectStmt:
		if len(with) > 0 {
			s.With = with
		}
		if len(orderBy) > 0 {
			s.OrderBy = orderBy
		}
		if limit != nil {
			s.Limit = limit
		}
	case *UnionStmt:
		if len(with) > 0 {
			s.With = with
		}
		if len(orderBy) > 0 {
			s.OrderBy = orderBy
		}
		if limit != nil {
			s.Limit = limit
		}
	case *ValuesStmt:
		if len(with) > 0 {
			s.With = with
		}
		if len(orderBy) > 0 {
			s.OrderBy = orderBy
		}
		if limit != nil {
			s.Limit = limit
		}
	}
	return q
}

func (p *Parser) parseOperand() (QueryStmt, error) {
	switch {
	case p.isKeyword("SELECT"):
		return p.parseSelectCore()
	case p.isKeyword("VALUES"):
		return p.parseValues()
	case p.cur().Type == lexer.LParen:
		p.nextToken()
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RParen, ")"); err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("parser: expected SELECT, VALUES or ( but found %s", p.describeCur())
	}
}

func (p *Parser) parseSelectCore() (*SelectStmt, error) {
	if err := p.consumeKeyword("SELECT"); err != nil {
		return nil, err
	}
	stmt := &SelectStmt{}
	switch {
	case p.isKeyword("DISTINCT"):
		stmt.Distinct = true
		p.nextToken()
	case p.isKeyword("ALL"):
		p.nextToken()
	}

	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}
	stmt.Items = items

	if p.isKeyword("FROM") {
		p.nextToken()
		if stmt.From, err = p.parseFromClause(); err != nil {
			return nil, err
		}
	}
	if p.isKeyword("WHERE") {
		p.nextToken()
		if stmt.Where, err = p.parseExpression(lowestPrecedence); err != nil {
			return nil, err
		}
	}
	if p.isKeyword("GROUP") {
		p.nextToken()
		if err := p.consumeKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			expr, err := p.parseExpression(lowestPrecedence)
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, expr)
			if p.cur().Type != lexer.Comma {
				break
			}
			p.nextToken()
		}
	}
	if p.isKeyword("HAVING") {
		p.nextToken()
		if stmt.Having, err = p.parseExpression(lowestPrecedence); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseSelectItems() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.cur().Type != lexer.Comma {
			return items, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.cur().Type == lexer.Star {
		p.nextToken()
		return &SelectStarItem{}, nil
	}
	if p.cur().Type == lexer.Ident && p.peek().Type == lexer.Dot {
		if p.peekAt(2).Type == lexer.Star {
			item := &SelectStarItem{Table: p.cur().Literal}
			p.pos += 3
			return item, nil
		}
		if p.peekAt(2).Type == lexer.Ident && p.peekAt(3).Type == lexer.Dot && p.peekAt(4).Type == lexer.Star {
			item := &SelectStarItem{Database: p.cur().Literal, Table: p.peekAt(2).Literal}
			p.pos += 5
			return item, nil
		}
	}
	expr, err := p.parseExpression(lowestPrecedence)
	if err != nil {
		return nil, err
	}
	alias, err := p.parseOptionalAlias()
	if err != nil {
		return nil, err
	}
	return &SelectExprItem{Expr: expr, Alias: alias}, nil
}

// parseOptionalAlias accepts `AS name`, `AS 'name'` or a bare identifier.
func (p *Parser) parseOptionalAlias() (string, error) {
	if p.isKeyword("AS") {
		p.nextToken()
		switch p.cur().Type {
		case lexer.Ident, lexer.String:
			alias := p.cur().Literal
			p.nextToken()
			return alias, nil
		default:
			return "", fmt.Errorf("parser: expected alias after AS but found %s", p.describeCur())
		}
	}
	if p.cur().Type == lexer.Ident {
		alias := p.cur().Literal
		p.nextToken()
		return alias, nil
	}
	return "", nil
}

func (p *Parser) parseFromClause() ([]TableRef, error) {
	first, err := p.parseTableRef(nil)
	if err != nil {
		return nil, err
	}
	refs := []TableRef{first}
	for {
		var spec *JoinSpec
		switch {
		case p.cur().Type == lexer.Comma:
			p.nextToken()
			spec = &JoinSpec{Kind: JoinCross}
		default:
			kind, ok, err := p.parseJoinKind()
			if err != nil {
				return nil, err
			}
			if !ok {
				return refs, nil
			}
			spec = &JoinSpec{Kind: kind}
			if spec.Hints, err = p.parseJoinHints(); err != nil {
				return nil, err
			}
		}
		ref, err := p.parseTableRef(spec)
		if err != nil {
			return nil, err
		}
		if err := p.parseJoinCondition(spec); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
}

func (p *Parser) parseJoinKind() (JoinKind, bool, error) {
	kind := JoinInner
	switch {
	case p.isKeyword("JOIN"):
		p.nextToken()
		return JoinInner, true, nil
	case p.isKeyword("INNER"):
		p.nextToken()
	case p.isKeyword("CROSS"):
		kind = JoinCross
		p.nextToken()
	case p.isKeyword("LEFT"):
		p.nextToken()
		kind = JoinLeftOuter
		switch {
		case p.isKeyword("SEMI"):
			kind = JoinLeftSemi
			p.nextToken()
		case p.isKeyword("OUTER"):
			p.nextToken()
		}
	case p.isKeyword("RIGHT"):
		kind = JoinRightOuter
		p.nextToken()
		if p.isKeyword("OUTER") {
			p.nextToken()
		}
	case p.isKeyword("FULL"):
		kind = JoinFullOuter
		p.nextToken()
		if p.isKeyword("OUTER") {
			p.nextToken()
		}
	default:
		return 0, false, nil
	}
	if err := p.consumeKeyword("JOIN"); err != nil {
		return 0, false, err
	}
	return kind, true, nil
}

func (p *Parser) parseJoinHints() ([]string, error) {
	if p.cur().Type != lexer.LBracket {
		return nil, nil
	}
	p.nextToken()
	var hints []string
	for {
		switch p.cur().Type {
		case lexer.Ident, lexer.Keyword:
			hints = append(hints, p.cur().Literal)
			p.nextToken()
		default:
			return nil, fmt.Errorf("parser: expected join hint but found %s", p.describeCur())
		}
		if p.cur().Type == lexer.Comma {
			p.nextToken()
			continue
		}
		if err := p.consume(lexer.RBracket, "]"); err != nil {
			return nil, err
		}
		return hints, nil
	}
}

func (p *Parser) parseJoinCondition(spec *JoinSpec) error {
	switch {
	case p.isKeyword("ON"):
		p.nextToken()
		on, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return err
		}
		spec.On = on
	case p.isKeyword("USING"):
		p.nextToken()
		if err := p.consume(lexer.LParen, "( after USING"); err != nil {
			return err
		}
		cols, err := p.parseIdentifierList()
		if err != nil {
			return err
		}
		spec.Using = cols
	}
	return nil
}

func (p *Parser) parseTableRef(spec *JoinSpec) (TableRef, error) {
	if p.cur().Type == lexer.LParen {
		p.nextToken()
		query, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RParen, ") to close inline view"); err != nil {
			return nil, err
		}
		alias, err := p.parseOptionalAlias()
		if err != nil {
			return nil, err
		}
		if alias == "" {
			return nil, fmt.Errorf("parser: inline view requires an alias")
		}
		return &InlineView{Query: query, Alias: alias, Join: spec}, nil
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	alias, err := p.parseOptionalAlias()
	if err != nil {
		return nil, err
	}
	return &TableName{Database: db, Name: name, Alias: alias, Join: spec}, nil
}

func (p *Parser) parseQualifiedName() (string, string, error) {
	if p.cur().Type != lexer.Ident {
		return "", "", fmt.Errorf("parser: expected table name but found %s", p.describeCur())
	}
	first := p.cur().Literal
	p.nextToken()
	if p.cur().Type != lexer.Dot {
		return "", first, nil
	}
	p.nextToken()
	if p.cur().Type != lexer.Ident {
		return "", "", fmt.Errorf("parser: expected table name after %s. but found %s", first, p.describeCur())
	}
	second := p.cur().Literal
	p.nextToken()
	return first, second, nil
}

func (p *Parser) parseOrderBy() ([]OrderItem, error) {
	if !p.isKeyword("ORDER") {
		return nil, nil
	}
	p.nextToken()
	if err := p.consumeKeyword("BY"); err != nil {
		return nil, err
	}
	var items []OrderItem
	for {
		expr, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: expr}
		switch {
		case p.isKeyword("ASC"):
			p.nextToken()
		case p.isKeyword("DESC"):
			item.Desc = true
			p.nextToken()
		}
		items = append(items, item)
		if p.cur().Type != lexer.Comma {
			return items, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseLimit() (*LimitClause, error) {
	if !p.isKeyword("LIMIT") {
		return nil, nil
	}
	p.nextToken()
	limit, err := p.parseCount("LIMIT")
	if err != nil {
		return nil, err
	}
	clause := &LimitClause{Limit: limit}
	if p.isKeyword("OFFSET") {
		p.nextToken()
		if clause.Offset, err = p.parseCount("OFFSET"); err != nil {
			return nil, err
		}
	}
	return clause, nil
}

func (p *Parser) parseCount(clause string) (int64, error) {
	if p.cur().Type != lexer.Number {
		return 0, fmt.Errorf("parser: expected %s value", clause)
	}
	value, err := strconv.ParseInt(p.cur().Literal, 10, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("parser: invalid %s value %s", clause, p.cur().Literal)
	}
	p.nextToken()
	return value, nil
}

// parseValues accepts both `VALUES (..), (..)` and `VALUES ((..), (..))`.
func (p *Parser) parseValues() (*ValuesStmt, error) {
	if err := p.consumeKeyword("VALUES"); err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.LParen && p.peek().Type == lexer.LParen {
		save := p.pos
		if rows, err := p.parseNestedRows(); err == nil {
			return &ValuesStmt{Rows: rows}, nil
		}
		p.pos = save
	}
	var rows [][]SelectItem
	for {
		row, err := p.parseValuesRow()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if p.cur().Type != lexer.Comma {
			return &ValuesStmt{Rows: rows}, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseNestedRows() ([][]SelectItem, error) {
	if err := p.consume(lexer.LParen, "("); err != nil {
		return nil, err
	}
	var rows [][]SelectItem
	for {
		row, err := p.parseValuesRow()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		if p.cur().Type == lexer.Comma {
			p.nextToken()
			continue
		}
		if err := p.consume(lexer.RParen, ")"); err != nil {
			return nil, err
		}
		if p.cur().Type == lexer.Comma {
			return nil, fmt.Errorf("parser: ambiguous VALUES row list")
		}
		return rows, nil
	}
}

func (p *Parser) parseValuesRow() ([]SelectItem, error) {
	if err := p.consume(lexer.LParen, "( to open VALUES row"); err != nil {
		return nil, err
	}
	items, err := p.parseSelectItems()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.RParen, ") to close VALUES row"); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Parser) parseInsert(with []*WithView) (Statement, error) {
	if err := p.consumeKeyword("INSERT"); err != nil {
		return nil, err
	}
	stmt := &InsertStmt{With: with}
	switch {
	case p.isKeyword("INTO"):
		p.nextToken()
	case p.isKeyword("OVERWRITE"):
		stmt.Overwrite = true
		p.nextToken()
	default:
		return nil, fmt.Errorf("parser: expected INTO or OVERWRITE but found %s", p.describeCur())
	}
	if p.isKeyword("TABLE") {
		p.nextToken()
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Table = db, name

	if p.cur().Type == lexer.LParen && (p.peek().Type == lexer.RParen || p.peek().Type == lexer.Ident) {
		p.nextToken()
		stmt.HasColumnList = true
		if p.cur().Type == lexer.RParen {
			p.nextToken()
		} else if stmt.Columns, err = p.parseIdentifierList(); err != nil {
			return nil, err
		}
	}
	if p.isKeyword("PARTITION") {
		if stmt.Partition, err = p.parsePartitionClause(true); err != nil {
			return nil, err
		}
	}
	if p.cur().Type == lexer.EOF || p.cur().Type == lexer.Semicolon {
		return stmt, nil
	}
	if stmt.Query, err = p.parseQuery(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parsePartitionClause(allowDynamic bool) ([]PartitionItem, error) {
	if err := p.consumeKeyword("PARTITION"); err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LParen, "( after PARTITION"); err != nil {
		return nil, err
	}
	var items []PartitionItem
	for {
		if p.cur().Type != lexer.Ident {
			return nil, fmt.Errorf("parser: expected partition column but found %s", p.describeCur())
		}
		item := PartitionItem{Column: p.cur().Literal}
		p.nextToken()
		if p.cur().Type == lexer.Equal {
			p.nextToken()
			value, err := p.parseExpression(lowestPrecedence)
			if err != nil {
				return nil, err
			}
			item.Value = value
		} else if !allowDynamic {
			return nil, fmt.Errorf("parser: partition column %s requires a value", item.Column)
		}
		items = append(items, item)
		if p.cur().Type == lexer.Comma {
			p.nextToken()
			continue
		}
		if err := p.consume(lexer.RParen, ") to close PARTITION clause"); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func (p *Parser) parseLoadData() (Statement, error) {
	if err := p.consumeKeyword("LOAD"); err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("DATA"); err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("INPATH"); err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.String {
		return nil, fmt.Errorf("parser: expected INPATH location string but found %s", p.describeCur())
	}
	stmt := &LoadDataStmt{Path: p.cur().Literal}
	p.nextToken()
	if p.isKeyword("OVERWRITE") {
		stmt.Overwrite = true
		p.nextToken()
	}
	if err := p.consumeKeyword("INTO"); err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("TABLE"); err != nil {
		return nil, err
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Table = db, name
	if p.isKeyword("PARTITION") {
		if stmt.Partition, err = p.parsePartitionClause(true); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseDescribe() (Statement, error) {
	if err := p.consumeKeyword("DESCRIBE"); err != nil {
		return nil, err
	}
	stmt := &DescribeStmt{}
	if p.isKeyword("FORMATTED") {
		stmt.Formatted = true
		p.nextToken()
	}
	db, name, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	stmt.Database, stmt.Table = db, name
	return stmt, nil
}

func (p *Parser) parseIdentifierList() ([]string, error) {
	values := []string{}
	for {
		if p.cur().Type != lexer.Ident {
			return nil, fmt.Errorf("parser: expected identifier but found %s", p.describeCur())
		}
		values = append(values, p.cur().Literal)
		p.nextToken()
		if p.cur().Type == lexer.Comma {
			p.nextToken()
			continue
		}
		if p.cur().Type == lexer.RParen {
			p.nextToken()
			break
		}
		return nil, fmt.Errorf("parser: unexpected token in identifier list: %s", p.describeCur())
	}
	return values, nil
}

func (p *Parser) parseExpression(precedence int) (Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		if p.isKeyword("IS") {
			if precedence >= comparisonPrecedence {
				break
			}
			expr, err := p.parseIsNull(left)
			if err != nil {
				return nil, err
			}
			left = expr
			continue
		}
		op, ok := p.binaryOperator()
		if !ok {
			return left, nil
		}
		prec := precedenceForBinary(op)
		if precedence >= prec {
			break
		}
		p.nextToken()
		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) binaryOperator() (BinaryOp, bool) {
	tok := p.cur()
	switch tok.Type {
	case lexer.Plus:
		return BinaryAdd, true
	case lexer.Minus:
		return BinarySubtract, true
	case lexer.Star:
		return BinaryMultiply, true
	case lexer.Slash:
		return BinaryDivide, true
	case lexer.Percent:
		return BinaryModulo, true
	case lexer.Equal:
		return BinaryEqual, true
	case lexer.NotEqual:
		return BinaryNotEqual, true
	case lexer.Less:
		return BinaryLess, true
	case lexer.LessEqual:
		return BinaryLessEqual, true
	case lexer.Greater:
		return BinaryGreater, true
	case lexer.GreaterEqual:
		return BinaryGreaterEqual, true
	case lexer.Keyword:
		switch tok.Literal {
		case "AND":
			return BinaryAnd, true
		case "OR":
			return BinaryOr, true
		}
	}
	return "", false
}

func (p *Parser) parsePrefix() (Expression, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.Keyword:
		switch tok.Literal {
		case "TRUE", "FALSE":
			p.nextToken()
			return &LiteralExpr{Literal: Literal{Kind: LiteralBoolean, Value: tok.Literal}}, nil
		case "NULL":
			p.nextToken()
			return &LiteralExpr{Literal: Literal{Kind: LiteralNull, Value: tok.Literal}}, nil
		case "NOT":
			p.nextToken()
			expr, err := p.parseExpression(notPrecedence)
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{Op: UnaryNot, Expr: expr}, nil
		case "CAST":
			return p.parseCast()
		}
	case lexer.Ident:
		if p.peek().Type == lexer.LParen {
			return p.parseFunctionCall()
		}
		return p.parseColumnRef()
	case lexer.String:
		p.nextToken()
		return &LiteralExpr{Literal: Literal{Kind: LiteralString, Value: tok.Literal}}, nil
	case lexer.Number:
		p.nextToken()
		return &LiteralExpr{Literal: Literal{Kind: LiteralNumber, Value: tok.Literal}}, nil
	case lexer.Minus, lexer.Plus:
		p.nextToken()
		expr, err := p.parseExpression(prefixPrecedence)
		if err != nil {
			return nil, err
		}
		op := UnaryMinus
		if tok.Type == lexer.Plus {
			op = UnaryPlus
		}
		return &UnaryExpr{Op: op, Expr: expr}, nil
	case lexer.LParen:
		p.nextToken()
		expr, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		if err := p.consume(lexer.RParen, ") to close expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, fmt.Errorf("parser: unexpected token %s in expression", p.describeCur())
}

func (p *Parser) parseColumnRef() (Expression, error) {
	parts := []string{p.cur().Literal}
	p.nextToken()
	for p.cur().Type == lexer.Dot && p.peek().Type == lexer.Ident && len(parts) < 3 {
		parts = append(parts, p.peek().Literal)
		p.pos += 2
	}
	switch len(parts) {
	case 1:
		return &ColumnRef{Name: parts[0]}, nil
	case 2:
		return &ColumnRef{Table: parts[0], Name: parts[1]}, nil
	default:
		return &ColumnRef{Database: parts[0], Table: parts[1], Name: parts[2]}, nil
	}
}

func (p *Parser) parseFunctionCall() (Expression, error) {
	call := &FunctionCallExpr{Name: p.cur().Literal}
	p.pos += 2
	if p.cur().Type == lexer.Star {
		call.Star = true
		p.nextToken()
		if err := p.consume(lexer.RParen, ") after *"); err != nil {
			return nil, err
		}
		return call, nil
	}
	switch {
	case p.isKeyword("DISTINCT"):
		call.Distinct = true
		p.nextToken()
	case p.isKeyword("ALL"):
		p.nextToken()
	}
	if p.cur().Type == lexer.RParen {
		p.nextToken()
		return call, nil
	}
	for {
		arg, err := p.parseExpression(lowestPrecedence)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.cur().Type == lexer.Comma {
			p.nextToken()
			continue
		}
		if err := p.consume(lexer.RParen, ") to close function call"); err != nil {
			return nil, err
		}
		return call, nil
	}
}

func (p *Parser) parseCast() (Expression, error) {
	if err := p.consumeKeyword("CAST"); err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LParen, "( after CAST"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression(lowestPrecedence)
	if err != nil {
		return nil, err
	}
	if err := p.consumeKeyword("AS"); err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.Ident {
		return nil, fmt.Errorf("parser: expected type name but found %s", p.describeCur())
	}
	typeName := strings.ToUpper(p.cur().Literal)
	p.nextToken()
	if err := p.consume(lexer.RParen, ") to close CAST"); err != nil {
		return nil, err
	}
	return &CastExpr{Expr: expr, TypeName: typeName}, nil
}

func (p *Parser) parseIsNull(left Expression) (Expression, error) {
	if err := p.consumeKeyword("IS"); err != nil {
		return nil, err
	}
	negated := false
	if p.isKeyword("NOT") {
		p.nextToken()
		negated = true
	}
	if err := p.consumeKeyword("NULL"); err != nil {
		return nil, err
	}
	return &IsNullExpr{Expr: left, Negated: negated}, nil
}

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

func precedenceForBinary(op BinaryOp) int {
	switch op {
	case BinaryAnd:
		return andPrecedence
	case BinaryOr:
		return orPrecedence
	case BinaryEqual, BinaryNotEqual, BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		return comparisonPrecedence
	case BinaryAdd, BinarySubtract:
		return additivePrecedence
	case BinaryMultiply, BinaryDivide, BinaryModulo:
		return multiplicativePrecedence
	default:
		return additivePrecedence
	}
}
