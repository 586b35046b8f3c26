package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

func parseSelect(t *testing.T, sql string) *parser.SelectStmt {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	sel, ok := stmt.(*parser.SelectStmt)
	require.True(t, ok, "expected SelectStmt, got %T", stmt)
	return sel
}

func TestSelectProjectionParsing(t *testing.T) {
	sel := parseSelect(t, "SELECT id, name AS n, id + 1 next, a.* , functional.alltypes.* FROM people")
	require.Len(t, sel.Items, 5)

	first := sel.Items[0].(*parser.SelectExprItem)
	assert.Empty(t, first.Alias)
	assert.Equal(t, &parser.ColumnRef{Name: "id"}, first.Expr)

	assert.Equal(t, "n", sel.Items[1].(*parser.SelectExprItem).Alias)

	third := sel.Items[2].(*parser.SelectExprItem)
	assert.Equal(t, "next", third.Alias)
	binary, ok := third.Expr.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, parser.BinaryAdd, binary.Op)

	assert.Equal(t, &parser.SelectStarItem{Table: "a"}, sel.Items[3])
	assert.Equal(t, &parser.SelectStarItem{Database: "functional", Table: "alltypes"}, sel.Items[4])

	require.Len(t, sel.From, 1)
	table := sel.From[0].(*parser.TableName)
	assert.Equal(t, "people", table.Name)
	assert.Nil(t, table.JoinClause())
}

func TestSelectClausesParsing(t *testing.T) {
	sel := parseSelect(t, "select distinct zip, count(*) c from functional.testtbl "+
		"where id > 1 and name is not null group by zip having count(id) > 0 order by 1 desc, c limit 10 offset 2")
	assert.True(t, sel.Distinct)
	require.NotNil(t, sel.Where)
	assert.Equal(t, "id > 1 AND name IS NOT NULL", parser.FormatExpression(sel.Where))
	require.Len(t, sel.GroupBy, 1)
	assert.Equal(t, "COUNT(id) > 0", parser.FormatExpression(sel.Having))
	require.Len(t, sel.OrderBy, 2)
	assert.True(t, sel.OrderBy[0].Desc)
	assert.Equal(t, &parser.LimitClause{Limit: 10, Offset: 2}, sel.Limit)

	call := sel.Items[1].(*parser.SelectExprItem).Expr.(*parser.FunctionCallExpr)
	assert.True(t, call.Star)
}

func TestJoinParsing(t *testing.T) {
	sel := parseSelect(t, "select * from functional.alltypes a "+
		"left outer join [shuffle] functional.alltypes b on (a.id = b.id) "+
		"left semi join functional.testtbl c using (id, zip), functional.jointbl d "+
		"cross join (select 1 x) v")
	require.Len(t, sel.From, 5)

	b := sel.From[1].(*parser.TableName)
	require.NotNil(t, b.Join)
	assert.Equal(t, parser.JoinLeftOuter, b.Join.Kind)
	assert.Equal(t, []string{"shuffle"}, b.Join.Hints)
	assert.Equal(t, "a.id = b.id", parser.FormatExpression(b.Join.On))

	c := sel.From[2].(*parser.TableName)
	assert.Equal(t, parser.JoinLeftSemi, c.Join.Kind)
	assert.Equal(t, []string{"id", "zip"}, c.Join.Using)

	d := sel.From[3].(*parser.TableName)
	assert.Equal(t, parser.JoinCross, d.Join.Kind)

	v := sel.From[4].(*parser.InlineView)
	assert.Equal(t, "v", v.Alias)
	assert.Equal(t, parser.JoinCross, v.Join.Kind)

	_, err := parser.Parse("select * from (select 1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline view requires an alias")
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "1 + 2 * 3"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"not a = b or c", "NOT a = b OR c"},
		{"-x + 1", "-x + 1"},
		{"a or b and c", "a OR b AND c"},
		{"(a or b) and c", "(a OR b) AND c"},
		{"cast(x as timestamp) is null", "CAST(x AS TIMESTAMP) IS NULL"},
		{"count(distinct id, zip)", "COUNT(DISTINCT id, zip)"},
		{"upper('it''s')", "upper('it''s')"},
		{"a <> b", "a != b"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			expr, err := parser.ParseExpression(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, parser.FormatExpression(expr))
		})
	}

	expr, err := parser.ParseExpression("not a = b")
	require.NoError(t, err)
	unary := expr.(*parser.UnaryExpr)
	assert.Equal(t, parser.UnaryNot, unary.Op)
	assert.IsType(t, &parser.BinaryExpr{}, unary.Expr)
}

func TestUnionParsing(t *testing.T) {
	stmt, err := parser.Parse("select int_col from functional.alltypes " +
		"union select tinyint_col from functional.alltypes " +
		"union all (select 1) order by 1 limit 3")
	require.NoError(t, err)
	union, ok := stmt.(*parser.UnionStmt)
	require.True(t, ok)
	require.Len(t, union.Operands, 3)
	assert.False(t, union.Operands[1].All)
	assert.True(t, union.Operands[2].All)
	require.Len(t, union.OrderBy, 1)
	assert.Equal(t, int64(3), union.Limit.Limit)
	for _, op := range union.Operands {
		sel := op.Query.(*parser.SelectStmt)
		assert.Empty(t, sel.OrderBy)
	}
	assert.Equal(t, "SELECT int_col FROM functional.alltypes", parser.FormatQuery(union.Operands[0].Query))
}

func TestValuesParsing(t *testing.T) {
	tests := []struct {
		input string
		rows  int
		cols  int
	}{
		{"values(1, 2, 3)", 1, 3},
		{"values((1, 2, 3), (4, 5, 6))", 2, 3},
		{"values(1 as x, 'a' as y), (2, 'b')", 2, 2},
		{"values((1 + 2), 3)", 1, 2},
		{"values((1 as x, 'a' as y), (2 as k, 'b' as j))", 2, 2},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			stmt, err := parser.Parse(tc.input)
			require.NoError(t, err)
			values, ok := stmt.(*parser.ValuesStmt)
			require.True(t, ok)
			require.Len(t, values.Rows, tc.rows)
			assert.Len(t, values.Rows[0], tc.cols)
		})
	}

	stmt, err := parser.Parse("values(1 as x, 'a') order by 2 limit 10")
	require.NoError(t, err)
	values := stmt.(*parser.ValuesStmt)
	require.Len(t, values.OrderBy, 1)
	assert.Equal(t, "(1 x, 'a')", parser.FormatValuesRow(values.Rows[0]))
}

func TestWithClauseParsing(t *testing.T) {
	stmt, err := parser.Parse("with t1 as (values('a', 'b')) " +
		"(with t2 as (values('c', 'd')) select * from t2) union all " +
		"(with t3 as (values('e', 'f')) select * from t3) order by 1 limit 1")
	require.NoError(t, err)
	union := stmt.(*parser.UnionStmt)
	require.Len(t, union.With, 1)
	assert.Equal(t, "t1", union.With[0].Alias)
	require.Len(t, union.Operands, 2)
	assert.Equal(t, "t2", union.Operands[0].Query.WithClause()[0].Alias)

	stmt, err = parser.Parse("with t1 as (select 1) (with t2 as (select 2) select * from t2)")
	require.NoError(t, err)
	wrapped := stmt.(*parser.UnionStmt)
	require.Len(t, wrapped.Operands, 1)
	assert.Equal(t, "t1", wrapped.With[0].Alias)

	sel := parseSelect(t, "with t as (select int_col x from functional.alltypes), u as (select 1) select x from t")
	require.Len(t, sel.With, 2)
	assert.Equal(t, "u", sel.With[1].Alias)
}

func TestInsertParsing(t *testing.T) {
	stmt, err := parser.Parse("with t1 as (select * from functional.alltypestiny) " +
		"insert overwrite table functional.alltypes (id, int_col) partition (year=2009, month) " +
		"with t2 as (select 1) select * from t1")
	require.NoError(t, err)
	insert := stmt.(*parser.InsertStmt)
	assert.True(t, insert.Overwrite)
	assert.Equal(t, "functional", insert.Database)
	assert.Equal(t, "alltypes", insert.Table)
	assert.True(t, insert.HasColumnList)
	assert.Equal(t, []string{"id", "int_col"}, insert.Columns)
	require.Len(t, insert.Partition, 2)
	assert.Equal(t, "2009", parser.FormatExpression(insert.Partition[0].Value))
	assert.Nil(t, insert.Partition[1].Value)
	require.Len(t, insert.With, 1)
	require.NotNil(t, insert.Query)
	assert.Equal(t, "t2", insert.Query.WithClause()[0].Alias)

	stmt, err = parser.Parse("insert into functional.alltypesnopart()")
	require.NoError(t, err)
	empty := stmt.(*parser.InsertStmt)
	assert.True(t, empty.HasColumnList)
	assert.Empty(t, empty.Columns)
	assert.Nil(t, empty.Query)

	stmt, err = parser.Parse("insert into tinytable values('hello', 'world')")
	require.NoError(t, err)
	assert.IsType(t, &parser.ValuesStmt{}, stmt.(*parser.InsertStmt).Query)
}

func TestLoadAndDescribeParsing(t *testing.T) {
	stmt, err := parser.Parse("load data inpath '/test-warehouse/tpch.lineitem/' overwrite " +
		"into table functional.alltypes partition (year=2009, month=12);")
	require.NoError(t, err)
	load := stmt.(*parser.LoadDataStmt)
	assert.Equal(t, "/test-warehouse/tpch.lineitem/", load.Path)
	assert.True(t, load.Overwrite)
	assert.Equal(t, "alltypes", load.Table)
	require.Len(t, load.Partition, 2)

	stmt, err = parser.Parse("describe formatted functional.alltypes")
	require.NoError(t, err)
	assert.Equal(t, &parser.DescribeStmt{Formatted: true, Database: "functional", Table: "alltypes"}, stmt)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"select",
		"select 1 from",
		"select a from t where",
		"update t set a = 1",
		"select * from t left join",
		"insert t select 1",
		"load data inpath 5 into table t",
		"select 1 2 3",
	}
	for _, sql := range tests {
		t.Run(sql, func(t *testing.T) {
			_, err := parser.Parse(sql)
			assert.Error(t, err)
		})
	}
}
