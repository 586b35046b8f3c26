package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
	"github.com/example/granite-db/analyzer/internal/sql/validator"
)

func TestJoinClauses(t *testing.T) {
	analysis := analyzesOK(t, "select a.id from alltypes a left outer join alltypessmall b on a.id = b.id "+
		"join [broadcast] testtbl c using (id)")
	root := analysis.RootBlock()
	require.Len(t, root.Tuples, 3)
	require.Len(t, root.Joins, 2)

	assert.Equal(t, parser.JoinLeftOuter, root.Joins[0].Kind)
	assert.Equal(t, root.Tuples[1], root.Joins[0].Right)
	assert.Equal(t, "a.id = b.id", expr.Format(root.Joins[0].On))

	assert.Equal(t, parser.JoinInner, root.Joins[1].Kind)
	assert.Equal(t, []string{"broadcast"}, root.Joins[1].Hints)
	assert.Equal(t, []string{"b.id = c.id"}, formatAll(root.Joins[1].Using))
}

func TestJoinsAccepted(t *testing.T) {
	for _, sql := range []string{
		"select * from alltypes a join alltypessmall b",
		"select * from alltypes a cross join alltypessmall b",
		"select * from alltypes a inner join alltypessmall b on a.id = b.id and a.int_col = b.int_col",
		"select * from alltypes a right outer join alltypessmall b using (id, int_col)",
		"select * from alltypes a full outer join alltypessmall b on a.id = b.id",
		"select * from alltypes a left semi join alltypessmall b on a.id = b.id",
		"select * from alltypes a join [shuffle] alltypessmall b on a.id = b.id",
		"select * from alltypes a join [BROADCAST, broadcast] alltypessmall b on a.id = b.id",
		"select * from testtbl a join jointbl b on a.id = b.test_id join alltypes c on b.alltypes_id = c.id",
	} {
		t.Run(sql, func(t *testing.T) {
			analyzesOK(t, sql)
		})
	}
}

func TestJoinErrors(t *testing.T) {
	tests := []struct {
		sql     string
		kind    validator.ErrorKind
		message string
	}{
		{"select * from alltypes a join [bogus] alltypessmall b on a.id = b.id", validator.UnknownJoinHint,
			"JOIN hint not recognized: bogus"},
		{"select * from alltypes a join [broadcast, shuffle] alltypessmall b on a.id = b.id", validator.ConflictingJoinHint,
			"Conflicting JOIN hint: shuffle"},
		{"select * from alltypes a left outer join alltypessmall b", validator.RequiresOnOrUsing,
			"LEFT OUTER JOIN requires an ON or USING clause"},
		{"select * from alltypes a right join alltypessmall b", validator.RequiresOnOrUsing,
			"RIGHT OUTER JOIN requires an ON or USING clause"},
		{"select * from alltypes a full outer join alltypessmall b", validator.RequiresOnOrUsing,
			"FULL OUTER JOIN requires an ON or USING clause"},
		{"select * from alltypes a left semi join alltypessmall b", validator.RequiresOnOrUsing,
			"LEFT SEMI JOIN requires an ON or USING clause"},
		{"select * from alltypes a join testtbl b using (zip)", validator.UnknownUsingColumn, "unknown column zip for alias a"},
		{"select * from testtbl a join alltypes b using (zip)", validator.UnknownUsingColumn, "unknown column zip for alias b"},
		{"select * from alltypes a join (select 'x' id) v using (id)", validator.IncomparableOperands,
			"operands are not comparable: a.id = v.id"},
		{"select * from alltypes a join alltypessmall b on a.int_col", validator.WrongClauseType,
			"ON clause 'a.int_col' requires return type 'BOOLEAN'. Actual type is 'INT'."},
		{"select * from alltypes a join alltypessmall b on count(*) > 0", validator.AggregateInWhere,
			"aggregation function not allowed in ON clause"},
		{"select * from alltypes a join alltypessmall b on a.id = c.id join testtbl c on b.id = c.id", validator.UnknownTableAlias,
			"unknown table alias: 'c'"},
	}
	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			analysisError(t, tc.sql, tc.kind, tc.message)
		})
	}
}

func TestInlineViews(t *testing.T) {
	analysis := analyzesOK(t, "select v.x, y from (select int_col x, string_col y from alltypes) v where x > 1")
	root := analysis.RootBlock()
	assert.Equal(t, []string{"x", "y"}, root.Labels)
	assert.Equal(t, []expr.Type{expr.TypeInt, expr.TypeString}, root.Types)
	require.Len(t, root.Children, 1)

	tuple := analysis.Descriptors.Tuple(root.Tuples[0])
	assert.Equal(t, validator.TupleInlineView, tuple.Kind)
	assert.Equal(t, root.Children[0], tuple.Block)
	assert.Equal(t, []string{"x", "y"}, analysis.Block(tuple.Block).Labels)
	assert.Equal(t, []string{"int_col", "string_col"}, formatAll(analysis.Block(tuple.Block).ResultExprs))

	// Block ids are post-order: the inline view precedes its parent.
	assert.Less(t, int(tuple.Block), int(analysis.Root))

	analyzesOK(t, "select * from (select * from (select id from testtbl) a) b")
	analyzesOK(t, "select cnt from (select count(*) cnt from alltypes) v")
	analyzesOK(t, "select * from (select 1 a, 2 b) v join testtbl t on v.a = t.id")
}

func TestInlineViewErrors(t *testing.T) {
	analysisError(t, "select * from (select int_col, int_col from alltypes) v", validator.DuplicateColumnAlias,
		"duplicated inline view column alias: 'int_col' in inline view 'v'")
	analysisError(t, "select * from (select int_col a, id A from alltypes) v", validator.DuplicateColumnAlias,
		"duplicated inline view column alias: 'a' in inline view 'v'")
	analysisError(t, "select * from alltypes a, (select a.id from alltypessmall) v", validator.UnknownTableAlias,
		"unknown table alias: 'a'")
	analysisError(t, "select * from alltypes v, (select id from alltypessmall) v", validator.DuplicateAlias,
		"Duplicate table alias: 'v'")
	analysisError(t, "select v.int_col from (select id from alltypessmall) v", validator.UnknownColumn,
		"unknown column 'int_col' (table alias 'v')")
}
