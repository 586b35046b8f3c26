package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/validator"
)

func TestUnionCommonTypes(t *testing.T) {
	analysis := analyzesOK(t, "select id, float_col from alltypes union all select bigint_col, int_col from alltypessmall "+
		"union select null, tinyint_col from alltypestiny")
	root := analysis.RootBlock()
	assert.Equal(t, validator.BlockUnion, root.Kind)
	assert.Equal(t, []string{"id", "float_col"}, root.Labels)
	assert.Equal(t, []expr.Type{expr.TypeBigInt, expr.TypeDouble}, root.Types)
	require.Len(t, root.Operands, 3)
	assert.Equal(t, []bool{false, true, false}, root.All)
	for _, id := range root.Operands {
		assert.Less(t, int(id), int(analysis.Root))
	}
}

func TestUnionErrors(t *testing.T) {
	analysisError(t, "select id from alltypes union select id, int_col from alltypes", validator.UnequalColumnCount,
		"Operands have unequal number of columns:\n'SELECT id FROM alltypes' has 1 column(s)\n"+
			"'SELECT id, int_col FROM alltypes' has 2 column(s)")
	analysisError(t, "select 1 union all select 'a'", validator.IncompatibleTypes,
		"Incompatible return types 'TINYINT' and 'STRING' of exprs '1' and ''a''.")
	analysisError(t, "select null union select 1 union select 'a'", validator.IncompatibleTypes,
		"Incompatible return types 'TINYINT' and 'STRING' of exprs '1' and ''a''.")
	analysisError(t, "select bool_col from alltypes union select timestamp_col from alltypes", validator.IncompatibleTypes,
		"Incompatible return types 'BOOLEAN' and 'TIMESTAMP' of exprs 'bool_col' and 'timestamp_col'.")
}

func TestUnionOrderBy(t *testing.T) {
	analysis := analyzesOK(t, "select id, int_col from alltypes union select id, bigint_col from alltypessmall "+
		"order by 2 desc, id limit 5")
	root := analysis.RootBlock()
	require.Len(t, root.OrderBy, 2)
	assert.Equal(t, "int_col", expr.Format(root.OrderBy[0].Expr))
	assert.Equal(t, expr.TypeBigInt, root.OrderBy[0].Expr.ResultType())
	assert.True(t, root.OrderBy[0].Desc)
	assert.Equal(t, "id", expr.Format(root.OrderBy[1].Expr))
	assert.Equal(t, int64(5), root.Limit.Limit)

	tests := []struct {
		sql     string
		kind    validator.ErrorKind
		message string
	}{
		{"select id from alltypes union select id from alltypessmall order by a.id", validator.UnknownTableAlias,
			"unknown table alias: 'a'"},
		{"select id from alltypes union select id from alltypessmall order by int_col", validator.UnresolvedColumnReference,
			"couldn't resolve column reference: 'int_col'"},
		{"select id from alltypes union select id from alltypessmall order by count(*)", validator.InvalidAggregateCall,
			"ORDER BY of a UNION must not contain aggregate functions"},
		{"select id from alltypes union select id from alltypessmall order by 2", validator.InvalidOrdinal,
			"ORDER BY: ordinal exceeds number of items in select list: 2"},
		{"select id a, int_col a from alltypes union select 1, 2 order by a", validator.AmbiguousAlias,
			"Column a in order clause is ambiguous"},
		{"select id from alltypes union select 1 order by -1", validator.InvalidOrdinal,
			"ORDER BY: ordinal must be >= 1: -1"},
		{"select id from alltypes union select 1 order by 99999999999999999999", validator.InvalidOrdinal,
			"ORDER BY: ordinal exceeds number of items in select list: 99999999999999999999"},
	}
	for _, tc := range tests {
		t.Run(tc.sql, func(t *testing.T) {
			analysisError(t, tc.sql, tc.kind, tc.message)
		})
	}
}

func TestUnionInInlineView(t *testing.T) {
	analysis := analyzesOK(t, "select u.id from (select id from alltypes union all select id from alltypessmall) u")
	tuple := analysis.Descriptors.Tuple(analysis.RootBlock().Tuples[0])
	assert.Equal(t, validator.BlockUnion, analysis.Block(tuple.Block).Kind)
}

func TestValues(t *testing.T) {
	single := analyzesOK(t, "values (1, 'a')")
	assert.Equal(t, validator.BlockSelect, single.RootBlock().Kind)
	assert.Equal(t, []expr.Type{expr.TypeTinyInt, expr.TypeString}, single.RootBlock().Types)

	multi := analyzesOK(t, "values (1, 'a'), (1000, null)")
	root := multi.RootBlock()
	assert.Equal(t, validator.BlockUnion, root.Kind)
	assert.Equal(t, []bool{true, true}, root.All)
	assert.Equal(t, []expr.Type{expr.TypeSmallInt, expr.TypeString}, root.Types)

	analyzesOK(t, "select * from (values (1, 'a'), (2, 'b')) v")

	_, err := analyzeWith(t, newAnalyzer(validator.Options{}), "values (1, 2), (3)")
	requireAnalysisError(t, err, validator.UnequalColumnCount, "Operands have unequal number of columns")
	_, err = analyzeWith(t, newAnalyzer(validator.Options{}), "values (1), ('a')")
	requireAnalysisError(t, err, validator.IncompatibleTypes, "Incompatible return types 'TINYINT' and 'STRING'")
}
