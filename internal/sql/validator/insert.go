package validator

import (
	"strings"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// InsertTarget is the validated destination of an INSERT. Columns follow the
// table's declaration order.
type InsertTarget struct {
	Table     *catalog.Table
	Overwrite bool
	Columns   []TargetColumn
}

// TargetColumn says where the value of one table column comes from: the
// source query column at Source, a static partition value, or NULL when
// Source is -1 and Static is nil.
type TargetColumn struct {
	Name      string
	Type      expr.Type
	Partition bool
	Source    int
	Static    expr.TypedExpr
}

func (a *statementAnalyzer) analyzeInsert(stmt *parser.InsertStmt) (*InsertTarget, BlockID, error) {
	root := a.newFrame(-1)
	if _, err := a.analyzeWith(root, stmt.With); err != nil {
		return nil, -1, err
	}
	query := BlockID(-1)
	var source *Block
	if stmt.Query != nil {
		id, err := a.analyzeQuery(root, stmt.Query)
		if err != nil {
			return nil, -1, err
		}
		query, source = id, a.block(id)
	}

	table, _, err := a.resolveTable(stmt.Database, stmt.Table)
	if err != nil {
		return nil, -1, err
	}
	if table.Storage == catalog.StorageKeyValue {
		if len(stmt.Partition) > 0 {
			return nil, -1, errorf(UnsupportedOperation,
				"PARTITION clause is not valid for INSERT into HBase tables. '%s' is an HBase table", table.FullName())
		}
		if stmt.Overwrite {
			return nil, -1, errorf(UnsupportedOperation, "HBase doesn't have a way to perform INSERT OVERWRITE")
		}
	}
	if len(stmt.Partition) > 0 && !table.IsPartitioned() {
		return nil, -1, errorf(PartitionOnUnpartitioned,
			"PARTITION clause is only valid for INSERT into partitioned table. '%s' is not partitioned", table.FullName())
	}

	perm, err := columnPermutation(table, stmt)
	if err != nil {
		return nil, -1, err
	}

	mentioned := make(map[int]bool)
	for _, idx := range perm {
		if table.Columns[idx].Partition {
			mentioned[idx] = true
		}
	}
	static := make(map[int]expr.TypedExpr)
	dynamic := make(map[int]bool)
	for _, item := range stmt.Partition {
		idx, err := partitionColumn(table, item, mentioned)
		if err != nil {
			return nil, -1, err
		}
		if item.Value == nil {
			dynamic[idx] = true
			continue
		}
		value, err := a.buildPartitionValue(item)
		if err != nil {
			return nil, -1, err
		}
		static[idx] = value
	}
	if err := checkMissingPartitions(table, mentioned); err != nil {
		return nil, -1, err
	}

	sourceCount := 0
	if source != nil {
		sourceCount = len(source.Labels)
	}
	if err := checkInsertArity(table, stmt, len(perm), len(static), len(dynamic), sourceCount); err != nil {
		return nil, -1, err
	}

	if table.Storage == catalog.StorageKeyValue && stmt.HasColumnList {
		_, rowKey, _ := table.Column(table.RowKey)
		found := false
		for _, idx := range perm {
			found = found || idx == rowKey
		}
		if !found {
			return nil, -1, errorf(MissingRowKey, "Row-key column '%s' must be explicitly mentioned in column permutation.", table.RowKey)
		}
	}

	targets := append([]int(nil), perm...)
	for idx := range table.Columns {
		if dynamic[idx] && !containsInt(perm, idx) {
			targets = append(targets, idx)
		}
	}

	result := &InsertTarget{Table: table, Overwrite: stmt.Overwrite}
	sources := make(map[int]int, len(targets))
	for i, idx := range targets {
		if source == nil {
			break
		}
		sources[idx] = i
		col := table.Columns[idx]
		if err := checkTargetType(table, col, source.Types[i], expr.Format(source.ResultExprs[i])); err != nil {
			return nil, -1, err
		}
	}
	for idx, col := range table.Columns {
		value, ok := static[idx]
		if !ok {
			continue
		}
		if err := checkTargetType(table, col, value.ResultType(), expr.Format(value)); err != nil {
			return nil, -1, err
		}
	}

	for idx, col := range table.Columns {
		target := TargetColumn{Name: col.Name, Type: expr.FromColumn(col.Type), Partition: col.Partition, Source: -1}
		if i, ok := sources[idx]; ok {
			target.Source = i
		}
		target.Static = static[idx]
		result.Columns = append(result.Columns, target)
	}
	return result, query, nil
}

func columnPermutation(table *catalog.Table, stmt *parser.InsertStmt) ([]int, error) {
	var perm []int
	if !stmt.HasColumnList {
		for idx, col := range table.Columns {
			if !col.Partition {
				perm = append(perm, idx)
			}
		}
		return perm, nil
	}
	seen := make(map[string]struct{}, len(stmt.Columns))
	for _, name := range stmt.Columns {
		_, idx, ok := table.Column(name)
		if !ok {
			return nil, errorf(UnknownColumn, "Unknown column '%s' in column permutation", name)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, errorf(DuplicateColumn, "Duplicate column '%s' in column permutation", name)
		}
		seen[key] = struct{}{}
		perm = append(perm, idx)
	}
	return perm, nil
}

// partitionColumn validates one PARTITION clause entry and marks its column
// as mentioned.
func partitionColumn(table *catalog.Table, item parser.PartitionItem, mentioned map[int]bool) (int, error) {
	col, idx, ok := table.Column(item.Column)
	if !ok || !col.Partition {
		return -1, errorf(NotPartitionColumn, "Column '%s' is not a partition column", item.Column)
	}
	if mentioned[idx] {
		return -1, errorf(DuplicatePartitionColumn, "Duplicate column '%s' in partition clause", item.Column)
	}
	mentioned[idx] = true
	return idx, nil
}

// buildPartitionValue analyzes a static partition value. It may not refer to
// any column.
func (a *statementAnalyzer) buildPartitionValue(item parser.PartitionItem) (expr.TypedExpr, error) {
	nonConstant := errorf(NonConstantPartitionValue,
		"Non-constant expressions are not supported as static partition-key values in '%s=%s'.",
		item.Column, parser.FormatExpression(item.Value))
	if containsColumnRef(item.Value) {
		return nil, nonConstant
	}
	value, err := a.buildExpression(a.newFrame(-1), item.Value)
	if err != nil {
		return nil, err
	}
	if !expr.IsConstant(value) {
		return nil, nonConstant
	}
	return value, nil
}

func checkMissingPartitions(table *catalog.Table, mentioned map[int]bool) error {
	var missing []string
	for idx, col := range table.Columns {
		if col.Partition && !mentioned[idx] {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return errorf(MissingPartitionColumns, "Not enough partition columns mentioned in query. Missing columns are: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

func checkInsertArity(table *catalog.Table, stmt *parser.InsertStmt, permCount, staticCount, dynamicCount, sourceCount int) error {
	sourceClause := "SELECT / VALUES clause returns"
	if len(stmt.Partition) > 0 {
		sourceClause = "SELECT / VALUES clause and PARTITION clause return"
	}
	if !stmt.HasColumnList {
		want, got := len(table.Columns), sourceCount+staticCount
		switch {
		case want > got:
			return errorf(TooFewSourceColumns, "Target table '%s' has more columns (%d) than the %s (%d)",
				table.FullName(), want, sourceClause, got)
		case want < got:
			return errorf(TooManySourceColumns, "Target table '%s' has fewer columns (%d) than the %s (%d)",
				table.FullName(), want, sourceClause, got)
		}
		return nil
	}
	subject := "Column permutation mentions"
	if len(stmt.Partition) > 0 {
		subject = "Column permutation and PARTITION clause mention"
	}
	got := permCount + dynamicCount
	switch {
	case got < sourceCount:
		return errorf(TooManySourceColumns, "%s fewer columns (%d) than the %s (%d)", subject, got, sourceClause, sourceCount)
	case got > sourceCount:
		return errorf(TooFewSourceColumns, "%s more columns (%d) than the %s (%d)", subject, got, sourceClause, sourceCount)
	}
	return nil
}

func checkTargetType(table *catalog.Table, col catalog.Column, sourceType expr.Type, text string) error {
	colType := expr.FromColumn(col.Type)
	common, ok := expr.CommonType(sourceType, colType)
	if !ok {
		return errorf(IncompatibleTargetType,
			"Target table '%s' is incompatible with SELECT / PARTITION expressions.\nExpression '%s' (type: %s) is not compatible with column '%s' (type: %s)",
			table.FullName(), text, sourceType, col.Name, colType)
	}
	if common != colType {
		return errorf(PossibleLossOfPrecision,
			"Possible loss of precision for target table '%s'.\nExpression '%s' (type: %s) would need to be cast to %s for column '%s'",
			table.FullName(), text, sourceType, colType, col.Name)
	}
	return nil
}

func containsColumnRef(node parser.Expression) bool {
	switch e := node.(type) {
	case *parser.ColumnRef:
		return true
	case *parser.UnaryExpr:
		return containsColumnRef(e.Expr)
	case *parser.BinaryExpr:
		return containsColumnRef(e.Left) || containsColumnRef(e.Right)
	case *parser.IsNullExpr:
		return containsColumnRef(e.Expr)
	case *parser.CastExpr:
		return containsColumnRef(e.Expr)
	case *parser.FunctionCallExpr:
		for _, arg := range e.Args {
			if containsColumnRef(arg) {
				return true
			}
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
