package validator

import (
	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

// DescribeResult is the validated outcome of DESCRIBE.
type DescribeResult struct {
	Table     *catalog.Table
	Formatted bool
	Rows      []catalog.DescribeRow
}

func (a *statementAnalyzer) analyzeDescribe(stmt *parser.DescribeStmt) (*DescribeResult, error) {
	table, _, err := a.resolveTable(stmt.Database, stmt.Table)
	if err != nil {
		return nil, err
	}
	return &DescribeResult{
		Table:     table,
		Formatted: stmt.Formatted,
		Rows:      catalog.Describe(table, stmt.Formatted),
	}, nil
}
