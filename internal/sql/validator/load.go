package validator

import (
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/fsys"
	"github.com/example/granite-db/analyzer/internal/sql/expr"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

const lzoSuffix = ".lzo"

// LoadTarget is the validated destination and source of LOAD DATA. Path is
// the fully qualified source location.
type LoadTarget struct {
	Table     *catalog.Table
	Overwrite bool
	Path      string
	Partition catalog.Partition
	Files     []string
}

func (a *statementAnalyzer) analyzeLoad(stmt *parser.LoadDataStmt) (*LoadTarget, error) {
	table, _, err := a.resolveTable(stmt.Database, stmt.Table)
	if err != nil {
		return nil, err
	}
	if table.Storage == catalog.StorageKeyValue {
		return nil, errorf(UnsupportedOperation, "LOAD DATA only supported for HDFS tables: %s", table.FullName())
	}
	switch {
	case table.IsPartitioned() && len(stmt.Partition) == 0:
		return nil, errorf(MissingPartitionSpec, "Table is partitioned but no partition spec was specified: %s", table.FullName())
	case !table.IsPartitioned() && len(stmt.Partition) > 0:
		return nil, errorf(PartitionOnUnpartitioned,
			"PARTITION clause is only valid for LOAD DATA into partitioned table. '%s' is not partitioned", table.FullName())
	}

	target := &LoadTarget{Table: table, Overwrite: stmt.Overwrite}
	if len(stmt.Partition) > 0 {
		partition, err := a.loadPartition(table, stmt.Partition)
		if err != nil {
			return nil, err
		}
		target.Partition = partition
	}

	files, err := a.checkLoadPath(stmt.Path)
	if err != nil {
		return nil, err
	}
	target.Path = fsys.Qualify(stmt.Path, a.opts.DefaultFS)
	target.Files = files

	if table.Format != catalog.FormatTextLZO {
		for _, file := range files {
			if strings.HasSuffix(strings.ToLower(file), lzoSuffix) {
				return nil, errorf(FileFormatMismatch, "Compressed file not supported without compression input format: %s", file)
			}
		}
	}
	return target, nil
}

// loadPartition validates a static partition spec and checks that the
// partition exists.
func (a *statementAnalyzer) loadPartition(table *catalog.Table, items []parser.PartitionItem) (catalog.Partition, error) {
	mentioned := make(map[int]bool)
	values := make(catalog.Partition, len(items))
	rendered := make([]string, 0, len(items))
	for _, item := range items {
		idx, err := partitionColumn(table, item, mentioned)
		if err != nil {
			return nil, err
		}
		if item.Value == nil {
			return nil, errorf(NonConstantPartitionValue, "Partition column '%s' requires a static value", item.Column)
		}
		value, err := a.buildPartitionValue(item)
		if err != nil {
			return nil, err
		}
		text := expr.Format(value)
		if lit, ok := value.(*expr.Literal); ok {
			text = lit.Value
		}
		values[strings.ToLower(table.Columns[idx].Name)] = text
		rendered = append(rendered, item.Column+"="+parser.FormatExpression(item.Value))
	}
	if err := checkMissingPartitions(table, mentioned); err != nil {
		return nil, err
	}
	if !table.HasPartition(values, expr.EqualLiteralValues) {
		return nil, errorf(PartitionNotFound, "Partition spec does not exist: (%s)", strings.Join(rendered, ", "))
	}
	return values, nil
}

// checkLoadPath validates the source location and returns the files it
// contributes. Filesystem failures are returned as plain errors.
func (a *statementAnalyzer) checkLoadPath(location string) ([]string, error) {
	if location == "" {
		return nil, errorf(InvalidLoadPath, "INPATH location cannot be an empty string.")
	}
	URL := fsys.Qualify(location, a.opts.DefaultFS)
	if scheme := fsys.Scheme(URL); !strings.EqualFold(scheme, a.opts.Scheme) {
		return nil, errorf(InvalidLoadPath, "INPATH location '%s' must point to an %s file system", location, strings.ToUpper(a.opts.Scheme))
	}
	fs := a.opts.FileSystem
	exists, err := fs.Exists(a.ctx, URL)
	if err != nil {
		return nil, errors.Wrap(err, "validator: load path")
	}
	if !exists {
		return nil, errorf(InvalidLoadPath, "INPATH location '%s' does not exist.", location)
	}
	isDir, err := fs.IsDirectory(a.ctx, URL)
	if err != nil {
		return nil, errors.Wrap(err, "validator: load path")
	}
	if !isDir {
		if fsys.IsHiddenName(path.Base(URL)) {
			return nil, errorf(InvalidLoadPath, "INPATH location '%s' points to a hidden file.", location)
		}
		return []string{URL}, nil
	}
	entries, err := fs.List(a.ctx, URL)
	if err != nil {
		return nil, errors.Wrap(err, "validator: load path")
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir {
			return nil, errorf(InvalidLoadPath, "INPATH location '%s' cannot contain subdirectories.", location)
		}
		if !fsys.IsHiddenName(entry.Name) {
			files = append(files, entry.URL)
		}
	}
	if len(files) == 0 {
		return nil, errorf(InvalidLoadPath, "INPATH location '%s' contains no visible files.", location)
	}
	return files, nil
}
