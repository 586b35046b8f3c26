package catalog_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/catalog/fixture"
)

func peopleTable() *catalog.Table {
	return &catalog.Table{
		Database: "Sales",
		Name:     "People",
		Columns: []catalog.Column{
			{Name: "id", Type: catalog.ColumnTypeBigInt},
			{Name: "name", Type: catalog.ColumnTypeString},
			{Name: "year", Type: catalog.ColumnTypeInt, Partition: true},
		},
		Partitions: []catalog.Partition{{"year": "2012"}},
	}
}

func TestMemoryCaseInsensitiveLookup(t *testing.T) {
	mem := catalog.NewMemory()
	require.NoError(t, mem.AddTable(peopleTable()))

	assert.True(t, mem.DatabaseExists("sales"))
	assert.True(t, mem.DatabaseExists("SALES"))
	assert.False(t, mem.DatabaseExists("nodb"))

	table, ok := mem.GetTable("SALES", "people")
	require.True(t, ok)
	assert.Equal(t, "Sales.People", table.FullName())

	col, idx, ok := table.Column("NAME")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, catalog.ColumnTypeString, col.Type)

	_, ok = mem.GetTable("sales", "missing")
	assert.False(t, ok)
}

func TestMemoryRejectsInvalidTables(t *testing.T) {
	mem := catalog.NewMemory()
	require.NoError(t, mem.AddTable(peopleTable()))

	err := mem.AddTable(peopleTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	tests := []struct {
		name  string
		table *catalog.Table
		want  string
	}{
		{
			name: "duplicate column",
			table: &catalog.Table{Database: "d", Name: "t", Columns: []catalog.Column{
				{Name: "a", Type: catalog.ColumnTypeInt}, {Name: "A", Type: catalog.ColumnTypeInt},
			}},
			want: "duplicate column",
		},
		{
			name: "partition before regular column",
			table: &catalog.Table{Database: "d", Name: "t", Columns: []catalog.Column{
				{Name: "p", Type: catalog.ColumnTypeInt, Partition: true}, {Name: "a", Type: catalog.ColumnTypeInt},
			}},
			want: "must follow",
		},
		{
			name: "key-value without row key",
			table: &catalog.Table{Database: "d", Name: "t", Storage: catalog.StorageKeyValue, Columns: []catalog.Column{
				{Name: "a", Type: catalog.ColumnTypeInt},
			}},
			want: "requires a row key",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := catalog.NewMemory().AddTable(tc.table)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTablePartitions(t *testing.T) {
	table := peopleTable()
	assert.True(t, table.IsPartitioned())
	require.Len(t, table.PartitionColumns(), 1)
	assert.True(t, table.HasPartition(catalog.Partition{"YEAR": "2012"}, nil))
	assert.False(t, table.HasPartition(catalog.Partition{"year": "2013"}, nil))
	assert.False(t, table.HasPartition(catalog.Partition{"year": "2012", "month": "1"}, nil))
}

func TestParseColumnType(t *testing.T) {
	typ, err := catalog.ParseColumnType(" integer ")
	require.NoError(t, err)
	assert.Equal(t, catalog.ColumnTypeInt, typ)
	assert.Equal(t, "INT", typ.String())

	_, err = catalog.ParseColumnType("varchar")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	doc := `
databases:
- name: warehouse
  tables:
  - name: events
    storage: file
    format: parquet
    columns:
      - {name: id, type: bigint}
    partition_columns:
      - {name: day, type: int}
    partitions:
      - {day: "1"}
  - name: kv
    storage: keyvalue
    row_key: key
    columns:
      - {name: key, type: string}
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	mem, err := catalog.LoadFile(path)
	require.NoError(t, err)
	events, ok := mem.GetTable("warehouse", "events")
	require.True(t, ok)
	assert.Equal(t, catalog.FormatParquet, events.Format)
	assert.True(t, events.HasPartition(catalog.Partition{"day": "1"}, nil))
	kv, ok := mem.GetTable("warehouse", "kv")
	require.True(t, ok)
	assert.Equal(t, catalog.StorageKeyValue, kv.Storage)

	_, err = catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read snapshot")

	_, err = catalog.LoadYAML([]byte("databases:\n- name: d\n  tables:\n  - name: t\n    columns:\n      - {name: a, type: blob}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column type")
}

type countingCatalog struct {
	catalog.Catalog
	mu      sync.Mutex
	lookups int
}

func (c *countingCatalog) GetTable(database, name string) (*catalog.Table, bool) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.Catalog.GetTable(database, name)
}

func TestCachedCatalog(t *testing.T) {
	inner := &countingCatalog{Catalog: fixture.Functional()}
	cached, err := catalog.NewCached(inner, 4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		table, ok := cached.GetTable("FUNCTIONAL", "AllTypes")
		require.True(t, ok)
		assert.Equal(t, "alltypes", table.Name)
	}
	assert.Equal(t, 1, inner.lookups)
	assert.Equal(t, 1, cached.Len())

	_, ok := cached.GetTable("functional", "notbl")
	assert.False(t, ok)
	_, ok = cached.GetTable("functional", "notbl")
	assert.False(t, ok)
	assert.Equal(t, 3, inner.lookups)
	assert.True(t, cached.DatabaseExists("tpch"))

	_, err = catalog.NewCached(inner, 0)
	assert.Error(t, err)
}

func TestFunctionalFixture(t *testing.T) {
	mem := fixture.Functional()
	assert.Equal(t, []string{"default", "functional", "functional_seq", "functional_text_lzo", "tpch"}, mem.Databases())

	alltypes, ok := mem.GetTable("functional", "alltypes")
	require.True(t, ok)
	assert.Len(t, alltypes.Columns, 13)
	assert.Len(t, alltypes.PartitionColumns(), 2)
	assert.True(t, alltypes.HasPartition(catalog.Partition{"year": "2009", "month": "12"}, nil))

	agg, ok := mem.GetTable("functional", "alltypesagg")
	require.True(t, ok)
	assert.Len(t, agg.Columns, 14)

	hbase, ok := mem.GetTable("functional", "hbasealltypesagg")
	require.True(t, ok)
	assert.Equal(t, catalog.StorageKeyValue, hbase.Storage)
	assert.Equal(t, "id", hbase.RowKey)
	assert.Len(t, hbase.Columns, 11)

	lzo, ok := mem.GetTable("functional_text_lzo", "jointbl")
	require.True(t, ok)
	assert.Equal(t, catalog.FormatTextLZO, lzo.Format)
}

func TestDescribe(t *testing.T) {
	table := peopleTable()

	assert.Equal(t, []catalog.DescribeRow{
		{Name: "id", Type: "bigint"},
		{Name: "name", Type: "string"},
		{Name: "year", Type: "int"},
	}, catalog.Describe(table, false))

	assert.Equal(t, []catalog.DescribeRow{
		{Name: "# col_name", Type: "data_type", Comment: "comment"},
		{Name: "id", Type: "bigint"},
		{Name: "name", Type: "string"},
		{},
		{Name: "# Partition Information"},
		{Name: "# col_name", Type: "data_type", Comment: "comment"},
		{Name: "year", Type: "int"},
		{},
		{Name: "# Detailed Table Information"},
		{Name: "Database:", Type: "Sales"},
		{Name: "Table:", Type: "People"},
		{Name: "Storage:", Type: "HDFS"},
		{Name: "Format:", Type: "TEXT"},
	}, catalog.Describe(table, true))

	table.Storage = catalog.StorageKeyValue
	table.RowKey = "id"
	table.Location = "hdfs://localhost:20500/people"
	rows := catalog.Describe(table, true)
	assert.Equal(t, catalog.DescribeRow{Name: "Location:", Type: "hdfs://localhost:20500/people"}, rows[len(rows)-2])
	assert.Equal(t, catalog.DescribeRow{Name: "Row Key:", Type: "id"}, rows[len(rows)-1])
}
