package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ColumnType enumerates the primitive column types known to the catalog.
type ColumnType int

const (
	ColumnTypeBoolean ColumnType = iota + 1
	ColumnTypeTinyInt
	ColumnTypeSmallInt
	ColumnTypeInt
	ColumnTypeBigInt
	ColumnTypeFloat
	ColumnTypeDouble
	ColumnTypeString
	ColumnTypeTimestamp
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeBoolean:   "BOOLEAN",
	ColumnTypeTinyInt:   "TINYINT",
	ColumnTypeSmallInt:  "SMALLINT",
	ColumnTypeInt:       "INT",
	ColumnTypeBigInt:    "BIGINT",
	ColumnTypeFloat:     "FLOAT",
	ColumnTypeDouble:    "DOUBLE",
	ColumnTypeString:    "STRING",
	ColumnTypeTimestamp: "TIMESTAMP",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType maps a SQL type name onto a ColumnType.
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BOOLEAN", "BOOL":
		return ColumnTypeBoolean, nil
	case "TINYINT":
		return ColumnTypeTinyInt, nil
	case "SMALLINT":
		return ColumnTypeSmallInt, nil
	case "INT", "INTEGER":
		return ColumnTypeInt, nil
	case "BIGINT":
		return ColumnTypeBigInt, nil
	case "FLOAT":
		return ColumnTypeFloat, nil
	case "DOUBLE":
		return ColumnTypeDouble, nil
	case "STRING":
		return ColumnTypeString, nil
	case "TIMESTAMP":
		return ColumnTypeTimestamp, nil
	default:
		return 0, fmt.Errorf("catalog: unknown column type %q", name)
	}
}

// StorageKind distinguishes bulk file tables from key-value tables.
type StorageKind int

const (
	StorageFile StorageKind = iota
	StorageKeyValue
)

func (k StorageKind) String() string {
	switch k {
	case StorageFile:
		return "HDFS"
	case StorageKeyValue:
		return "HBase"
	default:
		return "UNKNOWN"
	}
}

// FileFormat describes how the files backing a table are encoded.
type FileFormat int

const (
	FormatText FileFormat = iota
	FormatTextLZO
	FormatSequence
	FormatRCFile
	FormatParquet
)

func (f FileFormat) String() string {
	switch f {
	case FormatText:
		return "TEXT"
	case FormatTextLZO:
		return "TEXT_LZO"
	case FormatSequence:
		return "SEQUENCE"
	case FormatRCFile:
		return "RCFILE"
	case FormatParquet:
		return "PARQUET"
	default:
		return "UNKNOWN"
	}
}

// Column describes a single column definition.
type Column struct {
	Name      string
	Type      ColumnType
	Partition bool
}

// Partition lists the key values of one existing partition, keyed by
// lower-cased partition column name.
type Partition map[string]string

// Table describes the read-only metadata of a catalog table. Partition
// columns always follow the regular columns.
type Table struct {
	Database   string
	Name       string
	Columns    []Column
	Storage    StorageKind
	Format     FileFormat
	Location   string
	RowKey     string
	Partitions []Partition
}

// FullName returns the database-qualified table name.
func (t *Table) FullName() string {
	return t.Database + "." + t.Name
}

// Column looks up a column by case-insensitive name and returns its position.
func (t *Table) Column(name string) (Column, int, bool) {
	for i, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, i, true
		}
	}
	return Column{}, -1, false
}

// PartitionColumns returns the partition columns in declaration order.
func (t *Table) PartitionColumns() []Column {
	var cols []Column
	for _, col := range t.Columns {
		if col.Partition {
			cols = append(cols, col)
		}
	}
	return cols
}

// IsPartitioned reports whether the table declares partition columns.
func (t *Table) IsPartitioned() bool {
	for _, col := range t.Columns {
		if col.Partition {
			return true
		}
	}
	return false
}

// HasPartition reports whether a partition with exactly the provided key
// values exists. Values are compared with the supplied equality function so
// that callers can normalise numeric spellings.
func (t *Table) HasPartition(values Partition, equal func(a, b string) bool) bool {
	if equal == nil {
		equal = func(a, b string) bool { return a == b }
	}
	for _, part := range t.Partitions {
		if len(part) != len(values) {
			continue
		}
		match := true
		for key, want := range values {
			got, ok := part[strings.ToLower(key)]
			if !ok || !equal(got, want) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (t *Table) validate() error {
	if t.Name == "" {
		return fmt.Errorf("catalog: table name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("catalog: table %s has no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	partitionSeen := false
	for _, col := range t.Columns {
		key := strings.ToLower(col.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("catalog: duplicate column %s in table %s", col.Name, t.Name)
		}
		seen[key] = struct{}{}
		if col.Partition {
			partitionSeen = true
		} else if partitionSeen {
			return fmt.Errorf("catalog: partition columns of %s must follow regular columns", t.Name)
		}
	}
	if t.Storage == StorageKeyValue {
		if t.RowKey == "" {
			return fmt.Errorf("catalog: key-value table %s requires a row key", t.Name)
		}
		if _, _, ok := t.Column(t.RowKey); !ok {
			return fmt.Errorf("catalog: row key %s is not a column of %s", t.RowKey, t.Name)
		}
		if partitionSeen {
			return fmt.Errorf("catalog: key-value table %s cannot be partitioned", t.Name)
		}
	}
	return nil
}

// Catalog is the read-only metadata contract consumed by the analyzer.
// Lookups are case-insensitive.
type Catalog interface {
	DatabaseExists(name string) bool
	GetTable(database, name string) (*Table, bool)
}

// Memory is an in-memory catalog. It is safe for concurrent readers once
// populated.
type Memory struct {
	mu        sync.RWMutex
	databases map[string]map[string]*Table
	names     map[string]string
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		databases: make(map[string]map[string]*Table),
		names:     make(map[string]string),
	}
}

// AddDatabase registers a database. Adding an existing database is a no-op.
func (m *Memory) AddDatabase(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDatabaseLocked(name)
}

func (m *Memory) addDatabaseLocked(name string) map[string]*Table {
	key := strings.ToLower(name)
	tables, ok := m.databases[key]
	if !ok {
		tables = make(map[string]*Table)
		m.databases[key] = tables
		m.names[key] = name
	}
	return tables
}

// AddTable registers a table, creating its database when required.
func (m *Memory) AddTable(table *Table) error {
	if table == nil {
		return fmt.Errorf("catalog: table is nil")
	}
	if table.Database == "" {
		return fmt.Errorf("catalog: table %s has no database", table.Name)
	}
	if err := table.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tables := m.addDatabaseLocked(table.Database)
	key := strings.ToLower(table.Name)
	if _, exists := tables[key]; exists {
		return fmt.Errorf("catalog: table %s already exists", table.FullName())
	}
	tables[key] = table
	return nil
}

// DatabaseExists implements Catalog.
func (m *Memory) DatabaseExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.databases[strings.ToLower(name)]
	return ok
}

// GetTable implements Catalog.
func (m *Memory) GetTable(database, name string) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tables, ok := m.databases[strings.ToLower(database)]
	if !ok {
		return nil, false
	}
	table, ok := tables[strings.ToLower(name)]
	return table, ok
}

// Databases lists database names in sorted order.
func (m *Memory) Databases() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.names))
	for _, name := range m.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables lists the tables of a database sorted by name.
func (m *Memory) Tables(database string) []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tables := m.databases[strings.ToLower(database)]
	list := make([]*Table, 0, len(tables))
	for _, table := range tables {
		list = append(list, table)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
