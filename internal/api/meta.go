package api

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/catalog"
)

// CatalogMeta summarises the catalog structure for tooling integration.
type CatalogMeta struct {
	Source    string         `json:"source"`
	Databases []DatabaseMeta `json:"databases"`
}

// DatabaseMeta lists the tables of one database.
type DatabaseMeta struct {
	Name   string      `json:"name"`
	Tables []TableMeta `json:"tables"`
}

// TableMeta captures table-level metadata.
type TableMeta struct {
	Name             string       `json:"name"`
	Storage          string       `json:"storage"`
	Format           string       `json:"format"`
	Location         string       `json:"location,omitempty"`
	RowKey           string       `json:"rowKey,omitempty"`
	Columns          []ColumnMeta `json:"columns"`
	PartitionColumns []string     `json:"partitionColumns"`
	Partitions       int          `json:"partitions"`
}

// ColumnMeta describes a column definition.
type ColumnMeta struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Partition bool   `json:"partition"`
	RowKey    bool   `json:"isRowKey"`
}

// CatalogMeta gathers the schema of every database in the catalog.
func (s *Service) CatalogMeta() CatalogMeta {
	names := s.source.Databases()
	meta := CatalogMeta{
		Source:    catalogSource(s.cfg),
		Databases: make([]DatabaseMeta, len(names)),
	}
	for i, name := range names {
		tables := s.source.Tables(name)
		db := DatabaseMeta{Name: name, Tables: make([]TableMeta, len(tables))}
		for j, table := range tables {
			db.Tables[j] = buildTableMeta(table)
		}
		meta.Databases[i] = db
	}
	return meta
}

// MetadataJSON returns the catalog metadata encoded as JSON.
func (s *Service) MetadataJSON() ([]byte, error) {
	data, err := json.Marshal(s.CatalogMeta())
	if err != nil {
		return nil, errors.Wrap(err, "api: encode metadata")
	}
	return data, nil
}

func buildTableMeta(table *catalog.Table) TableMeta {
	keyValue := table.Storage == catalog.StorageKeyValue
	columns := make([]ColumnMeta, len(table.Columns))
	for i, col := range table.Columns {
		columns[i] = ColumnMeta{
			Name:      col.Name,
			Type:      col.Type.String(),
			Partition: col.Partition,
			RowKey:    keyValue && strings.EqualFold(col.Name, table.RowKey),
		}
	}

	partitionColumns := make([]string, 0)
	for _, col := range table.PartitionColumns() {
		partitionColumns = append(partitionColumns, col.Name)
	}

	meta := TableMeta{
		Name:             table.Name,
		Storage:          table.Storage.String(),
		Format:           table.Format.String(),
		Location:         table.Location,
		Columns:          columns,
		PartitionColumns: partitionColumns,
		Partitions:       len(table.Partitions),
	}
	if keyValue {
		meta.RowKey = table.RowKey
	}
	return meta
}
