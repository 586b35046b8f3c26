package catalog

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type snapshot struct {
	Databases []databaseSnapshot `yaml:"databases"`
}

type databaseSnapshot struct {
	Name   string          `yaml:"name"`
	Tables []tableSnapshot `yaml:"tables"`
}

type tableSnapshot struct {
	Name             string              `yaml:"name"`
	Storage          string              `yaml:"storage"`
	Format           string              `yaml:"format"`
	Location         string              `yaml:"location"`
	RowKey           string              `yaml:"row_key"`
	Columns          []columnSnapshot    `yaml:"columns"`
	PartitionColumns []columnSnapshot    `yaml:"partition_columns"`
	Partitions       []map[string]string `yaml:"partitions"`
}

type columnSnapshot struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadFile reads a YAML catalog snapshot from disk.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: read snapshot %s", path)
	}
	mem, err := LoadYAML(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog: load snapshot %s", path)
	}
	return mem, nil
}

// LoadYAML builds an in-memory catalog from a YAML snapshot document.
func LoadYAML(data []byte) (*Memory, error) {
	var doc snapshot
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "catalog: decode snapshot")
	}
	mem := NewMemory()
	for _, db := range doc.Databases {
		if db.Name == "" {
			return nil, errors.New("catalog: database without name")
		}
		mem.AddDatabase(db.Name)
		for _, ts := range db.Tables {
			table, err := ts.table(db.Name)
			if err != nil {
				return nil, err
			}
			if err := mem.AddTable(table); err != nil {
				return nil, err
			}
		}
	}
	return mem, nil
}

func (ts tableSnapshot) table(database string) (*Table, error) {
	table := &Table{
		Database: database,
		Name:     ts.Name,
		Location: ts.Location,
		RowKey:   ts.RowKey,
	}
	switch strings.ToLower(ts.Storage) {
	case "", "file", "hdfs":
		table.Storage = StorageFile
	case "keyvalue", "hbase":
		table.Storage = StorageKeyValue
	default:
		return nil, errors.Errorf("catalog: table %s.%s has unknown storage %q", database, ts.Name, ts.Storage)
	}
	switch strings.ToLower(ts.Format) {
	case "", "text":
		table.Format = FormatText
	case "text_lzo":
		table.Format = FormatTextLZO
	case "sequence":
		table.Format = FormatSequence
	case "rcfile":
		table.Format = FormatRCFile
	case "parquet":
		table.Format = FormatParquet
	default:
		return nil, errors.Errorf("catalog: table %s.%s has unknown format %q", database, ts.Name, ts.Format)
	}
	for _, cs := range ts.Columns {
		col, err := cs.column(false)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: table %s.%s", database, ts.Name)
		}
		table.Columns = append(table.Columns, col)
	}
	for _, cs := range ts.PartitionColumns {
		col, err := cs.column(true)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: table %s.%s", database, ts.Name)
		}
		table.Columns = append(table.Columns, col)
	}
	for _, values := range ts.Partitions {
		part := make(Partition, len(values))
		for key, value := range values {
			col, _, ok := table.Column(key)
			if !ok || !col.Partition {
				return nil, errors.Errorf("catalog: table %s.%s partition references non-partition column %s", database, ts.Name, key)
			}
			part[strings.ToLower(key)] = value
		}
		table.Partitions = append(table.Partitions, part)
	}
	return table, nil
}

func (cs columnSnapshot) column(partition bool) (Column, error) {
	typ, err := ParseColumnType(cs.Type)
	if err != nil {
		return Column{}, err
	}
	return Column{Name: cs.Name, Type: typ, Partition: partition}, nil
}
