package catalog

import (
	"strings"
)

// DescribeRow is one line of DESCRIBE output.
type DescribeRow struct {
	Name    string
	Type    string
	Comment string
}

// Describe renders the columns of a table. The formatted variant adds column
// headers, a partition section and storage details.
func Describe(table *Table, formatted bool) []DescribeRow {
	if !formatted {
		rows := make([]DescribeRow, 0, len(table.Columns))
		for _, col := range table.Columns {
			rows = append(rows, columnRow(col))
		}
		return rows
	}

	rows := []DescribeRow{{Name: "# col_name", Type: "data_type", Comment: "comment"}}
	for _, col := range table.Columns {
		if !col.Partition {
			rows = append(rows, columnRow(col))
		}
	}
	if partitions := table.PartitionColumns(); len(partitions) > 0 {
		rows = append(rows,
			DescribeRow{},
			DescribeRow{Name: "# Partition Information"},
			DescribeRow{Name: "# col_name", Type: "data_type", Comment: "comment"},
		)
		for _, col := range partitions {
			rows = append(rows, columnRow(col))
		}
	}
	rows = append(rows,
		DescribeRow{},
		DescribeRow{Name: "# Detailed Table Information"},
		DescribeRow{Name: "Database:", Type: table.Database},
		DescribeRow{Name: "Table:", Type: table.Name},
		DescribeRow{Name: "Storage:", Type: table.Storage.String()},
		DescribeRow{Name: "Format:", Type: table.Format.String()},
	)
	if table.Location != "" {
		rows = append(rows, DescribeRow{Name: "Location:", Type: table.Location})
	}
	if table.Storage == StorageKeyValue {
		rows = append(rows, DescribeRow{Name: "Row Key:", Type: table.RowKey})
	}
	return rows
}

func columnRow(col Column) DescribeRow {
	return DescribeRow{Name: col.Name, Type: strings.ToLower(col.Type.String())}
}
