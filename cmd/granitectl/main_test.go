package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/granite-db/analyzer/internal/api"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GRANITE_LOG_LEVEL", "error")
	color.NoColor = true

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	cases := []struct {
		name  string
		args  []string
		wants []string
	}{{
		name:  "query flag",
		args:  []string{"-d", "functional", "check", "-q", "select id, string_col from alltypes"},
		wants: []string{"OK QUERY", "label      | type", "string_col | string", "(2 row(s))"},
	}, {
		name:  "positional statement",
		args:  []string{"check", "select count(*) as n from functional.testtbl"},
		wants: []string{"OK QUERY", "n     | bigint", "(1 row(s))"},
	}, {
		name:  "insert target",
		args:  []string{"--database", "functional", "check", "-q", "insert into alltypesnopart (id) select zip from testtbl"},
		wants: []string{"OK INSERT", "target: functional.alltypesnopart", "zip   | int"},
	}, {
		name:  "describe statement",
		args:  []string{"-d", "functional", "check", "-q", "describe testtbl"},
		wants: []string{"OK DESCRIBE", "zip  | int", "(3 row(s))"},
	}}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runCLI(t, tc.args...)
			require.NoError(t, err)
			for _, want := range tc.wants {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCheckCommandErrors(t *testing.T) {
	_, err := runCLI(t, "-d", "functional", "check", "-q", "select xyz from alltypes")
	require.Error(t, err)
	assert.Equal(t, "error [UnresolvedColumnReference]: couldn't resolve column reference: 'xyz'", formatError(err))

	_, err = runCLI(t, "check")
	assert.EqualError(t, err, "-q is required")
	assert.Equal(t, "error: -q is required", formatError(err))

	_, err = runCLI(t, "check", "-q", "select from where")
	require.Error(t, err)
	assert.Contains(t, formatError(err), "error: parser:")

	_, err = runCLI(t, "check", "a", "b")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "check", "-q", "select 1")
	assert.Error(t, err)
}

func TestDescribeCommand(t *testing.T) {
	out, err := runCLI(t, "describe", "functional.alltypes")
	require.NoError(t, err)
	assert.Contains(t, out, "name            | type      | comment")
	assert.Contains(t, out, "timestamp_col   | timestamp")
	assert.NotContains(t, out, "# Partition Information")

	out, err = runCLI(t, "describe", "--formatted", "functional.alltypes")
	require.NoError(t, err)
	assert.Contains(t, out, "# Partition Information")
	assert.Contains(t, out, "Location:")

	_, err = runCLI(t, "describe", "functional.badtbl")
	require.Error(t, err)
	assert.Equal(t, "error [TableNotFound]: Table does not exist: functional.badtbl", formatError(err))

	_, err = runCLI(t, "describe")
	assert.Error(t, err)
}

func TestCatalogCommand(t *testing.T) {
	out, err := runCLI(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Database functional_text_lzo (2 table(s))")
	assert.Contains(t, out, "  alltypes [HDFS, TEXT] PARTITIONED BY (year, month)")
	assert.Contains(t, out, "  hbasealltypessmall [HBase, TEXT] ROW KEY id")
	assert.Contains(t, out, "    - zip INT")

	out, err = runCLI(t, "catalog", "--json")
	require.NoError(t, err)
	var meta api.CatalogMeta
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, "embedded", meta.Source)
	assert.Len(t, meta.Databases, 5)

	_, err = runCLI(t, "catalog", "extra")
	assert.Error(t, err)
}

func TestCatalogSnapshotFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	snapshot := `databases:
- name: sales
  tables:
  - name: orders
    columns:
      - {name: id, type: bigint}
      - {name: amount, type: double}
`
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0644))

	out, err := runCLI(t, "--catalog", path, "-d", "sales", "check", "-q", "select sum(amount) from orders")
	require.NoError(t, err)
	assert.Contains(t, out, "| double")

	_, err = runCLI(t, "--catalog", path, "check", "-q", "select * from functional.alltypes")
	require.Error(t, err)
	assert.Contains(t, formatError(err), "error [DatabaseNotFound]")
}

func TestInitAndVersionCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "granite.yaml")
	out, err := runCLI(t, "init", path)
	require.NoError(t, err)
	assert.Equal(t, "Created config file: "+path+"\n", out)

	out, err = runCLI(t, "--config", path, "-d", "functional", "check", "-q", "select 1 + 1")
	require.NoError(t, err)
	assert.Contains(t, out, "OK QUERY")

	out, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "granitectl 0.1.0 (built dev)\n", out)
}

func TestFormatErrorWrapped(t *testing.T) {
	color.NoColor = true
	err := errors.Wrap(errors.New("boom"), "open")
	assert.Equal(t, "error: open: boom", formatError(err))
}
