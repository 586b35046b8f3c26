package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/granite-db/analyzer/internal/api"
	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/config"
	"github.com/example/granite-db/analyzer/internal/sql/validator"
)

var (
	version   = "0.1.0"
	buildDate = "dev"
)

type globalOptions struct {
	configFile string
	database   string
	catalog    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "granitectl",
		Short: "GraniteDB statement analyzer",
		Long: `granitectl validates SQL statements against a table catalog without
executing them.

Check a query against the embedded test catalog:
  granitectl -d functional check -q "select id from alltypes"

Use a catalog snapshot and config file:
  granitectl --config granite.yaml --catalog catalog.yaml describe sales.orders`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&opts.database, "database", "d", "", "default database")
	rootCmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "catalog snapshot file")

	rootCmd.AddCommand(
		newCheckCmd(opts),
		newDescribeCmd(opts),
		newCatalogCmd(opts),
		newInitCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "granitectl %s (built %s)\n", version, buildDate)
			},
		},
	)
	return rootCmd
}

func openService(opts *globalOptions) (*api.Service, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.database != "" {
		cfg.Analyzer.DefaultDatabase = opts.database
	}
	if opts.catalog != "" {
		cfg.Catalog.Path = opts.catalog
	}
	return api.Open(cfg)
}

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "check -q <SQL>",
		Short: "Analyze a statement and print its result shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && len(args) == 1 {
				query = args[0]
			}
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("-q is required")
			}
			svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Analyze(context.Background(), query)
			if err != nil {
				return err
			}
			renderAnalysis(cmd.OutOrStdout(), res.Analysis)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "SQL statement to analyze")
	return cmd
}

func newDescribeCmd(opts *globalOptions) *cobra.Command {
	var formatted bool
	cmd := &cobra.Command{
		Use:   "describe [--formatted] <table>",
		Short: "Describe the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			result, err := svc.Describe(context.Background(), args[0], formatted)
			if err != nil {
				return err
			}
			renderDescribe(cmd.OutOrStdout(), result.Rows)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&formatted, "formatted", "f", false, "include partition and storage details")
	return cmd
}

func newCatalogCmd(opts *globalOptions) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "catalog [--json]",
		Short: "List the databases and tables of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := svc.MetadataJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			dumpCatalog(out, svc.CatalogMeta())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print metadata as JSON")
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [config-file]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "granite.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.CreateDefaultConfig(path, ""); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
			return nil
		},
	}
}

func formatError(err error) string {
	red := color.New(color.FgHiRed).SprintFunc()
	if kind, ok := validator.KindOf(err); ok {
		return red(fmt.Sprintf("error [%s]: %v", kind, err))
	}
	return red(fmt.Sprintf("error: %v", err))
}

func renderAnalysis(out io.Writer, analysis *validator.Analysis) {
	green := color.New(color.FgHiGreen).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("OK"), analysis.Kind)

	switch analysis.Kind {
	case validator.StatementInsert:
		fmt.Fprintf(out, "target: %s\n", analysis.Insert.Table.FullName())
	case validator.StatementLoad:
		load := analysis.Load
		fmt.Fprintf(out, "target: %s\n", load.Table.FullName())
		for _, file := range load.Files {
			fmt.Fprintf(out, "file: %s\n", file)
		}
		return
	case validator.StatementDescribe:
		renderDescribe(out, analysis.Describe.Rows)
		return
	}

	root := analysis.RootBlock()
	if root == nil {
		return
	}
	rows := make([][]string, len(root.Labels))
	for i, label := range root.Labels {
		rows[i] = []string{label, strings.ToLower(root.Types[i].String())}
	}
	renderResult(out, []string{"label", "type"}, rows)
}

func renderDescribe(out io.Writer, described []catalog.DescribeRow) {
	rows := make([][]string, len(described))
	for i, row := range described {
		rows[i] = []string{row.Name, row.Type, row.Comment}
	}
	renderResult(out, []string{"name", "type", "comment"}, rows)
}

func dumpCatalog(out io.Writer, meta api.CatalogMeta) {
	for _, db := range meta.Databases {
		fmt.Fprintf(out, "Database %s (%d table(s))\n", db.Name, len(db.Tables))
		for _, table := range db.Tables {
			fmt.Fprintf(out, "  %s [%s, %s]", table.Name, table.Storage, table.Format)
			if len(table.PartitionColumns) > 0 {
				fmt.Fprintf(out, " PARTITIONED BY (%s)", strings.Join(table.PartitionColumns, ", "))
			}
			if table.RowKey != "" {
				fmt.Fprintf(out, " ROW KEY %s", table.RowKey)
			}
			fmt.Fprintln(out)
			for _, col := range table.Columns {
				if !col.Partition {
					fmt.Fprintf(out, "    - %s %s\n", col.Name, col.Type)
				}
			}
		}
	}
}

func renderResult(out io.Writer, columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	printRow(out, columns, widths)
	separator := make([]string, len(widths))
	for i, w := range widths {
		separator[i] = strings.Repeat("-", w)
	}
	printRow(out, separator, widths)
	for _, row := range rows {
		printRow(out, row, widths)
	}
	fmt.Fprintf(out, "(%d row(s))\n", len(rows))
}

func printRow(out io.Writer, values []string, widths []int) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprintf("%-*s", widths[i], v)
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(cells, " | "), " "))
}
