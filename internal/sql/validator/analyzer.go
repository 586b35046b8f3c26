// Package validator performs semantic analysis of parsed statements: name
// resolution, typing, aggregation and join rules, set operation
// compatibility and the target checks of INSERT and LOAD DATA.
package validator

import (
	"context"

	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/fsys"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
)

const (
	defaultDatabase = "default"
	defaultScheme   = "hdfs"
)

// Options configure an Analyzer.
type Options struct {
	// DefaultDatabase qualifies table names written without a database.
	DefaultDatabase string
	// FileSystem answers LOAD DATA path checks. Nil selects an afs-backed
	// implementation.
	FileSystem fsys.FileSystem
	// DefaultFS prefixes LOAD DATA paths written without a scheme.
	DefaultFS string
	// Scheme is the filesystem scheme LOAD DATA paths must use.
	Scheme string
}

// StatementKind identifies the analyzed statement type.
type StatementKind int

const (
	StatementQuery StatementKind = iota
	StatementInsert
	StatementLoad
	StatementDescribe
)

func (k StatementKind) String() string {
	switch k {
	case StatementQuery:
		return "QUERY"
	case StatementInsert:
		return "INSERT"
	case StatementLoad:
		return "LOAD"
	case StatementDescribe:
		return "DESCRIBE"
	default:
		return "UNKNOWN"
	}
}

// Analysis is the result of analyzing one statement. Blocks holds every
// query block in post-order; Root is -1 for statements without a query.
type Analysis struct {
	Kind        StatementKind
	Root        BlockID
	Blocks      []*Block
	Descriptors *DescriptorTable
	Insert      *InsertTarget
	Load        *LoadTarget
	Describe    *DescribeResult
}

// Block returns the block with the given id.
func (a *Analysis) Block(id BlockID) *Block {
	return a.Blocks[id]
}

// RootBlock returns the outermost query block or nil.
func (a *Analysis) RootBlock() *Block {
	if a.Root < 0 {
		return nil
	}
	return a.Blocks[a.Root]
}

// Labels returns the result column labels of the root query block.
func (a *Analysis) Labels() []string {
	if root := a.RootBlock(); root != nil {
		return root.Labels
	}
	return nil
}

// Analyzer validates statements against a catalog. It holds no per-statement
// state and may be shared between goroutines.
type Analyzer struct {
	catalog catalog.Catalog
	opts    Options
}

// New creates an Analyzer.
func New(cat catalog.Catalog, opts Options) *Analyzer {
	if opts.DefaultDatabase == "" {
		opts.DefaultDatabase = defaultDatabase
	}
	if opts.Scheme == "" {
		opts.Scheme = defaultScheme
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fsys.NewAFS(nil)
	}
	return &Analyzer{catalog: cat, opts: opts}
}

// Analyze validates stmt. Semantic failures are returned as *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, stmt parser.Statement) (*Analysis, error) {
	if a.catalog == nil {
		return nil, errors.New("validator: catalog metadata is required")
	}
	state := newStatementAnalyzer(ctx, a.catalog, a.opts)
	result := &Analysis{Root: -1, Descriptors: state.desc}
	var err error
	switch s := stmt.(type) {
	case parser.QueryStmt:
		result.Kind = StatementQuery
		result.Root, err = state.analyzeQuery(state.newFrame(-1), s)
	case *parser.InsertStmt:
		result.Kind = StatementInsert
		result.Insert, result.Root, err = state.analyzeInsert(s)
	case *parser.LoadDataStmt:
		result.Kind = StatementLoad
		result.Load, err = state.analyzeLoad(s)
	case *parser.DescribeStmt:
		result.Kind = StatementDescribe
		result.Describe, err = state.analyzeDescribe(s)
	default:
		return nil, errors.Errorf("validator: unsupported statement %T", stmt)
	}
	if err != nil {
		return nil, err
	}
	result.Blocks = state.blocks
	return result, nil
}
