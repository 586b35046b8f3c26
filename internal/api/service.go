// Package api provides the public façade over the analyzer: it assembles the
// catalog, filesystem and logger from configuration and analyzes SQL text.
package api

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/granite-db/analyzer/internal/catalog"
	"github.com/example/granite-db/analyzer/internal/catalog/fixture"
	"github.com/example/granite-db/analyzer/internal/config"
	"github.com/example/granite-db/analyzer/internal/fsys"
	"github.com/example/granite-db/analyzer/internal/logger"
	"github.com/example/granite-db/analyzer/internal/sql/parser"
	"github.com/example/granite-db/analyzer/internal/sql/validator"
)

// Service analyzes statements against one catalog. It is safe for concurrent
// use.
type Service struct {
	cfg      *config.Config
	source   *catalog.Memory
	catalog  catalog.Catalog
	fs       fsys.FileSystem
	log      *logger.Logger
	analyzer *validator.Analyzer
}

// Option customises a Service.
type Option func(*Service)

// WithLogger replaces the logger built from configuration.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithFileSystem replaces the afs-backed filesystem used by LOAD DATA.
func WithFileSystem(fs fsys.FileSystem) Option {
	return func(s *Service) { s.fs = fs }
}

// WithCatalog replaces the catalog named by configuration.
func WithCatalog(mem *catalog.Memory) Option {
	return func(s *Service) { s.source = mem }
}

// Result is the outcome of analyzing one statement.
type Result struct {
	ID       string
	SQL      string
	Analysis *validator.Analysis
}

// Open builds a Service. A nil cfg selects the defaults.
func Open(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
		if err != nil {
			return nil, err
		}
		s.log = log
	}
	s.log = s.log.Named("api")

	if s.source == nil {
		if cfg.Catalog.Path == "" {
			s.source = fixture.Functional()
		} else {
			mem, err := catalog.LoadFile(cfg.Catalog.Path)
			if err != nil {
				return nil, err
			}
			s.source = mem
		}
	}
	s.catalog = s.source
	if cfg.Catalog.CacheSize > 0 {
		cached, err := catalog.NewCached(s.source, cfg.Catalog.CacheSize)
		if err != nil {
			return nil, err
		}
		s.catalog = cached
	}

	if s.fs == nil {
		s.fs = fsys.NewAFS(nil)
	}
	s.analyzer = validator.New(s.catalog, validator.Options{
		DefaultDatabase: cfg.Analyzer.DefaultDatabase,
		FileSystem:      s.fs,
		DefaultFS:       cfg.Storage.DefaultFS,
		Scheme:          cfg.Storage.Scheme,
	})

	s.log.Debug("service ready",
		"default_database", cfg.Analyzer.DefaultDatabase,
		"catalog", catalogSource(cfg),
		"databases", len(s.source.Databases()),
	)
	return s, nil
}

func catalogSource(cfg *config.Config) string {
	if cfg.Catalog.Path == "" {
		return "embedded"
	}
	return cfg.Catalog.Path
}

// Close flushes the service logger.
func (s *Service) Close() error {
	// Syncing stderr fails on some platforms; nothing is lost.
	_ = s.log.Sync()
	return nil
}

// Analyze parses and validates one statement.
func (s *Service) Analyze(ctx context.Context, sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		s.log.Info("statement rejected", "stage", "parse", "error", err.Error())
		return nil, err
	}
	return s.analyze(ctx, sql, stmt)
}

// Describe validates DESCRIBE [FORMATTED] name, where name is table or
// database.table.
func (s *Service) Describe(ctx context.Context, name string, formatted bool) (*validator.DescribeResult, error) {
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if part == "" {
			return nil, errors.Errorf("api: invalid table name %q", name)
		}
	}
	stmt := &parser.DescribeStmt{Formatted: formatted}
	switch len(parts) {
	case 1:
		stmt.Table = parts[0]
	case 2:
		stmt.Database, stmt.Table = parts[0], parts[1]
	default:
		return nil, errors.Errorf("api: invalid table name %q", name)
	}
	sql := "DESCRIBE " + name
	if formatted {
		sql = "DESCRIBE FORMATTED " + name
	}
	result, err := s.analyze(ctx, sql, stmt)
	if err != nil {
		return nil, err
	}
	return result.Analysis.Describe, nil
}

func (s *Service) analyze(ctx context.Context, sql string, stmt parser.Statement) (*Result, error) {
	id := uuid.NewString()
	log := s.log.With("analysis_id", id)
	log.Debug("analyzing statement", "sql", sql)

	analysis, err := s.analyzer.Analyze(ctx, stmt)
	if err != nil {
		if kind, ok := validator.KindOf(err); ok {
			log.Info("statement rejected", "stage", "analyze", "kind", kind.String(), "error", err.Error())
		} else {
			log.Error("analysis failed", "error", err)
		}
		return nil, err
	}
	log.Info("statement analyzed",
		"statement", analysis.Kind.String(),
		"blocks", len(analysis.Blocks),
		"labels", analysis.Labels(),
	)
	return &Result{ID: id, SQL: sql, Analysis: analysis}, nil
}

// Databases lists the catalog's databases in sorted order.
func (s *Service) Databases() []string {
	return s.source.Databases()
}

// Tables lists the tables of a database sorted by name.
func (s *Service) Tables(database string) ([]*catalog.Table, error) {
	if !s.source.DatabaseExists(database) {
		return nil, errors.Errorf("api: database does not exist: %s", database)
	}
	return s.source.Tables(database), nil
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config {
	return s.cfg
}
