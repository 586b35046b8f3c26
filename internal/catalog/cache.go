package catalog

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Cached memoises table lookups of a slower catalog in a bounded LRU.
type Cached struct {
	inner  Catalog
	tables *lru.Cache
}

// NewCached wraps inner with an LRU of the given number of tables.
func NewCached(inner Catalog, size int) (*Cached, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: create table cache")
	}
	return &Cached{inner: inner, tables: cache}, nil
}

// DatabaseExists implements Catalog.
func (c *Cached) DatabaseExists(name string) bool {
	return c.inner.DatabaseExists(name)
}

// GetTable implements Catalog. Misses are not cached.
func (c *Cached) GetTable(database, name string) (*Table, bool) {
	key := strings.ToLower(database) + "." + strings.ToLower(name)
	if value, ok := c.tables.Get(key); ok {
		return value.(*Table), true
	}
	table, ok := c.inner.GetTable(database, name)
	if ok {
		c.tables.Add(key, table)
	}
	return table, ok
}

// Len reports the number of cached tables.
func (c *Cached) Len() int {
	return c.tables.Len()
}
