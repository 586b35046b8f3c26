// Package fixture provides the embedded test warehouse catalog used by the
// analyzer tests and by granitectl when no snapshot is configured.
package fixture

import (
	_ "embed"

	"github.com/example/granite-db/analyzer/internal/catalog"
)

//go:embed functional.yaml
var functionalYAML []byte

// Functional loads a fresh copy of the embedded catalog. It panics if the
// embedded document is malformed.
func Functional() *catalog.Memory {
	mem, err := catalog.LoadYAML(functionalYAML)
	if err != nil {
		panic(err)
	}
	return mem
}

// YAML returns the raw embedded snapshot.
func YAML() []byte {
	out := make([]byte, len(functionalYAML))
	copy(out, functionalYAML)
	return out
}
