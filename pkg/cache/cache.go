// Package cache stores derived artifacts of the family graph - computed
// layouts and rendered images - keyed by the content hash of the graph they
// were derived from. A stale entry is impossible by construction: any edit
// changes the hash and therefore the key.
//
// Three backends are provided: FileCache for CLI usage, RedisCache for the
// server, and NullCache to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache is the byte-level storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports a hit; a miss is
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the layout parameters that participate in the cache
// key. Two layouts of the same graph with different metrics must not share
// an entry.
type LayoutKeyOpts struct {
	NodeWidth float64
	HGap      float64
	VGap      float64
}

// ArtifactKeyOpts are the rendering parameters that participate in the
// cache key.
type ArtifactKeyOpts struct {
	Format string // "svg", "png", "dot"
}

// Keyer generates cache keys for the derived-artifact namespaces.
type Keyer interface {
	// LayoutKey generates a key for a computed layout of the graph with
	// the given content hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
