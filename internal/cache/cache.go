// Package cache implements the §4.5 Incremental Cache: a single JSON
// document, keyed by absolute path, that lets the planner skip
// recompiling files whose content and (for emitting roots) compiler
// config have not changed since the last successful build. The
// persistence shape — load once, mutate in memory, write atomically at
// the end, soft-reset on any parse failure rather than erroring out —
// follows the teacher's writeFile/readLock round trip in init.go and
// lock.go, adapted to use internal/fs's atomic rename instead of a bare
// os.Create.
package cache

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/gosolc/buildcore/internal/fs"
	"github.com/gosolc/buildcore/internal/model"
)

// schemaVersion is bumped whenever the on-disk document shape changes
// incompatibly. A mismatched or missing version causes Load to return
// an empty cache rather than an error.
const schemaVersion = 1

// ArtifactStore is the subset of §6's artifact store that
// invalidate_missing_artifacts needs: whether a given emitted
// artifact still exists on disk.
type ArtifactStore interface {
	ArtifactExists(fullyQualifiedName string) bool
}

type document struct {
	SchemaVersion int                          `json:"schemaVersion"`
	Entries       map[string]*model.CacheEntry `json:"entries"`
}

// Cache is the in-memory, mutate-then-persist incremental build cache.
// Safe for concurrent use: every method takes an internal lock.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]*model.CacheEntry
}

// Load reads the cache document at path. A missing file, a parse
// failure, or a schema-version mismatch all produce an empty cache
// rather than an error (§4.5 Persistence: "soft reset, not an error").
func Load(path string) *Cache {
	c := &Cache{path: path, entries: map[string]*model.CacheEntry{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return c
	}
	if doc.SchemaVersion != schemaVersion {
		return c
	}

	for absPath, entry := range doc.Entries {
		entry.AbsolutePath = absPath
		c.entries[absPath] = entry
	}
	return c
}

// HasFileChanged reports whether path should be considered changed
// since the last persisted build: no entry exists, the content hash
// differs, or (when solcConfigDigest is non-empty, i.e. path is an
// artifact-emitting file) the compiler config digest differs.
//
// solcConfigDigest is empty for a dependency pulled in only to satisfy
// an import: its compiler config is irrelevant to whether its own
// content changed, per §4.5's note that config is compared "only for
// files that emit artifacts".
func (c *Cache) HasFileChanged(path, contentHash, solcConfigDigest string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return true
	}
	if entry.ContentHash != contentHash {
		return true
	}
	if solcConfigDigest != "" && entry.SolcConfigDigest != solcConfigDigest {
		return true
	}
	return false
}

// Put records or replaces the cache entry for a successfully built
// file.
func (c *Cache) Put(entry *model.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.AbsolutePath] = entry
}

// Get returns the cache entry for path, or nil if none exists.
func (c *Cache) Get(path string) *model.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[path]
}

// InvalidateMissingArtifacts drops any cache entry with at least one
// listed emitted artifact no longer present in store, compensating for
// artifacts deleted outside of a build (§4.5, Scenario 6).
func (c *Cache) InvalidateMissingArtifacts(store ArtifactStore) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path, entry := range c.entries {
		for _, fqn := range entry.EmittedArtifacts {
			if !store.ArtifactExists(fqn) {
				delete(c.entries, path)
				break
			}
		}
	}
}

// Persist writes the cache document to its path atomically: a temp
// file in the same directory, then a rename, so a reader never
// observes a half-written document.
func (c *Cache) Persist() error {
	c.mu.Lock()
	doc := document{SchemaVersion: schemaVersion, Entries: make(map[string]*model.CacheEntry, len(c.entries))}
	for path, entry := range c.entries {
		doc.Entries[path] = entry
	}
	c.mu.Unlock()

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling cache document")
	}

	if err := fs.WriteFileAtomic(c.path, data, 0644); err != nil {
		return errors.Wrapf(err, "persisting cache to %s", c.path)
	}
	return nil
}
