package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gosolc/buildcore/internal/model"
)

func TestHasFileChangedMissingEntry(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if !c.HasFileChanged("/proj/A.sol", "hash1", "") {
		t.Error("expected a file with no cache entry to be reported as changed")
	}
}

func TestHasFileChangedContentDiffers(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "cache.json"))
	c.Put(&model.CacheEntry{AbsolutePath: "/proj/A.sol", ContentHash: "hash1"})

	if c.HasFileChanged("/proj/A.sol", "hash1", "") {
		t.Error("expected unchanged content to report false")
	}
	if !c.HasFileChanged("/proj/A.sol", "hash2", "") {
		t.Error("expected changed content hash to report true")
	}
}

func TestHasFileChangedConfigOnlyCheckedWhenProvided(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "cache.json"))
	c.Put(&model.CacheEntry{AbsolutePath: "/proj/Dep.sol", ContentHash: "hash1", SolcConfigDigest: "0.8.17|"})

	// A non-emitting dependency is checked with no config digest: an
	// unrelated compiler-config change elsewhere must not invalidate it.
	if c.HasFileChanged("/proj/Dep.sol", "hash1", "") {
		t.Error("expected dependency with unchanged content to report false regardless of config")
	}

	// An emitting root is checked with its config digest.
	if !c.HasFileChanged("/proj/Dep.sol", "hash1", "0.8.18|") {
		t.Error("expected differing config digest to report true for an emitting file")
	}
	if c.HasFileChanged("/proj/Dep.sol", "hash1", "0.8.17|") {
		t.Error("expected matching config digest to report false")
	}
}

type fakeStore struct {
	missing map[string]bool
}

func (s *fakeStore) ArtifactExists(fqn string) bool {
	return !s.missing[fqn]
}

func TestInvalidateMissingArtifactsDropsEntry(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "cache.json"))
	c.Put(&model.CacheEntry{AbsolutePath: "/proj/A.sol", ContentHash: "h", EmittedArtifacts: []string{"A.sol:A"}})
	c.Put(&model.CacheEntry{AbsolutePath: "/proj/B.sol", ContentHash: "h", EmittedArtifacts: []string{"B.sol:B"}})

	c.InvalidateMissingArtifacts(&fakeStore{missing: map[string]bool{"A.sol:A": true}})

	if c.Get("/proj/A.sol") != nil {
		t.Error("expected A.sol's entry to be dropped after its artifact went missing")
	}
	if c.Get("/proj/B.sol") == nil {
		t.Error("expected B.sol's entry to survive")
	}
}

func TestPersistThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c := Load(path)
	c.Put(&model.CacheEntry{
		AbsolutePath:     "/proj/A.sol",
		ContentHash:      "hash1",
		SourceName:       "A.sol",
		SolcConfigDigest: "0.8.17|",
		Imports:          []string{"B.sol"},
		VersionPragmas:   []string{"^0.8.0"},
		EmittedArtifacts: []string{"A.sol:A"},
	})

	if err := c.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	reloaded := Load(path)
	if reloaded.HasFileChanged("/proj/A.sol", "hash1", "0.8.17|") {
		t.Error("expected reloaded cache to recognize the persisted entry as unchanged")
	}
	entry := reloaded.Get("/proj/A.sol")
	if entry == nil || entry.SourceName != "A.sol" || len(entry.Imports) != 1 {
		t.Fatalf("entry after reload = %+v, want round-tripped fields", entry)
	}
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := Load(path)
	if !c.HasFileChanged("/proj/A.sol", "hash1", "") {
		t.Error("expected a corrupt cache file to soft-reset to empty, not error out")
	}
}
