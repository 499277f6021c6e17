package plan

import (
	"testing"

	"github.com/gosolc/buildcore/internal/graph"
	"github.com/gosolc/buildcore/internal/model"
)

func resolved(name string, pragma string, imports ...string) *model.ResolvedFile {
	imps := make([]model.SourceName, len(imports))
	for i, s := range imports {
		imps[i] = model.SourceName(s)
	}
	var pragmas []string
	if pragma != "" {
		pragmas = []string{pragma}
	}
	return &model.ResolvedFile{
		SourceName:     model.SourceName(name),
		AbsolutePath:   "/project/" + name,
		ContentHash:    "hash-" + name,
		Imports:        imps,
		VersionPragmas: pragmas,
	}
}

func cfg(version string) *model.CompilerConfig {
	return model.NewCompilerConfig(v(version), nil)
}

// Scenario 1: single root, single version.
func TestPlanSingleRootSingleVersion(t *testing.T) {
	g := graph.Build([]*model.ResolvedFile{resolved("A.sol", "^0.8.0")})

	jobs, errs := Plan(g, []model.SourceName{"A.sol"}, Options{Allowed: []*model.CompilerConfig{cfg("0.8.17")}})
	if errs.HasErrors() {
		t.Fatalf("unexpected planning errors: %v", errs)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	job := jobs[0]
	if job.Config.Version.String() != "0.8.17" {
		t.Errorf("version = %s, want 0.8.17", job.Config.Version)
	}
	if len(job.Files) != 1 {
		t.Errorf("files = %v, want just A.sol", job.Files)
	}
	if !job.EmitsArtifacts("A.sol") {
		t.Error("expected A.sol to emit an artifact")
	}
}

// Scenario 2: diamond imports, single merged job, only the root emits.
func TestPlanDiamondImportsSingleJob(t *testing.T) {
	files := []*model.ResolvedFile{
		resolved("A.sol", "^0.8.0", "B.sol", "C.sol"),
		resolved("B.sol", "^0.8.0", "D.sol"),
		resolved("C.sol", "^0.8.0", "D.sol"),
		resolved("D.sol", "^0.8.0"),
	}
	g := graph.Build(files)

	jobs, errs := Plan(g, []model.SourceName{"A.sol"}, Options{Allowed: []*model.CompilerConfig{cfg("0.8.17")}})
	if errs.HasErrors() {
		t.Fatalf("unexpected planning errors: %v", errs)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	job := jobs[0]
	if len(job.Files) != 4 {
		t.Errorf("files = %v, want A,B,C,D", job.Files)
	}
	if len(job.Emits) != 1 || !job.EmitsArtifacts("A.sol") {
		t.Errorf("emits = %v, want only A.sol", job.Emits)
	}
}

// Scenario 3: two unrelated roots with disjoint pragmas split into two
// independent jobs.
func TestPlanPragmaDrivenSplit(t *testing.T) {
	files := []*model.ResolvedFile{
		resolved("A.sol", "^0.7.0"),
		resolved("B.sol", "^0.8.0"),
	}
	g := graph.Build(files)

	jobs, errs := Plan(g, []model.SourceName{"A.sol", "B.sol"}, Options{
		Allowed: []*model.CompilerConfig{cfg("0.7.6"), cfg("0.8.17")},
	})
	if errs.HasErrors() {
		t.Fatalf("unexpected planning errors: %v", errs)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].Config.Version.String() != "0.7.6" || jobs[1].Config.Version.String() != "0.8.17" {
		t.Errorf("versions = %s, %s, want 0.7.6 then 0.8.17", jobs[0].Config.Version, jobs[1].Config.Version)
	}
}

// Scenario 4: incompatible direct import.
func TestPlanDirectlyImportsIncompatible(t *testing.T) {
	files := []*model.ResolvedFile{
		resolved("A.sol", "^0.8.0", "B.sol"),
		resolved("B.sol", "^0.7.0"),
	}
	g := graph.Build(files)

	jobs, errs := Plan(g, []model.SourceName{"A.sol"}, Options{Allowed: []*model.CompilerConfig{cfg("0.8.17")}})
	if len(jobs) != 0 {
		t.Fatalf("got %d jobs, want 0", len(jobs))
	}
	if !errs.HasErrors() || len(errs.Errors) != 1 {
		t.Fatalf("errs = %v, want exactly one JobCreationError", errs)
	}
	je := errs.Errors[0]
	if je.Kind != model.DirectlyImportsIncompatible {
		t.Errorf("kind = %s, want DirectlyImportsIncompatible", je.Kind)
	}
	if len(je.Dependencies) != 1 || je.Dependencies[0].SourceName != "B.sol" {
		t.Errorf("dependencies = %v, want [B.sol]", je.Dependencies)
	}
}

func TestPlanIndirectlyImportsIncompatible(t *testing.T) {
	files := []*model.ResolvedFile{
		resolved("A.sol", "^0.8.0", "B.sol"),
		resolved("B.sol", "^0.8.0", "C.sol"),
		resolved("C.sol", "^0.7.0"),
	}
	g := graph.Build(files)

	_, errs := Plan(g, []model.SourceName{"A.sol"}, Options{Allowed: []*model.CompilerConfig{cfg("0.8.17")}})
	if !errs.HasErrors() || len(errs.Errors) != 1 {
		t.Fatalf("errs = %v, want exactly one JobCreationError", errs)
	}
	je := errs.Errors[0]
	if je.Kind != model.IndirectlyImportsIncompatible {
		t.Errorf("kind = %s, want IndirectlyImportsIncompatible", je.Kind)
	}
	if len(je.Dependencies) != 1 || je.Dependencies[0].SourceName != "C.sol" {
		t.Errorf("dependencies = %v, want [C.sol]", je.Dependencies)
	}
}

func TestPlanIncompatibleOverride(t *testing.T) {
	g := graph.Build([]*model.ResolvedFile{resolved("A.sol", "^0.8.0")})

	overrides := map[model.SourceName]*model.CompilerConfig{
		"A.sol": cfg("0.7.6"),
	}
	_, errs := Plan(g, []model.SourceName{"A.sol"}, Options{
		Allowed:   []*model.CompilerConfig{cfg("0.7.6"), cfg("0.8.17")},
		Overrides: overrides,
	})
	if !errs.HasErrors() || errs.Errors[0].Kind != model.IncompatibleOverride {
		t.Fatalf("errs = %v, want IncompatibleOverride", errs)
	}
}

func TestPlanNoCompatibleVersion(t *testing.T) {
	g := graph.Build([]*model.ResolvedFile{resolved("A.sol", "^0.8.0")})

	_, errs := Plan(g, []model.SourceName{"A.sol"}, Options{Allowed: []*model.CompilerConfig{cfg("0.7.6")}})
	if !errs.HasErrors() || errs.Errors[0].Kind != model.NoCompatibleVersion {
		t.Fatalf("errs = %v, want NoCompatibleVersion", errs)
	}
}

// fakeCache reports every path in Changed as modified, everything else
// unchanged, mirroring an incremental cache after a prior successful
// build with a new edit to exactly those files.
type fakeCache struct {
	Changed map[string]bool
}

func (c *fakeCache) HasFileChanged(absolutePath, contentHash, solcConfigDigest string) bool {
	return c.Changed[absolutePath]
}

func TestPlanCacheFiltersUnchangedJob(t *testing.T) {
	g := graph.Build([]*model.ResolvedFile{resolved("A.sol", "^0.8.0")})

	jobs, errs := Plan(g, []model.SourceName{"A.sol"}, Options{
		Allowed: []*model.CompilerConfig{cfg("0.8.17")},
		Cache:   &fakeCache{Changed: map[string]bool{}},
	})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(jobs) != 0 {
		t.Fatalf("got %d jobs, want 0 (cache reports no change)", len(jobs))
	}
}

func TestPlanCacheKeepsChangedJob(t *testing.T) {
	g := graph.Build([]*model.ResolvedFile{resolved("A.sol", "^0.8.0")})

	jobs, errs := Plan(g, []model.SourceName{"A.sol"}, Options{
		Allowed: []*model.CompilerConfig{cfg("0.8.17")},
		Cache:   &fakeCache{Changed: map[string]bool{"/project/A.sol": true}},
	})
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1 (cache reports a change)", len(jobs))
	}
}
