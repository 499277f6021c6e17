// Package plan implements the §4.4 Job Planner: for each artifact-
// emitting root file it selects a compiler version (Step A), forms and
// merges per-root compilation jobs sharing a config (Step B), drops
// jobs the incremental cache says are unchanged (Step C), and orders
// the survivors deterministically (Step D).
package plan

import (
	"sort"

	"github.com/gosolc/buildcore/internal/graph"
	"github.com/gosolc/buildcore/internal/model"
)

// Options configures a single planning run.
type Options struct {
	// Allowed is the set of compiler configs the user's manifest permits
	// the planner to choose from, newest-wins on ties.
	Allowed []*model.CompilerConfig

	// Overrides pins specific source files to an exact compiler config,
	// bypassing version selection (still checked against the file's own
	// pragmas for IncompatibleOverride).
	Overrides map[model.SourceName]*model.CompilerConfig

	// Cache filters out jobs whose every input file is unchanged. A
	// nil Cache disables filtering (every job survives Step C) — used
	// by --force full rebuilds and by callers with no prior cache.
	Cache Cache
}

// Plan runs the full planning pipeline over a closed dependency graph
// for the given set of artifact-emitting roots. It always returns every
// job it could successfully build, together with an aggregate of every
// per-root failure; callers decide whether any failure aborts the
// build (the default policy, §6, is to abort on any planning error).
func Plan(g *graph.Graph, roots []model.SourceName, opts Options) ([]*model.CompilationJob, *model.JobCreationErrors) {
	errs := &model.JobCreationErrors{}

	sortedRoots := append([]model.SourceName(nil), roots...)
	sort.Slice(sortedRoots, func(i, j int) bool { return sortedRoots[i] < sortedRoots[j] })

	var candidates []*model.CompilationJob
	for _, name := range sortedRoots {
		root := g.File(name)
		if root == nil {
			errs.Add(&model.JobCreationError{Kind: model.Other, File: &model.ResolvedFile{SourceName: name}})
			continue
		}

		cfg, jerr := selectVersion(g, root, opts.Allowed, opts.Overrides)
		if jerr != nil {
			errs.Add(jerr)
			continue
		}

		deps := g.TransitiveDependencies(name)
		depMap := make(map[model.SourceName]*model.ResolvedFile, len(deps))
		for _, d := range deps {
			depMap[d.SourceName] = d
		}

		candidates = append(candidates, model.NewCompilationJob(cfg, root, depMap))
	}

	merged := mergeJobs(candidates)
	survivors := filterUnchanged(merged, opts.Cache)

	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Config.Version.LessThan(survivors[j].Config.Version)
	})

	return survivors, errs
}

// mergeJobs combines jobs that share a value-equal CompilerConfig
// (§4.4 Step B) into a single job per distinct config.
func mergeJobs(candidates []*model.CompilationJob) []*model.CompilationJob {
	var out []*model.CompilationJob
	for _, job := range candidates {
		merged := false
		for _, existing := range out {
			if existing.Config.Equal(job.Config) {
				existing.Merge(job)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, job)
		}
	}
	return out
}

// filterUnchanged drops any job whose every input file the cache
// reports as unchanged (§4.4 Step C). Emitting files are checked with
// the job's config digest, dependencies by content only. A job
// survives if at least one input file has changed, or Cache is nil.
func filterUnchanged(jobs []*model.CompilationJob, cache Cache) []*model.CompilationJob {
	var out []*model.CompilationJob
	for _, job := range jobs {
		if cache == nil {
			out = append(out, job)
			continue
		}
		anyChanged := false
		for _, f := range job.AllFiles() {
			digest := ""
			if job.EmitsArtifacts(f.SourceName) {
				digest = job.Config.SettingsDigest()
			}
			if cache.HasFileChanged(f.AbsolutePath, f.ContentHash, digest) {
				anyChanged = true
				break
			}
		}
		if anyChanged {
			out = append(out, job)
		}
	}
	return out
}

// selectVersion runs Step A for a single root file: override check,
// then direct-import range intersection, then transitive-import range
// intersection, then newest-allowed-config selection.
func selectVersion(g *graph.Graph, f *model.ResolvedFile, allowed []*model.CompilerConfig, overrides map[model.SourceName]*model.CompilerConfig) (*model.CompilerConfig, *model.JobCreationError) {
	ownRange, err := IntersectAll(unbounded(), f.VersionPragmas)
	if err != nil {
		return nil, &model.JobCreationError{Kind: model.Other, File: f, Err: err}
	}

	if ov, ok := overrides[f.SourceName]; ok {
		if !ownRange.Contains(ov.Version) {
			return nil, &model.JobCreationError{Kind: model.IncompatibleOverride, File: f}
		}
		cfg := model.NewCompilerConfig(ov.Version, ov.Settings)
		cfg.Overridden[f.SourceName] = true
		return cfg, nil
	}

	direct := g.DirectDependencies(f.SourceName)
	directSet := make(map[model.SourceName]bool, len(direct))
	for _, d := range direct {
		directSet[d.SourceName] = true
	}

	directRange := ownRange
	for _, d := range direct {
		dr, err := IntersectAll(unbounded(), d.VersionPragmas)
		if err != nil {
			return nil, &model.JobCreationError{Kind: model.Other, File: f, Err: err}
		}
		directRange = directRange.Intersect(dr)
	}

	if directRange.IsEmpty() {
		var offenders []*model.ResolvedFile
		for _, d := range direct {
			dr, _ := IntersectAll(unbounded(), d.VersionPragmas)
			if ownRange.Intersect(dr).IsEmpty() {
				offenders = append(offenders, d)
			}
		}
		if len(offenders) == 0 {
			// No single direct import conflicts with f alone; the
			// direct imports are only mutually incompatible with each
			// other once combined. Report the whole set.
			offenders = direct
		}
		return nil, &model.JobCreationError{Kind: model.DirectlyImportsIncompatible, File: f, Dependencies: offenders}
	}

	fullRange := directRange
	var indirectOffenders []*model.ResolvedFile
	var indirectPaths []model.DependencyPath

	for _, d := range g.TransitiveDependencies(f.SourceName) {
		if directSet[d.SourceName] {
			continue
		}
		dr, err := IntersectAll(unbounded(), d.VersionPragmas)
		if err != nil {
			return nil, &model.JobCreationError{Kind: model.Other, File: f, Err: err}
		}
		next := fullRange.Intersect(dr)
		if next.IsEmpty() {
			indirectOffenders = append(indirectOffenders, d)
			indirectPaths = append(indirectPaths, model.DependencyPath(g.TransitiveDependencyPath(f.SourceName, d.SourceName)))
			continue
		}
		fullRange = next
	}

	if len(indirectOffenders) > 0 {
		return nil, &model.JobCreationError{
			Kind:         model.IndirectlyImportsIncompatible,
			File:         f,
			Dependencies: indirectOffenders,
			Paths:        indirectPaths,
		}
	}

	var best *model.CompilerConfig
	for _, cfg := range allowed {
		if !fullRange.Contains(cfg.Version) {
			continue
		}
		if best == nil || cfg.Version.GreaterThan(best.Version) {
			best = cfg
		}
	}
	if best == nil {
		return nil, &model.JobCreationError{Kind: model.NoCompatibleVersion, File: f}
	}

	return model.NewCompilerConfig(best.Version, best.Settings), nil
}
