// Package buildcore implements §4.8 Orchestrator: it sequences
// resolution, graph construction, planning, acquisition and
// compilation, persists the incremental cache, and sweeps obsolete
// artifacts. The error-policy rollup and exit-code mapping follow §7.
package buildcore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/gosolc/buildcore/internal/acquire"
	"github.com/gosolc/buildcore/internal/cache"
	"github.com/gosolc/buildcore/internal/config"
	"github.com/gosolc/buildcore/internal/graph"
	"github.com/gosolc/buildcore/internal/model"
	"github.com/gosolc/buildcore/internal/plan"
	"github.com/gosolc/buildcore/internal/resolve"
	"github.com/gosolc/buildcore/internal/runner"
	golog "github.com/gosolc/buildcore/log"
)

// Options configures a single Orchestrator run.
type Options struct {
	ProjectRoot string
	Config      *config.Manifest
	Store       ArtifactStore
	Acquirer    *acquire.Acquirer
	Log         *golog.Logger

	// CachePath is where the incremental cache document is persisted.
	CachePath string

	// Force disables cache filtering, treating every rooted file as
	// changed regardless of cache state (the `--force` flag, SPEC_FULL
	// §C.1).
	Force bool

	// PortableWASM supplies the portable compiler module bytes used
	// when a job's acquired build is the WASM/JS fallback.
	PortableWASM []byte
}

// Result summarizes a completed build.
type Result struct {
	JobsRun  int
	Warnings []model.Diagnostic
}

// Orchestrator sequences §4.1-§4.7 for one build invocation.
type Orchestrator struct {
	opts  Options
	cache *cache.Cache

	// persistedArtifacts accumulates the fully-qualified artifact names
	// the final remove_obsolete sweep keeps: those written this run and
	// those the cache records for the other files of this build.
	persistedArtifacts []string
}

// New constructs an Orchestrator, loading its incremental cache from
// CachePath (a missing or corrupt cache soft-resets to empty, §4.5).
func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts, cache: cache.Load(opts.CachePath)}
}

// Build runs a full build for the given artifact-emitting roots.
func (o *Orchestrator) Build(ctx context.Context, roots []model.SourceName) (*Result, error) {
	o.cache.InvalidateMissingArtifacts(o.opts.Store)

	files, err := o.resolveAll(roots)
	if err != nil {
		return nil, err
	}

	g := graph.Build(files)

	var cacheChecker plan.Cache
	if !o.opts.Force {
		cacheChecker = o.cache
	}

	jobs, planErrs := plan.Plan(g, roots, plan.Options{
		Allowed:   o.opts.Config.Allowed,
		Overrides: o.opts.Config.Overrides,
		Cache:     cacheChecker,
	})
	if planErrs.HasErrors() {
		return nil, &BuildError{Kind: KindPlanning, Err: planErrs}
	}

	result := &Result{}
	for _, job := range jobs {
		warnings, err := o.runJob(ctx, job)
		if err != nil {
			return nil, err
		}
		result.JobsRun++
		result.Warnings = append(result.Warnings, warnings...)
	}

	for _, f := range files {
		if entry := o.cache.Get(f.AbsolutePath); entry != nil {
			o.persistedArtifacts = append(o.persistedArtifacts, entry.EmittedArtifacts...)
		}
	}

	if err := o.sweepObsolete(); err != nil {
		return nil, err
	}
	if err := o.cache.Persist(); err != nil {
		return nil, &BuildError{Kind: KindIO, Err: err}
	}

	return result, nil
}

func (o *Orchestrator) resolveAll(roots []model.SourceName) ([]*model.ResolvedFile, error) {
	lookup := packageLookup(o.opts.Config.PackageRoots)
	r := resolve.New(o.opts.ProjectRoot, lookup)

	files, err := r.ResolveMany(roots)
	if err != nil {
		return nil, &BuildError{Kind: KindResolve, Err: err}
	}
	return files, nil
}

func packageLookup(roots map[string]string) resolve.PackageLookup {
	return func(name string) (string, error) {
		dir, ok := roots[name]
		if !ok {
			return "", os.ErrNotExist
		}
		return dir, nil
	}
}

// runJob acquires the job's compiler, runs it, and on success persists
// its artifacts, build-info, and cache entries. It aborts the whole
// build on any error-severity diagnostic (§7).
func (o *Orchestrator) runJob(ctx context.Context, job *model.CompilationJob) ([]model.Diagnostic, error) {
	build, err := o.opts.Acquirer.Acquire(ctx, job.Config.Version, false)
	if err != nil {
		return nil, &BuildError{Kind: KindAcquisition, Err: err}
	}

	o.opts.Log.LogBuildfln("compiling %d files with solc %s", len(job.Files), job.Config.Version)
	run := &runner.Runner{Build: build, WASMBinary: o.opts.PortableWASM}
	output, err := run.Run(ctx, job)
	if err != nil {
		if _, ok := err.(*runner.Error); ok {
			return nil, &BuildError{Kind: KindProtocol, Err: err}
		}
		return nil, &BuildError{Kind: KindIO, Err: err}
	}

	for _, d := range output.Errors {
		if d.IsConsoleLogWarning() {
			o.opts.Log.LogBuildfln("note: %s", d.Message)
		}
	}

	if output.HasErrorSeverity() {
		for _, d := range output.Errors {
			if d.Severity == model.SeverityError {
				o.opts.Log.Logln(d.FormattedMessage)
			}
		}
		return nil, &BuildError{Kind: KindCompiler, Err: fmt.Errorf("%d compiler error(s)", errorCount(output.Errors))}
	}

	emitted, err := o.persistJob(job, build, output)
	if err != nil {
		return nil, err
	}
	o.persistedArtifacts = append(o.persistedArtifacts, emitted...)

	return output.Warnings(), nil
}

func errorCount(diags []model.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == model.SeverityError {
			n++
		}
	}
	return n
}

func (o *Orchestrator) persistJob(job *model.CompilationJob, build *model.SolcBuild, output *model.CompilerOutput) ([]string, error) {
	buildInfoPath, err := o.opts.Store.SaveBuildInfo(build.Version, build.LongVersion, nil, nil)
	if err != nil {
		return nil, &BuildError{Kind: KindIO, Err: err}
	}

	var allEmitted []string
	for _, f := range job.EmittingFiles() {
		emitted, err := o.persistArtifactsForFile(f, output, buildInfoPath)
		if err != nil {
			return nil, err
		}
		allEmitted = append(allEmitted, emitted...)

		o.cache.Put(&model.CacheEntry{
			AbsolutePath:     f.AbsolutePath,
			LastModified:     f.LastModified,
			ContentHash:      f.ContentHash,
			SourceName:       string(f.SourceName),
			SolcConfigDigest: job.Config.SettingsDigest(),
			Imports:          sourceNamesToStrings(f.Imports),
			VersionPragmas:   f.VersionPragmas,
			EmittedArtifacts: emitted,
		})
	}

	for _, f := range job.AllFiles() {
		if job.EmitsArtifacts(f.SourceName) {
			continue
		}
		o.cache.Put(&model.CacheEntry{
			AbsolutePath:   f.AbsolutePath,
			LastModified:   f.LastModified,
			ContentHash:    f.ContentHash,
			SourceName:     string(f.SourceName),
			Imports:        sourceNamesToStrings(f.Imports),
			VersionPragmas: f.VersionPragmas,
		})
	}

	return allEmitted, nil
}

// persistArtifactsForFile decodes one source file's per-contract
// output and saves an Artifact for each contract it declares,
// returning the fully-qualified names written.
func (o *Orchestrator) persistArtifactsForFile(f *model.ResolvedFile, output *model.CompilerOutput, buildInfoPath string) ([]string, error) {
	raw, ok := output.Contracts[string(f.SourceName)]
	if !ok {
		return nil, nil
	}

	var contracts map[string]json.RawMessage
	if err := json.Unmarshal(raw, &contracts); err != nil {
		return nil, &BuildError{Kind: KindProtocol, Err: err}
	}

	emitted := make([]string, 0, len(contracts))
	for contractName, data := range contracts {
		fqn := FullyQualifiedName(string(f.SourceName), contractName)
		if err := o.opts.Store.SaveArtifact(Artifact{
			FullyQualifiedName: fqn,
			SourceName:         string(f.SourceName),
			ContractName:       contractName,
			Data:               data,
		}, buildInfoPath); err != nil {
			return nil, &BuildError{Kind: KindIO, Err: err}
		}
		emitted = append(emitted, fqn)
	}
	return emitted, nil
}

func sourceNamesToStrings(names []model.SourceName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// sweepObsolete removes every artifact not recorded for a file of this
// build, then obsolete build-infos (§4.8: "remove_obsolete(artifact_store,
// valid_entries)"). Artifacts of cache entries for files outside this
// build are removed as well.
func (o *Orchestrator) sweepObsolete() error {
	valid := append([]string(nil), o.persistedArtifacts...)
	sort.Strings(valid)

	if err := o.opts.Store.RemoveObsolete(valid); err != nil {
		return &BuildError{Kind: KindIO, Err: err}
	}
	if err := o.opts.Store.RemoveObsoleteBuildInfos(); err != nil {
		return &BuildError{Kind: KindIO, Err: err}
	}
	return nil
}
