package model

import "sort"

// CompilationJob groups a CompilerConfig with the set of ResolvedFiles
// that form its compiler input, and a record of which of those inputs
// must have their artifacts written. Dependencies pulled in only to
// satisfy imports are present in Files but absent from Emits.
type CompilationJob struct {
	Config *CompilerConfig
	Files  map[SourceName]*ResolvedFile
	Emits  map[SourceName]bool
}

// NewCompilationJob builds a job whose sole emitting root is `root`,
// with `deps` as its transitive non-emitting dependencies.
func NewCompilationJob(cfg *CompilerConfig, root *ResolvedFile, deps map[SourceName]*ResolvedFile) *CompilationJob {
	files := make(map[SourceName]*ResolvedFile, len(deps)+1)
	for k, v := range deps {
		files[k] = v
	}
	files[root.SourceName] = root

	return &CompilationJob{
		Config: cfg,
		Files:  files,
		Emits:  map[SourceName]bool{root.SourceName: true},
	}
}

// EmitsArtifacts reports whether the given source name is one of the
// job's artifact-emitting roots.
func (j *CompilationJob) EmitsArtifacts(name SourceName) bool {
	return j.Emits[name]
}

// Merge combines another job sharing this job's CompilerConfig
// (value-equal, §4.4 Step B) into this one: input sets are unioned and
// emission predicates are OR-ed. The caller must have already verified
// Config.Equal.
func (j *CompilationJob) Merge(other *CompilationJob) {
	for k, v := range other.Files {
		j.Files[k] = v
	}
	for k := range other.Emits {
		j.Emits[k] = true
	}
}

// EmittingFiles returns the subset of Files that are artifact-emitting
// roots, in a stable order (sorted by source name) for deterministic
// iteration.
func (j *CompilationJob) EmittingFiles() []*ResolvedFile {
	out := make([]*ResolvedFile, 0, len(j.Emits))
	for name := range j.Emits {
		out = append(out, j.Files[name])
	}
	sortResolvedFiles(out)
	return out
}

// AllFiles returns every input file in a stable order.
func (j *CompilationJob) AllFiles() []*ResolvedFile {
	out := make([]*ResolvedFile, 0, len(j.Files))
	for _, f := range j.Files {
		out = append(out, f)
	}
	sortResolvedFiles(out)
	return out
}

func sortResolvedFiles(files []*ResolvedFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].SourceName < files[j].SourceName
	})
}
