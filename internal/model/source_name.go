// Package model holds the §3 data-model types shared by the resolver,
// the dependency graph, the job planner, and the incremental cache:
// SourceName, ResolvedFile, CompilerConfig, CompilationJob,
// JobCreationError, CacheEntry and SolcBuild.
package model

import (
	"path"
	"strings"
)

// SourceName is a forward-slash project-relative logical path
// (contracts/Foo.sol) or a third-party-rooted path
// (packagename/contracts/Bar.sol). It keys all file identity.
type SourceName string

// Canonicalize joins a raw import string found in the file named by
// `importer` and returns the canonical SourceName it refers to.
//
// A relative import (./ or ../) is joined and normalized against the
// importing file's own SourceName. Any other import is taken verbatim
// as an already-canonical SourceName (project-relative or third-party
// rooted).
func Canonicalize(importer SourceName, raw string) SourceName {
	if strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") {
		dir := path.Dir(string(importer))
		joined := path.Join(dir, raw)
		return SourceName(joined)
	}
	return SourceName(raw)
}

// String returns the source name as a plain string.
func (s SourceName) String() string {
	return string(s)
}
