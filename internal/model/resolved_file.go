package model

import "time"

// ResolvedFile is an immutable, fully-loaded source file: its logical
// name, where it lives on disk, the exact text handed to the compiler,
// and what was extracted from that text lexically (imports and version
// pragmas). Once constructed a ResolvedFile is never mutated; it is
// owned by the DependencyGraph of a single build run.
type ResolvedFile struct {
	SourceName     SourceName
	AbsolutePath   string
	Content        string
	ContentHash    string
	LastModified   time.Time
	Imports        []SourceName
	VersionPragmas []string

	// PackageName is set when this file was resolved from a third-party
	// package tree rather than the project root.
	PackageName string
}

// IsThirdParty reports whether the file was resolved from a package
// tree rather than the project root.
func (f *ResolvedFile) IsThirdParty() bool {
	return f.PackageName != ""
}
