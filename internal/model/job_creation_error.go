package model

import (
	"bytes"
	"fmt"
)

// JobCreationErrorKind tags the five variants a per-file planning
// failure can take (§3 JobCreationError).
type JobCreationErrorKind uint8

const (
	// NoCompatibleVersion: no allowed compiler satisfies the file's
	// effective version range.
	NoCompatibleVersion JobCreationErrorKind = iota
	// IncompatibleOverride: the user's override version does not
	// satisfy the file's own pragmas.
	IncompatibleOverride
	// DirectlyImportsIncompatible: the file's direct imports alone
	// already produce an empty pragma intersection.
	DirectlyImportsIncompatible
	// IndirectlyImportsIncompatible: a transitive (non-direct)
	// dependency produces an empty pragma intersection.
	IndirectlyImportsIncompatible
	// Other: any planning failure not covered by the above.
	Other
)

func (k JobCreationErrorKind) String() string {
	switch k {
	case NoCompatibleVersion:
		return "NoCompatibleVersion"
	case IncompatibleOverride:
		return "IncompatibleOverride"
	case DirectlyImportsIncompatible:
		return "DirectlyImportsIncompatible"
	case IndirectlyImportsIncompatible:
		return "IndirectlyImportsIncompatible"
	default:
		return "Other"
	}
}

// DependencyPath records the import chain from an artifact-emitting
// root down to an incompatible transitive dependency, used only by
// IndirectlyImportsIncompatible.
type DependencyPath []SourceName

// JobCreationError is one file's planning failure. Every field besides
// Kind, File and Err is only populated for the variant that uses it.
type JobCreationError struct {
	Kind JobCreationErrorKind
	File *ResolvedFile

	// Dependencies is the list of directly- or transitively-incompatible
	// dependencies for the two *ImportsIncompatible variants.
	Dependencies []*ResolvedFile

	// Paths holds, for IndirectlyImportsIncompatible, the import path
	// from File down to each entry in Dependencies (parallel slices).
	Paths []DependencyPath

	Err error
}

func (e *JobCreationError) Error() string {
	var buf bytes.Buffer
	switch e.Kind {
	case NoCompatibleVersion:
		fmt.Fprintf(&buf, "no configured compiler version satisfies %s", e.File.SourceName)
	case IncompatibleOverride:
		fmt.Fprintf(&buf, "override version does not satisfy pragmas of %s", e.File.SourceName)
	case DirectlyImportsIncompatible:
		fmt.Fprintf(&buf, "%s directly imports incompatible files:", e.File.SourceName)
		for _, d := range e.Dependencies {
			fmt.Fprintf(&buf, " %s", d.SourceName)
		}
	case IndirectlyImportsIncompatible:
		fmt.Fprintf(&buf, "%s transitively imports incompatible files:", e.File.SourceName)
		for i, d := range e.Dependencies {
			fmt.Fprintf(&buf, " %s (via", d.SourceName)
			if i < len(e.Paths) {
				for _, p := range e.Paths[i] {
					fmt.Fprintf(&buf, " %s >", p)
				}
			}
			fmt.Fprint(&buf, ")")
		}
	default:
		fmt.Fprintf(&buf, "planning failed for %s", e.File.SourceName)
	}
	if e.Err != nil {
		fmt.Fprintf(&buf, ": %s", e.Err)
	}
	return buf.String()
}

// JobCreationErrors aggregates every per-file planning failure
// collected across all roots of a build (§4.4 Failure aggregation).
type JobCreationErrors struct {
	Errors []*JobCreationError
}

func (e *JobCreationErrors) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d file(s) failed planning:\n", len(e.Errors))
	for _, je := range e.Errors {
		fmt.Fprintf(&buf, "  %s\n", je.Error())
	}
	return buf.String()
}

// Add appends a planning failure.
func (e *JobCreationErrors) Add(je *JobCreationError) {
	e.Errors = append(e.Errors, je)
}

// HasErrors reports whether any planning failure was recorded.
func (e *JobCreationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}
