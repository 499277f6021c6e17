package resolve

import "github.com/gosolc/buildcore/internal/model"

// ErrorKind tags the three ways resolving a SourceName can fail
// (§4.2 Resolver).
type ErrorKind uint8

const (
	// FileNotFound: the source name does not correspond to any file,
	// under the project root or a resolved package root.
	FileNotFound ErrorKind = iota
	// IllegalImport: the canonicalized path escapes the project root
	// (or, for a package file, its package root).
	IllegalImport
	// PackageNotInstalled: the leading path segment of a third-party
	// source name has no corresponding entry from lookupPackage.
	PackageNotInstalled
)

func (k ErrorKind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case IllegalImport:
		return "IllegalImport"
	case PackageNotInstalled:
		return "PackageNotInstalled"
	default:
		return "Unknown"
	}
}

// Error is a resolution failure for one SourceName.
type Error struct {
	Kind       ErrorKind
	SourceName model.SourceName
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + ": " + string(e.SourceName)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
