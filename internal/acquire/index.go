package acquire

import "github.com/Masterminds/semver/v3"

// Build describes one compiler build entry in the build-index catalog
// (§4.6 step 1): a platform-specific binary (or the portable WASM/JS
// build), its published long version string, download path and
// integrity digest.
type Build struct {
	Version     *semver.Version
	LongVersion string
	Path        string
	SHA256      string
	Portable    bool
}

// Index is a small catalog keyed by version, one entry per platform
// build plus a portable fallback, analogous to solc-bin's list.json.
type Index struct {
	// Native maps version string to the build for this host's platform.
	Native map[string]Build
	// Portable maps version string to the WASM/JS fallback build.
	Portable map[string]Build
	// BaseURL is prefixed to a Build.Path to form the download URL.
	BaseURL string
}

// Lookup returns the native build (if any) and the portable build for
// a version, mirroring §4.6 step 1's "query a build-index for the
// preferred platform binary and its long_version".
func (idx *Index) Lookup(version *semver.Version) (native *Build, portable *Build) {
	key := version.String()
	if b, ok := idx.Native[key]; ok {
		native = &b
	}
	if b, ok := idx.Portable[key]; ok {
		portable = &b
	}
	return native, portable
}
