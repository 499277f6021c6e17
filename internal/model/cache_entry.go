package model

import "time"

// CacheEntry is the on-disk incremental-cache record for one file,
// keyed externally by AbsolutePath (§3 CacheEntry).
type CacheEntry struct {
	AbsolutePath     string    `json:"-"`
	LastModified     time.Time `json:"lastModified"`
	ContentHash      string    `json:"contentHash"`
	SourceName       string    `json:"sourceName"`
	SolcConfigDigest string    `json:"solcConfig"`
	Imports          []string  `json:"imports"`
	VersionPragmas   []string  `json:"versionPragmas"`
	EmittedArtifacts []string  `json:"emittedArtifacts"`
}

// SolcBuild describes an acquired compiler: where its executable lives,
// whether it is the portable (WASM) fallback, and its version identity
// (§3 SolcBuild).
type SolcBuild struct {
	CompilerPath string
	IsPortable   bool
	Version      string
	LongVersion  string
}
