package plan

// Cache is the subset of the incremental cache (§4.5) the planner's
// Step C needs: whether a given file, at its current content hash and
// (for emitting files) compiler config, is considered unchanged from
// the last successful build.
type Cache interface {
	HasFileChanged(absolutePath, contentHash, solcConfigDigest string) bool
}
