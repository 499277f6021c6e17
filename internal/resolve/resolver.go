// Package resolve implements the §4.2 Resolver: mapping SourceNames to
// ResolvedFiles, recursively, handling both project files and
// third-party package files, canonicalizing each import directive
// found along the way. The pattern — a per-source-name cache guarding
// an underlying lookup, with a worklist driving transitive closure —
// is grounded on the teacher's deduce.go/deducers.go import-path
// deduction and its bridge/source-manager caching.
package resolve

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/gosolc/buildcore/internal/fs"
	"github.com/gosolc/buildcore/internal/model"
	"github.com/gosolc/buildcore/internal/source"
)

// PackageLookup resolves a third-party package name to the absolute
// path of its root directory (e.g. a node_modules entry).
type PackageLookup func(packageName string) (rootDir string, err error)

// Resolver resolves SourceNames to ResolvedFiles, caching per-name
// lookups for the lifetime of a single build.
type Resolver struct {
	projectRoot   string
	lookupPackage PackageLookup

	mu    sync.Mutex
	cache map[model.SourceName]*cacheEntry
}

type cacheEntry struct {
	file *model.ResolvedFile
	err  error
	done chan struct{}
}

// New constructs a Resolver rooted at projectRoot (which must be an
// absolute, cleaned path) using lookup to resolve third-party package
// names.
func New(projectRoot string, lookup PackageLookup) *Resolver {
	return &Resolver{
		projectRoot:   filepath.Clean(projectRoot),
		lookupPackage: lookup,
		cache:         map[model.SourceName]*cacheEntry{},
	}
}

// Resolve maps a single SourceName to its ResolvedFile, recursively
// canonicalizing the imports found in its text. It is safe to call
// concurrently; concurrent calls for the same name block on a single
// underlying lookup.
func (r *Resolver) Resolve(name model.SourceName) (*model.ResolvedFile, error) {
	r.mu.Lock()
	if ce, ok := r.cache[name]; ok {
		r.mu.Unlock()
		<-ce.done
		return ce.file, ce.err
	}
	ce := &cacheEntry{done: make(chan struct{})}
	r.cache[name] = ce
	r.mu.Unlock()

	ce.file, ce.err = r.resolveUncached(name)
	close(ce.done)
	return ce.file, ce.err
}

func (r *Resolver) resolveUncached(name model.SourceName) (*model.ResolvedFile, error) {
	absPath, pkgName, err := r.locate(name)
	if err != nil {
		return nil, err
	}

	res, err := source.Read(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}

	imports := make([]model.SourceName, 0, len(res.Imports))
	for _, raw := range res.Imports {
		imports = append(imports, model.Canonicalize(name, raw))
	}

	return &model.ResolvedFile{
		SourceName:     name,
		AbsolutePath:   absPath,
		Content:        res.Content,
		ContentHash:    res.ContentHash,
		LastModified:   res.LastModified,
		Imports:        imports,
		VersionPragmas: res.VersionPragmas,
		PackageName:    pkgName,
	}, nil
}

// locate turns a SourceName into an absolute path on disk, and, if it
// was resolved from a third-party package, that package's name.
func (r *Resolver) locate(name model.SourceName) (absPath string, pkgName string, err error) {
	raw := string(name)

	if strings.HasPrefix(raw, "..") || filepath.IsAbs(raw) {
		return "", "", &Error{Kind: IllegalImport, SourceName: name,
			Err: errors.New("source name escapes its root")}
	}

	candidate := filepath.Join(r.projectRoot, filepath.FromSlash(raw))
	if !fs.HasFilepathPrefix(candidate, r.projectRoot) {
		return "", "", &Error{Kind: IllegalImport, SourceName: name,
			Err: errors.Errorf("%s escapes project root %s", candidate, r.projectRoot)}
	}

	if ok, _ := fs.IsRegular(candidate); ok {
		return candidate, "", nil
	}

	// Not a project file: treat the leading path segment as a
	// third-party package name.
	parts := strings.SplitN(raw, "/", 2)
	pkgName = parts[0]
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	if r.lookupPackage == nil {
		return "", "", &Error{Kind: FileNotFound, SourceName: name}
	}

	root, lerr := r.lookupPackage(pkgName)
	if lerr != nil {
		return "", "", &Error{Kind: PackageNotInstalled, SourceName: name, Err: lerr}
	}

	root = filepath.Clean(root)
	pkgCandidate := filepath.Join(root, filepath.FromSlash(rest))
	if !fs.HasFilepathPrefix(pkgCandidate, root) {
		return "", "", &Error{Kind: IllegalImport, SourceName: name,
			Err: errors.Errorf("%s escapes package root %s", pkgCandidate, root)}
	}

	if ok, _ := fs.IsRegular(pkgCandidate); !ok {
		return "", "", &Error{Kind: FileNotFound, SourceName: name}
	}

	return pkgCandidate, pkgName, nil
}

const resolveWorkers = 8

// ResolveMany is the top-level entry point: it resolves every name in
// roots and then, together with whatever DependencyGraph the caller
// builds from the result, performs a transitive traversal of imports
// until closure. File loads fan out across a small worker pool since
// they are purely functional (§5 permitted intra-phase parallelism).
func (r *Resolver) ResolveMany(roots []model.SourceName) ([]*model.ResolvedFile, error) {
	var (
		mu       sync.Mutex
		visited  = map[model.SourceName]bool{}
		files    []*model.ResolvedFile
		firstErr error
	)

	frontier := append([]model.SourceName(nil), roots...)
	for _, n := range frontier {
		visited[n] = true
	}

	for len(frontier) > 0 {
		var next []model.SourceName
		var wg sync.WaitGroup
		sem := make(chan struct{}, resolveWorkers)

		for _, name := range frontier {
			name := name
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				f, err := r.Resolve(name)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					return
				}
				files = append(files, f)
				for _, imp := range f.Imports {
					if !visited[imp] {
						visited[imp] = true
						next = append(next, imp)
					}
				}
			}()
		}
		wg.Wait()
		frontier = next
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return files, nil
}
