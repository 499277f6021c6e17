package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/gosolc/buildcore/internal/model"
)

// DiscoverSolidityFiles walks root and returns the SourceNames of every
// .sol file beneath it, relative to root, skipping nested node_modules
// directories. Nothing else in this module calls it.
//
// godirwalk is used instead of filepath.Walk because package trees can
// be large (pulled-in npm dependency graphs easily reach into the tens
// of thousands of files) and godirwalk avoids the extra Lstat per entry
// that filepath.Walk performs.
func DiscoverSolidityFiles(root string) ([]model.SourceName, error) {
	var names []model.SourceName

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				base := filepath.Base(path)
				if base == "node_modules" && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".sol") {
				return nil
			}
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				return rerr
			}
			names = append(names, model.SourceName(filepath.ToSlash(rel)))
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	return names, nil
}

// NewPackageRootLookup returns a PackageLookup that resolves a package
// name to <packagesDir>/<name>, the layout convention of node_modules-
// style third-party package directories.
func NewPackageRootLookup(packagesDir string) PackageLookup {
	return func(name string) (string, error) {
		root, err := filepath.Abs(filepath.Join(packagesDir, filepath.FromSlash(name)))
		if err != nil {
			return "", err
		}
		info, err := os.Stat(root)
		if err != nil {
			return "", errors.Wrapf(err, "package %q not installed under %s", name, packagesDir)
		}
		if !info.IsDir() {
			return "", errors.Errorf("package %q root %s is not a directory", name, root)
		}
		return root, nil
	}
}
