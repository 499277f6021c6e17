// Package fs provides small filesystem helpers shared by the resolver,
// the incremental cache, and compiler acquisition: path containment
// checks and atomic write/rename-with-fallback primitives.
package fs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// IsDir is true if name is a directory.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// IsRegular is true if name is a regular file.
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, errors.Errorf("%q is a directory, should be a file", name)
	}
	return true, nil
}

// HasFilepathPrefix reports whether path is prefix, or lies under prefix,
// from the point of view of the filesystem hierarchy. Unlike a plain
// strings.HasPrefix, it will not treat /foo and /foobar as related.
func HasFilepathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if path == prefix {
		return true
	}

	sep := string(os.PathSeparator)
	if !strings.HasSuffix(prefix, sep) {
		prefix += sep
	}
	return strings.HasPrefix(path, prefix)
}

// WriteFileAtomic writes data to path by writing to a temp file in the
// same directory and renaming it into place, so a reader never observes
// a partially-written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing temp file %s", tmpName)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "chmod temp file %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing temp file %s", tmpName)
	}

	if err := RenameWithFallback(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// RenameWithFallback attempts to rename a file, but falls back to
// copying in the event of a cross-device link error. If the fallback
// copy succeeds, src is still removed, emulating normal rename behavior.
func RenameWithFallback(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	terr, ok := err.(*os.LinkError)
	if !ok || terr.Err != syscall.EXDEV {
		return errors.Wrapf(err, "renaming %s to %s", src, dst)
	}

	if cerr := CopyFile(src, dst); cerr != nil {
		return errors.Wrapf(cerr, "rename fallback failed: cannot rename %s to %s", src, dst)
	}
	return errors.Wrapf(os.Remove(src), "cannot delete %s after fallback copy", src)
}

// CopyFile copies a file from src to dst, preserving the permission bits.
func CopyFile(src, dst string) error {
	srcf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcf.Close()

	dstf, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstf.Close()

	if _, err := io.Copy(dstf, srcf); err != nil {
		return err
	}

	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, fi.Mode())
}
