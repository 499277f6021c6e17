package buildcore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/gosolc/buildcore/internal/fs"
)

// FileStore is the default on-disk ArtifactStore: one JSON file per
// contract under artifacts/, one per build under build-info/, named by
// the standard solc long-version string.
type FileStore struct {
	Root string
}

// NewFileStore prepares the artifacts/ and build-info/ directories
// under root, creating them if absent.
func NewFileStore(root string) (*FileStore, error) {
	s := &FileStore{Root: root}
	for _, dir := range []string{s.artifactsDir(), s.buildInfoDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating %s", dir)
		}
	}
	return s, nil
}

func (s *FileStore) artifactsDir() string  { return filepath.Join(s.Root, "artifacts") }
func (s *FileStore) buildInfoDir() string  { return filepath.Join(s.Root, "build-info") }
func (s *FileStore) artifactPath(fqn string) string {
	return filepath.Join(s.artifactsDir(), sanitizeFilename(fqn)+".json")
}

func sanitizeFilename(fqn string) string {
	r := strings.NewReplacer("/", "_", ":", "-")
	return r.Replace(fqn)
}

func (s *FileStore) SaveArtifact(a Artifact, buildInfoPath string) error {
	return fs.WriteFileAtomic(s.artifactPath(a.FullyQualifiedName), a.Data, 0644)
}

func (s *FileStore) SaveBuildInfo(version, longVersion string, input, output []byte) (string, error) {
	path := filepath.Join(s.buildInfoDir(), longVersion+".json")
	payload := append(append(append([]byte(`{"input":`), input...), []byte(`,"output":`)...), output...)
	payload = append(payload, '}')
	if err := fs.WriteFileAtomic(path, payload, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *FileStore) ArtifactExists(fullyQualifiedName string) bool {
	ok, err := fs.IsRegular(s.artifactPath(fullyQualifiedName))
	return err == nil && ok
}

// RemoveObsolete deletes any artifact file under artifacts/ whose
// fully-qualified name is not in validEntries.
func (s *FileStore) RemoveObsolete(validEntries []string) error {
	keep := make(map[string]bool, len(validEntries))
	for _, fqn := range validEntries {
		keep[s.artifactPath(fqn)] = true
	}

	entries, err := os.ReadDir(s.artifactsDir())
	if err != nil {
		return errors.Wrap(err, "reading artifacts directory")
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(s.artifactsDir(), e.Name())
		if !keep[path] {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "removing obsolete artifact %s", path)
			}
		}
	}
	return nil
}

// RemoveObsoleteBuildInfos is a no-op: build-info records are kept
// indefinitely for audit/debugging, matching the teacher's treatment
// of its own lock-file history.
func (s *FileStore) RemoveObsoleteBuildInfos() error { return nil }
