package acquire

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/gosolc/buildcore/log"
)

func newTestLogger() *log.Logger {
	return log.New(os.Stderr)
}

func TestAcquireDownloadsAndVerifies(t *testing.T) {
	payload := []byte("#!/bin/sh\necho solc, the solidity compiler\n")
	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	ver := semver.MustParse("0.8.17")
	idx := &Index{
		BaseURL: srv.URL,
		Native: map[string]Build{
			"0.8.17": {Version: ver, LongVersion: "0.8.17+commit.deadbeef", Path: "/solc-0.8.17", SHA256: digest},
		},
	}

	a := New(t.TempDir(), idx, newTestLogger())
	build, err := a.Acquire(context.Background(), ver, true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if build.IsPortable {
		t.Error("expected the native build to be returned")
	}
	if _, err := os.Stat(build.CompilerPath); err != nil {
		t.Fatalf("expected compiler binary to exist at %s: %v", build.CompilerPath, err)
	}
}

func TestAcquireDecompressesGzip(t *testing.T) {
	inner := []byte("#!/bin/sh\necho solc binary contents\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		gz.Write(inner)
		gz.Close()
	}))
	defer srv.Close()

	ver := semver.MustParse("0.8.18")
	idx := &Index{
		BaseURL: srv.URL,
		Native: map[string]Build{
			"0.8.18": {Version: ver, LongVersion: "0.8.18+commit.deadbeef", Path: "/solc-0.8.18.gz"},
		},
	}

	a := New(t.TempDir(), idx, newTestLogger())
	build, err := a.Acquire(context.Background(), ver, true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	data, err := os.ReadFile(build.CompilerPath)
	if err != nil {
		t.Fatalf("reading decompressed binary: %v", err)
	}
	if string(data) != string(inner) {
		t.Errorf("decompressed content = %q, want %q", data, inner)
	}
}

func TestAcquirePlatformUnsupported(t *testing.T) {
	idx := &Index{}
	a := New(t.TempDir(), idx, newTestLogger())

	_, err := a.Acquire(context.Background(), semver.MustParse("0.8.17"), true)
	acqErr, ok := err.(*Error)
	if !ok || acqErr.Kind != PlatformUnsupported {
		t.Fatalf("err = %v, want PlatformUnsupported", err)
	}
}

func TestAcquireFallsBackToCachedBuild(t *testing.T) {
	dir := t.TempDir()
	ver := semver.MustParse("0.8.17")
	versionDir := filepath.Join(dir, "0.8.17")
	os.MkdirAll(versionDir, 0755)
	os.WriteFile(filepath.Join(versionDir, nativeBinaryName), []byte("#!/bin/sh\necho cached solc\n"), 0755)

	idx := &Index{
		Native: map[string]Build{
			"0.8.17": {Version: ver, Path: "/unreachable"},
		},
	}
	a := New(dir, idx, newTestLogger())

	build, err := a.Acquire(context.Background(), ver, true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if build.CompilerPath != filepath.Join(versionDir, nativeBinaryName) {
		t.Errorf("CompilerPath = %s, want the already-cached binary", build.CompilerPath)
	}
}
