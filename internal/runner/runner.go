// Package runner implements §4.7 Compiler Runner: forms a Standard
// JSON input from a CompilationJob, invokes the acquired compiler
// (native: spawn with piped stdin/stdout; portable: an in-process
// wazero WASM evaluator) and parses its JSON output, surfacing a
// malformed response as a Protocol-category error. The native spawn
// shape — pipe stdin, capped-read stdout, bounded by a context
// deadline — follows the teacher's pattern for shelling out to git in
// vcs_source.go, generalized from a VCS command to the compiler.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/gosolc/buildcore/internal/model"
)

// maxOutputBytes caps how much compiler stdout the runner will buffer,
// guarding against a runaway or malicious compiler process (§4.7:
// "streaming I/O with a memory cap").
const maxOutputBytes = 256 << 20

// Runner invokes a single acquired compiler build against one job.
type Runner struct {
	Build *model.SolcBuild

	// WASMBinary holds the portable compiler's module bytes, required
	// only when Build.IsPortable is true.
	WASMBinary []byte
}

// Run executes the job against the runner's compiler build and
// returns the decoded Standard JSON output.
func (r *Runner) Run(ctx context.Context, job *model.CompilationJob) (*model.CompilerOutput, error) {
	input, err := json.Marshal(buildInput(job))
	if err != nil {
		return nil, errors.Wrap(err, "marshaling standard json input")
	}

	var raw []byte
	if r.Build.IsPortable {
		raw, err = r.runPortable(ctx, input)
	} else {
		raw, err = r.runNative(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	var output model.CompilerOutput
	if err := json.Unmarshal(raw, &output); err != nil {
		return nil, &Error{Raw: string(raw), Err: err}
	}
	return &output, nil
}

// runNative spawns the native solc binary with --standard-json and
// pipes the input over stdin, capturing stdout up to maxOutputBytes.
func (r *Runner) runNative(ctx context.Context, input []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Build.CompilerPath, "--standard-json")
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, remaining: maxOutputBytes}
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stdout.Len() > 0 {
			// solc's Standard JSON mode reports compile errors as exit
			// code 1 with a well-formed error document on stdout, not a
			// process failure; only a truly empty stdout means the
			// binary itself misbehaved.
			return stdout.Bytes(), nil
		}
		return nil, errors.Wrapf(err, "running native compiler: %s", stderr.String())
	}
	return stdout.Bytes(), nil
}

// runPortable runs the portable WASM build in-process via wazero,
// feeding input on stdin and reading the Standard JSON output from
// stdout, the fallback path of §4.6 step 5.
func (r *Runner) runPortable(ctx context.Context, input []byte) ([]byte, error) {
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Wrap(err, "instantiating WASI for portable compiler")
	}

	compiled, err := rt.CompileModule(ctx, r.WASMBinary)
	if err != nil {
		return nil, errors.Wrap(err, "compiling portable compiler module")
	}

	var stdout bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithStdin(bytes.NewReader(input)).
		WithStdout(&limitedWriter{w: &stdout, remaining: maxOutputBytes}).
		WithArgs("solc", "--standard-json")

	mod, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "running portable compiler")
	}
	defer mod.Close(ctx)

	return stdout.Bytes(), nil
}

// limitedWriter caps how many bytes it will accept, silently
// discarding the remainder rather than growing without bound.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.remaining <= 0 {
		return len(p), nil
	}
	n := len(p)
	if n > l.remaining {
		n = l.remaining
	}
	written, err := l.w.Write(p[:n])
	l.remaining -= written
	return len(p), err
}
