package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/gosolc/buildcore/internal/model"
)

func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-solc.sh")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake compiler: %v", err)
	}
	return path
}

func testJob(t *testing.T) *model.CompilationJob {
	t.Helper()
	root := &model.ResolvedFile{SourceName: "A.sol", Content: "pragma solidity ^0.8.0;\ncontract A {}\n"}
	cfg := model.NewCompilerConfig(semver.MustParse("0.8.17"), map[string]interface{}{"optimizer": map[string]interface{}{"enabled": true}})
	return model.NewCompilationJob(cfg, root, nil)
}

func TestRunNativeParsesOutput(t *testing.T) {
	path := fakeCompiler(t, "#!/bin/sh\ncat <<'EOF'\n{\"contracts\":{\"A.sol\":{}}}\nEOF\n")

	r := &Runner{Build: &model.SolcBuild{CompilerPath: path}}
	out, err := r.Run(context.Background(), testJob(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.HasErrorSeverity() {
		t.Error("expected no error-severity diagnostics")
	}
	if _, ok := out.Contracts["A.sol"]; !ok {
		t.Errorf("contracts = %v, want an entry for A.sol", out.Contracts)
	}
}

func TestRunNativeDetectsErrorSeverity(t *testing.T) {
	path := fakeCompiler(t, `#!/bin/sh
cat <<'EOF'
{"errors":[{"severity":"error","message":"DeclarationError: identifier not found"}]}
EOF
`)

	r := &Runner{Build: &model.SolcBuild{CompilerPath: path}}
	out, err := r.Run(context.Background(), testJob(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.HasErrorSeverity() {
		t.Error("expected HasErrorSeverity to be true")
	}
}

func TestRunNativeMalformedOutputIsProtocolError(t *testing.T) {
	path := fakeCompiler(t, "#!/bin/sh\necho 'not json at all'\n")

	r := &Runner{Build: &model.SolcBuild{CompilerPath: path}}
	_, err := r.Run(context.Background(), testJob(t))
	if err == nil {
		t.Fatal("expected a protocol error")
	}
	if _, ok := err.(*Error); !ok {
		t.Fatalf("err = %T, want *runner.Error", err)
	}
}

func TestConsoleLogHintDetection(t *testing.T) {
	d := model.Diagnostic{Severity: model.SeverityWarning, Message: "Warning: \"console.log\" is not recognized as a Solidity built-in."}
	if !d.IsConsoleLogWarning() {
		t.Error("expected the console.log hint to be detected")
	}

	other := model.Diagnostic{Severity: model.SeverityWarning, Message: "Warning: Unused local variable."}
	if other.IsConsoleLogWarning() {
		t.Error("expected an unrelated warning not to match")
	}
}
