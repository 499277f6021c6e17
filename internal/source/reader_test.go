package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "Foo.sol")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return p
}

func TestReadExtractsImportsAndPragmas(t *testing.T) {
	src := `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

import "./Bar.sol";
import {Thing} from "../lib/Thing.sol";
import * as Baz from "openzeppelin/contracts/Baz.sol";

/* a block comment
   mentioning import "fake.sol"; that must not count */
contract Foo {
    // import "also/fake.sol";
    string s = "import \"still/fake.sol\";";
}
`
	p := writeTemp(t, src)

	res, err := Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	wantImports := []string{"./Bar.sol", "../lib/Thing.sol", "openzeppelin/contracts/Baz.sol"}
	if len(res.Imports) != len(wantImports) {
		t.Fatalf("imports = %v, want %v", res.Imports, wantImports)
	}
	for i, w := range wantImports {
		if res.Imports[i] != w {
			t.Errorf("imports[%d] = %q, want %q", i, res.Imports[i], w)
		}
	}

	if len(res.VersionPragmas) != 1 || res.VersionPragmas[0] != "^0.8.0" {
		t.Errorf("pragmas = %v, want [^0.8.0]", res.VersionPragmas)
	}

	if res.ContentHash == "" {
		t.Error("expected non-empty content hash")
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.sol"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadIsStableHash(t *testing.T) {
	p := writeTemp(t, "pragma solidity ^0.8.0;\ncontract A {}\n")
	r1, err := Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	r2, err := Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r1.ContentHash != r2.ContentHash {
		t.Errorf("hash not stable: %s != %s", r1.ContentHash, r2.ContentHash)
	}
}
