// Package source implements the §4.1 Source Reader: a pure function
// that loads a file from disk and lexically extracts its import
// directives and version-pragma strings. It performs no semantic
// analysis; comments are stripped before the extraction regexes run.
// String literals are not stripped, so a complete import directive
// written inside a string literal is extracted as an import. This is
// the same "strip then regex" approach the
// teacher's pkgtree/analysis.go uses for Go import extraction, adapted
// here to Solidity's lexical grammar instead of go/ast.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Result holds everything the Source Reader extracts from one file.
type Result struct {
	Content        string
	ContentHash    string
	LastModified   time.Time
	Imports        []string
	VersionPragmas []string
}

var (
	importRe = regexp.MustCompile(`(?s)import\s+(?:[^;"']*?\bfrom\s+)?["']([^"']+)["']\s*;`)
	pragmaRe = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`)
)

// Read loads absPath as UTF-8 text and extracts its imports and version
// pragmas. The returned ContentHash is a stable digest of the exact
// bytes read, which is what is later handed to the compiler.
func Read(absPath string) (*Result, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", absPath)
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", absPath)
	}

	content := string(data)
	sum := sha256.Sum256(data)

	masked := stripCommentsKeepStrings(content)

	return &Result{
		Content:        content,
		ContentHash:    hex.EncodeToString(sum[:]),
		LastModified:   fi.ModTime(),
		Imports:        extractImports(masked),
		VersionPragmas: extractPragmas(masked),
	}, nil
}

func extractImports(masked string) []string {
	matches := importRe.FindAllStringSubmatch(masked, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func extractPragmas(masked string) []string {
	matches := pragmaRe.FindAllStringSubmatch(masked, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// stripCommentsKeepStrings blanks out // and /* */ comments, replacing
// their contents with spaces (newlines preserved) while leaving string
// literals untouched, so the import/pragma regexes above still see the
// quoted path/version argument.
func stripCommentsKeepStrings(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	runes := []rune(src)
	n := len(runes)

	i := 0
	for i < n {
		c := runes[i]

		switch {
		case c == '/' && i+1 < n && runes[i+1] == '/':
			for i < n && runes[i] != '\n' {
				b.WriteRune(' ')
				i++
			}
			// leave the newline itself (if any) for the next iteration

		case c == '/' && i+1 < n && runes[i+1] == '*':
			b.WriteRune(' ')
			b.WriteRune(' ')
			i += 2
			for i < n && !(runes[i] == '*' && i+1 < n && runes[i+1] == '/') {
				if runes[i] == '\n' {
					b.WriteRune('\n')
				} else {
					b.WriteRune(' ')
				}
				i++
			}
			if i < n {
				b.WriteRune(' ')
				b.WriteRune(' ')
				i += 2
			}

		case c == '"' || c == '\'':
			quote := c
			b.WriteRune(c)
			i++
			for i < n && runes[i] != quote {
				if runes[i] == '\\' && i+1 < n {
					b.WriteRune(runes[i])
					i++
				}
				b.WriteRune(runes[i])
				i++
			}
			if i < n {
				b.WriteRune(runes[i])
				i++
			}

		default:
			b.WriteRune(c)
			i++
		}
	}

	return b.String()
}
