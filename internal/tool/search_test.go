package tool

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "sub/main.go", false},
		{"**/*.go", "main.go", true},
		{"**/*.go", "sub/deep/main.go", true},
		{"src/**", "src/a.txt", true},
		{"src/**", "src/deep/b.txt", true},
		{"src/**", "srcother/a.txt", false},
		{"src/**/*.py", "src/pkg/mod.py", true},
		{"src/**/*.py", "src/mod.py", true},
		{"src/**/*.py", "other/mod.py", false},
		{"*.txt", "notes.md", false},
	}

	for _, tt := range tests {
		got, err := matchGlob(tt.pattern, tt.path)
		if err != nil {
			t.Errorf("matchGlob(%q, %q): unexpected error %v", tt.pattern, tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestSearchFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "main.go", "package main")
	writeTestFile(t, dir, "sub/util.go", "package sub")
	writeTestFile(t, dir, "sub/data.json", "{}")
	writeTestFile(t, dir, "node_modules/dep/index.js", "ignored")
	ws := NewWorkspace(dir)

	res, err := NewSearchFiles(ws).Execute(context.Background(), map[string]any{"pattern": "**/*.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	paths := res.Data["paths"].([]string)
	if len(paths) != 2 {
		t.Fatalf("expected 2 matches, got %v", paths)
	}
	// Results are sorted.
	if paths[0] != "main.go" || paths[1] != "sub/util.go" {
		t.Errorf("unexpected matches: %v", paths)
	}
}

func TestSearchFilesSkipsVendorDirs(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "app.js", "x")
	writeTestFile(t, dir, "node_modules/dep/index.js", "y")
	writeTestFile(t, dir, ".git/hooks/pre-commit.js", "z")
	ws := NewWorkspace(dir)

	res, err := NewSearchFiles(ws).Execute(context.Background(), map[string]any{"pattern": "**/*.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data["count"] != 1 {
		t.Errorf("expected vendor trees to be skipped, got %v", res.Data["paths"])
	}
}

func TestSearchFilesNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "x")
	ws := NewWorkspace(dir)

	res, err := NewSearchFiles(ws).Execute(context.Background(), map[string]any{"pattern": "*.rs"})
	if err != nil {
		t.Fatalf("no matches must not be an error, got %v", err)
	}
	if !strings.Contains(res.Content, "No files match") {
		t.Errorf("expected empty-result message, got %q", res.Content)
	}
	if res.Data["count"] != 0 {
		t.Errorf("expected zero count, got %v", res.Data["count"])
	}
}

func TestSearchFilesUnknownPath(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	toolErr := execFail(t, NewSearchFiles(ws), map[string]any{
		"pattern": "*.go",
		"path":    "no/such/dir",
	})
	if toolErr.Kind != KindNotFound {
		t.Errorf("expected KindNotFound, got %s", toolErr.Kind)
	}
}

func TestGrep(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "package a\n\nfunc Alpha() {}\n")
	writeTestFile(t, dir, "b/b.go", "package b\n\nfunc Beta() {}\nfunc Alpha2() {}\n")
	ws := NewWorkspace(dir)

	res, err := NewGrep(ws).Execute(context.Background(), map[string]any{"pattern": `func Alpha`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(res.Content, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 matches, got %q", res.Content)
	}
	// path:line:text ordering, files sorted.
	if lines[0] != "a.go:3:func Alpha() {}" {
		t.Errorf("unexpected first match: %q", lines[0])
	}
	if lines[1] != "b/b.go:4:func Alpha2() {}" {
		t.Errorf("unexpected second match: %q", lines[1])
	}
}

func TestGrepInvalidPattern(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	toolErr := execFail(t, NewGrep(ws), map[string]any{"pattern": "[unclosed"})
	if toolErr.Kind != KindInvalidPattern {
		t.Errorf("expected KindInvalidPattern, got %s", toolErr.Kind)
	}
}

func TestGrepIncludeFilter(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.go", "needle")
	writeTestFile(t, dir, "a.txt", "needle")
	ws := NewWorkspace(dir)

	res, err := NewGrep(ws).Execute(context.Background(), map[string]any{
		"pattern": "needle",
		"include": "*.go",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data["count"] != 1 {
		t.Errorf("expected include filter to apply, got %q", res.Content)
	}
}

func TestGrepNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.txt", "haystack only")
	ws := NewWorkspace(dir)

	res, err := NewGrep(ws).Execute(context.Background(), map[string]any{"pattern": "needle"})
	if err != nil {
		t.Fatalf("no matches must not be an error, got %v", err)
	}
	if !strings.Contains(res.Content, "No matches") {
		t.Errorf("expected empty-result message, got %q", res.Content)
	}
}

func TestGrepSkipsBinaryFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "bin.dat", "needle\x00needle")
	writeTestFile(t, dir, "text.txt", "needle")
	ws := NewWorkspace(dir)

	res, err := NewGrep(ws).Execute(context.Background(), map[string]any{"pattern": "needle"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data["count"] != 1 {
		t.Errorf("expected binary file to be skipped, got %q", res.Content)
	}
}

func TestGrepCapsResults(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < grepMaxResults+25; i++ {
		fmt.Fprintf(&b, "match line %d\n", i)
	}
	writeTestFile(t, dir, "big.txt", b.String())
	ws := NewWorkspace(dir)

	res, err := NewGrep(ws).Execute(context.Background(), map[string]any{"pattern": "match"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data["count"] != grepMaxResults+25 {
		t.Errorf("expected full count in data, got %v", res.Data["count"])
	}
	if !strings.Contains(res.Content, "... 25 more matches not shown") {
		t.Errorf("expected truncation suffix, got tail %q", res.Content[len(res.Content)-60:])
	}
	shown := strings.Count(res.Content, "\n") // header-free, one match per line plus suffix line
	if shown != grepMaxResults {
		t.Errorf("expected %d shown lines, got %d", grepMaxResults, shown)
	}
}

func TestGrepSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "only.txt", "one needle\ntwo needle\n")
	ws := NewWorkspace(dir)

	res, err := NewGrep(ws).Execute(context.Background(), map[string]any{
		"pattern": "needle",
		"path":    "only.txt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data["count"] != 2 {
		t.Errorf("expected 2 matches in single file, got %q", res.Content)
	}
}
