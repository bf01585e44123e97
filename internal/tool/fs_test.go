package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestFile creates a file under dir with the given relative path.
func writeTestFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating parent dirs: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	return path
}

// execFail runs a tool expecting a *Error and returns it.
func execFail(t *testing.T, tl Tool, args map[string]any) *Error {
	t.Helper()
	res, err := tl.Execute(context.Background(), args)
	if err == nil {
		t.Fatalf("expected failure, got result %+v", res)
	}
	toolErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	return toolErr
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "hello.txt", "hello world\n")
	ws := NewWorkspace(dir)

	res, err := NewReadFile(ws).Execute(context.Background(), map[string]any{"path": "hello.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "hello world\n" {
		t.Errorf("expected file content, got %q", res.Content)
	}
	if res.Data["bytes"] != 12 {
		t.Errorf("expected 12 bytes, got %v", res.Data["bytes"])
	}
}

func TestReadFileNotFound(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	toolErr := execFail(t, NewReadFile(ws), map[string]any{"path": "missing.txt"})
	if toolErr.Kind != KindNotFound {
		t.Errorf("expected KindNotFound, got %s", toolErr.Kind)
	}
}

func TestReadFileDirectory(t *testing.T) {
	dir := t.TempDir()
	ws := NewWorkspace(dir)

	toolErr := execFail(t, NewReadFile(ws), map[string]any{"path": "."})
	if toolErr.Kind != KindIOFailure {
		t.Errorf("expected KindIOFailure for directory, got %s", toolErr.Kind)
	}
}

func TestReadFileMissingArgument(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	toolErr := execFail(t, NewReadFile(ws), map[string]any{})
	if toolErr.Kind != KindInvalidArguments {
		t.Errorf("expected KindInvalidArguments, got %s", toolErr.Kind)
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	ws := NewWorkspace(dir)

	res, err := NewWriteFile(ws).Execute(context.Background(), map[string]any{
		"path":    "a/b/c.txt",
		"content": "nested",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Content, "a/b/c.txt") {
		t.Errorf("expected path in confirmation, got %q", res.Content)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "a/b/c.txt"))
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(raw) != "nested" {
		t.Errorf("expected written content, got %q", raw)
	}
}

func TestWriteFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "f.txt", "old content")
	ws := NewWorkspace(dir)

	if _, err := NewWriteFile(ws).Execute(context.Background(), map[string]any{
		"path":    "f.txt",
		"content": "new",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "f.txt"))
	if string(raw) != "new" {
		t.Errorf("expected full replacement, got %q", raw)
	}
}

func TestUpdateFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "main.go", "func main() {\n\tfmt.Println(\"old\")\n}\n")
	ws := NewWorkspace(dir)

	res, err := NewUpdateFile(ws).Execute(context.Background(), map[string]any{
		"path":        "main.go",
		"old_content": "fmt.Println(\"old\")",
		"new_content": "fmt.Println(\"new\")",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Content, "- fmt.Println(\"old\")") ||
		!strings.Contains(res.Content, "+ fmt.Println(\"new\")") {
		t.Errorf("expected diff preview in confirmation, got %q", res.Content)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "main.go"))
	if string(raw) != "func main() {\n\tfmt.Println(\"new\")\n}\n" {
		t.Errorf("unexpected file content after update: %q", raw)
	}
}

func TestUpdateFileAnchorNotFound(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "f.txt", "alpha beta gamma")
	ws := NewWorkspace(dir)

	toolErr := execFail(t, NewUpdateFile(ws), map[string]any{
		"path":        "f.txt",
		"old_content": "delta",
		"new_content": "epsilon",
	})
	if toolErr.Kind != KindAmbiguousMatch {
		t.Errorf("expected KindAmbiguousMatch, got %s", toolErr.Kind)
	}

	// The file must be untouched after a failed update.
	raw, _ := os.ReadFile(filepath.Join(dir, "f.txt"))
	if string(raw) != "alpha beta gamma" {
		t.Errorf("file was modified by a failed update: %q", raw)
	}
}

func TestUpdateFileAmbiguousAnchor(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "f.txt", "x = 1\nx = 1\n")
	ws := NewWorkspace(dir)

	toolErr := execFail(t, NewUpdateFile(ws), map[string]any{
		"path":        "f.txt",
		"old_content": "x = 1",
		"new_content": "x = 2",
	})
	if toolErr.Kind != KindAmbiguousMatch {
		t.Errorf("expected KindAmbiguousMatch, got %s", toolErr.Kind)
	}
	if !strings.Contains(toolErr.Message, "2 times") {
		t.Errorf("expected occurrence count in message, got %q", toolErr.Message)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "f.txt"))
	if string(raw) != "x = 1\nx = 1\n" {
		t.Errorf("file was modified by a failed update: %q", raw)
	}
}

func TestUpdateFileEmptyAnchor(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "f.txt", "content")
	ws := NewWorkspace(dir)

	toolErr := execFail(t, NewUpdateFile(ws), map[string]any{
		"path":        "f.txt",
		"old_content": "",
		"new_content": "x",
	})
	if toolErr.Kind != KindInvalidArguments {
		t.Errorf("expected KindInvalidArguments, got %s", toolErr.Kind)
	}
}

func TestUpdateFileMissingFile(t *testing.T) {
	ws := NewWorkspace(t.TempDir())

	toolErr := execFail(t, NewUpdateFile(ws), map[string]any{
		"path":        "missing.txt",
		"old_content": "a",
		"new_content": "b",
	})
	if toolErr.Kind != KindNotFound {
		t.Errorf("expected KindNotFound, got %s", toolErr.Kind)
	}
}

func TestWorkspaceResolve(t *testing.T) {
	ws := NewWorkspace("/work")

	if got := ws.Resolve("sub/file.txt"); got != "/work/sub/file.txt" {
		t.Errorf("expected relative join, got %q", got)
	}
	if got := ws.Resolve("/etc/hosts"); got != "/etc/hosts" {
		t.Errorf("expected absolute passthrough, got %q", got)
	}
}
