package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile returns the full textual contents of a file.
type ReadFile struct {
	ws *Workspace
}

func NewReadFile(ws *Workspace) *ReadFile { return &ReadFile{ws: ws} }

func (t *ReadFile) Name() string { return "read_file" }

func (t *ReadFile) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Read the full contents of a file at the given path.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path, absolute or relative to the working directory",
				},
			},
			"required": []string{"path"},
		},
	}
}

func (t *ReadFile) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	path, argErr := StringArg(args, "path")
	if argErr != nil {
		return nil, argErr
	}

	resolved := t.ws.Resolve(path)

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Errorf(KindNotFound, "file not found: %s", path)
		}
		return nil, Errorf(KindIOFailure, "cannot access %s: %v", path, err)
	}
	if info.IsDir() {
		return nil, Errorf(KindIOFailure, "path is a directory, not a file: %s", path)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, Errorf(KindIOFailure, "cannot read %s: %v", path, err)
	}

	return &Result{
		Content: string(content),
		Data: map[string]any{
			"path":  path,
			"bytes": len(content),
		},
	}, nil
}

// WriteFile creates a file or fully replaces its contents. This is the
// only tool that may silently destroy prior content; callers are
// expected to prefer update_file for existing files.
type WriteFile struct {
	ws *Workspace
}

func NewWriteFile(ws *Workspace) *WriteFile { return &WriteFile{ws: ws} }

func (t *WriteFile) Name() string { return "write_file" }

func (t *WriteFile) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Create a file or replace its entire contents. Missing parent directories are created.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Target file path",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "Complete content to write",
				},
			},
			"required": []string{"path", "content"},
		},
	}
}

func (t *WriteFile) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	path, argErr := StringArg(args, "path")
	if argErr != nil {
		return nil, argErr
	}
	content, argErr := StringArg(args, "content")
	if argErr != nil {
		return nil, argErr
	}

	resolved := t.ws.Resolve(path)

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return nil, Errorf(KindIOFailure, "cannot create parent directories for %s: %v", path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return nil, Errorf(KindIOFailure, "cannot write %s: %v", path, err)
	}

	return &Result{
		Content: fmt.Sprintf("Wrote %s (%d bytes)", path, len(content)),
		Data: map[string]any{
			"path":  path,
			"bytes": len(content),
		},
	}, nil
}

// UpdateFile replaces an exact, unique substring of a file. The
// uniqueness requirement is the core correctness contract of the edit
// tool: zero or multiple occurrences of the anchor fail the call and
// leave the file untouched.
type UpdateFile struct {
	ws *Workspace
}

func NewUpdateFile(ws *Workspace) *UpdateFile { return &UpdateFile{ws: ws} }

func (t *UpdateFile) Name() string { return "update_file" }

func (t *UpdateFile) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Replace old_content with new_content in a file. old_content must match exactly once; include enough surrounding context to pin down a single location.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path",
				},
				"old_content": map[string]any{
					"type":        "string",
					"description": "Exact text to replace (must occur exactly once)",
				},
				"new_content": map[string]any{
					"type":        "string",
					"description": "Replacement text",
				},
			},
			"required": []string{"path", "old_content", "new_content"},
		},
	}
}

func (t *UpdateFile) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	path, argErr := StringArg(args, "path")
	if argErr != nil {
		return nil, argErr
	}
	oldContent, argErr := StringArg(args, "old_content")
	if argErr != nil {
		return nil, argErr
	}
	if oldContent == "" {
		return nil, Errorf(KindInvalidArguments, "old_content must not be empty")
	}
	newContent, argErr := StringArg(args, "new_content")
	if argErr != nil {
		return nil, argErr
	}

	resolved := t.ws.Resolve(path)

	raw, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Errorf(KindNotFound, "file not found: %s", path)
		}
		return nil, Errorf(KindIOFailure, "cannot read %s: %v", path, err)
	}
	current := string(raw)

	switch count := strings.Count(current, oldContent); {
	case count == 0:
		return nil, Errorf(KindAmbiguousMatch, "old_content not found in %s; it must match the file exactly", path)
	case count > 1:
		return nil, Errorf(KindAmbiguousMatch, "old_content occurs %d times in %s; include more context to make it unique", count, path)
	}

	updated := strings.Replace(current, oldContent, newContent, 1)
	if err := os.WriteFile(resolved, []byte(updated), 0644); err != nil {
		return nil, Errorf(KindIOFailure, "cannot write %s: %v", path, err)
	}

	return &Result{
		Content: fmt.Sprintf("Updated %s\n\n%s", path, diffPreview(oldContent, newContent)),
		Data: map[string]any{
			"path":  path,
			"bytes": len(updated),
		},
	}, nil
}

// diffPreview renders a minimal removed/added line view of the edit.
func diffPreview(oldContent, newContent string) string {
	var b strings.Builder
	for _, line := range strings.Split(oldContent, "\n") {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	for _, line := range strings.Split(newContent, "\n") {
		b.WriteString("+ ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
