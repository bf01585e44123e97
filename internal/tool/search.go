package tool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Directories skipped by both search tools. A match inside a vendor or
// VCS tree is almost never what the model wants.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// grepMaxResults caps grep output so a broad pattern cannot flood the
// conversation.
const grepMaxResults = 100

// SearchFiles enumerates files matching a glob pattern.
type SearchFiles struct {
	ws *Workspace
}

func NewSearchFiles(ws *Workspace) *SearchFiles { return &SearchFiles{ws: ws} }

func (t *SearchFiles) Name() string { return "search_files" }

func (t *SearchFiles) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Find files matching a glob pattern. Supports ** for recursive matching, e.g. \"**/*.go\".",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{
					"type":        "string",
					"description": "Glob pattern, e.g. \"**/*.py\" or \"src/*.js\"",
				},
				"path": map[string]any{
					"type":        "string",
					"description": "Directory to search from (default: working directory)",
				},
			},
			"required": []string{"pattern"},
		},
	}
}

func (t *SearchFiles) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	pattern, argErr := StringArg(args, "pattern")
	if argErr != nil {
		return nil, argErr
	}
	path, argErr := OptStringArg(args, "path", ".")
	if argErr != nil {
		return nil, argErr
	}

	root := t.ws.Resolve(path)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, Errorf(KindNotFound, "path not found: %s", path)
		}
		return nil, Errorf(KindIOFailure, "cannot access %s: %v", path, err)
	}

	var matches []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		ok, matchErr := matchGlob(pattern, filepath.ToSlash(rel))
		if matchErr != nil {
			return matchErr
		}
		if ok {
			matches = append(matches, t.ws.Rel(p))
		}
		return nil
	})
	if err != nil {
		if err == filepath.ErrBadPattern {
			return nil, Errorf(KindInvalidPattern, "invalid glob pattern: %s", pattern)
		}
		return nil, Errorf(KindIOFailure, "walking %s: %v", path, err)
	}

	sort.Strings(matches)

	content := strings.Join(matches, "\n")
	if len(matches) == 0 {
		content = fmt.Sprintf("No files match %q under %s", pattern, path)
	}

	return &Result{
		Content: content,
		Data: map[string]any{
			"pattern": pattern,
			"count":   len(matches),
			"paths":   matches,
		},
	}, nil
}

// matchGlob matches a slash-separated relative path against a glob
// pattern, supporting ** across path separators. Plain patterns fall
// through to filepath.Match.
func matchGlob(pattern, path string) (bool, error) {
	pattern = filepath.ToSlash(pattern)
	if !strings.Contains(pattern, "**") {
		return filepath.Match(pattern, path)
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" {
		// Prefix must end on a path segment boundary.
		if path != prefix && !strings.HasPrefix(path, prefix+"/") {
			return false, nil
		}
		path = strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
	}

	if suffix == "" {
		return true, nil
	}

	// The suffix may begin at any path segment after the prefix.
	segments := strings.Split(path, "/")
	for i := 0; i <= len(segments); i++ {
		candidate := strings.Join(segments[i:], "/")
		ok, err := matchGlob(suffix, candidate)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Grep scans file contents line by line for a regular expression.
type Grep struct {
	ws *Workspace
}

func NewGrep(ws *Workspace) *Grep { return &Grep{ws: ws} }

func (t *Grep) Name() string { return "grep" }

func (t *Grep) Definition() Definition {
	return Definition{
		Name:        t.Name(),
		Description: "Search file contents with a regular expression. Output lines are formatted as path:line:text.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{
					"type":        "string",
					"description": "Regular expression to search for",
				},
				"path": map[string]any{
					"type":        "string",
					"description": "File or directory to search (default: working directory)",
				},
				"include": map[string]any{
					"type":        "string",
					"description": "Filename glob filter, e.g. \"*.go\" (default: all files)",
				},
			},
			"required": []string{"pattern"},
		},
	}
}

// grepMatch is one matching line.
type grepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

func (t *Grep) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	pattern, argErr := StringArg(args, "pattern")
	if argErr != nil {
		return nil, argErr
	}
	path, argErr := OptStringArg(args, "path", ".")
	if argErr != nil {
		return nil, argErr
	}
	include, argErr := OptStringArg(args, "include", "")
	if argErr != nil {
		return nil, argErr
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, Errorf(KindInvalidPattern, "invalid regular expression: %v", err)
	}
	if include != "" {
		if _, err := filepath.Match(include, "probe"); err != nil {
			return nil, Errorf(KindInvalidPattern, "invalid include filter: %s", include)
		}
	}

	root := t.ws.Resolve(path)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Errorf(KindNotFound, "path not found: %s", path)
		}
		return nil, Errorf(KindIOFailure, "cannot access %s: %v", path, err)
	}

	var matches []grepMatch
	if !info.IsDir() {
		matches = t.scanFile(root, re, matches)
	} else {
		walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if skippedDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if include != "" {
				if ok, _ := filepath.Match(include, d.Name()); !ok {
					return nil
				}
			}
			matches = t.scanFile(p, re, matches)
			return nil
		})
		if walkErr != nil {
			return nil, Errorf(KindIOFailure, "walking %s: %v", path, walkErr)
		}
	}

	// Deterministic file-then-line ordering across repeated runs.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Line < matches[j].Line
	})

	shown := matches
	if len(shown) > grepMaxResults {
		shown = shown[:grepMaxResults]
	}

	var b strings.Builder
	for _, m := range shown {
		fmt.Fprintf(&b, "%s:%d:%s\n", m.Path, m.Line, m.Text)
	}
	content := strings.TrimRight(b.String(), "\n")
	if len(matches) == 0 {
		content = fmt.Sprintf("No matches for %q", pattern)
	} else if len(matches) > grepMaxResults {
		content += fmt.Sprintf("\n... %d more matches not shown", len(matches)-grepMaxResults)
	}

	return &Result{
		Content: content,
		Data: map[string]any{
			"pattern": pattern,
			"count":   len(matches),
		},
	}, nil
}

// scanFile appends every matching line of one file. Unreadable or
// binary files are skipped so a single bad file cannot hide matches
// elsewhere.
func (t *Grep) scanFile(path string, re *regexp.Regexp, matches []grepMatch) []grepMatch {
	f, err := os.Open(path)
	if err != nil {
		return matches
	}
	defer f.Close()

	// Binary sniff: a NUL byte in the first chunk disqualifies the file.
	head := make([]byte, 8000)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		return matches
	}
	if bytes.IndexByte(head[:n], 0) >= 0 {
		return matches
	}
	if _, err := f.Seek(0, 0); err != nil {
		return matches
	}

	rel := t.ws.Rel(path)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if re.MatchString(line) {
			matches = append(matches, grepMatch{
				Path: rel,
				Line: lineNo,
				Text: strings.TrimSpace(line),
			})
		}
	}
	return matches
}
