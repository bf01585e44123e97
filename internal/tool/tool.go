// Package tool implements the built-in tool set exposed to the model:
// file access, search, and shell execution, plus the dispatch registry
// that routes tool-call requests to implementations.
package tool

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
)

// Kind classifies a tool failure so the driving conversation can react
// to it (retry with corrected arguments, report, and so on).
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindAmbiguousMatch   Kind = "AmbiguousMatch"
	KindIOFailure        Kind = "IOFailure"
	KindInvalidPattern   Kind = "InvalidPattern"
	KindTimeout          Kind = "Timeout"
	KindExecFailure      Kind = "ExecFailure"
	KindInvalidArguments Kind = "InvalidArguments"
	KindUnknownTool      Kind = "UnknownTool"
)

// Error is a tool failure carried as data across the dispatch boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds a tool Error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is the outcome of a single tool call. Either Err is nil and
// Content/Data carry the success payload, or Err describes the failure.
// Results are never mutated after creation.
type Result struct {
	Content string         `json:"content,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Err     *Error         `json:"error,omitempty"`
}

// Failed reports whether the result is a failure outcome.
func (r *Result) Failed() bool {
	return r.Err != nil
}

// Request identifies a tool by name plus its named arguments. Produced
// by the model-conversation driver, consumed once by dispatch.
type Request struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Definition describes a tool to the model: its name, a natural-language
// description, and a JSON-schema-shaped parameter map.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool is a single callable tool. Argument validation is the tool's
// responsibility; expected failures are returned as *Error.
type Tool interface {
	Name() string
	Definition() Definition
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Workspace resolves tool paths against the session working directory.
// The root is fixed at construction and never re-resolved per call.
type Workspace struct {
	Root string
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(dir string) *Workspace {
	return &Workspace{Root: dir}
}

// Resolve returns path joined onto the workspace root; absolute paths
// pass through unchanged.
func (w *Workspace) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(w.Root, path)
}

// Rel converts an absolute path back to workspace-relative form for
// display; paths outside the root are returned as-is.
func (w *Workspace) Rel(path string) string {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil || rel == ".." || len(rel) > 1 && rel[:2] == ".." {
		return path
	}
	return rel
}

// StringArg extracts a required string argument.
func StringArg(args map[string]any, key string) (string, *Error) {
	v, ok := args[key]
	if !ok {
		return "", Errorf(KindInvalidArguments, "missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", Errorf(KindInvalidArguments, "argument %q must be a string", key)
	}
	return s, nil
}

// OptStringArg extracts an optional string argument with a default.
func OptStringArg(args map[string]any, key, def string) (string, *Error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Errorf(KindInvalidArguments, "argument %q must be a string", key)
	}
	return s, nil
}

// OptIntArg extracts an optional numeric argument with a default.
// JSON decoding yields float64, so both int and float64 are accepted,
// but a fractional value is rejected rather than truncated.
func OptIntArg(args map[string]any, key string, def int) (int, *Error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, Errorf(KindInvalidArguments, "argument %q must be an integer", key)
		}
		return int(n), nil
	default:
		return 0, Errorf(KindInvalidArguments, "argument %q must be a number", key)
	}
}

// OptStringSliceArg extracts an optional list-of-strings argument.
func OptStringSliceArg(args map[string]any, key string) ([]string, *Error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, Errorf(KindInvalidArguments, "argument %q must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, Errorf(KindInvalidArguments, "argument %q must be a list of strings", key)
	}
}
