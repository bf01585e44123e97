package agent

import (
	"strings"
	"testing"

	"github.com/TokenRollAI/minicc/internal/tool"
)

func TestParseToolCallPlainObject(t *testing.T) {
	call, ok := parseToolCall(`{"tool": "read_file", "args": {"path": "main.go"}}`)
	if !ok {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "read_file" {
		t.Errorf("expected read_file, got %q", call.Tool)
	}
	if call.Args["path"] != "main.go" {
		t.Errorf("expected path arg, got %v", call.Args)
	}
}

func TestParseToolCallFencedBlock(t *testing.T) {
	output := "I'll look at the file first.\n\n```json\n{\"tool\": \"grep\", \"args\": {\"pattern\": \"TODO\"}}\n```"
	call, ok := parseToolCall(output)
	if !ok {
		t.Fatal("expected a tool call inside the fenced block")
	}
	if call.Tool != "grep" {
		t.Errorf("expected grep, got %q", call.Tool)
	}
}

func TestParseToolCallSurroundingWhitespace(t *testing.T) {
	call, ok := parseToolCall("\n  {\"tool\": \"bash\", \"args\": {\"command\": \"ls\"}}  \n")
	if !ok {
		t.Fatal("expected a tool call")
	}
	if call.Tool != "bash" {
		t.Errorf("expected bash, got %q", call.Tool)
	}
}

func TestParseToolCallPlainText(t *testing.T) {
	if _, ok := parseToolCall("The refactoring is complete."); ok {
		t.Error("plain text must not parse as a tool call")
	}
}

func TestParseToolCallJSONWithoutTool(t *testing.T) {
	if _, ok := parseToolCall(`{"answer": 42}`); ok {
		t.Error("JSON without a tool key must not parse as a tool call")
	}
}

func TestRenderToolResult(t *testing.T) {
	out := renderToolResult("read_file", &tool.Result{Content: "package main"})
	if !strings.Contains(out, "read_file") || !strings.Contains(out, "package main") {
		t.Errorf("unexpected rendering: %q", out)
	}

	out = renderToolResult("read_file", &tool.Result{
		Err: &tool.Error{Kind: tool.KindNotFound, Message: "no such file: x.go"},
	})
	if !strings.Contains(out, "failed") || !strings.Contains(out, string(tool.KindNotFound)) {
		t.Errorf("expected failure rendering with error kind, got %q", out)
	}
	if !strings.Contains(out, "no such file: x.go") {
		t.Errorf("expected error message in rendering, got %q", out)
	}
}

func TestToolProtocolListsTools(t *testing.T) {
	defs := []tool.Definition{
		{Name: "read_file", Description: "Read a file"},
		{Name: "bash", Description: "Run a command"},
	}
	protocol := toolProtocol(defs)
	if !strings.Contains(protocol, "read_file") || !strings.Contains(protocol, "bash") {
		t.Errorf("expected tool names in protocol, got %q", protocol)
	}
	if !strings.Contains(protocol, `"tool"`) {
		t.Errorf("expected call format in protocol, got %q", protocol)
	}
}

func TestJoinPrompts(t *testing.T) {
	if got := joinPrompts("a", "b"); got != "a\n\nb" {
		t.Errorf("unexpected join: %q", got)
	}
	if got := joinPrompts("", "b"); got != "b" {
		t.Errorf("unexpected join with empty first: %q", got)
	}
	if got := joinPrompts("a", ""); got != "a" {
		t.Errorf("unexpected join with empty second: %q", got)
	}
}

func TestResolveModel(t *testing.T) {
	cases := map[string]string{
		"claude-sonnet": "sonnet",
		"claude-haiku":  "haiku",
		"claude-opus":   "opus",
		"sonnet":        "sonnet",
		"":              "",
	}
	for in, want := range cases {
		if got := resolveModel(in); got != want {
			t.Errorf("resolveModel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterEnv(t *testing.T) {
	env := []string{"PATH=/usr/bin", "CLAUDECODE=1", "HOME=/root"}
	filtered := filterEnv(env, "CLAUDECODE")
	if len(filtered) != 2 {
		t.Fatalf("expected 2 entries, got %v", filtered)
	}
	for _, e := range filtered {
		if strings.HasPrefix(e, "CLAUDECODE=") {
			t.Errorf("CLAUDECODE not removed: %v", filtered)
		}
	}
}
