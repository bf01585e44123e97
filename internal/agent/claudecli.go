package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/TokenRollAI/minicc/internal/tool"
)

// maxToolTurns bounds one conversation's tool-call loop. A conversation
// that keeps requesting tools past this is aborted rather than left
// spinning.
const maxToolTurns = 50

// CLIDriver runs conversations through the local Claude CLI in print
// mode, resuming the CLI session between tool turns. It uses the user's
// local Claude subscription instead of a raw API key.
type CLIDriver struct {
	cliBin string // path to the claude binary
	logger *zap.Logger
}

// NewCLIDriver creates a Driver that calls the Claude CLI.
// If cliBin is empty, it defaults to "claude" (resolved via PATH).
func NewCLIDriver(cliBin string, logger *zap.Logger) *CLIDriver {
	if cliBin == "" {
		cliBin = "claude"
	}
	return &CLIDriver{
		cliBin: cliBin,
		logger: logger,
	}
}

// cliResponse maps the JSON output of `claude -p --output-format json`.
type cliResponse struct {
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	IsError    bool    `json:"is_error"`
	Result     string  `json:"result"`
	SessionID  string  `json:"session_id"`
	DurationMs int     `json:"duration_ms"`
	NumTurns   int     `json:"num_turns"`
	TotalCost  float64 `json:"total_cost_usd"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// toolCall is the wire form the model uses to request a tool, per the
// protocol appended to the system prompt.
type toolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// RunConversation drives the Claude CLI to a final answer, executing
// tool calls through req.Dispatch and feeding each result back by
// resuming the CLI session.
func (d *CLIDriver) RunConversation(ctx context.Context, req ConversationRequest) (*ConversationResult, error) {
	systemPrompt := req.SystemPrompt
	if len(req.Tools) > 0 && req.Dispatch != nil {
		systemPrompt = joinPrompts(systemPrompt, toolProtocol(req.Tools))
	}

	total := &ConversationResult{}
	prompt := req.Prompt
	sessionID := ""

	for turn := 0; turn < maxToolTurns; turn++ {
		resp, err := d.invoke(ctx, req, prompt, systemPrompt, sessionID)
		if err != nil {
			return nil, err
		}
		sessionID = resp.SessionID
		total.Output = resp.Result
		total.TokensIn += resp.Usage.InputTokens
		total.TokensOut += resp.Usage.OutputTokens
		total.CostUSD += resp.TotalCost

		call, ok := parseToolCall(resp.Result)
		if !ok || req.Dispatch == nil {
			return total, nil
		}

		d.logger.Debug("conversation requested tool",
			zap.String("tool", call.Tool),
			zap.Int("turn", turn),
		)
		res := req.Dispatch(ctx, tool.Request{Name: call.Tool, Args: call.Args})
		prompt = renderToolResult(call.Tool, res)
	}

	return nil, fmt.Errorf("conversation exceeded %d tool turns", maxToolTurns)
}

// invoke performs one CLI call. The system prompt is only passed on the
// first turn; later turns resume the session, which carries it.
func (d *CLIDriver) invoke(ctx context.Context, req ConversationRequest, prompt, systemPrompt, sessionID string) (*cliResponse, error) {
	args := []string{
		"-p", prompt,
		"--output-format", "json",
	}

	if model := resolveModel(req.Model); model != "" {
		args = append(args, "--model", model)
	}

	if sessionID == "" {
		if systemPrompt != "" {
			args = append(args, "--system-prompt", systemPrompt)
		}
	} else {
		args = append(args, "--resume", sessionID)
	}

	d.logger.Debug("executing claude CLI",
		zap.String("bin", d.cliBin),
		zap.String("model", req.Model),
		zap.String("session", sessionID),
		zap.Int("promptLen", len(prompt)),
	)

	cmd := exec.CommandContext(ctx, d.cliBin, args...)

	// Unset CLAUDECODE env var to allow nested invocation.
	env := filterEnv(os.Environ(), "CLAUDECODE")
	if req.MaxTokens > 0 {
		env = append(env, fmt.Sprintf("CLAUDE_CODE_MAX_OUTPUT_TOKENS=%d", req.MaxTokens))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = err.Error()
		}
		d.logger.Error("claude CLI failed",
			zap.Error(err),
			zap.String("stderr", errMsg),
		)
		return nil, fmt.Errorf("claude CLI error: %s", strings.TrimSpace(errMsg))
	}

	var resp cliResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		d.logger.Error("failed to parse claude CLI output",
			zap.Error(err),
			zap.String("raw", stdout.String()),
		)
		return nil, fmt.Errorf("parsing claude CLI output: %w", err)
	}

	if resp.IsError && resp.Subtype != "error_max_turns" {
		return nil, fmt.Errorf("claude CLI returned error: %s", resp.Result)
	}

	d.logger.Debug("claude CLI call completed",
		zap.Int("tokensIn", resp.Usage.InputTokens),
		zap.Int("tokensOut", resp.Usage.OutputTokens),
		zap.Float64("costUSD", resp.TotalCost),
		zap.Int("durationMs", resp.DurationMs),
	)

	return &resp, nil
}

// toolProtocol renders the tool definitions and the call protocol for
// the system prompt.
func toolProtocol(defs []tool.Definition) string {
	raw, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		raw = []byte("[]")
	}
	return fmt.Sprintf(`You can use tools. To call one, reply with a single JSON object of the form {"tool": "<name>", "args": {...}} and nothing else. You will receive the tool result as the next message and can then continue or call another tool. Call at most one tool per reply. When the task is done, reply with your final answer as plain text.

Available tools:
%s`, raw)
}

// parseToolCall extracts a tool request from the model's reply: either
// the whole reply is the call object, or it sits in a fenced code
// block. Anything else is a final answer.
func parseToolCall(output string) (*toolCall, bool) {
	candidates := []string{strings.TrimSpace(output)}
	candidates = append(candidates, fencedBlocks(output)...)

	for _, c := range candidates {
		if !strings.HasPrefix(c, "{") {
			continue
		}
		var call toolCall
		if err := json.Unmarshal([]byte(c), &call); err != nil {
			continue
		}
		if call.Tool != "" {
			return &call, true
		}
	}
	return nil, false
}

// fencedBlocks returns the contents of every ``` fenced block, with the
// opening language tag dropped.
func fencedBlocks(s string) []string {
	var blocks []string
	for {
		start := strings.Index(s, "```")
		if start < 0 {
			break
		}
		rest := s[start+3:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}
		blocks = append(blocks, strings.TrimSpace(rest[:end]))
		s = rest[end+3:]
	}
	return blocks
}

// renderToolResult turns a dispatch outcome into the next prompt.
// Failures are reported as data the model can react to, matching the
// dispatch contract.
func renderToolResult(name string, res *tool.Result) string {
	if res.Failed() {
		return fmt.Sprintf("Tool %s failed (%s): %s", name, res.Err.Kind, res.Err.Message)
	}
	content := res.Content
	if content == "" {
		content = "(no output)"
	}
	return fmt.Sprintf("Tool %s result:\n%s", name, content)
}

// joinPrompts concatenates two prompt sections, skipping empties.
func joinPrompts(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "\n\n" + b
}

// resolveModel maps human-friendly model shortnames to Claude CLI
// --model flag values.
func resolveModel(model string) string {
	switch model {
	case "claude-sonnet":
		return "sonnet"
	case "claude-haiku":
		return "haiku"
	case "claude-opus":
		return "opus"
	default:
		return model
	}
}

// filterEnv returns a copy of env with the given key removed.
func filterEnv(env []string, key string) []string {
	prefix := key + "="
	result := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			result = append(result, e)
		}
	}
	return result
}
