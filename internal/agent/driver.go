// Package agent implements the tool-call orchestrator and the sub-agent
// lifecycle: spawning independent conversations, tracking them in the
// shared task registry, and collecting their results.
package agent

import (
	"context"

	"github.com/TokenRollAI/minicc/internal/tool"
)

// ConversationRequest describes one model conversation to run to
// completion.
type ConversationRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Tools        []tool.Definition

	// Dispatch executes one tool call on behalf of the conversation.
	// Filled by the owning orchestrator; a nil handle disables tool use
	// for the conversation.
	Dispatch func(ctx context.Context, req tool.Request) *tool.Result
}

// ConversationResult holds the final output of a completed conversation.
type ConversationResult struct {
	Output    string
	TokensIn  int
	TokensOut int
	CostUSD   float64
}

// Driver runs a model conversation to completion, yielding a final
// result or an error. The orchestrator calls this once per spawned
// sub-agent and is itself invoked by such a driver for the parent.
type Driver interface {
	RunConversation(ctx context.Context, req ConversationRequest) (*ConversationResult, error)
}
