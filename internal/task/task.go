// Package task defines sub-agent tasks and the session-wide registry
// that tracks them.
package task

import "time"

// Phase represents the lifecycle phase of an AgentTask.
type Phase string

const (
	Pending   Phase = "Pending"
	Running   Phase = "Running"
	Completed Phase = "Completed"
	Failed    Phase = "Failed"
)

// Terminal reports whether the phase is final. Terminal tasks never
// transition again.
func (p Phase) Terminal() bool {
	return p == Completed || p == Failed
}

// AgentTask represents one spawned sub-agent run.
type AgentTask struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Context     string    `json:"context,omitempty"`
	Phase       Phase     `json:"phase"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

// Prompt builds the seed prompt for the sub-agent conversation,
// prepending the optional caller-supplied context.
func (t *AgentTask) Prompt() string {
	if t.Context == "" {
		return t.Description
	}
	return t.Context + "\n\nTask: " + t.Description
}

// Event is emitted to registry watchers on every task mutation.
type Event struct {
	ID    string
	Phase Phase
}
