package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TokenRollAI/minicc/internal/task"
	"github.com/TokenRollAI/minicc/internal/tool"
)

// defaultWaitTimeout bounds wait_sub_agents when the caller does not
// override it.
const defaultWaitTimeout = 300 * time.Second

// SpawnAgent creates an independent sub-agent conversation and returns
// its task identifier without blocking on completion.
type SpawnAgent struct {
	o *Orchestrator
}

func (t *SpawnAgent) Name() string { return "spawn_agent" }

func (t *SpawnAgent) Definition() tool.Definition {
	return tool.Definition{
		Name:        t.Name(),
		Description: "Spawn a sub-agent to work on a task concurrently. Returns a task id immediately; use wait_sub_agents and get_agent_result to collect the outcome.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task": map[string]any{
					"type":        "string",
					"description": "Natural-language description of the task",
				},
				"context": map[string]any{
					"type":        "string",
					"description": "Optional extra context for the sub-agent",
				},
			},
			"required": []string{"task"},
		},
	}
}

func (t *SpawnAgent) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	description, argErr := tool.StringArg(args, "task")
	if argErr != nil {
		return nil, argErr
	}
	contextStr, argErr := tool.OptStringArg(args, "context", "")
	if argErr != nil {
		return nil, argErr
	}

	id, err := t.o.Spawn(description, contextStr)
	if err != nil {
		return nil, tool.Errorf(tool.KindExecFailure, "spawning sub-agent: %v", err)
	}

	return &tool.Result{
		Content: fmt.Sprintf("Spawned sub-agent [%s]: %s", id, truncate(description, 50)),
		Data: map[string]any{
			"task_id": id,
		},
	}, nil
}

// WaitSubAgents blocks the calling conversation until the targeted
// sub-agents reach a terminal phase or a timeout elapses. Partial
// completion is a normal, reportable outcome, not a failure.
type WaitSubAgents struct {
	o *Orchestrator
}

func (t *WaitSubAgents) Name() string { return "wait_sub_agents" }

func (t *WaitSubAgents) Definition() tool.Definition {
	return tool.Definition{
		Name:        t.Name(),
		Description: "Wait until sub-agents finish. With no task_ids, waits for every unfinished sub-agent. Returns the ids still unfinished when the timeout fires.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Task ids to wait for (default: all unfinished)",
				},
				"timeout": map[string]any{
					"type":        "number",
					"description": "Maximum seconds to wait (default 300)",
				},
			},
		},
	}
}

func (t *WaitSubAgents) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	ids, argErr := tool.OptStringSliceArg(args, "task_ids")
	if argErr != nil {
		return nil, argErr
	}
	timeoutSec, argErr := tool.OptIntArg(args, "timeout", 0)
	if argErr != nil {
		return nil, argErr
	}

	timeout := defaultWaitTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}

	targets := ids
	if len(targets) == 0 {
		targets = t.o.tasks.Active()
	}

	pending, err := t.o.tasks.WaitAll(ctx, ids, timeout)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return nil, tool.Errorf(tool.KindNotFound, "%v", err)
		}
		return nil, tool.Errorf(tool.KindExecFailure, "waiting for sub-agents: %v", err)
	}

	summary := t.summarize(targets)
	status := "All sub-agents finished."
	if len(pending) > 0 {
		status = fmt.Sprintf("%d sub-agents still unfinished after %s.", len(pending), timeout)
	}

	content := status
	if summary != "" {
		content += "\n" + summary
	}

	if pending == nil {
		pending = []string{}
	}
	return &tool.Result{
		Content: content,
		Data: map[string]any{
			"pending": pending,
		},
	}, nil
}

// summarize renders a one-line status per targeted task.
func (t *WaitSubAgents) summarize(ids []string) string {
	var lines []string
	for _, id := range ids {
		agentTask, err := t.o.tasks.Get(id)
		if err != nil {
			lines = append(lines, fmt.Sprintf("[%s] unknown", id))
			continue
		}
		line := fmt.Sprintf("[%s] %s", id, agentTask.Phase)
		switch {
		case agentTask.Result != "":
			line += " | result: " + truncate(agentTask.Result, 200)
		case agentTask.Error != "":
			line += " | error: " + truncate(agentTask.Error, 200)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// GetAgentResult reports a task's phase and, when terminal, its result
// or error. Callable at any time, including while the task is still
// pending or running.
type GetAgentResult struct {
	o *Orchestrator
}

func (t *GetAgentResult) Name() string { return "get_agent_result" }

func (t *GetAgentResult) Definition() tool.Definition {
	return tool.Definition{
		Name:        t.Name(),
		Description: "Get the status of a spawned sub-agent and, once finished, its result or error.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{
					"type":        "string",
					"description": "Task id returned by spawn_agent",
				},
			},
			"required": []string{"task_id"},
		},
	}
}

func (t *GetAgentResult) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	id, argErr := tool.StringArg(args, "task_id")
	if argErr != nil {
		return nil, argErr
	}

	agentTask, err := t.o.tasks.Get(id)
	if err != nil {
		return nil, tool.Errorf(tool.KindNotFound, "unknown task: %s", id)
	}

	data := map[string]any{
		"task_id": agentTask.ID,
		"status":  string(agentTask.Phase),
	}

	var content string
	switch agentTask.Phase {
	case task.Pending:
		content = fmt.Sprintf("Task [%s] is pending.", id)
	case task.Running:
		content = fmt.Sprintf("Task [%s] is running.", id)
	case task.Completed:
		data["result"] = agentTask.Result
		content = fmt.Sprintf("Task [%s] completed:\n%s", id, agentTask.Result)
	case task.Failed:
		data["error"] = agentTask.Error
		content = fmt.Sprintf("Task [%s] failed: %s", id, agentTask.Error)
	}

	return &tool.Result{Content: content, Data: data}, nil
}
