package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TokenRollAI/minicc/internal/config"
	"github.com/TokenRollAI/minicc/internal/history"
	"github.com/TokenRollAI/minicc/internal/task"
	"github.com/TokenRollAI/minicc/internal/tool"
)

// Orchestrator owns the tool-call loop for a single conversation. The
// parent session and every spawned sub-agent get their own Orchestrator
// instance; all instances share the workspace, the tool set, the task
// registry, and the history recorder.
type Orchestrator struct {
	ws       *tool.Workspace
	tools    *tool.Registry
	tasks    *task.Registry
	driver   Driver
	recorder history.Recorder
	cfg      *config.Config
	logger   *zap.Logger

	// taskID is the sub-agent task this orchestrator serves; empty for
	// the parent conversation.
	taskID string

	// slots bounds how many sub-agent conversations run at once. Shared
	// by parent and children so nesting cannot exceed the limit.
	slots chan struct{}

	// wg tracks spawned sub-agent goroutines for Drain.
	wg *sync.WaitGroup
}

// New creates the parent orchestrator for a session. The working
// directory is resolved once here and never re-resolved per call.
func New(workDir string, reg *task.Registry, driver Driver, recorder history.Recorder, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	ws := tool.NewWorkspace(workDir)

	o := &Orchestrator{
		ws:       ws,
		tasks:    reg,
		driver:   driver,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		slots:    make(chan struct{}, cfg.Agent.MaxSubAgents),
		wg:       &sync.WaitGroup{},
	}

	o.tools = tool.NewRegistry(logger,
		tool.NewReadFile(ws),
		tool.NewWriteFile(ws),
		tool.NewUpdateFile(ws),
		tool.NewSearchFiles(ws),
		tool.NewGrep(ws),
		tool.NewBash(ws),
	)
	o.tools.Register(&SpawnAgent{o: o})
	o.tools.Register(&WaitSubAgents{o: o})
	o.tools.Register(&GetAgentResult{o: o})

	return o
}

// child creates the orchestrator for a spawned sub-agent conversation.
// It shares every component of the parent; only the task identity
// differs.
func (o *Orchestrator) child(taskID string) *Orchestrator {
	c := *o
	c.taskID = taskID
	return &c
}

// Definitions returns the tool definitions to advertise to the model.
func (o *Orchestrator) Definitions() []tool.Definition {
	return o.tools.Definitions()
}

// Tasks exposes the shared task registry for read-only observers
// (status API, TUI monitor).
func (o *Orchestrator) Tasks() *task.Registry {
	return o.tasks
}

// Dispatch executes one tool call and records it to the audit log.
// It never returns an error: every failure mode is represented in the
// result so the driving conversation can observe and react to it.
func (o *Orchestrator) Dispatch(ctx context.Context, req tool.Request) *tool.Result {
	start := time.Now()
	res := o.tools.Dispatch(ctx, req)

	rec := &history.Record{
		Time:     start,
		TaskID:   o.taskID,
		Tool:     req.Name,
		Args:     req.Args,
		OK:       !res.Failed(),
		Duration: time.Since(start),
	}
	if res.Failed() {
		rec.ErrorKind = string(res.Err.Kind)
	}
	if err := o.recorder.Append(rec); err != nil {
		o.logger.Warn("failed to record tool execution", zap.Error(err))
	}

	return res
}

// RunParent executes the parent conversation for the session and
// returns its final output.
func (o *Orchestrator) RunParent(ctx context.Context, prompt string) (*ConversationResult, error) {
	return o.driver.RunConversation(ctx, ConversationRequest{
		Model:        o.cfg.Agent.DefaultModel,
		SystemPrompt: o.cfg.Agent.SystemPrompt,
		Prompt:       prompt,
		MaxTokens:    o.cfg.Agent.DefaultMaxTokens,
		Tools:        o.Definitions(),
		Dispatch:     o.Dispatch,
	})
}

// Spawn allocates a task, inserts it as Pending, and starts its
// conversation asynchronously. It returns the task identifier
// immediately and never blocks on completion.
func (o *Orchestrator) Spawn(description, contextStr string) (string, error) {
	id := o.tasks.NewID()
	t, err := o.tasks.Add(id, description, contextStr)
	if err != nil {
		return "", fmt.Errorf("registering task: %w", err)
	}

	o.logger.Info("spawning sub-agent",
		zap.String("task", id),
		zap.String("description", truncate(description, 80)),
	)

	o.wg.Add(1)
	go o.runTask(t)

	return id, nil
}

// runTask drives one sub-agent conversation from Pending to a terminal
// phase. Failures are contained here: they mark the task Failed and
// never propagate into the parent.
func (o *Orchestrator) runTask(t *task.AgentTask) {
	defer o.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("sub-agent panicked",
				zap.String("task", t.ID),
				zap.Any("panic", r),
			)
			if err := o.tasks.MarkFailed(t.ID, fmt.Sprintf("internal error: %v", r)); err != nil {
				o.logger.Warn("failed to mark task failed", zap.String("task", t.ID), zap.Error(err))
			}
		}
	}()

	// Wait for a concurrency slot; the task stays Pending while the
	// limit is saturated.
	o.slots <- struct{}{}
	defer func() { <-o.slots }()

	if err := o.tasks.MarkRunning(t.ID); err != nil {
		o.logger.Warn("failed to mark task running", zap.String("task", t.ID), zap.Error(err))
		return
	}

	// Sub-agents run on their own context: once spawned, a parent
	// cannot abort a child, only decline to wait for it.
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(o.cfg.Agent.DefaultTimeout)*time.Second)
	defer cancel()

	child := o.child(t.ID)
	result, err := child.driver.RunConversation(ctx, ConversationRequest{
		Model:        o.cfg.Agent.DefaultModel,
		SystemPrompt: o.cfg.Agent.SystemPrompt,
		Prompt:       t.Prompt(),
		MaxTokens:    o.cfg.Agent.DefaultMaxTokens,
		Tools:        child.Definitions(),
		Dispatch:     child.Dispatch,
	})

	if err != nil {
		o.logger.Error("sub-agent failed",
			zap.String("task", t.ID),
			zap.Error(err),
		)
		if markErr := o.tasks.MarkFailed(t.ID, err.Error()); markErr != nil {
			o.logger.Warn("failed to mark task failed", zap.String("task", t.ID), zap.Error(markErr))
		}
		return
	}

	o.logger.Info("sub-agent completed",
		zap.String("task", t.ID),
		zap.Int("tokensIn", result.TokensIn),
		zap.Int("tokensOut", result.TokensOut),
	)
	if markErr := o.tasks.MarkCompleted(t.ID, result.Output); markErr != nil {
		o.logger.Warn("failed to mark task completed", zap.String("task", t.ID), zap.Error(markErr))
	}
}

// Drain waits until every spawned sub-agent goroutine has finished or
// ctx is cancelled. Used at session end so late results are not lost.
func (o *Orchestrator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
