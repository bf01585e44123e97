package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common sentinel errors.
var (
	ErrNotFound          = fmt.Errorf("task not found")
	ErrAlreadyExists     = fmt.Errorf("task already exists")
	ErrTerminal          = fmt.Errorf("task already terminal")
	ErrInvalidTransition = fmt.Errorf("invalid phase transition")
)

// watcher is an internal subscription to registry mutations.
type watcher struct {
	ch chan Event
}

// Registry is the session-wide task table. It is shared by the parent
// orchestrator and every spawned sub-agent, so all access is guarded by
// a single mutex. Tasks are never removed; the registry lives for the
// duration of the interactive session.
type Registry struct {
	mu       sync.RWMutex
	tasks    map[string]*AgentTask
	watchers []*watcher
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*AgentTask),
	}
}

// NewID allocates a task identifier that is unique for the registry's
// lifetime. IDs are the first 8 hex chars of a v4 UUID, retried on the
// (unlikely) collision with an existing entry.
func (r *Registry) NewID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if _, exists := r.tasks[id]; !exists {
			return id
		}
	}
}

// Add inserts a new task in Pending phase.
// Returns ErrAlreadyExists if the ID is already taken.
func (r *Registry) Add(id, description, contextStr string) (*AgentTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; exists {
		return nil, ErrAlreadyExists
	}

	t := &AgentTask{
		ID:          id,
		Description: description,
		Context:     contextStr,
		Phase:       Pending,
		CreatedAt:   time.Now(),
	}
	r.tasks[id] = t

	r.notify(Event{ID: id, Phase: Pending})
	return t.clone(), nil
}

// Get returns a copy of the task. Returns ErrNotFound for unknown IDs.
func (r *Registry) Get(id string) (*AgentTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.clone(), nil
}

// MarkRunning transitions a Pending task to Running.
func (r *Registry) MarkRunning(id string) error {
	return r.transition(id, Running, func(t *AgentTask) {
		t.StartedAt = time.Now()
	})
}

// MarkCompleted transitions a task to Completed and records its result.
func (r *Registry) MarkCompleted(id, result string) error {
	return r.transition(id, Completed, func(t *AgentTask) {
		t.Result = result
		t.FinishedAt = time.Now()
	})
}

// MarkFailed transitions a task to Failed and records the error message.
func (r *Registry) MarkFailed(id, errMsg string) error {
	return r.transition(id, Failed, func(t *AgentTask) {
		t.Error = errMsg
		t.FinishedAt = time.Now()
	})
}

// allowedTransition encodes the task lifecycle. A task runs before it
// completes; failure may also strike while it is still queued (panic
// recovery, a MarkRunning that lost to an earlier failure).
func allowedTransition(from, to Phase) bool {
	switch to {
	case Running:
		return from == Pending
	case Completed:
		return from == Running
	case Failed:
		return from == Pending || from == Running
	default:
		return false
	}
}

// transition applies a phase change under the write lock. Terminal tasks
// are immutable; violating transitions return ErrTerminal, and skipped
// lifecycle steps return ErrInvalidTransition.
func (r *Registry) transition(id string, phase Phase, mutate func(*AgentTask)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if t.Phase.Terminal() {
		return ErrTerminal
	}
	if !allowedTransition(t.Phase, phase) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Phase, phase)
	}

	t.Phase = phase
	mutate(t)

	r.notify(Event{ID: id, Phase: phase})
	return nil
}

// List returns copies of every task, ordered by creation time.
func (r *Registry) List() []*AgentTask {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*AgentTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Active returns the IDs of every non-terminal task.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, t := range r.tasks {
		if !t.Phase.Terminal() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Watch returns a channel that emits an Event for every task mutation.
// The returned cancel function removes the watcher and closes the channel.
func (r *Registry) Watch() (<-chan Event, func()) {
	w := &watcher{ch: make(chan Event, 64)}

	r.mu.Lock()
	r.watchers = append(r.watchers, w)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, existing := range r.watchers {
			if existing == w {
				r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
				close(w.ch)
				return
			}
		}
	}

	return w.ch, cancel
}

// WaitAll blocks until every targeted task is terminal, the timeout
// elapses, or ctx is cancelled. Empty ids targets every task that is
// non-terminal at call time. It returns the IDs still non-terminal when
// waiting stopped; an empty slice means all targets finished.
// Unknown IDs in an explicit list return ErrNotFound.
func (r *Registry) WaitAll(ctx context.Context, ids []string, timeout time.Duration) ([]string, error) {
	// Subscribe before the initial snapshot so no transition is missed.
	events, cancel := r.Watch()
	defer cancel()

	if len(ids) == 0 {
		ids = r.Active()
	} else {
		r.mu.RLock()
		var missing []string
		for _, id := range ids {
			if _, ok := r.tasks[id]; !ok {
				missing = append(missing, id)
			}
		}
		r.mu.RUnlock()
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ", "))
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Watcher channels drop events under pressure, so a slow poll backs
	// up the event-driven wakeups.
	poll := time.NewTicker(100 * time.Millisecond)
	defer poll.Stop()

	for {
		if pending := r.pendingOf(ids); len(pending) == 0 {
			return nil, nil
		}

		select {
		case <-events:
		case <-poll.C:
		case <-timer.C:
			return r.pendingOf(ids), nil
		case <-ctx.Done():
			return r.pendingOf(ids), ctx.Err()
		}
	}
}

// pendingOf returns the subset of ids whose task is still non-terminal.
func (r *Registry) pendingOf(ids []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []string
	for _, id := range ids {
		if t, ok := r.tasks[id]; ok && !t.Phase.Terminal() {
			pending = append(pending, id)
		}
	}
	return pending
}

// notify sends the event to every watcher. Must be called with r.mu held.
func (r *Registry) notify(evt Event) {
	for _, w := range r.watchers {
		select {
		case w.ch <- evt:
		default:
			// Drop event if the watcher is not consuming fast enough.
		}
	}
}

func (t *AgentTask) clone() *AgentTask {
	c := *t
	return &c
}
