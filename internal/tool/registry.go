package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Registry maps tool names to implementations. The set is fixed at
// construction time; tools themselves are stateless and shared safely
// by concurrent conversations.
type Registry struct {
	tools  map[string]Tool
	logger *zap.Logger
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(logger *zap.Logger, tools ...Tool) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool, len(tools)),
		logger: logger,
	}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Register adds a tool. Panics on duplicate names, which indicates a
// wiring bug rather than a runtime condition.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; exists {
		panic(fmt.Sprintf("tool registered twice: %s", t.Name()))
	}
	r.tools[t.Name()] = t
}

// Definitions returns every tool definition, sorted by name.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Dispatch routes a tool-call request to its implementation and returns
// the outcome. This is the single boundary that converts every failure
// into a structured Result: unknown names, argument errors, and tool
// failures all come back as data, never as a raised error.
func (r *Registry) Dispatch(ctx context.Context, req Request) *Result {
	start := time.Now()

	t, ok := r.tools[req.Name]
	if !ok {
		r.logger.Warn("unknown tool requested", zap.String("tool", req.Name))
		return &Result{Err: Errorf(KindUnknownTool, "unknown tool: %s", req.Name)}
	}

	res, err := t.Execute(ctx, req.Args)
	if err != nil {
		var toolErr *Error
		if !errors.As(err, &toolErr) {
			// Anything a tool did not classify itself is an
			// execution-environment failure.
			toolErr = Errorf(KindExecFailure, "%v", err)
		}
		r.logger.Debug("tool failed",
			zap.String("tool", req.Name),
			zap.String("kind", string(toolErr.Kind)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return &Result{Err: toolErr}
	}

	if res == nil {
		res = &Result{}
	}

	r.logger.Debug("tool completed",
		zap.String("tool", req.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}
