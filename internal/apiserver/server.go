// Package apiserver exposes a read-only HTTP view of a running minicc
// session: its tasks, tool definitions, and execution history.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/TokenRollAI/minicc/internal/history"
	"github.com/TokenRollAI/minicc/internal/task"
	"github.com/TokenRollAI/minicc/internal/tool"
)

// Server is the session status API server. It only observes; all
// mutation happens through the orchestrator's tool loop.
type Server struct {
	router   *mux.Router
	tasks    *task.Registry
	tools    []tool.Definition
	recorder history.Recorder
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a fully-wired Server ready to Start().
func NewServer(addr string, tasks *task.Registry, tools []tool.Definition, recorder history.Recorder, logger *zap.Logger) *Server {
	srv := &Server{
		router:   mux.NewRouter(),
		tasks:    tasks,
		tools:    tools,
		recorder: recorder,
		logger:   logger,
	}
	srv.server = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	srv.registerRoutes()
	return srv
}

// Start begins listening and serving HTTP requests. It blocks until the
// server is shut down or encounters a fatal error.
func (s *Server) Start() error {
	s.logger.Info("status API starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
