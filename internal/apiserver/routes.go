package apiserver

// registerRoutes wires every API endpoint to its handler.
func (s *Server) registerRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	// Tasks
	api.HandleFunc("/tasks", s.handleListTasks).Methods("GET")
	api.HandleFunc("/tasks/{id}", s.handleGetTask).Methods("GET")

	// Tools
	api.HandleFunc("/tools", s.handleListTools).Methods("GET")

	// History - ?limit=N caps the number of records returned
	api.HandleFunc("/history", s.handleHistory).Methods("GET")
}
