package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Get("/health", s.HandlerHealth)
	r.Get("/version", s.HandlerVersion)
	r.Post("/shutdown", s.HandlerShutdown)
	r.Post("/tasks", s.HandlerSubmitTask)
	r.Get("/tasks", s.HandlerHistory)
	r.Get("/tasks/{id}", s.HandlerTaskStatus)
	r.Get("/guardrails", s.HandlerListGuardrails)
	r.Post("/guardrails", s.HandlerRegisterGuardrail)
	r.Get("/backends", s.HandlerListBackends)
	return r
}
