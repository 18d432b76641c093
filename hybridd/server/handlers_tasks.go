package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cogniolab/hybrid/internals/logbuf"
	"github.com/cogniolab/hybrid/internals/orchestrator"
	"github.com/cogniolab/hybrid/internals/schemas"

	z "github.com/Oudwins/zog"
)

// HandlerSubmitTask runs a task through the platform synchronously. A
// guardrail denial is a 200 with status=blocked; only transport, validation,
// and backend failures map to error statuses.
func (s *Server) HandlerSubmitTask(w http.ResponseWriter, r *http.Request) {
	logger := logbuf.FromContext(r.Context())

	var request schemas.TaskSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), WithStatus(http.StatusBadRequest))
		return
	}

	if issues := schemas.TaskSubmitSchema.Validate(&request); len(issues) > 0 {
		if logger != nil {
			logger.Warn("task rejected by schema")
		}
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, WithStatus(http.StatusBadRequest))
		return
	}

	tk, err := request.Task()
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, err.Error(), nil), WithStatus(http.StatusBadRequest))
		return
	}

	result, err := s.Platform.Run(r.Context(), tk)
	if err != nil {
		if logger != nil {
			logger.Error("task failed", slog.String("task_id", tk.ID), slog.String("error", err.Error()))
		}
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeBackendFailed, err.Error(), nil), WithStatus(http.StatusBadGateway))
		return
	}

	if logger != nil {
		if result.Status == orchestrator.RunBlocked {
			logger.Warn("task blocked", slog.String("task_id", result.TaskID), slog.String("guardrail", result.Guardrail))
		} else {
			logger.Info("task completed", slog.String("task_id", result.TaskID), slog.String("platform", result.Backend.String()))
		}
	}

	RenderJSON(w, r, result)
}

func (s *Server) HandlerHistory(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, schemas.HistoryResponse{Tasks: s.Platform.History()})
}

func (s *Server) HandlerTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "task id is required", nil), WithStatus(http.StatusBadRequest))
		return
	}

	snap, ok := s.Platform.FindTask(taskID)
	if !ok {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeNotFound, "task not found", nil), WithStatus(http.StatusNotFound))
		return
	}

	RenderJSON(w, r, snap)
}

func (s *Server) HandlerListBackends(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, schemas.BackendListResponse{Backends: s.Platform.Backends()})
}
