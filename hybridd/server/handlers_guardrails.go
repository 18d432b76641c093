package server

import (
	"encoding/json"
	"net/http"

	"github.com/cogniolab/hybrid/internals/schemas"

	z "github.com/Oudwins/zog"
)

func (s *Server) HandlerListGuardrails(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, schemas.GuardrailListResponse{Guardrails: s.Platform.Guardrails()})
}

func (s *Server) HandlerRegisterGuardrail(w http.ResponseWriter, r *http.Request) {
	var request schemas.GuardrailRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), WithStatus(http.StatusBadRequest))
		return
	}

	if issues := schemas.GuardrailSchema.Validate(&request); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, WithStatus(http.StatusBadRequest))
		return
	}

	g, err := request.Guardrail()
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, err.Error(), nil), WithStatus(http.StatusBadRequest))
		return
	}

	if err := s.Platform.Register(g); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, err.Error(), nil), WithStatus(http.StatusBadRequest))
		return
	}

	RenderJSON(w, r, g.Info(), WithStatus(http.StatusCreated))
}
