package schemas

import "github.com/cogniolab/hybrid/internals/backends"

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// BackendListResponse is the GET /backends body.
type BackendListResponse struct {
	Backends []backends.ID `json:"backends"`
}
