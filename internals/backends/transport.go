package backends

import (
	"encoding/json"
	"net/http"
	"strings"
)

const maxErrBody = 512

// retryableStatus reports whether a provider response is worth retrying.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// errorMessage extracts the provider's error message from a non-200 body,
// falling back to the (truncated) raw body.
func errorMessage(data []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrBody {
		s = s[:maxErrBody] + "..."
	}
	return s
}
