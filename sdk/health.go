package sdk

import (
	"context"
	"net/http"
	"time"

	"github.com/cogniolab/hybrid/internals/timeouts"
)

const (
	DefaultPingTimeout = timeouts.Probe
	startPollInterval  = 250 * time.Millisecond
	startAttempts      = 10
)

// InfoLogger is the slice of slog the wait helper needs.
type InfoLogger interface {
	Info(msg string, args ...any)
}

// IsRunning reports whether a daemon answers on baseURL.
func IsRunning(baseURL string) bool {
	return IsRunningWithTimeout(baseURL, DefaultPingTimeout)
}

// IsRunningWithTimeout probes GET /health with a throwaway client so the
// probe budget never inherits a caller's transport settings. A daemon that
// answers but reports an unhealthy status counts as not running.
func IsRunningWithTimeout(baseURL string, timeout time.Duration) bool {
	if baseURL == "" {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client := NewClient(
		WithBaseURL(baseURL),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	health, err := client.Health(ctx)
	return err == nil && health.Status == "ok"
}

// WaitForStart polls until a freshly spawned daemon answers, backing off
// linearly between attempts. Returns false when the attempt budget runs out.
func WaitForStart(baseURL string, logger InfoLogger) bool {
	for i := range startAttempts {
		if IsRunning(baseURL) {
			return true
		}
		if logger != nil {
			logger.Info("waiting for hybridd", "attempt", i+1)
		}
		time.Sleep(time.Duration(i+1) * startPollInterval)
	}
	return false
}
