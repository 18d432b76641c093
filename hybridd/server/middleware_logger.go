package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/cogniolab/hybrid/internals/logbuf"
)

// MiddlewareLogger buffers per-request records and flushes them as a single
// grouped entry when the request finishes, so concurrent submissions do not
// interleave in the daemon log. The request id is echoed in the response
// header; callers correlate a submission with its log group through it.
func (s *Server) MiddlewareLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		logger := s.Logbuf.With(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		ctx := logbuf.WithContext(r.Context(), logger)
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		defer func() {
			recovered := recover()
			if recovered != nil {
				logger.Error("panic", slog.Any("error", recovered), slog.String("stack", string(debug.Stack())))
				if recorder.status == 0 {
					recorder.WriteHeader(http.StatusInternalServerError)
				}
			}

			logger.Add(slog.Int("status", recorder.statusOrOK()))
			logger.Add(slog.Duration("duration", time.Since(start)))

			group := logger.Flush()
			if recovered != nil || recorder.statusOrOK() >= http.StatusInternalServerError {
				s.Base.Logger.Error("request", group)
				return
			}
			s.Base.Logger.Info("request", group)
		}()

		next.ServeHTTP(recorder, r.WithContext(ctx))
	})
}

// statusRecorder remembers the status a handler wrote. Implicit 200s (body
// written without WriteHeader) are recorded too.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

func (r *statusRecorder) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
