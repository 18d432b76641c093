// Package server is the HTTP face of the platform daemon. It wires the
// orchestrator from configuration and exposes task submission, history,
// and guardrail management.
package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cogniolab/hybrid/hybridd/baseserver"
	"github.com/cogniolab/hybrid/internals/backends"
	"github.com/cogniolab/hybrid/internals/logbuf"
	"github.com/cogniolab/hybrid/internals/orchestrator"
	"github.com/cogniolab/hybrid/internals/timeouts"
)

type Server struct {
	Base       *baseserver.BaseServer
	Logbuf     *logbuf.Logger
	Platform   *orchestrator.Platform
	httpServer *http.Server
}

func New() *Server {
	base := baseserver.New()

	store, err := backends.NewFromConfig(base.Config.Agents, base.Config.Platform, base.Env, base.Logger)
	if err != nil {
		log.Fatal("[Hybrid] Failed to initialize backends: " + err.Error())
	}

	platform := orchestrator.New(store,
		orchestrator.WithLogger(base.Logger),
		orchestrator.WithConfig(orchestrator.Config{
			DefaultTimeout: time.Duration(base.Config.Platform.TimeoutSeconds) * time.Second,
			AuditLogging:   base.Config.Platform.AuditLogging,
		}),
	)

	if base.Config.Tracing.Enabled {
		if err := platform.EnableTracing(context.Background(), base.Config.Tracing.Endpoint); err != nil {
			base.Logger.Error("failed to enable tracing", "error", err, "endpoint", base.Config.Tracing.Endpoint)
		}
	}

	buffer := logbuf.New(
		slog.String("version", base.Config.Version),
		slog.Int("port", base.Env.PORT),
	)

	return &Server{
		Base:     base,
		Logbuf:   buffer,
		Platform: platform,
	}
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Base.Env.LISTEN_ADDR)
	if err != nil {
		return err
	}
	s.Base.Logger.Info("listening", "addr", listener.Addr().String())
	server := &http.Server{
		Handler: s.Router(),
	}
	s.httpServer = server
	err = server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if s.httpServer == nil {
			s.Base.Logger.Error("shutdown failed", "error", errors.New("server not initialized"))
			return
		}
		if err := s.Platform.ShutdownTracing(ctx); err != nil {
			s.Base.Logger.Error("tracing shutdown failed", "error", err)
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Base.Logger.Error("shutdown failed", "error", err)
		}
		s.Base.Close()
	}()
}
