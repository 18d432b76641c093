// Package baseserver carries the daemon-wide collaborators: resolved config,
// environment, and the logger every component writes through.
package baseserver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"

	"github.com/cogniolab/hybrid/internals/assert"
	"github.com/cogniolab/hybrid/internals/conf"
	"github.com/cogniolab/hybrid/internals/env"
)

type BaseServer struct {
	Config  *conf.Config
	Env     *env.EnvStruct
	Logger  *slog.Logger
	logFile *os.File
}

func New() *BaseServer {
	environ := env.Get()
	config := conf.GetConfig()

	dataDir := filepath.Clean(config.Server.DataDir)
	config.Server.DataDir = dataDir

	logger, logFile := initLogger(dataDir)

	return &BaseServer{
		Config:  config,
		Env:     environ,
		Logger:  logger,
		logFile: logFile,
	}
}

// initLogger writes colorized records to stdout and a plain copy under the
// data dir, so the daemon log survives the terminal it was started from.
func initLogger(dataDir string) (*slog.Logger, *os.File) {
	logPath := filepath.Join(dataDir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.Nil(err, "[SERVER] failed to create log directory %s", filepath.Dir(logPath))
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.Nil(err, "[SERVER] failed to open log file %s", logPath)

	handler := tint.NewHandler(io.MultiWriter(os.Stdout, logFile), &tint.Options{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, logFile
}

func (b *BaseServer) Close() {
	if b.logFile != nil {
		_ = b.logFile.Close()
	}
}
