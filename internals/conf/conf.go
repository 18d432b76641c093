package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	z "github.com/Oudwins/zog"

	"github.com/cogniolab/hybrid/internals/version"
)

type Config struct {
	Version  string         `json:"-"`
	Server   ServerConfig   `json:"server"`
	Agents   AgentsConfig   `json:"agents"`
	Platform PlatformConfig `json:"platform"`
	Tracing  TracingConfig  `json:"tracing"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir"`
}

type PlatformConfig struct {
	MaxRetries     int  `json:"max_retries"`
	TimeoutSeconds int  `json:"timeout_seconds"`
	AuditLogging   bool `json:"audit_logging"`
}

type TracingConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.local/share/hybrid").Transform(expandPathTransform),
})

var platformSchema = z.Struct(z.Shape{
	"MaxRetries":     z.Int().Default(3),
	"TimeoutSeconds": z.Int().Default(300),
	"AuditLogging":   z.Bool().Default(false),
})

var tracingSchema = z.Struct(z.Shape{
	"Enabled":  z.Bool().Default(false),
	"Endpoint": z.String().Default("localhost:4318"),
})

var ConfigSchema = z.Struct(z.Shape{
	"server":   serverSchema,
	"agents":   AgentsSchema,
	"platform": platformSchema,
	"tracing":  tracingSchema,
})

var config *Config

func GetConfig() *Config {
	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Hybrid] Failed to parse config", err)
		}
		defaults.Version = version.Version()

		dataDir, err := expandPath(defaults.Server.DataDir)
		if err != nil {
			log.Fatal("[Hybrid] Failed to expand config data dir", err)
		}

		configPath := filepath.Join(filepath.Clean(dataDir), "hybrid.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[Hybrid] Failed to read config file", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[Hybrid] Failed to parse config file", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Hybrid] Failed to parse config", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
