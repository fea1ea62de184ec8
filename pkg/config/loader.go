package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cosiris15/contract-review/pkg/graph"
)

// fileYAMLConfig mirrors the on-disk config.yaml shape; every field is a
// pointer or zero-value-omittable so a partial file only overrides what it
// sets, leaving Default()'s values in place for the rest.
type fileYAMLConfig struct {
	Mode      string           `yaml:"mode,omitempty"`
	React     *ReactConfig     `yaml:"react,omitempty"`
	Retention *RetentionConfig `yaml:"retention,omitempty"`
	Server    *ServerConfig    `yaml:"server,omitempty"`
	Database  *DatabaseConfig  `yaml:"database,omitempty"`
	LLM       *LLMConfig       `yaml:"llm,omitempty"`
}

// Initialize loads config.yaml from configDir (if present), expands
// ${VAR}/$VAR references against the process environment (loading a .env
// file from the working directory first via godotenv for local dev), layers
// it over Default(), and validates the result.
//
// Steps:
//  1. godotenv.Load() (./.env) — best-effort, ignored if absent
//  2. read configDir/config.yaml — optional; without it Default() is used
//     as is, which fails validation because database.dsn has no default
//  3. ExpandEnv the raw bytes
//  4. yaml.Unmarshal into fileYAMLConfig
//  5. overlay onto Default()
//  6. validate
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	_ = godotenv.Load()

	cfg := Default()
	cfg.configDir = configDir

	path := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		data = ExpandEnv(data)
		var fileCfg fileYAMLConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
		}
		applyOverrides(cfg, &fileCfg)
	case os.IsNotExist(err):
		log.Info("no config.yaml found, using built-in defaults", "path", path)
	default:
		return nil, NewLoadError(path, err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	log.Info("configuration initialized", "mode", cfg.Mode, "server_addr", cfg.Server.Addr)
	return cfg, nil
}

// applyOverrides copies every non-zero field of fileCfg onto cfg, leaving
// Default()'s values wherever the file was silent — the same "user
// overrides built-in, unset fields fall through" rule applied by
// per-component merge helpers, collapsed into one pass since
// this Config has no repeated-by-name registries to merge.
func applyOverrides(cfg *Config, fileCfg *fileYAMLConfig) {
	if fileCfg.Mode != "" {
		cfg.Mode = graph.ExecutionMode(fileCfg.Mode)
	}
	if fileCfg.React != nil {
		if fileCfg.React.MaxIterations != 0 {
			cfg.React.MaxIterations = fileCfg.React.MaxIterations
		}
		if fileCfg.React.ClauseTimeout != 0 {
			cfg.React.ClauseTimeout = fileCfg.React.ClauseTimeout
		}
		if fileCfg.React.Temperature != 0 {
			cfg.React.Temperature = fileCfg.React.Temperature
		}
	}
	if fileCfg.Retention != nil {
		if fileCfg.Retention.GraphIdleWindow != 0 {
			cfg.Retention.GraphIdleWindow = fileCfg.Retention.GraphIdleWindow
		}
		if fileCfg.Retention.EventCacheWindow != 0 {
			cfg.Retention.EventCacheWindow = fileCfg.Retention.EventCacheWindow
		}
	}
	if fileCfg.Server != nil {
		if fileCfg.Server.Addr != "" {
			cfg.Server.Addr = fileCfg.Server.Addr
		}
		if fileCfg.Server.ReadTimeout != 0 {
			cfg.Server.ReadTimeout = fileCfg.Server.ReadTimeout
		}
		if fileCfg.Server.WriteTimeout != 0 {
			cfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
		}
	}
	if fileCfg.Database != nil {
		if fileCfg.Database.DSN != "" {
			cfg.Database.DSN = fileCfg.Database.DSN
		}
		if fileCfg.Database.MigrationsPath != "" {
			cfg.Database.MigrationsPath = fileCfg.Database.MigrationsPath
		}
		if fileCfg.Database.MaxConns != 0 {
			cfg.Database.MaxConns = fileCfg.Database.MaxConns
		}
	}
	if fileCfg.LLM != nil {
		cfg.LLM = *fileCfg.LLM
	}
}
