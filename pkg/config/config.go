package config

import "github.com/cosiris15/contract-review/pkg/graph"

// Config is the umbrella configuration object Initialize returns: the
// environment surface (execution mode, ReAct tuning,
// retention window) plus the ambient server/database/LLM settings a
// runnable process needs.
type Config struct {
	configDir string // directory Initialize loaded from, kept for diagnostics

	Mode      graph.ExecutionMode
	React     ReactConfig
	Retention RetentionConfig

	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
}

// ConfigDir returns the configuration directory path Initialize was called
// with.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// EngineOptions projects the subset of Config the graph engine reads,
// matching pkg/graph.Engine's tuning fields one-to-one.
type EngineOptions struct {
	Mode               graph.ExecutionMode
	ReactMaxIterations int
	ReactClauseTimeout int64 // nanoseconds, assignable straight into time.Duration
	ReactTemperature   float64
	DefaultMaxRetries  int
}

// Engine returns the engine tuning fields as a plain struct, so cmd/reviewd
// can populate a graph.Engine without pkg/graph importing pkg/config.
func (c *Config) Engine() EngineOptions {
	return EngineOptions{
		Mode:               c.Mode,
		ReactMaxIterations: c.React.MaxIterations,
		ReactClauseTimeout: int64(c.React.ClauseTimeout),
		ReactTemperature:   c.React.Temperature,
		DefaultMaxRetries:  2,
	}
}
