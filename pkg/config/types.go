package config

import "time"

// ServerConfig holds the gin HTTP server's listen/timeout settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
}

// DatabaseConfig holds the Postgres connection and migration settings
// pkg/database's pool and golang-migrate runner consume.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn" validate:"required"`
	MigrationsPath string `yaml:"migrations_path,omitempty"`
	MaxConns       int32  `yaml:"max_conns,omitempty" validate:"omitempty,min=1"`
}

// ReactConfig tunes the ReAct branch.
type ReactConfig struct {
	MaxIterations int           `yaml:"max_iterations" validate:"omitempty,min=1"`
	ClauseTimeout time.Duration `yaml:"clause_timeout,omitempty"`
	Temperature   float64       `yaml:"temperature" validate:"omitempty,min=0,max=2"`
}

// RetentionConfig bounds the two independent expiries: completed or failed
// review_sessions rows (purged by pkg/cleanup.Service after GraphIdleWindow)
// and the SSE replay cache.
type RetentionConfig struct {
	GraphIdleWindow  time.Duration `yaml:"graph_idle_window,omitempty"`
	EventCacheWindow time.Duration `yaml:"event_cache_window,omitempty"`
}

// LLMConfig names the single external LLM collaborator the core talks to
// through pkg/llm.Client, treated as an
// external collaborator, so this is just enough to decide whether one is
// configured and which pkg/llm implementation to construct.
type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}
