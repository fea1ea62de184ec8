package config

import (
	"time"

	"github.com/cosiris15/contract-review/pkg/graph"
)

// DefaultGraphIdleWindow is the default retention window after which
// pkg/cleanup.Service purges completed or failed review_sessions rows.
const DefaultGraphIdleWindow = 3600 * time.Second

// DefaultEventCacheWindow matches the SSE replay cache's default retention
// (pkg/events.Cache is swept on the same horizon as the graph it mirrors).
const DefaultEventCacheWindow = DefaultGraphIdleWindow

// DefaultReactMaxIterations matches pkg/graph.Engine's built-in fallback
// when ReactMaxIterations is left unset.
const DefaultReactMaxIterations = 5

// DefaultReactTemperature is a conservative default for the ReAct branch's
// tool-selection calls; low enough to keep deterministic-looking behavior
// in tests that exercise the fallback path.
const DefaultReactTemperature = 0.2

// Default returns the built-in configuration applied before YAML/env
// overrides: gen3 execution mode by default, the graph engine's own
// iteration/timeout defaults, and the
// idle/cache retention window.
func Default() *Config {
	return &Config{
		Mode: graph.ModeGen3,
		React: ReactConfig{
			MaxIterations: DefaultReactMaxIterations,
			ClauseTimeout: graph.DefaultReactClauseTimeout,
			Temperature:   DefaultReactTemperature,
		},
		Retention: RetentionConfig{
			GraphIdleWindow:  DefaultGraphIdleWindow,
			EventCacheWindow: DefaultEventCacheWindow,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MigrationsPath: "pkg/database/migrations",
			MaxConns:       10,
		},
	}
}
