package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/graph"
)

func TestInitialize_PartialFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONTRACT_REVIEW_DB_DSN", "postgres://localhost/test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"database:\n  dsn: ${CONTRACT_REVIEW_DB_DSN}\n"), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, graph.ModeGen3, cfg.Mode)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
}

func TestInitialize_OverridesLayerOnDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
mode: legacy
react:
  max_iterations: 8
  temperature: 0.9
server:
  addr: ":9090"
database:
  dsn: "postgres://x/y"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, graph.ModeLegacy, cfg.Mode)
	assert.Equal(t, 8, cfg.React.MaxIterations)
	assert.Equal(t, 0.9, cfg.React.Temperature)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	// Unset react.clause_timeout falls through to Default()'s value.
	assert.Equal(t, graph.DefaultReactClauseTimeout, cfg.React.ClauseTimeout)
}

func TestInitialize_MissingDSNFailsValidation(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestInitialize_InvalidExecutionMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"mode: quantum\ndatabase:\n  dsn: postgres://x/y\n"), 0o644))

	_, err := Initialize(context.Background(), dir)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestInitialize_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("not: [valid"), 0o644))

	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestApplyOverrides_RetentionAndLLM(t *testing.T) {
	cfg := Default()
	applyOverrides(cfg, &fileYAMLConfig{
		Retention: &RetentionConfig{GraphIdleWindow: 10 * time.Minute},
		LLM:       &LLMConfig{Enabled: true, Provider: "anthropic", Model: "claude"},
	})
	assert.Equal(t, 10*time.Minute, cfg.Retention.GraphIdleWindow)
	assert.Equal(t, DefaultEventCacheWindow, cfg.Retention.EventCacheWindow)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "claude", cfg.LLM.Model)
}
