package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cosiris15/contract-review/pkg/graph"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	cfg.Database.DSN = "postgres://localhost/test"
	assert.NoError(t, validate(cfg))
}

func TestDefault_ModeIsGen3(t *testing.T) {
	assert.Equal(t, graph.ModeGen3, Default().Mode)
}

func TestConfig_Engine_ProjectsReactTuning(t *testing.T) {
	cfg := Default()
	cfg.React.MaxIterations = 9
	cfg.React.Temperature = 0.7

	opts := cfg.Engine()
	assert.Equal(t, graph.ModeGen3, opts.Mode)
	assert.Equal(t, 9, opts.ReactMaxIterations)
	assert.Equal(t, 0.7, opts.ReactTemperature)
	assert.Equal(t, int64(cfg.React.ClauseTimeout), opts.ReactClauseTimeout)
}
