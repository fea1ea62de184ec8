package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cosiris15/contract-review/pkg/graph"
)

// structValidator is shared across calls; go-playground/validator's own
// docs note a single Validate instance is safe for concurrent use and caches
// struct-tag reflection, hence one package-level validator here too.
var structValidator = validator.New()

// validate runs struct-tag validation (required/min/max) over the nested
// config structs, then the cross-field checks tags can't express.
func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg.Server); err != nil {
		return NewValidationError("server", cfg.Server.Addr, "", err)
	}
	if err := structValidator.Struct(cfg.Database); err != nil {
		return NewValidationError("database", "", "", err)
	}
	if err := structValidator.Struct(cfg.React); err != nil {
		return NewValidationError("react", "", "", err)
	}

	if cfg.Mode != graph.ModeGen3 && cfg.Mode != graph.ModeLegacy {
		return NewValidationError("execution_mode", string(cfg.Mode), "mode", ErrInvalidExecutionMode)
	}
	if cfg.LLM.Enabled && cfg.LLM.Model == "" {
		return NewValidationError("llm", cfg.LLM.Provider, "model", fmt.Errorf("%w: model", ErrMissingRequiredField))
	}
	return nil
}
