package skills

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cosiris15/contract-review/pkg/models"
)

// ReflyClient is the remote-workflow collaborator a "refly" backend skill
// delegates to. An external collaborator out of scope for this core; only
// the interface the dispatcher needs is defined here.
type ReflyClient interface {
	CallWorkflow(ctx context.Context, workflowID string, input map[string]any) (taskID string, err error)
	PollResult(ctx context.Context, taskID string) (any, error)
}

// Dispatcher is the unified skill calling entry point: registration,
// parameter-schema projection, input preparation, execution, and (via
// ReAct) concurrent fan-out. Grounded on original_source's SkillDispatcher,
// with the registry/executor split borrowed from pkg/mcp/executor.go.
type Dispatcher struct {
	mu            sync.RWMutex
	registrations map[string]Registration
	refly         ReflyClient
	logger        *slog.Logger
}

// NewDispatcher constructs an empty dispatcher. refly may be nil if no
// skill uses the remote backend.
func NewDispatcher(refly ReflyClient, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registrations: make(map[string]Registration),
		refly:         refly,
		logger:        logger,
	}
}

// Register adds or replaces a skill. Re-registration overwrites with a
// warning, matching the source's register() semantics.
func (d *Dispatcher) Register(reg Registration) error {
	if reg.Backend == BackendLocal && reg.LocalHandler == nil {
		return fmt.Errorf("skills: local skill %q missing local handler", reg.SkillID)
	}
	if reg.Backend == BackendRefly {
		if reg.ReflyWorkflowID == "" {
			return fmt.Errorf("skills: refly skill %q missing refly_workflow_id", reg.SkillID)
		}
		if d.refly == nil {
			return fmt.Errorf("skills: refly skill %q registered without a refly client", reg.SkillID)
		}
	}
	if reg.Status == "" {
		reg.Status = StatusActive
	}
	if reg.Domain == "" {
		reg.Domain = "*"
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.registrations[reg.SkillID]; exists {
		d.logger.Warn("skill re-registered, overwriting", "skill_id", reg.SkillID)
	}
	d.registrations[reg.SkillID] = reg
	return nil
}

// RegisterBatch registers every skill in regs, returning the first error
// encountered (if any); skills preceding the failure remain registered.
func (d *Dispatcher) RegisterBatch(regs []Registration) error {
	for _, r := range regs {
		if err := d.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the registration for skillID.
func (d *Dispatcher) Get(skillID string) (Registration, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.registrations[skillID]
	return r, ok
}

// List returns every registered skill, in no particular order.
func (d *Dispatcher) List() []Registration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Registration, 0, len(d.registrations))
	for _, r := range d.registrations {
		out = append(out, r)
	}
	return out
}

// ToolsForDomain returns the tool-definition-eligible registrations for
// domainID: active status, and domain "*" or domainID exactly. It does not
// itself build llm.ToolDefinition values so callers
// needing only the registrations (e.g. the deterministic fallback) avoid
// the schema-projection cost.
func (d *Dispatcher) ToolsForDomain(domainID string) []Registration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Registration
	for _, r := range d.registrations {
		if r.Status != StatusActive {
			continue
		}
		if r.Domain != "*" && r.Domain != domainID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Call invokes skillID directly with a fully-built Input, bypassing
// prepare_and_call's argument merging. Used by the deterministic fallback,
// which has no LLM-supplied arguments to merge.
func (d *Dispatcher) Call(ctx context.Context, skillID string, in Input) Result {
	reg, ok := d.Get(skillID)
	if !ok {
		return Result{SkillID: skillID, Success: false, Error: fmt.Sprintf("skill %q not registered", skillID)}
	}

	start := time.Now()
	data, err := d.execute(ctx, reg, in)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		d.logger.Error("skill execution failed", "skill_id", skillID, "elapsed_ms", elapsed, "error", err)
		return Result{SkillID: skillID, Success: false, Error: err.Error(), ExecutionTimeMS: elapsed}
	}
	return Result{SkillID: skillID, Success: true, Data: data, ExecutionTimeMS: elapsed}
}

// PrepareAndCall resolves the skill's PrepareInputFn (a pure constructor
// from (clause_id, primary_structure, state) to default arguments), merges
// llmArguments over those defaults for non-internal fields only, fills
// Input.DocumentStructure and Input.StateSnapshot from structure and state,
// and executes. The other two internal fields, CriteriaData and
// CriteriaFilePath, are left empty. If no PrepareInputFn is set, a best-effort generic fallback
// builds the input from clauseID alone.
func (d *Dispatcher) PrepareAndCall(ctx context.Context, skillID, clauseID string, structure *models.DocumentStructure, state *models.GraphState, llmArguments map[string]any) Result {
	reg, ok := d.Get(skillID)
	if !ok {
		return Result{SkillID: skillID, Success: false, Error: fmt.Sprintf("skill %q not registered", skillID)}
	}

	args := map[string]any{}
	if reg.PrepareInputFn != nil {
		args = reg.PrepareInputFn(clauseID, structure, state)
	} else {
		args = map[string]any{"clause_id": clauseID}
	}
	for k, v := range llmArguments {
		if IsInternalField(k) {
			continue
		}
		args[k] = v
	}

	in := Input{
		ClauseID:          clauseID,
		Args:              args,
		DocumentStructure: structure,
		StateSnapshot:     state,
	}

	start := time.Now()
	data, err := d.execute(ctx, reg, in)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		d.logger.Error("skill execution failed", "skill_id", skillID, "elapsed_ms", elapsed, "error", err)
		return Result{SkillID: skillID, Success: false, Error: err.Error(), ExecutionTimeMS: elapsed}
	}
	return Result{SkillID: skillID, Success: true, Data: data, ExecutionTimeMS: elapsed}
}

func (d *Dispatcher) execute(ctx context.Context, reg Registration, in Input) (any, error) {
	switch reg.Backend {
	case BackendLocal:
		return reg.LocalHandler(ctx, in)
	case BackendRefly:
		taskID, err := d.refly.CallWorkflow(ctx, reg.ReflyWorkflowID, in.Args)
		if err != nil {
			return nil, fmt.Errorf("refly call_workflow: %w", err)
		}
		return d.refly.PollResult(ctx, taskID)
	default:
		return nil, fmt.Errorf("skills: unknown backend %q", reg.Backend)
	}
}
