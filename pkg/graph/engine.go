package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/prompt"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// NodeName identifies one of the engine's fixed nodes.
type NodeName string

const (
	NodeInit                NodeName = "init"
	NodeParseDocument       NodeName = "parse_document"
	NodePlanReview          NodeName = "plan_review"
	NodeClauseAnalyze       NodeName = "clause_analyze"
	NodeClauseGenerateDiffs NodeName = "clause_generate_diffs"
	NodeClauseValidate      NodeName = "clause_validate"
	NodeHumanApproval       NodeName = "human_approval"
	NodeSaveClause          NodeName = "save_clause"
	NodeSummarize           NodeName = "summarize"
	nodeEnd                 NodeName = "__end__"
)

// ExecutionMode selects the gen3/legacy axis:
// gen3 mounts plan_review and the skip_diffs-aware route_after_analyze edge
// and runs clause_analyze's ReAct branch; legacy always runs
// clause_generate_diffs after clause_analyze and never calls the ReAct loop.
type ExecutionMode string

const (
	ModeGen3   ExecutionMode = "gen3"
	ModeLegacy ExecutionMode = "legacy"
)

// DefaultReactClauseTimeout bounds the ReAct branch when the caller leaves
// ReactClauseTimeout unset.
const DefaultReactClauseTimeout = 30 * time.Second

// Engine compiles the fixed node set into a directed graph with conditional
// edges and interrupt-before-human_approval pause/resume semantics.
// Grounded on build_review_graph/node_*/route_* in
// original_source/.../graph/builder.py; the LangGraph StateGraph/END
// machinery is replaced by an explicit node-name dispatch table and routing
// functions operating on Update/models.GraphState.
type Engine struct {
	Dispatcher   *skills.Dispatcher
	LLMClient    llm.Client
	Prompt       *prompt.Builder
	Checkpointer Checkpointer
	Logger       *slog.Logger

	Mode               ExecutionMode
	ReactMaxIterations int
	ReactClauseTimeout time.Duration
	ReactTemperature   float64
	DefaultMaxRetries  int
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) reactClauseTimeout() time.Duration {
	if e.ReactClauseTimeout > 0 {
		return e.ReactClauseTimeout
	}
	return DefaultReactClauseTimeout
}

func (e *Engine) reactMaxIterations() int {
	if e.ReactMaxIterations > 0 {
		return e.ReactMaxIterations
	}
	return 5
}

func (e *Engine) maxRetries() int {
	if e.DefaultMaxRetries > 0 {
		return e.DefaultMaxRetries
	}
	return 2
}

// RunResult is what Run/Resume return: the checkpointed state after the
// engine either reaches summarize/end or pauses at the human_approval
// interrupt boundary.
type RunResult struct {
	State       *models.GraphState
	Interrupted bool
}

// Run starts a fresh execution at "init" and steps the graph until it
// completes or pauses before human_approval.
func (e *Engine) Run(ctx context.Context, initial *models.GraphState) (RunResult, error) {
	return e.step(ctx, initial, NodeInit)
}

// Resume continues a previously interrupted run. The caller is responsible
// for having merged user_decisions/user_feedback into state (the approval
// endpoints own that merge); Resume always re-enters at human_approval,
// which is the only interrupt_before node, then continues the normal
// routing from there.
func (e *Engine) Resume(ctx context.Context, state *models.GraphState) (RunResult, error) {
	return e.step(ctx, state, NodeHumanApproval)
}

// step runs nodes starting at `start`, checkpointing after each one, and
// returns control either at completion or upon reaching human_approval with
// a non-empty current_diffs (other than the entry the caller resumed into).
// With no diffs to approve, human_approval runs and routing continues.
func (e *Engine) step(ctx context.Context, state *models.GraphState, start NodeName) (RunResult, error) {
	current := start
	firstIteration := true

	for {
		if current == nodeEnd {
			return RunResult{State: state}, nil
		}

		// interrupt_before=["human_approval"]: pause before running the node
		// on every entry that has diffs to approve, except the one the caller
		// explicitly resumed into.
		resumingIntoThisNode := firstIteration && start == NodeHumanApproval
		if current == NodeHumanApproval && !resumingIntoThisNode && len(state.CurrentDiffs) > 0 {
			// node_human_approval is the only writer of pending_diffs, but it
			// never actually runs on this path — populate pending_diffs here
			// so the paused snapshot satisfies pending_diffs == current_diffs
			// before returning control to the caller.
			state = mergeUpdate(state, Update{PendingDiffsSet: true, PendingDiffs: state.CurrentDiffs})
			if e.Checkpointer != nil {
				if cerr := e.Checkpointer.Save(ctx, state.TaskID, state); cerr != nil {
					e.logger().Error("graph: checkpoint save failed", "task_id", state.TaskID, "node", current, "error", cerr)
				}
			}
			return RunResult{State: state, Interrupted: true}, nil
		}

		update, err := e.dispatch(ctx, current, state)
		if err != nil {
			msg := err.Error()
			update = Update{Error: &msg}
		}
		state = mergeUpdate(state, update)

		if e.Checkpointer != nil {
			if cerr := e.Checkpointer.Save(ctx, state.TaskID, state); cerr != nil {
				e.logger().Error("graph: checkpoint save failed", "task_id", state.TaskID, "node", current, "error", cerr)
			}
		}

		current = e.route(current, state)
		firstIteration = false
	}
}

func (e *Engine) dispatch(ctx context.Context, node NodeName, state *models.GraphState) (Update, error) {
	switch node {
	case NodeInit:
		return e.nodeInit(state), nil
	case NodeParseDocument:
		return e.nodeParseDocument(state), nil
	case NodePlanReview:
		return e.nodePlanReview(ctx, state), nil
	case NodeClauseAnalyze:
		return e.nodeClauseAnalyze(ctx, state), nil
	case NodeClauseGenerateDiffs:
		return e.nodeClauseGenerateDiffs(ctx, state), nil
	case NodeClauseValidate:
		return e.nodeClauseValidate(ctx, state), nil
	case NodeHumanApproval:
		return e.nodeHumanApproval(state), nil
	case NodeSaveClause:
		return e.nodeSaveClause(ctx, state), nil
	case NodeSummarize:
		return e.nodeSummarize(ctx, state), nil
	default:
		return Update{}, fmt.Errorf("graph: unknown node %q", node)
	}
}

// route evaluates the conditional/fixed edge leaving `node`, mirroring
// build_review_graph's edge wiring exactly (including the gen3/legacy fork
// at parse_document/plan_review and clause_analyze).
func (e *Engine) route(node NodeName, state *models.GraphState) NodeName {
	switch node {
	case NodeInit:
		return NodeParseDocument
	case NodeParseDocument:
		if e.Mode == ModeGen3 {
			return NodePlanReview
		}
		return routeNextClauseOrEnd(state)
	case NodePlanReview:
		return routeNextClauseOrEnd(state)
	case NodeClauseAnalyze:
		if e.Mode == ModeGen3 {
			return routeAfterAnalyze(state)
		}
		return NodeClauseGenerateDiffs
	case NodeClauseGenerateDiffs:
		return NodeClauseValidate
	case NodeClauseValidate:
		return routeValidation(state, e.maxRetries())
	case NodeHumanApproval:
		return routeAfterApproval(state)
	case NodeSaveClause:
		return routeNextClauseOrEnd(state)
	case NodeSummarize:
		return nodeEnd
	default:
		return nodeEnd
	}
}
