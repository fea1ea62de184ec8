package graph

import "github.com/cosiris15/contract-review/pkg/models"

// routeNextClauseOrEnd is shared by parse_document/plan_review (legacy vs
// gen3 entry into the per-clause loop) and save_clause (looping back for the
// next clause), matching the single route_next_clause_or_end function the
// source wires into three different edges.
func routeNextClauseOrEnd(state *models.GraphState) NodeName {
	if state.Error != "" {
		return NodeSummarize
	}
	if state.CurrentClauseIndex < len(state.ReviewChecklist) {
		return NodeClauseAnalyze
	}
	return NodeSummarize
}

// routeValidation loops clause_generate_diffs while validation fails and
// retries remain, bounded by the max-retries invariant: a clause never
// enters human_approval with clause_retry_count > max_retries.
func routeValidation(state *models.GraphState, defaultMaxRetries int) NodeName {
	if state.ValidationResult != models.ValidationFail {
		return NodeHumanApproval
	}
	maxRetries := state.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if state.ClauseRetryCount < maxRetries {
		return NodeClauseGenerateDiffs
	}
	return NodeSaveClause
}

// routeAfterAnalyze is gen3-only: a clause plan's skip_diffs short-circuits
// straight to save_clause, matching quick-depth's "skip diffs and
// validation" invariant.
func routeAfterAnalyze(state *models.GraphState) NodeName {
	if state.CurrentClauseID == "" {
		return NodeClauseGenerateDiffs
	}
	if cp := state.ReviewPlan.FindClausePlan(state.CurrentClauseID); cp != nil && cp.SkipDiffs {
		return NodeSaveClause
	}
	return NodeClauseGenerateDiffs
}

// routeAfterApproval always proceeds to save_clause; it exists as its own
// function (rather than a fixed edge) purely to mirror the source's
// route_after_approval, which the source keeps symmetric with the graph's
// other conditional edges even though it has one outcome today.
func routeAfterApproval(_ *models.GraphState) NodeName {
	return NodeSaveClause
}
