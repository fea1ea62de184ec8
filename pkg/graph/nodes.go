package graph

import (
	"context"
	"strconv"
	"strings"

	"github.com/cosiris15/contract-review/pkg/agent/react"
	"github.com/cosiris15/contract-review/pkg/document"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/orchestrator"
	"github.com/cosiris15/contract-review/pkg/skills/generic"
)

// nodeInit seeds empty collections and plan_version=1, matching node_init.
func (e *Engine) nodeInit(state *models.GraphState) Update {
	maxRetries := state.MaxRetries
	if maxRetries <= 0 {
		maxRetries = e.maxRetries()
	}
	planVersion := state.PlanVersion
	if planVersion <= 0 {
		planVersion = 1
	}
	return Update{
		CurrentClauseIndex: intPtr(0),
		FindingsSet:        map[string]*models.ClauseFindings{},
		ClauseRetryCount:   intPtr(0),
		MaxRetries:         intPtr(maxRetries),
		PlanVersion:        intPtr(planVersion),
		IsComplete:         boolPtr(false),
		ClearError:         true,
	}
}

// nodeParseDocument keeps the primary structure already attached to state
// and, absent a supplied checklist, generates a generic one
// (one item per clause, priority=medium, required_skills=[get_clause_context]),
// matching node_parse_document / _generate_generic_checklist.
func (e *Engine) nodeParseDocument(state *models.GraphState) Update {
	// The parsed DocumentStructure for the primary document is attached by
	// the upload pipeline before the graph run starts; this node only fills
	// in a checklist when the caller didn't supply one.
	structure := state.PrimaryStructure

	checklist := state.ReviewChecklist
	if len(checklist) == 0 && structure != nil {
		checklist = document.GenerateGenericChecklist(structure)
	}

	return Update{
		PrimaryStructure:   structure,
		ReviewChecklistSet: true,
		ReviewChecklist:    checklist,
	}
}

// nodePlanReview produces/refreshes review_plan via the orchestrator and
// reorders the checklist to match each clause plan's priority_order,
// matching node_plan_review. Only mounted in gen3 mode (engine.route never
// reaches this node in legacy mode).
func (e *Engine) nodePlanReview(ctx context.Context, state *models.GraphState) Update {
	if len(state.ReviewChecklist) == 0 {
		return Update{
			ReviewPlan:  &models.ReviewPlan{ClausePlans: []models.ClausePlan{}, PlanVersion: 1},
			PlanVersion: intPtr(1),
		}
	}

	var tools []string
	if e.Dispatcher != nil {
		for _, r := range e.Dispatcher.ToolsForDomain(state.DomainID) {
			tools = append(tools, r.SkillID)
		}
	}

	plan := orchestrator.GenerateReviewPlan(ctx, e.LLMClient, state.ReviewChecklist, state.DomainID, state.MaterialType, tools, e.logger())

	checklist := reorderChecklist(state.ReviewChecklist, plan)

	return Update{
		ReviewPlan:         plan,
		PlanVersion:        intPtr(plan.PlanVersion),
		ReviewChecklistSet: true,
		ReviewChecklist:    checklist,
	}
}

func reorderChecklist(checklist []models.ChecklistItem, plan *models.ReviewPlan) []models.ChecklistItem {
	if plan == nil || len(plan.ClausePlans) == 0 {
		return checklist
	}
	byID := make(map[string]models.ChecklistItem, len(checklist))
	for _, item := range checklist {
		byID[item.ClauseID] = item
	}
	seen := make(map[string]bool, len(checklist))
	ordered := make([]models.ChecklistItem, 0, len(checklist))
	plansByOrder := append([]models.ClausePlan(nil), plan.ClausePlans...)
	sortClausePlansByPriority(plansByOrder)
	for _, cp := range plansByOrder {
		if item, ok := byID[cp.ClauseID]; ok && !seen[cp.ClauseID] {
			ordered = append(ordered, item)
			seen[cp.ClauseID] = true
		}
	}
	for _, item := range checklist {
		if !seen[item.ClauseID] {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

func sortClausePlansByPriority(cps []models.ClausePlan) {
	for i := 1; i < len(cps); i++ {
		for j := i; j > 0 && cps[j].PriorityOrder < cps[j-1].PriorityOrder; j-- {
			cps[j], cps[j-1] = cps[j-1], cps[j]
		}
	}
}

// nodeClauseAnalyze is the ReAct/legacy/deterministic producer of
// current_risks and current_skill_context for the current clause.
// Grounded on node_clause_analyze/_run_react_branch.
func (e *Engine) nodeClauseAnalyze(ctx context.Context, state *models.GraphState) Update {
	idx := state.CurrentClauseIndex
	if idx < 0 || idx >= len(state.ReviewChecklist) {
		return Update{}
	}
	item := state.ReviewChecklist[idx]
	clauseID := item.ClauseID
	language := state.Language
	if language == "" {
		language = "en"
	}

	clausePlan := state.ReviewPlan.FindClausePlan(clauseID)
	maxIterations := e.reactMaxIterations()
	if clausePlan != nil && clausePlan.MaxIterations > 0 {
		maxIterations = clausePlan.MaxIterations
	}

	useReact := e.Mode == ModeGen3 && e.LLMClient != nil && e.Dispatcher != nil && state.PrimaryStructure != nil
	if useReact {
		if update, ok := e.runReactBranch(ctx, state, item, language, maxIterations); ok {
			return update
		}
		e.logger().Warn("graph: react branch fell back to deterministic mode", "clause_id", clauseID)
	}

	toolsToCall := item.RequiredSkills
	if clausePlan != nil && len(clausePlan.SuggestedTools) > 0 {
		toolsToCall = clausePlan.SuggestedTools
	}
	skillContext := map[string]any{}
	if e.Dispatcher != nil && state.PrimaryStructure != nil {
		for _, skillID := range toolsToCall {
			if _, ok := e.Dispatcher.Get(skillID); !ok {
				continue
			}
			res := e.Dispatcher.PrepareAndCall(ctx, skillID, clauseID, state.PrimaryStructure, state, nil)
			if res.Success && res.Data != nil {
				skillContext[skillID] = res.Data
			}
		}
	}

	clauseText := resolveClauseText(skillContext, state.PrimaryStructure, clauseID, item)

	// gen3's deterministic fallback (ReAct skipped/failed) never calls the
	// LLM directly and leaves current_risks empty; only legacy mode's
	// single-shot analyze call produces risks here.
	var risks []models.Risk
	if e.Mode == ModeLegacy && e.LLMClient != nil {
		messages := e.Prompt.BuildClauseAnalyzeMessages(language, state.OurParty, clauseID, item.ClauseName,
			item.Description, string(item.Priority), clauseText, skillContext, state.DomainID)
		text, err := e.LLMClient.Chat(ctx, messages, e.ReactTemperature)
		if err != nil {
			e.logger().Warn("graph: clause analyze LLM call failed, using empty risk list", "clause_id", clauseID, "error", err)
		} else {
			risks = normalizeRisks(parseRiskArrayTolerant(text))
		}
	}

	return Update{
		CurrentClauseID:     &clauseID,
		CurrentClauseText:   &clauseText,
		CurrentRisksSet:     true,
		CurrentRisks:        risks,
		CurrentDiffsSet:     true,
		CurrentDiffs:        nil,
		CurrentSkillContext: skillContext,
		ClauseRetryCount:    intPtr(0),
	}
}

// runReactBranch runs the ReAct loop under the per-clause wall-clock
// timeout; ok is false when the branch should yield to the deterministic
// fallback (error, timeout, or an empty skill_context).
func (e *Engine) runReactBranch(
	ctx context.Context,
	state *models.GraphState,
	item models.ChecklistItem,
	language string,
	maxIterations int,
) (Update, bool) {
	clauseID := item.ClauseID
	clauseText := document.ClauseText(state.PrimaryStructure, clauseID)
	if clauseText == "" {
		clauseText = strings.TrimSpace(item.ClauseName + "\n" + item.Description)
		if clauseText == "" {
			clauseText = clauseID
		}
	}

	messages := e.Prompt.BuildClauseAnalyzeMessages(language, state.OurParty, clauseID, item.ClauseName,
		item.Description, string(item.Priority), clauseText, nil, state.DomainID)

	timeoutCtx, cancel := context.WithTimeout(ctx, e.reactClauseTimeout())
	defer cancel()

	result := react.Run(timeoutCtx, e.LLMClient, e.Dispatcher, messages, clauseID, state.PrimaryStructure,
		state, maxIterations, e.ReactTemperature, e.logger())

	if timeoutCtx.Err() != nil {
		e.logger().Warn("graph: react branch timed out", "clause_id", clauseID, "timeout", e.reactClauseTimeout())
		return Update{}, false
	}
	if len(result.SkillContext) == 0 {
		return Update{}, false
	}

	risks := normalizeRisks(result.Risks)
	return Update{
		CurrentClauseID:     &clauseID,
		CurrentClauseText:   &clauseText,
		CurrentRisksSet:     true,
		CurrentRisks:        risks,
		CurrentDiffsSet:     true,
		CurrentDiffs:        nil,
		CurrentSkillContext: result.SkillContext,
		ClauseRetryCount:    intPtr(0),
	}, true
}

// resolveClauseText prefers get_clause_context's own output (already
// present in skillContext from the deterministic required-skills loop),
// falling back to a direct structure walk and finally the checklist item's
// own name/description, matching node_clause_analyze's clause_text
// resolution order.
func resolveClauseText(skillContext map[string]any, structure *models.DocumentStructure, clauseID string, item models.ChecklistItem) string {
	if ctxData, ok := skillContext["get_clause_context"]; ok {
		if out, ok := ctxData.(generic.ClauseContextOutput); ok && out.ContextText != "" {
			return out.ContextText
		}
	}
	if text := document.ClauseText(structure, clauseID); text != "" {
		return text
	}
	text := strings.TrimSpace(item.ClauseName + "\n" + item.Description)
	if text == "" {
		return clauseID
	}
	return text
}

// normalizeRisks assigns every risk a fresh id and coerces risk_level into
// the closed set, matching both node_clause_analyze's and
// _run_react_branch's identical post-processing of raw LLM risk rows.
func normalizeRisks(raw []models.Risk) []models.Risk {
	out := make([]models.Risk, 0, len(raw))
	for _, r := range raw {
		r.ID = models.NewRiskID()
		r.RiskLevel = models.NormalizeRiskLevel(string(r.RiskLevel))
		if r.RiskType == "" {
			r.RiskType = "uncategorized risk"
		}
		out = append(out, r)
	}
	return out
}

// nodeClauseGenerateDiffs turns current_risks into current_diffs via one LLM
// call, matching node_clause_generate_diffs.
func (e *Engine) nodeClauseGenerateDiffs(ctx context.Context, state *models.GraphState) Update {
	if len(state.CurrentRisks) == 0 {
		return Update{CurrentDiffsSet: true, CurrentDiffs: nil}
	}
	if e.LLMClient == nil {
		return Update{CurrentDiffsSet: true, CurrentDiffs: nil}
	}

	messages := e.Prompt.BuildGenerateDiffsMessages(state.CurrentClauseID, state.CurrentClauseText, state.CurrentRisks)
	text, err := e.LLMClient.Chat(ctx, messages, e.ReactTemperature)
	if err != nil {
		e.logger().Warn("graph: generate diffs LLM call failed, using empty diff list", "clause_id", state.CurrentClauseID, "error", err)
		return Update{CurrentDiffsSet: true, CurrentDiffs: nil}
	}

	raw := parseDiffRowsTolerant(text)
	diffs := make([]models.Diff, 0, len(raw))
	for _, row := range raw {
		riskID := mapDiffRiskID(row.RiskID, state.CurrentRisks)
		actionType := models.DiffActionType(row.ActionType)
		switch actionType {
		case models.DiffReplace, models.DiffDelete, models.DiffInsert:
		default:
			actionType = models.DiffReplace
		}
		metadata := row.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		if row.OriginalText != "" {
			metadata["text_match"] = strings.Contains(state.CurrentClauseText, row.OriginalText)
		}
		diffs = append(diffs, models.Diff{
			DiffID:       models.NewDiffID(),
			RiskID:       riskID,
			ClauseID:     state.CurrentClauseID,
			ActionType:   actionType,
			OriginalText: row.OriginalText,
			ProposedText: row.ProposedText,
			Status:       models.DiffPending,
			Reason:       row.Reason,
			RiskLevel:    models.NormalizeRiskLevel(row.RiskLevel),
			Metadata:     metadata,
		})
	}
	return Update{CurrentDiffsSet: true, CurrentDiffs: diffs}
}

func mapDiffRiskID(raw string, risks []models.Risk) string {
	raw = strings.TrimSpace(raw)
	if idx, ok := parseIndex(raw); ok && idx >= 0 && idx < len(risks) {
		return risks[idx].ID
	}
	for _, r := range risks {
		if r.ID == raw {
			return raw
		}
	}
	if len(risks) > 0 {
		return risks[0].ID
	}
	return ""
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// nodeClauseValidate runs a quality check returning pass|fail, matching
// node_clause_validate; retry_count only increments on fail.
func (e *Engine) nodeClauseValidate(ctx context.Context, state *models.GraphState) Update {
	if len(state.CurrentRisks) == 0 && len(state.CurrentDiffs) == 0 {
		return Update{ValidationResult: validationPtr(models.ValidationPass)}
	}

	result := models.ValidationPass
	if e.LLMClient != nil {
		messages := e.Prompt.BuildValidateMessages(state.CurrentClauseID, state.CurrentClauseText, state.CurrentRisks, state.CurrentDiffs)
		text, err := e.LLMClient.Chat(ctx, messages, e.ReactTemperature)
		if err != nil {
			e.logger().Warn("graph: validate LLM call failed, passing by default", "clause_id", state.CurrentClauseID, "error", err)
		} else if v, ok := parseValidationResult(text); ok {
			result = v
		}
	}

	if result == models.ValidationFail {
		return Update{ValidationResult: validationPtr(result), ClauseRetryCount: intPtr(state.ClauseRetryCount + 1)}
	}
	return Update{ValidationResult: validationPtr(result)}
}

// nodeHumanApproval exposes pending_diffs for the external approval
// endpoints; it only actually runs on resume (the engine pauses before it
// otherwise), matching node_human_approval.
func (e *Engine) nodeHumanApproval(state *models.GraphState) Update {
	if len(state.CurrentDiffs) == 0 {
		return Update{PendingDiffsSet: true, PendingDiffs: nil, UserDecisions: map[string]string{}}
	}
	return Update{PendingDiffsSet: true, PendingDiffs: state.CurrentDiffs}
}

// nodeSaveClause commits the clause's findings, appends to all_risks/
// all_diffs (rejected diffs excluded per user_decisions), advances the
// index, and optionally invokes maybe_adjust_plan, matching node_save_clause.
func (e *Engine) nodeSaveClause(ctx context.Context, state *models.GraphState) Update {
	clauseID := state.CurrentClauseID

	var approved []models.Diff
	for _, d := range state.CurrentDiffs {
		decision, ok := state.UserDecisions[d.DiffID]
		if !ok || decision == "approve" {
			approved = append(approved, d)
		}
	}

	findings := map[string]*models.ClauseFindings{
		clauseID: {
			ClauseID:     clauseID,
			Risks:        state.CurrentRisks,
			Diffs:        approved,
			SkillContext: state.CurrentSkillContext,
			Completed:    true,
		},
	}

	nextIndex := state.CurrentClauseIndex + 1
	update := Update{
		FindingsSet:        findings,
		AppendRisks:        state.CurrentRisks,
		AppendDiffs:        approved,
		CurrentClauseIndex: intPtr(nextIndex),
	}

	if e.Mode == ModeGen3 && state.ReviewPlan != nil {
		completedIDs := make(map[string]bool, len(state.Findings)+1)
		for id := range state.Findings {
			completedIDs[id] = true
		}
		completedIDs[clauseID] = true

		var remaining []models.ClausePlan
		for _, cp := range state.ReviewPlan.ClausePlans {
			if cp.ClauseID != "" && !completedIDs[cp.ClauseID] {
				remaining = append(remaining, cp)
			}
		}

		adjustment := orchestrator.MaybeAdjustPlan(ctx, e.LLMClient, clauseID, state.CurrentRisks, remaining,
			nextIndex, len(state.ReviewChecklist), e.logger())
		if adjustment.ShouldAdjust {
			updatedPlan := orchestrator.ApplyAdjustment(state.ReviewPlan, adjustment)
			update.ReviewPlan = updatedPlan
			update.PlanVersion = intPtr(updatedPlan.PlanVersion)
		}
	}

	return update
}

// fallbackSummary is the deterministic summary used when no LLM client is
// available or the summarize LLM call fails, matching _fallback_summary.
func fallbackSummary(state *models.GraphState) string {
	return "Review complete. Reviewed " + strconv.Itoa(len(state.Findings)) + " clauses, found " +
		strconv.Itoa(len(state.AllRisks)) + " risks, produced " + strconv.Itoa(len(state.AllDiffs)) + " proposed edits."
}

// nodeSummarize produces summary_notes and sets is_complete=true, matching
// node_summarize.
func (e *Engine) nodeSummarize(ctx context.Context, state *models.GraphState) Update {
	highRisks, mediumRisks, lowRisks := 0, 0, 0
	for _, r := range state.AllRisks {
		switch models.NormalizeRiskLevel(string(r.RiskLevel)) {
		case models.RiskHigh:
			highRisks++
		case models.RiskMedium:
			mediumRisks++
		default:
			lowRisks++
		}
	}

	var lines []string
	for clauseID, f := range state.Findings {
		if f == nil {
			continue
		}
		lines = append(lines, "- clause "+clauseID+": "+strconv.Itoa(len(f.Risks))+" risk(s), "+strconv.Itoa(len(f.Diffs))+" proposed edit(s)")
	}
	findingsDetail := "none"
	if len(lines) > 0 {
		findingsDetail = strings.Join(lines, "\n")
	}

	summary := fallbackSummary(state)
	if e.LLMClient != nil {
		messages := e.Prompt.BuildSummarizeMessages(len(state.ReviewChecklist), len(state.AllRisks), highRisks, mediumRisks, lowRisks, len(state.AllDiffs), findingsDetail)
		text, err := e.LLMClient.Chat(ctx, messages, e.ReactTemperature)
		if err != nil {
			e.logger().Warn("graph: summarize LLM call failed, using fallback summary", "error", err)
		} else if strings.TrimSpace(text) != "" {
			summary = strings.TrimSpace(text)
		}
	}

	return Update{SummaryNotes: &summary, IsComplete: boolPtr(true)}
}
