// Package orchestrator generates and adjusts the per-clause review plan
// consumed by the graph engine's plan_review and clause_analyze nodes.
// Grounded on original_source/.../graph/orchestrator.py
// (generate_review_plan, maybe_adjust_plan, apply_adjustment,
// _build_default_plan), restructured into an
// interface-plus-constructor package shape.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
)

const (
	planningSystemPrompt = "You are a senior legal review project manager. Produce an executable " +
		"review plan for the contract's clauses. For each clause give: analysis_depth " +
		"(quick|standard|deep), suggested_tools, max_iterations (quick=1, standard=3, deep=5), " +
		"priority_order (lower runs first), skip_diffs, skip_validate, and a short rationale. " +
		"Critical clauses should default to deep; purely definitional clauses to quick; clauses " +
		"touching amounts, deadlines, or liability caps to standard/deep. Output strict JSON: " +
		`{"global_strategy":"...","estimated_depth_distribution":{"quick":0,"standard":0,"deep":0},"clause_plans":[...]}`

	adjustSystemPrompt = "You are the legal review dispatcher deciding whether to adjust the " +
		"remaining review plan. Only recommend adjusting when (1) a high risk was found, or " +
		"(2) a midpoint check shows the plan has drifted from reality. Output JSON: " +
		`{"should_adjust":true|false,"reason":"...","adjusted_clauses":[{"clause_id":"...","analysis_depth":"...","max_iterations":5,"rationale":"..."}]}`
)

// PlanAdjustment is the output of MaybeAdjustPlan.
type PlanAdjustment struct {
	ShouldAdjust     bool               `json:"should_adjust"`
	Reason           string             `json:"reason,omitempty"`
	AdjustedClauses  []models.ClausePlan `json:"adjusted_clauses,omitempty"`
}

func normalizeDepth(raw string) models.AnalysisDepth {
	switch models.AnalysisDepth(strings.ToLower(strings.TrimSpace(raw))) {
	case models.DepthQuick:
		return models.DepthQuick
	case models.DepthDeep:
		return models.DepthDeep
	default:
		return models.DepthStandard
	}
}

func normalizeIterations(depth models.AnalysisDepth, raw int) int {
	if raw <= 0 {
		return models.IterationsForDepth(depth)
	}
	if raw > 8 {
		return 8
	}
	if raw < 1 {
		return 1
	}
	return raw
}

// BuildDefaultPlan produces the deterministic fallback plan used when the
// LLM is unavailable or its response cannot be parsed: critical-priority
// clauses get depth=deep/iterations=5, everything else standard/3;
// priority_order follows the checklist's own order.
func BuildDefaultPlan(checklist []models.ChecklistItem) *models.ReviewPlan {
	plans := make([]models.ClausePlan, 0, len(checklist))
	depthCounts := map[models.AnalysisDepth]int{}
	for i, item := range checklist {
		depth := models.DepthStandard
		if item.Priority == models.PriorityCritical {
			depth = models.DepthDeep
		}
		plans = append(plans, models.ClausePlan{
			ClauseID:       item.ClauseID,
			AnalysisDepth:  depth,
			SuggestedTools: append([]string(nil), item.RequiredSkills...),
			MaxIterations:  models.IterationsForDepth(depth),
			PriorityOrder:  i,
			Rationale:      fmt.Sprintf("default plan: priority=%s", item.Priority),
		})
		depthCounts[depth]++
	}
	return &models.ReviewPlan{
		PlanVersion:    1,
		GlobalStrategy: "default plan: follow checklist order, critical clauses get deep analysis",
		EstimatedDepthDistribution: map[models.AnalysisDepth]int{
			models.DepthQuick:    depthCounts[models.DepthQuick],
			models.DepthStandard: depthCounts[models.DepthStandard],
			models.DepthDeep:     depthCounts[models.DepthDeep],
		},
		ClausePlans: plans,
	}
}

type llmClausePlan struct {
	ClauseID       string   `json:"clause_id"`
	ClauseName     string   `json:"clause_name"`
	AnalysisDepth  string   `json:"analysis_depth"`
	SuggestedTools []string `json:"suggested_tools"`
	MaxIterations  int      `json:"max_iterations"`
	PriorityOrder  int      `json:"priority_order"`
	Rationale      string   `json:"rationale"`
	SkipDiffs      *bool    `json:"skip_diffs"`
	SkipValidate   *bool    `json:"skip_validate"`
}

type llmReviewPlan struct {
	GlobalStrategy             string                `json:"global_strategy"`
	EstimatedDepthDistribution map[string]int        `json:"estimated_depth_distribution"`
	ClausePlans                []llmClausePlan       `json:"clause_plans"`
	PlanVersion                int                   `json:"plan_version"`
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
var fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

func parseJSONObjectTolerant(raw string, out any) bool {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return false
	}
	candidates := []string{payload}
	if m := fencedBlockPattern.FindStringSubmatch(payload); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := jsonObjectPattern.FindString(payload); m != "" {
		candidates = append(candidates, m)
	}
	for _, c := range candidates {
		if json.Unmarshal([]byte(c), out) == nil {
			return true
		}
	}
	return false
}

type checklistSummary struct {
	ClauseID       string   `json:"clause_id"`
	ClauseName     string   `json:"clause_name"`
	Priority       string   `json:"priority"`
	RequiredSkills []string `json:"required_skills"`
	Description    string   `json:"description"`
}

// GenerateReviewPlan asks the LLM for a review plan, sanitizes its output
// sanitizes its output, back-fills checklist entries the LLM left out with
// standard/3 plans, and falls back to BuildDefaultPlan on any failure.
// The LLM's own values always win over checklist defaults for clauses it
// did address (Open Question #1).
func GenerateReviewPlan(
	ctx context.Context,
	client llm.Client,
	checklist []models.ChecklistItem,
	domainID, materialType string,
	availableTools []string,
	logger *slog.Logger,
) *models.ReviewPlan {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		return BuildDefaultPlan(checklist)
	}

	summaries := make([]checklistSummary, 0, len(checklist))
	for _, item := range checklist {
		summaries = append(summaries, checklistSummary{
			ClauseID: item.ClauseID, ClauseName: item.ClauseName, Priority: string(item.Priority),
			RequiredSkills: item.RequiredSkills, Description: item.Description,
		})
	}
	summaryJSON, _ := json.Marshal(summaries)
	toolsJSON, _ := json.Marshal(availableTools)

	if domainID == "" {
		domainID = "generic"
	}
	if materialType == "" {
		materialType = "contract"
	}

	messages := []llm.ConversationMessage{
		{Role: llm.RoleSystem, Content: planningSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"domain=%s\nmaterial_type=%s\navailable_tools=%s\nchecklist=%s",
			domainID, materialType, toolsJSON, summaryJSON,
		)},
	}

	text, err := client.Chat(ctx, messages, 0.1)
	if err != nil {
		logger.Warn("orchestrator: plan generation failed, using default plan", "error", err)
		return BuildDefaultPlan(checklist)
	}

	var parsed llmReviewPlan
	if !parseJSONObjectTolerant(text, &parsed) {
		logger.Warn("orchestrator: plan response unparseable, using default plan")
		return BuildDefaultPlan(checklist)
	}

	clausePlans := make([]models.ClausePlan, 0, len(parsed.ClausePlans))
	planned := map[string]bool{}
	for _, cp := range parsed.ClausePlans {
		if cp.ClauseID == "" {
			continue
		}
		depth := normalizeDepth(cp.AnalysisDepth)
		skipDiffs := depth == models.DepthQuick
		if cp.SkipDiffs != nil {
			skipDiffs = *cp.SkipDiffs
		}
		skipValidate := depth == models.DepthQuick
		if cp.SkipValidate != nil {
			skipValidate = *cp.SkipValidate
		}
		clausePlans = append(clausePlans, models.ClausePlan{
			ClauseID:       cp.ClauseID,
			AnalysisDepth:  depth,
			SuggestedTools: cp.SuggestedTools,
			MaxIterations:  normalizeIterations(depth, cp.MaxIterations),
			PriorityOrder:  cp.PriorityOrder,
			Rationale:      cp.Rationale,
			SkipDiffs:      skipDiffs,
			SkipValidate:   skipValidate,
		})
		planned[cp.ClauseID] = true
	}

	for i, item := range checklist {
		if item.ClauseID == "" || planned[item.ClauseID] {
			continue
		}
		clausePlans = append(clausePlans, models.ClausePlan{
			ClauseID:       item.ClauseID,
			ClauseName:     item.ClauseName,
			AnalysisDepth:  models.DepthStandard,
			SuggestedTools: append([]string(nil), item.RequiredSkills...),
			MaxIterations:  3,
			PriorityOrder:  len(clausePlans) + i,
			Rationale:      "gap filled: clause omitted by planner response",
		})
	}

	sort.SliceStable(clausePlans, func(i, j int) bool { return clausePlans[i].PriorityOrder < clausePlans[j].PriorityOrder })

	depthDist := map[models.AnalysisDepth]int{}
	for k, v := range parsed.EstimatedDepthDistribution {
		depthDist[models.AnalysisDepth(k)] = v
	}
	planVersion := parsed.PlanVersion
	if planVersion <= 0 {
		planVersion = 1
	}

	return &models.ReviewPlan{
		PlanVersion:                planVersion,
		GlobalStrategy:             parsed.GlobalStrategy,
		EstimatedDepthDistribution: depthDist,
		ClausePlans:                clausePlans,
	}
}

type llmPlanAdjustment struct {
	ShouldAdjust    bool            `json:"should_adjust"`
	Reason          string          `json:"reason"`
	AdjustedClauses []llmClausePlan `json:"adjusted_clauses"`
}

type riskSummary struct {
	RiskLevel   string `json:"risk_level"`
	Description string `json:"description"`
}

type remainingSummary struct {
	ClauseID      string `json:"clause_id"`
	AnalysisDepth string `json:"analysis_depth"`
}

// MaybeAdjustPlan re-evaluates the remaining plan, calling the LLM only
// when a trigger holds (zero LLM calls otherwise): a high-severity
// current risk, or a midpoint heuristic (total>4 and completed at either
// floor/ceil of total/2).
func MaybeAdjustPlan(
	ctx context.Context,
	client llm.Client,
	currentClauseID string,
	currentRisks []models.Risk,
	remainingPlan []models.ClausePlan,
	completedCount, totalCount int,
	logger *slog.Logger,
) PlanAdjustment {
	if logger == nil {
		logger = slog.Default()
	}

	hasHighRisk := false
	for _, r := range currentRisks {
		if r.RiskLevel == models.RiskHigh {
			hasHighRisk = true
			break
		}
	}
	midpointFloor := totalCount / 2
	midpointCeil := (totalCount + 1) / 2
	isMidpoint := totalCount > 4 && (completedCount == midpointFloor || completedCount == midpointCeil)

	if !hasHighRisk && !isMidpoint {
		return PlanAdjustment{ShouldAdjust: false, Reason: "no trigger condition met"}
	}
	if client == nil {
		return PlanAdjustment{ShouldAdjust: false, Reason: "no LLM client available"}
	}

	riskRows := make([]riskSummary, 0, min(len(currentRisks), 5))
	for i, r := range currentRisks {
		if i >= 5 {
			break
		}
		desc := r.Description
		if len(desc) > 120 {
			desc = desc[:120]
		}
		riskRows = append(riskRows, riskSummary{RiskLevel: string(r.RiskLevel), Description: desc})
	}
	remainingRows := make([]remainingSummary, 0, min(len(remainingPlan), 10))
	for i, cp := range remainingPlan {
		if i >= 10 {
			break
		}
		remainingRows = append(remainingRows, remainingSummary{ClauseID: cp.ClauseID, AnalysisDepth: string(cp.AnalysisDepth)})
	}
	riskJSON, _ := json.Marshal(riskRows)
	remainingJSON, _ := json.Marshal(remainingRows)

	messages := []llm.ConversationMessage{
		{Role: llm.RoleSystem, Content: adjustSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"current_clause=%s\nprogress=%d/%d\nrisks=%s\nremaining=%s",
			currentClauseID, completedCount, totalCount, riskJSON, remainingJSON,
		)},
	}

	text, err := client.Chat(ctx, messages, 0.1)
	if err != nil {
		logger.Warn("orchestrator: adjust call failed", "error", err)
		return PlanAdjustment{ShouldAdjust: false, Reason: fmt.Sprintf("adjust call failed: %v", err)}
	}

	var parsed llmPlanAdjustment
	if !parseJSONObjectTolerant(text, &parsed) || !parsed.ShouldAdjust {
		return PlanAdjustment{ShouldAdjust: false, Reason: parsed.Reason}
	}

	adjusted := make([]models.ClausePlan, 0, len(parsed.AdjustedClauses))
	for _, cp := range parsed.AdjustedClauses {
		if cp.ClauseID == "" {
			continue
		}
		depth := normalizeDepth(cp.AnalysisDepth)
		adjusted = append(adjusted, models.ClausePlan{
			ClauseID:       cp.ClauseID,
			AnalysisDepth:  depth,
			SuggestedTools: cp.SuggestedTools,
			MaxIterations:  normalizeIterations(depth, cp.MaxIterations),
			Rationale:      cp.Rationale,
		})
	}

	return PlanAdjustment{ShouldAdjust: true, Reason: parsed.Reason, AdjustedClauses: adjusted}
}

// ApplyAdjustment merges adjustment into plan: for each adjusted clause
// present in the plan, depth/iterations/suggested_tools(if provided)/
// rationale are replaced and skip_diffs=skip_validate is derived from
// depth==quick; plan_version bumps by exactly one.
func ApplyAdjustment(plan *models.ReviewPlan, adjustment PlanAdjustment) *models.ReviewPlan {
	if !adjustment.ShouldAdjust || len(adjustment.AdjustedClauses) == 0 {
		return plan
	}

	adjustedByID := make(map[string]models.ClausePlan, len(adjustment.AdjustedClauses))
	for _, cp := range adjustment.AdjustedClauses {
		adjustedByID[cp.ClauseID] = cp
	}

	newPlans := make([]models.ClausePlan, 0, len(plan.ClausePlans))
	for _, cp := range plan.ClausePlans {
		adj, ok := adjustedByID[cp.ClauseID]
		if !ok {
			newPlans = append(newPlans, cp)
			continue
		}
		depth := cp.AnalysisDepth
		if adj.AnalysisDepth != "" {
			depth = normalizeDepth(string(adj.AnalysisDepth))
		}
		tools := cp.SuggestedTools
		if len(adj.SuggestedTools) > 0 {
			tools = adj.SuggestedTools
		}
		rationale := cp.Rationale
		if adj.Rationale != "" {
			rationale = adj.Rationale
		}
		newPlans = append(newPlans, models.ClausePlan{
			ClauseID:       cp.ClauseID,
			ClauseName:     cp.ClauseName,
			AnalysisDepth:  depth,
			SuggestedTools: tools,
			MaxIterations:  normalizeIterations(depth, adj.MaxIterations),
			PriorityOrder:  cp.PriorityOrder,
			Rationale:      rationale,
			SkipDiffs:      depth == models.DepthQuick,
			SkipValidate:   depth == models.DepthQuick,
		})
	}

	return &models.ReviewPlan{
		PlanVersion:                plan.PlanVersion + 1,
		GlobalStrategy:             plan.GlobalStrategy,
		EstimatedDepthDistribution: plan.EstimatedDepthDistribution,
		ClausePlans:                newPlans,
	}
}
