package prompt

import (
	"fmt"
	"strings"
)

const fidicDomainInstructionHeader = `[FIDIC-specific review guidance]
Pay particular attention to:
1. Whether the Particular Conditions delete or weaken clauses favorable to us in the General Conditions;
2. Whether time-bar periods are too short, or risk forfeiture for late notice;
3. Whether risk allocation has clearly shifted toward us;
4. Whether payment, claims, liability-limitation, and dispute clauses interact unfavorably.`

const shaSpaDomainInstructionHeader = `[SHA/SPA-specific review guidance]
Pay particular attention to:
1. Whether conditions precedent are controllable and whether an unreasonable MAC threshold exists;
2. Whether representations and warranties are over-qualified (knowledge/materiality/disclosure);
3. Whether the indemnity mechanism (cap, basket, survival) is significantly unfavorable;
4. Whether governance and exit mechanisms protect our core rights.`

// buildFIDICInstruction folds the fidic domain skills' own outputs (merge
// GC/PC comparison, time-bar count, ER search hit count) into the domain
// instruction block, mirroring original_source's _build_fidic_instruction.
func buildFIDICInstruction(skillContext map[string]any) string {
	var lines []string
	lines = append(lines, fidicDomainInstructionHeader)

	if merge, ok := asMap(skillContext["fidic_merge_gc_pc"]); ok {
		switch mapGetString(merge, "modification_type") {
		case "modified":
			lines = append(lines, fmt.Sprintf("[GC/PC comparison] This clause was modified by the Particular Conditions. Summary: %s", mapGetString(merge, "changes_summary")))
		case "deleted":
			lines = append(lines, "[GC/PC comparison] This clause was deleted in the Particular Conditions.")
		}
	}
	if timeBar, ok := asMap(skillContext["fidic_calculate_time_bar"]); ok {
		if total := mapGetFloat(timeBar, "total_time_bars"); total > 0 {
			strict := ""
			if mapGetBool(timeBar, "has_strict_time_bar") {
				strict = " WARNING: strict time bar detected (forfeiture on late notice)."
			}
			lines = append(lines, fmt.Sprintf("[Time-bar analysis] %.0f time-bar requirement(s) identified.%s", total, strict))
		}
	}
	if er, ok := asMap(skillContext["fidic_search_er"]); ok {
		if sections := mapGetSlice(er, "relevant_sections"); len(sections) > 0 {
			lines = append(lines, fmt.Sprintf("[Employer's Requirements search] %d related section(s) found.", len(sections)))
		}
	}
	return strings.Join(lines, "\n\n")
}

// buildSHASPAInstruction folds the sha_spa domain skills' own outputs
// (conditions precedent count, R&W qualification count, indemnity terms)
// into the domain instruction block, mirroring original_source's
// _build_sha_spa_instruction.
func buildSHASPAInstruction(skillContext map[string]any) string {
	var lines []string
	lines = append(lines, shaSpaDomainInstructionHeader)

	if cond, ok := asMap(skillContext["spa_extract_conditions"]); ok {
		if total := mapGetFloat(cond, "total_conditions"); total > 0 {
			lines = append(lines, fmt.Sprintf("[Conditions precedent] %.0f total, %.0f buyer-side, %.0f seller-side.",
				total, mapGetFloat(cond, "buyer_conditions"), mapGetFloat(cond, "seller_conditions")))
		}
	}
	if rw, ok := asMap(skillContext["spa_extract_reps_warranties"]); ok {
		if total := mapGetFloat(rw, "total_items"); total > 0 {
			lines = append(lines, fmt.Sprintf("[Representations & warranties] %.0f total, %.0f knowledge-qualified, %.0f materiality-qualified.",
				total, mapGetFloat(rw, "knowledge_qualified_count"), mapGetFloat(rw, "materiality_qualified_count")))
		}
	}
	if ind, ok := asMap(skillContext["spa_indemnity_analysis"]); ok {
		var parts []string
		if mapGetBool(ind, "has_cap") {
			cap := mapGetString(ind, "cap_amount")
			if cap == "" {
				cap = fmt.Sprintf("%.0f%%", mapGetFloat(ind, "cap_percentage"))
			}
			parts = append(parts, fmt.Sprintf("cap=%s", cap))
		}
		if mapGetBool(ind, "has_basket") {
			parts = append(parts, fmt.Sprintf("basket=%s(%s)", mapGetString(ind, "basket_amount"), mapGetString(ind, "basket_type")))
		}
		if sp := mapGetString(ind, "survival_period"); sp != "" {
			parts = append(parts, fmt.Sprintf("survival=%s", sp))
		}
		if len(parts) > 0 {
			lines = append(lines, fmt.Sprintf("[Indemnity terms] %s", strings.Join(parts, "; ")))
		}
	}
	return strings.Join(lines, "\n\n")
}
