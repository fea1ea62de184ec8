package models

// ReviewCriterion is one row of a domain's review-criteria table (loaded
// from an uploaded spreadsheet or the domain plugin's built-in set),
// consumed by the load_review_criteria and assess_deviation skills.
type ReviewCriterion struct {
	CriterionID     string `json:"criterion_id"`
	ClauseRef       string `json:"clause_ref"`
	ReviewPoint     string `json:"review_point"`
	RiskLevel       string `json:"risk_level"`
	BaselineText    string `json:"baseline_text"`
	SuggestedAction string `json:"suggested_action"`
}
