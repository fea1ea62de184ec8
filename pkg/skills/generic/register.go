package generic

import (
	"github.com/cosiris15/contract-review/pkg/llm"
	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// Deps collects the collaborators the generic skills need beyond the
// per-call Input (LLM client, domain baseline/criteria lookups, reference
// document resolution). Any field may be left nil; each skill degrades
// gracefully when its dependency is absent.
type Deps struct {
	LLMClient       llm.Client
	BaselineLookup  BaselineLookup
	CriteriaLookup  CriteriaLookup
	ReferenceDocByID func(docID string) *models.DocumentStructure
}

// RegisterAll registers the eight built-in generic skills on
// dispatcher.
func RegisterAll(dispatcher *skills.Dispatcher, deps Deps) error {
	regs := []skills.Registration{
		ClauseContextRegistration(),
		ResolveDefinitionRegistration(),
		CompareWithBaselineRegistration(deps.LLMClient, deps.BaselineLookup),
		CrossReferenceCheckRegistration(),
		ExtractFinancialTermsRegistration(),
		SearchReferenceDocRegistration(deps.ReferenceDocByID),
		LoadReviewCriteriaRegistration(deps.CriteriaLookup),
		AssessDeviationRegistration(deps.LLMClient, deps.CriteriaLookup),
	}
	return dispatcher.RegisterBatch(regs)
}
