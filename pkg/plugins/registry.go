// Package plugins implements the domain plugin registry: a process-wide,
// read-mostly catalog of domain-specific review checklists and skills,
// grounded on original_source's
// plugins/registry.py.
package plugins

import (
	"log/slog"
	"sync"

	"github.com/cosiris15/contract-review/pkg/models"
	"github.com/cosiris15/contract-review/pkg/skills"
)

// ParserConfig mirrors original_source's DocumentParserConfig: per-domain
// tuning for the document parser (only MaxDepth is consumed by this core;
// the rest of original_source's parser knobs are an external collaborator
// out of scope here).
type ParserConfig struct {
	MaxDepth int `json:"max_depth"`
}

// Plugin is one domain's registration: its checklist, its domain-scoped
// skills, and (for the assess_deviation/compare_with_baseline skills) a
// lookup of baseline clause text.
type Plugin struct {
	DomainID           string
	Name               string
	Description        string
	SupportedSubtypes  []string
	ReviewChecklist    []models.ChecklistItem
	DomainSkills       []skills.Registration
	ParserConfig       ParserConfig
	BaselineTexts      map[string]string
}

// Registry is the process-wide domain plugin catalog, backing the
// /domains, /domains/{id}, /domains/{id}/checklist read-only endpoints.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	logger  *slog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{plugins: make(map[string]Plugin), logger: logger}
}

// Register adds or replaces a plugin, warning on overwrite (matches
// original_source's register_domain_plugin).
func (r *Registry) Register(p Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.DomainID]; exists {
		r.logger.Warn("domain plugin re-registered, overwriting", "domain_id", p.DomainID)
	}
	r.plugins[p.DomainID] = p
}

// Get returns the plugin for domainID.
func (r *Registry) Get(domainID string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[domainID]
	return p, ok
}

// List returns every registered plugin.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	return out
}

// ReviewChecklistFor returns domainID's checklist, or nil if unknown.
func (r *Registry) ReviewChecklistFor(domainID string) []models.ChecklistItem {
	p, ok := r.Get(domainID)
	if !ok {
		return nil
	}
	return p.ReviewChecklist
}

// SkillsForDomain returns genericSkills plus domainID's own domain-scoped
// skills, matching original_source's get_all_skills_for_domain.
func (r *Registry) SkillsForDomain(domainID string, genericSkills []skills.Registration) []skills.Registration {
	out := append([]skills.Registration(nil), genericSkills...)
	if p, ok := r.Get(domainID); ok {
		out = append(out, p.DomainSkills...)
	}
	return out
}

// BaselineText returns the stored baseline text for (domainID, clauseID),
// used by compare_with_baseline/assess_deviation. The second return value
// is false when the domain or clause has no registered baseline.
func (r *Registry) BaselineText(domainID, clauseID string) (string, bool) {
	p, ok := r.Get(domainID)
	if !ok {
		return "", false
	}
	text, ok := p.BaselineTexts[clauseID]
	return text, ok
}
