package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cosiris15/contract-review/pkg/models"
)

// listDomains handles GET /domains, grounded on original_source's
// list_domains.
func (s *Server) listDomains(c *gin.Context) {
	plugins := s.plugins.List()
	out := make([]domainSummary, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, domainSummary{
			DomainID:          p.DomainID,
			Name:              p.Name,
			Description:       p.Description,
			SupportedSubtypes: p.SupportedSubtypes,
			ChecklistCount:    len(p.ReviewChecklist),
			SkillsCount:       len(p.DomainSkills),
		})
	}
	c.JSON(http.StatusOK, gin.H{"domains": out})
}

// getDomain handles GET /domains/{id}, grounded on original_source's
// get_domain_detail.
func (s *Server) getDomain(c *gin.Context) {
	p, ok := s.plugins.Get(c.Param("id"))
	if !ok {
		notFound(c, "unknown domain: "+c.Param("id"))
		return
	}

	skillSummaries := make([]domainSkillSummary, 0, len(p.DomainSkills))
	for _, sk := range p.DomainSkills {
		skillSummaries = append(skillSummaries, domainSkillSummary{
			SkillID: sk.SkillID,
			Name:    sk.Name,
			Backend: string(sk.Backend),
		})
	}

	c.JSON(http.StatusOK, domainDetail{
		DomainID:          p.DomainID,
		Name:              p.Name,
		Description:       p.Description,
		SupportedSubtypes: p.SupportedSubtypes,
		ReviewChecklist:   p.ReviewChecklist,
		Skills:            skillSummaries,
	})
}

// getDomainChecklist handles GET /domains/{id}/checklist.
func (s *Server) getDomainChecklist(c *gin.Context) {
	id := c.Param("id")
	checklist := s.plugins.ReviewChecklistFor(id)
	if checklist == nil {
		if _, ok := s.plugins.Get(id); !ok {
			notFound(c, "unknown domain: "+id)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"domain_id": id,
		"checklist": checklistOrEmpty(checklist),
	})
}

func checklistOrEmpty(items []models.ChecklistItem) []models.ChecklistItem {
	if items == nil {
		return []models.ChecklistItem{}
	}
	return items
}
