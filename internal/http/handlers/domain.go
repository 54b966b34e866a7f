package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/insightpath-backend/internal/http/response"
	"github.com/yungbote/insightpath-backend/internal/modules/learning"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type Catalog interface {
	ListDomains(ctx context.Context) ([]learning.DomainSummary, error)
	GetAssessmentQuestions(ctx context.Context, domainID uuid.UUID) ([]learning.AssessmentQuestionView, error)
}

type DomainHandler struct {
	log     *logger.Logger
	catalog Catalog
}

func NewDomainHandler(log *logger.Logger, catalog Catalog) *DomainHandler {
	return &DomainHandler{log: log.With("handler", "DomainHandler"), catalog: catalog}
}

// GET /api/domains
func (h *DomainHandler) ListDomains(c *gin.Context) {
	out, err := h.catalog.ListDomains(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "list_domains_failed")
		return
	}
	response.RespondOK(c, gin.H{"domains": out})
}

// GET /api/domains/:id/assessment
func (h *DomainHandler) GetAssessmentQuestions(c *gin.Context) {
	domainID, ok := pathUUID(c, "id", "invalid_domain_id")
	if !ok {
		return
	}
	out, err := h.catalog.GetAssessmentQuestions(c.Request.Context(), domainID)
	if err != nil {
		response.RespondAPIError(c, err, "get_assessment_failed")
		return
	}
	response.RespondOK(c, gin.H{"questions": out})
}
