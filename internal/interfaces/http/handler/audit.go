package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tenancy/backend/internal/infrastructure/audit"
)

// AuditHandler exposes the recorded event trail of an aggregate.
type AuditHandler struct {
	BaseHandler
	query *audit.Query
}

func NewAuditHandler(query *audit.Query) *AuditHandler {
	return &AuditHandler{query: query}
}

// ListByAggregate handles GET /audit/aggregates/:id
func (h *AuditHandler) ListByAggregate(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	aggregateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.query.ForAggregate(c.Request.Context(), organizationID, aggregateID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}
