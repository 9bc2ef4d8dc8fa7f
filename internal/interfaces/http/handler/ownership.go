package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	leasingapp "github.com/tenancy/backend/internal/application/leasing"
	"github.com/tenancy/backend/internal/interfaces/http/middleware"
)

// OwnershipHandler handles property asset ownership API endpoints
type OwnershipHandler struct {
	BaseHandler
	ownershipService *leasingapp.OwnershipService
}

// NewOwnershipHandler creates a new OwnershipHandler
func NewOwnershipHandler(ownershipService *leasingapp.OwnershipService) *OwnershipHandler {
	return &OwnershipHandler{ownershipService: ownershipService}
}

// RegisterAsset registers a property asset.
// POST /leasing/assets
func (h *OwnershipHandler) RegisterAsset(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req leasingapp.RegisterAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.ownershipService.RegisterAsset(c.Request.Context(), organizationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// SetShares replaces the asset's ownership share set.
// PUT /leasing/assets/:id/shares
func (h *OwnershipHandler) SetShares(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	assetID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid asset ID")
		return
	}

	var req leasingapp.SetSharesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.ownershipService.SetOwnershipShares(c.Request.Context(), organizationID, assetID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ResolveShares returns the asset's owners as of a given instant
// (query parameter as_of, RFC 3339; defaults to now).
// GET /leasing/assets/:id/shares
func (h *OwnershipHandler) ResolveShares(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	assetID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid asset ID")
		return
	}

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "as_of must be RFC 3339")
			return
		}
		asOf = parsed
	}

	resp, err := h.ownershipService.ResolveShares(c.Request.Context(), organizationID, assetID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
