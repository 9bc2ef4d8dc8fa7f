package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	leasingapp "github.com/tenancy/backend/internal/application/leasing"
	"github.com/tenancy/backend/internal/domain/leasing"
	"github.com/tenancy/backend/internal/interfaces/http/dto"
	"github.com/tenancy/backend/internal/interfaces/http/middleware"
)

// LeaseHandler handles lease API endpoints
type LeaseHandler struct {
	BaseHandler
	leaseService *leasingapp.LeaseService
}

// NewLeaseHandler creates a new LeaseHandler
func NewLeaseHandler(leaseService *leasingapp.LeaseService) *LeaseHandler {
	return &LeaseHandler{leaseService: leaseService}
}

// TerminateLeaseRequest carries the input for terminating a lease
type TerminateLeaseRequest struct {
	EndDate time.Time `json:"end_date" binding:"required"`
	Reason  string    `json:"reason" binding:"required,min=1,max=500"`
}

// ListLeasesRequest carries lease list query parameters
type ListLeasesRequest struct {
	dto.ListRequest
	UnitID   string `form:"unit_id" binding:"omitempty,uuid"`
	TenantID string `form:"tenant_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE TERMINATED EXPIRED"`
}

// Create creates a new lease.
// POST /leasing/leases
func (h *LeaseHandler) Create(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req leasingapp.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.leaseService.CreateLease(c.Request.Context(), organizationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AddTerm appends a financial term to a lease, closing the previous open term.
// POST /leasing/leases/:id/terms
func (h *LeaseHandler) AddTerm(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	leaseID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	var req leasingapp.AddTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.leaseService.AddTerm(c.Request.Context(), organizationID, leaseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Terminate terminates an active lease at the given end date.
// POST /leasing/leases/:id/terminate
func (h *LeaseHandler) Terminate(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	leaseID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	var req TerminateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.leaseService.TerminateLease(c.Request.Context(), organizationID, leaseID, req.EndDate, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one lease with its terms.
// GET /leasing/leases/:id
func (h *LeaseHandler) Get(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	leaseID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	resp, err := h.leaseService.GetLease(c.Request.Context(), organizationID, leaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns leases filtered by unit, tenant and status.
// GET /leasing/leases
func (h *LeaseHandler) List(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req ListLeasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := leasing.LeaseFilter{}
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	if req.UnitID != "" {
		unitID := uuid.MustParse(req.UnitID)
		filter.UnitID = &unitID
	}
	if req.TenantID != "" {
		tenantID := uuid.MustParse(req.TenantID)
		filter.TenantID = &tenantID
	}
	if req.Status != "" {
		status := leasing.LeaseStatus(req.Status)
		filter.Status = &status
	}

	result, err := h.leaseService.ListLeases(c.Request.Context(), organizationID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
