package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/tenancy/backend/internal/application/billing"
	"github.com/tenancy/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler handles invoice lifecycle API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// IssueInvoiceRequest carries the version the caller last read. The service
// rejects the call when the invoice has changed since.
type IssueInvoiceRequest struct {
	ExpectedVersion int `json:"expected_version" binding:"required,min=1"`
}

// ReasonRequest carries a mandatory reason plus the caller's version token
// for void and write-off calls
type ReasonRequest struct {
	Reason          string `json:"reason" binding:"required,min=1,max=500"`
	ExpectedVersion int    `json:"expected_version" binding:"required,min=1"`
}

// Generate builds or regenerates the draft invoice for a lease billing period.
// POST /billing/invoices/generate
func (h *InvoiceHandler) Generate(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req billingapp.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.GenerateInvoice(c.Request.Context(), organizationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Issue transitions a draft invoice to issued.
// POST /billing/invoices/:id/issue
func (h *InvoiceHandler) Issue(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req IssueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.IssueInvoice(c.Request.Context(), organizationID, invoiceID, req.ExpectedVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Void voids an issued invoice with a mandatory reason.
// POST /billing/invoices/:id/void
func (h *InvoiceHandler) Void(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.VoidInvoice(c.Request.Context(), organizationID, invoiceID, req.Reason, req.ExpectedVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// WriteOff writes off the remaining balance of an invoice.
// POST /billing/invoices/:id/write-off
func (h *InvoiceHandler) WriteOff(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.WriteOffInvoice(c.Request.Context(), organizationID, invoiceID, req.Reason, req.ExpectedVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Recompute re-derives the invoice's paid/credited sums and status from storage.
// POST /billing/invoices/:id/recompute
func (h *InvoiceHandler) Recompute(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.invoiceService.RecomputeInvoice(c.Request.Context(), organizationID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one invoice.
// GET /billing/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), organizationID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns invoices filtered by lease, status and overdue flag.
// GET /billing/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), organizationID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
