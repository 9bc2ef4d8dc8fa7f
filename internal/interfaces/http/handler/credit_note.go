package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/tenancy/backend/internal/application/billing"
	"github.com/tenancy/backend/internal/interfaces/http/middleware"
)

// CreditNoteHandler handles credit note API endpoints
type CreditNoteHandler struct {
	BaseHandler
	creditNoteService *billingapp.CreditNoteService
}

// NewCreditNoteHandler creates a new CreditNoteHandler
func NewCreditNoteHandler(creditNoteService *billingapp.CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{creditNoteService: creditNoteService}
}

// Create creates an unapplied credit note against an issued invoice.
// POST /billing/credit-notes
func (h *CreditNoteHandler) Create(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}

	var req billingapp.CreateCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.creditNoteService.CreateCreditNote(c.Request.Context(), organizationID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Apply applies a credit note to its invoice and recomputes the invoice in
// the same transaction.
// POST /billing/credit-notes/:id/apply
func (h *CreditNoteHandler) Apply(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user")
		return
	}
	creditNoteID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid credit note ID")
		return
	}

	resp, err := h.creditNoteService.ApplyCreditNote(c.Request.Context(), organizationID, creditNoteID, operatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Void voids an unapplied credit note with a mandatory reason.
// POST /billing/credit-notes/:id/void
func (h *CreditNoteHandler) Void(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	creditNoteID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid credit note ID")
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.creditNoteService.VoidCreditNote(c.Request.Context(), organizationID, creditNoteID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get returns one credit note.
// GET /billing/credit-notes/:id
func (h *CreditNoteHandler) Get(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid organization")
		return
	}
	creditNoteID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid credit note ID")
		return
	}

	resp, err := h.creditNoteService.GetCreditNote(c.Request.Context(), organizationID, creditNoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByInvoice returns all credit notes raised against an invoice.
// GET /billing/invoices/:id/credit-notes
func (h *CreditNoteHandler) ListByInvoice(c *gin.Context) {
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

	resp, err := h.creditNoteService.ListCreditNotesByInvoice(c.Request.Context(), organizationID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
