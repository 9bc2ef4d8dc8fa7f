package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tenancy/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{shared.CodeDuplicateInvoice, http.StatusConflict},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeInvalidInvoiceState, http.StatusUnprocessableEntity},
		{shared.CodeInvalidPaymentState, http.StatusUnprocessableEntity},
		{shared.CodeNoApplicableTerm, http.StatusUnprocessableEntity},
		{shared.CodeLineNotOnInvoice, http.StatusUnprocessableEntity},
		{shared.CodeCreditExceedsRemaining, http.StatusUnprocessableEntity},
		{shared.CodeInvalidShareSet, http.StatusUnprocessableEntity},
		{shared.CodeInvoiceNotFound, http.StatusNotFound},
		{shared.CodeMissingReason, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{"LEASE_NOT_FOUND", http.StatusNotFound},
		{"DUPLICATE_LEASE_NUMBER", http.StatusConflict},
		{"TERM_OVERLAP", http.StatusConflict},
		{"INVALID_ASSET_TYPE", http.StatusBadRequest},
		{"SETTLEMENT_EXCEEDS_TOTAL", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 45, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
