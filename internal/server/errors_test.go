package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/smallbiznis/ppmp/internal/authorization"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	purchasedomain "github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"anonymous actor", authorization.ErrInvalidActor, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"plan missing", ppmpdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"voucher missing", disbursementdomain.ErrVoucherNotFound, http.StatusNotFound, "not_found"},
		{"record missing", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"duplicate item", ppmpdomain.ErrDuplicateItemNo, http.StatusConflict, "conflict"},
		{"duplicate link", disbursementdomain.ErrDuplicateLink, http.StatusConflict, "conflict"},
		{"transition locked", ppmpdomain.ErrTransitionInProgress, http.StatusConflict, "conflict"},
		{"guard", lifecycle.ErrNoItems, http.StatusBadRequest, "validation_error"},
		{"field", ppmpdomain.ErrInvalidQuantity, http.StatusBadRequest, "validation_error"},
		{"purchase request missing", purchasedomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"duplicate pr number", purchasedomain.ErrDuplicatePRNo, http.StatusConflict, "conflict"},
		{"purchase request locked", purchasedomain.ErrNotEditable, http.StatusForbidden, "forbidden"},
		{"purchase request transition", purchasedomain.ErrTransition, http.StatusBadRequest, "validation_error"},
		{"pr number", purchasedomain.ErrInvalidPRNo, http.StatusBadRequest, "validation_error"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(fmt.Errorf("wrapped: %w", tc.err))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, payload.Type)
		})
	}
}

func TestMapErrorHidesInternalCause(t *testing.T) {
	_, payload := mapError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", payload.Message)
}

func TestGuardErrorCarriesField(t *testing.T) {
	_, payload := mapError(lifecycle.ErrRejectReasonMissing)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "reason", payload.Errors[0].Field)
		assert.Equal(t, "Rejection reason is required", payload.Message)
	}
}

func TestValidationFieldFromCode(t *testing.T) {
	assert.Equal(t, "unit_cost", validationErrorField("invalid_unit_cost"))
	assert.Equal(t, "request", validationErrorField("invalid_request"))
	assert.Equal(t, "invalid unit cost", validationErrorMessage("invalid_unit_cost", "unit_cost"))
}

func TestValidationCodeUnwrapsSentinel(t *testing.T) {
	_, payload := mapError(fmt.Errorf("add item: %w", ppmpdomain.ErrInvalidUnitCost))
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "invalid_unit_cost", payload.Errors[0].Code)
		assert.Equal(t, "unit_cost", payload.Errors[0].Field)
	}
}
