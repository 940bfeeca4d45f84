package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/ppmp/internal/auth/domain"
	"github.com/smallbiznis/ppmp/internal/authorization"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	notificationdomain "github.com/smallbiznis/ppmp/internal/notification/domain"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/ppmp/lifecycle"
	purchasedomain "github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	reportingdomain "github.com/smallbiznis/ppmp/internal/reporting/domain"
	"github.com/smallbiznis/ppmp/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if lifecycle.IsGuardError(err) {
		message := lifecycle.Message(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: message,
			Errors: []ValidationError{
				{
					Field:   guardErrorField(err),
					Code:    err.Error(),
					Message: message,
				},
			},
		}
	}

	if isPurchaseGuardError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: purchaseGuardMessage(err),
			Errors: []ValidationError{
				{
					Field:   purchaseGuardField(err),
					Code:    err.Error(),
					Message: purchaseGuardMessage(err),
				},
			},
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		field := validationErrorField(code)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   field,
					Code:    code,
					Message: validationErrorMessage(code, field),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, purchasedomain.ErrNotEditable):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds error_type and error_code into the access log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal_error"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		ppmpdomain.IsValidationError(err),
		purchasedomain.IsValidationError(err),
		errors.Is(err, disbursementdomain.ErrInvalidVoucherID),
		errors.Is(err, disbursementdomain.ErrInvalidItemID),
		errors.Is(err, disbursementdomain.ErrInvalidSearchLimit),
		errors.Is(err, reportingdomain.ErrInvalidFiscalYear),
		errors.Is(err, reportingdomain.ErrInvalidDepartment),
		errors.Is(err, notificationdomain.ErrInvalidNotice):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		ppmpdomain.IsNotFound(err),
		errors.Is(err, disbursementdomain.ErrVoucherNotFound),
		errors.Is(err, disbursementdomain.ErrLinkNotFound),
		errors.Is(err, purchasedomain.ErrNotFound),
		errors.Is(err, purchasedomain.ErrLineNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, ppmpdomain.ErrDuplicateItemNo),
		errors.Is(err, ppmpdomain.ErrTransitionInProgress),
		errors.Is(err, disbursementdomain.ErrDuplicateLink),
		errors.Is(err, purchasedomain.ErrDuplicatePRNo),
		db.IsDuplicateKeyErr(err):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, ppmpdomain.ErrDuplicateItemNo):
		return "item number already exists in this PPMP"
	case errors.Is(err, disbursementdomain.ErrDuplicateLink):
		return "disbursement is already linked to this item"
	case errors.Is(err, ppmpdomain.ErrTransitionInProgress):
		return "another status change is in progress"
	case errors.Is(err, purchasedomain.ErrDuplicatePRNo):
		return "purchase request number already exists"
	default:
		return "conflict"
	}
}

func guardErrorField(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrNoItems):
		return "items"
	case errors.Is(err, lifecycle.ErrNoAllocations):
		return "budget_allocations"
	case errors.Is(err, lifecycle.ErrRejectReasonMissing):
		return "reason"
	case errors.Is(err, lifecycle.ErrNotAuthor):
		return "prepared_by_id"
	default:
		return "status"
	}
}

func isPurchaseGuardError(err error) bool {
	return errors.Is(err, purchasedomain.ErrTransition) || errors.Is(err, purchasedomain.ErrNoLines)
}

func purchaseGuardField(err error) string {
	if errors.Is(err, purchasedomain.ErrNoLines) {
		return "products"
	}
	return "status"
}

func purchaseGuardMessage(err error) string {
	if errors.Is(err, purchasedomain.ErrNoLines) {
		return "purchase request has no products"
	}
	return "status change is not allowed"
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code, field string) string {
	switch {
	case code == "invalid_request":
		return "invalid request"
	case field != "":
		return "invalid " + strings.ReplaceAll(field, "_", " ")
	default:
		return "invalid value"
	}
}
