package server

import (
	"errors"
	"net/http"
	"strings"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/authorization"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/actorhub/actorhub/internal/reconcile"
	"github.com/actorhub/actorhub/internal/rules"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/gin-gonic/gin"
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
	Code    string            `json:"code,omitempty"`
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
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrTooManyRequests    = errors.New("too_many_requests")
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

// ruleStatus maps refused mutations. Transition and cascade refusals conflict
// with current state; the others reject the payload itself.
var ruleStatus = map[rules.Kind]int{
	rules.KindConstraintViolation:       http.StatusUnprocessableEntity,
	rules.KindIllegalTransition:         http.StatusConflict,
	rules.KindBusinessRuleViolation:     http.StatusUnprocessableEntity,
	rules.KindReferentialCascadeFailure: http.StatusConflict,
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

	if kind, ok := rules.KindOf(err); ok {
		return ruleStatus[kind], errorPayload{
			Type:    string(kind),
			Code:    rules.CodeOf(err),
			Message: err.Error(),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, apikeydomain.ErrInvalidKey):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, actorpackdomain.ErrAlreadyExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
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

// classifyErrorForLog feeds the request logger's error_kind and error_code fields.
func classifyErrorForLog(err error) (string, string) {
	if kind, ok := rules.KindOf(err); ok {
		return string(kind), rules.CodeOf(err)
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", ""
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, ""
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
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, identitydomain.ErrInvalidDisplayName),
		errors.Is(err, listingdomain.ErrInvalidTitle),
		errors.Is(err, actorpackdomain.ErrInvalidName),
		errors.Is(err, payoutdomain.ErrInvalidPeriod),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan),
		errors.Is(err, usagedomain.ErrInvalidIdentity),
		errors.Is(err, usagedomain.ErrInvalidActorPack),
		errors.Is(err, usagedomain.ErrInvalidAction),
		errors.Is(err, usagedomain.ErrInvalidSimilarityScore),
		errors.Is(err, usagedomain.ErrInvalidPageToken),
		errors.Is(err, apikeydomain.ErrInvalidName),
		errors.Is(err, apikeydomain.ErrInvalidUser),
		errors.Is(err, notificationdomain.ErrInvalidTitle),
		errors.Is(err, notificationdomain.ErrInvalidUser),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, auditdomain.ErrInvalidActor),
		errors.Is(err, auditdomain.ErrInvalidResource),
		errors.Is(err, reconcile.ErrUnknownCounter):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, identitydomain.ErrNotFound),
		errors.Is(err, identitydomain.ErrOwnerNotFound),
		errors.Is(err, listingdomain.ErrNotFound),
		errors.Is(err, listingdomain.ErrIdentityNotFound),
		errors.Is(err, actorpackdomain.ErrNotFound),
		errors.Is(err, actorpackdomain.ErrIdentityNotFound),
		errors.Is(err, licensedomain.ErrNotFound),
		errors.Is(err, licensedomain.ErrIdentityNotFound),
		errors.Is(err, transactiondomain.ErrNotFound),
		errors.Is(err, payoutdomain.ErrNotFound),
		errors.Is(err, payoutdomain.ErrUserNotFound),
		errors.Is(err, subscriptiondomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrUserNotFound),
		errors.Is(err, apikeydomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, reconcile.ErrUnknownCounter):
		return reconcile.ErrUnknownCounter.Error()
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if field, ok := strings.CutPrefix(code, "invalid_"); ok {
		return field
	}
	if code == reconcile.ErrUnknownCounter.Error() {
		return "counter"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_time_range":
		return "start_at must not be after end_at"
	default:
		return "invalid value"
	}
}
