package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/milkround/milkround/internal/auth/domain"
	billingdomain "github.com/milkround/milkround/internal/billing/domain"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	exportdomain "github.com/milkround/milkround/internal/export/domain"
	summarydomain "github.com/milkround/milkround/internal/summary/domain"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// envelope is the uniform response body: success plus either data or
// an error payload, with an optional human message.
type envelope struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   *errorPayload `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Success: true, Data: data, Message: message})
}

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
		c.AbortWithStatusJSON(status, envelope{Success: false, Error: &payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: err.Error()}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	}
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		authdomain.ErrInvalidHandle,
		authdomain.ErrInvalidDisplayName,
		authdomain.ErrInvalidAddress,
		authdomain.ErrInvalidPassword,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidRate,
		deliverydomain.ErrInvalidDate,
		deliverydomain.ErrInvalidQuantity,
		deliverydomain.ErrInvalidStatus,
		deliverydomain.ErrInvalidPeriod,
		deliverydomain.ErrInvalidRate,
		deliverydomain.ErrUnknownCustomer,
		billingdomain.ErrInvalidRange,
		billingdomain.ErrMissingRange,
		summarydomain.ErrInvalidPeriod,
		summarydomain.ErrInvalidRate,
		exportdomain.ErrEmptySnapshot,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		authdomain.ErrAccountNotFound,
		customerdomain.ErrCustomerNotFound,
		deliverydomain.ErrDeliveryNotFound,
		gorm.ErrRecordNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflictError(err error) bool {
	for _, target := range []error{
		ErrConflict,
		authdomain.ErrAccountExists,
		customerdomain.ErrCustomerExists,
		deliverydomain.ErrDeliveryConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUnauthorizedError(err error) bool {
	for _, target := range []error{
		ErrUnauthorized,
		authdomain.ErrInvalidCredentials,
		authdomain.ErrInvalidSession,
		authdomain.ErrSessionExpired,
		authdomain.ErrSessionRevoked,
		authdomain.ErrSessionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
