// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/sessions/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON response using Gin.
//
// Every per-request authentication failure keeps its own code so callers can
// distinguish "please log in again" (token_expired) from "this looks tampered"
// (token_malformed, signature_invalid); none of them surfaces as an opaque 500.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	// Map domain errors to HTTP status codes
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "conflict",
			Message: "A conflict occurred with existing data",
		}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusUnprocessableEntity
		errorResponse = ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		}

	case apperrors.Is(err, apperrors.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "token_expired",
			Message: "The session has expired, please authenticate again",
		}

	case apperrors.Is(err, apperrors.ErrTokenMalformed):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "token_malformed",
			Message: "The session token could not be decoded",
		}

	case apperrors.Is(err, apperrors.ErrSignatureInvalid):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "signature_invalid",
			Message: "The session token signature could not be verified",
		}

	case apperrors.Is(err, apperrors.ErrUnauthenticated):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication is required",
		}

	case apperrors.Is(err, apperrors.ErrStoreUnavailable):
		statusCode = http.StatusServiceUnavailable
		errorResponse = ErrorResponse{
			Error:   "store_unavailable",
			Message: "The identity store is temporarily unavailable",
		}

	case apperrors.Is(err, apperrors.ErrLookupTimeout):
		statusCode = http.StatusGatewayTimeout
		errorResponse = ErrorResponse{
			Error:   "lookup_timeout",
			Message: "The identity lookup timed out",
		}

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}

	// Log the full error details (including wrapped errors)
	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters using Gin.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors using Gin.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	}

	c.JSON(http.StatusUnprocessableEntity, errorResponse)
}

// MakeJSONResponse writes a JSON response with the given status code using the
// standard library response writer. Used outside Gin handler chains.
func MakeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
