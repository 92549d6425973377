package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leave-balance-ledger/internal/api_gateway/middleware"
	"github.com/leave-balance-ledger/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// MetaInfo represents metadata in a response
type MetaInfo struct {
	TotalItems int `json:"total_items"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respondWithErrorInfo(c, statusCode, &ErrorInfo{Code: code, Message: message})
}

func respondWithErrorInfo(c *gin.Context, statusCode int, info *ErrorInfo) {
	c.JSON(statusCode, &Response{
		Error:         info,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithList sends a 200 OK response with a list and its size
func RespondWithList(c *gin.Context, data interface{}, totalItems int) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	response.Meta = &MetaInfo{TotalItems: totalItems}
	c.JSON(http.StatusOK, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondUnauthorized sends a 401 Unauthorized response with an error
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentification requise"
	}
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Erreur interne du serveur")
}

// RespondError maps a service error to its HTTP status. Business rejections are
// logged at Warn with their message returned to the client; anything else is
// logged at Error and hidden behind a generic 500.
func RespondError(c *gin.Context, logger *slog.Logger, err error) {
	status, info := classify(err)
	if info == nil {
		logger.Error("Request failed", "path", c.FullPath(), "correlation_id", middleware.GetCorrelationID(c), "error", err)
		RespondInternalError(c)
		return
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "code", info.Code, "error", err)
	} else {
		logger.Warn("Request rejected", "path", c.FullPath(), "code", info.Code, "error", err)
	}
	respondWithErrorInfo(c, status, info)
}

func classify(err error) (int, *ErrorInfo) {
	var (
		insufficient     shared.InsufficientBalanceError
		alreadyProcessed shared.AlreadyProcessedError
		notOwner         shared.NotOwnerError
		notFound         shared.NotFoundError
		conflict         shared.ConflictError
		invalidRange     shared.InvalidRangeError
		invalidDuration  shared.InvalidDurationError
		validation       shared.ValidationError
		configuration    shared.ConfigurationError
	)

	switch {
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity, &ErrorInfo{
			Code:    "INSUFFICIENT_BALANCE",
			Message: insufficient.Error(),
			Details: gin.H{
				"year":               insufficient.Year,
				"specific_remaining": insufficient.SpecificRemaining,
				"general_remaining":  insufficient.GeneralRemaining,
				"requested":          insufficient.Requested,
				"shortfall":          insufficient.Shortfall(),
			},
		}
	case errors.As(err, &alreadyProcessed):
		return http.StatusConflict, &ErrorInfo{Code: "ALREADY_PROCESSED", Message: alreadyProcessed.Error()}
	case errors.As(err, &notOwner):
		return http.StatusForbidden, &ErrorInfo{Code: "FORBIDDEN", Message: notOwner.Error()}
	case errors.As(err, &notFound):
		return http.StatusNotFound, &ErrorInfo{Code: "NOT_FOUND", Message: notFound.Error()}
	case errors.As(err, &conflict):
		return http.StatusConflict, &ErrorInfo{Code: "CONFLICT", Message: conflict.Error()}
	case errors.As(err, &invalidRange):
		return http.StatusBadRequest, &ErrorInfo{Code: "INVALID_RANGE", Message: invalidRange.Error()}
	case errors.As(err, &invalidDuration):
		return http.StatusBadRequest, &ErrorInfo{Code: "INVALID_DURATION", Message: invalidDuration.Error()}
	case errors.As(err, &validation):
		return http.StatusBadRequest, &ErrorInfo{Code: "VALIDATION_ERROR", Message: validation.Error()}
	case errors.As(err, &configuration):
		return http.StatusInternalServerError, &ErrorInfo{Code: "CONFIGURATION_ERROR", Message: configuration.Error()}
	}
	return http.StatusInternalServerError, nil
}
