package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"billclarity/internal/domain"
	"billclarity/internal/logger"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Retryable tells the caller whether retrying the same request may
	// succeed (provider outages, letter generation).
	Retryable bool `json:"retryable,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes, stable error
// codes, and retryability. The underlying message is carried through: no
// failure is collapsed into a silent default.
func MapDomainError(err error) (status int, apiErr APIError) {
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrEmptyImage):
		return http.StatusBadRequest, APIError{Code: "EMPTY_IMAGE", Message: msg}
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, APIError{Code: "PAYLOAD_TOO_LARGE", Message: msg}
	case errors.Is(err, domain.ErrUnsupportedImageType):
		return http.StatusBadRequest, APIError{Code: "UNSUPPORTED_IMAGE_TYPE", Message: msg}
	case errors.Is(err, domain.ErrInvalidFinancialInput):
		return http.StatusBadRequest, APIError{Code: "INVALID_FINANCIAL_INPUT", Message: msg}
	case errors.Is(err, domain.ErrMalformedModelOutput):
		return http.StatusBadGateway, APIError{Code: "MALFORMED_MODEL_OUTPUT", Message: msg, Retryable: true}
	case errors.Is(err, domain.ErrAnalysisUnavailable):
		return http.StatusServiceUnavailable, APIError{Code: "ANALYSIS_UNAVAILABLE", Message: msg, Retryable: true}
	case errors.Is(err, domain.ErrLetterGenerationFailed):
		return http.StatusServiceUnavailable, APIError{Code: "LETTER_GENERATION_FAILED", Message: msg, Retryable: true}
	case errors.Is(err, domain.ErrEmailDeliveryFailed):
		return http.StatusBadGateway, APIError{Code: "EMAIL_DELIVERY_FAILED", Message: msg, Retryable: true}
	case errors.Is(err, domain.ErrAnalyzerNotConfigured):
		return http.StatusServiceUnavailable, APIError{Code: "ANALYZER_NOT_CONFIGURED", Message: msg}
	case errors.Is(err, domain.ErrHospitalNotFound):
		return http.StatusNotFound, APIError{Code: "HOSPITAL_NOT_FOUND", Message: msg}
	default:
		return http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, apiErr := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		logger.GetLogger().Errorw("request failed", "request_id", requestID, "error", err)
	}
	c.JSON(status, APIResponse{Success: false, Error: &apiErr})
}
