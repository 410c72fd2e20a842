package domain

import "errors"

var (
	ErrPayloadTooLarge        = errors.New("image exceeds maximum allowed size")
	ErrEmptyImage             = errors.New("image payload is empty")
	ErrUnsupportedImageType   = errors.New("unsupported image type")
	ErrMalformedModelOutput   = errors.New("model output is missing required fields or fails type validation")
	ErrAnalysisUnavailable    = errors.New("bill analysis is unavailable")
	ErrLetterGenerationFailed = errors.New("inquiry letter generation failed")
	ErrInvalidFinancialInput  = errors.New("invalid financial input")
	ErrAnalyzerNotConfigured  = errors.New("analyzer credential is not configured")
	ErrHospitalNotFound       = errors.New("hospital not found")
	ErrEmailDeliveryFailed    = errors.New("letter email delivery failed")
)
