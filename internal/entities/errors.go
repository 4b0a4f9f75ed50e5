package entities

import "net/http"

// ErrorKind classifies every failure a conversion request can produce.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindPayloadTooLarge ErrorKind = "payload_too_large"
	KindRateLimited     ErrorKind = "rate_limited"
	KindTimeout         ErrorKind = "conversion_timeout"
	KindDomainFailure   ErrorKind = "conversion_failed"
)

// ConversionError is the structured failure returned by the
// orchestrator. Raw engine errors are never passed through unclassified.
type ConversionError struct {
	Kind    ErrorKind
	Message string

	// RetryAfter is set only for KindRateLimited.
	RetryAfter int
}

func (e *ConversionError) Error() string { return e.Message }

func (e *ConversionError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(msg string) *ConversionError {
	return &ConversionError{Kind: KindValidation, Message: msg}
}

func NewDomainError(msg string) *ConversionError {
	return &ConversionError{Kind: KindDomainFailure, Message: msg}
}
