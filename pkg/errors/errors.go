package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Business rule errors
	ErrCodeInsufficientFunds    ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeAssetNotHeld         ErrorCode = "ASSET_NOT_HELD"
	ErrCodeInsufficientHoldings ErrorCode = "INSUFFICIENT_HOLDINGS"
	ErrCodeDuplicateEntry       ErrorCode = "DUPLICATE_ENTRY"
	ErrCodeTradePartial         ErrorCode = "TRADE_PARTIALLY_APPLIED"

	// Resource errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// System errors
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// SenseiError represents a standardized error
type SenseiError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *SenseiError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// New creates a new SenseiError
func New(code ErrorCode, message string) *SenseiError {
	return &SenseiError{
		Code:       code,
		Message:    message,
		StatusCode: httpStatusFor(code),
	}
}

// AddDetail attaches structured context to the error
func (e *SenseiError) AddDetail(key string, value interface{}) *SenseiError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// AsSenseiError extracts a *SenseiError from an error chain, if present
func AsSenseiError(err error) (*SenseiError, bool) {
	var se *SenseiError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func httpStatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation, ErrCodeInvalidInput,
		ErrCodeInsufficientFunds, ErrCodeAssetNotHeld, ErrCodeInsufficientHoldings:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateEntry:
		return http.StatusConflict
	case ErrCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

func Unauthorized(message string) *SenseiError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *SenseiError {
	return New(ErrCodeForbidden, message)
}

func ValidationError(message string) *SenseiError {
	return New(ErrCodeValidation, message)
}

func NotFound(resource string) *SenseiError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InsufficientFunds(available, required string) *SenseiError {
	return New(ErrCodeInsufficientFunds, "insufficient funds").
		AddDetail("available", available).
		AddDetail("required", required)
}

func AssetNotHeld(symbol string) *SenseiError {
	return New(ErrCodeAssetNotHeld, fmt.Sprintf("no holding for %s in this portfolio", symbol)).
		AddDetail("symbol", symbol)
}

func InsufficientHoldings(symbol, available, requested string) *SenseiError {
	return New(ErrCodeInsufficientHoldings, fmt.Sprintf("not enough %s to sell", symbol)).
		AddDetail("symbol", symbol).
		AddDetail("available", available).
		AddDetail("requested", requested)
}

func DuplicateEntry(message string) *SenseiError {
	return New(ErrCodeDuplicateEntry, message)
}

// TradePartiallyApplied signals that the portfolio mutation committed but a
// later step of the trade sequence failed. The economic state has changed,
// so this must never be masked as a plain internal error.
func TradePartiallyApplied(step string, cause error) *SenseiError {
	return New(ErrCodeTradePartial, "trade applied but post-trade bookkeeping failed").
		AddDetail("failed_step", step).
		AddDetail("cause", cause.Error())
}

func Internal(message string) *SenseiError {
	return New(ErrCodeInternal, message)
}

func ServiceUnavailable(service string) *SenseiError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("%s service unavailable", service))
}
