package services

import (
	"errors"
	"net/http"

	"settlement-service/repository"
)

// Machine-readable error codes surfaced to the UI layer. Business-rule
// violations are terminal for the attempt and never retried.
const (
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeStockUnavailable    = "STOCK_UNAVAILABLE"
	CodeDiscountCodeInvalid = "DISCOUNT_CODE_INVALID"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeWalletNotFound      = "WALLET_NOT_FOUND"
	CodeProductNotFound     = "PRODUCT_NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string

	// retryable marks transient data-store contention; only the atomic
	// checkout section retries these, with bounded attempts.
	retryable bool
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newServiceError(status int, code, message string) *ServiceError {
	return &ServiceError{StatusCode: status, Code: code, Message: message}
}

func internalError(message string) *ServiceError {
	return newServiceError(http.StatusInternalServerError, CodeInternal, message)
}

// mapRepoError converts data-layer sentinels into typed service errors.
func mapRepoError(err error, fallback string) *ServiceError {
	switch {
	case errors.Is(err, repository.ErrWalletNotFound):
		return newServiceError(http.StatusNotFound, CodeWalletNotFound, "Wallet not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		return newServiceError(http.StatusNotFound, CodeOrderNotFound, "Order not found")
	case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, repository.ErrVariantNotFound):
		return newServiceError(http.StatusNotFound, CodeProductNotFound, "Product not found")
	case errors.Is(err, repository.ErrInsufficientFunds):
		return newServiceError(http.StatusUnprocessableEntity, CodeInsufficientFunds, "Insufficient wallet balance")
	case errors.Is(err, repository.ErrStockUnavailable):
		return newServiceError(http.StatusConflict, CodeStockUnavailable, "Insufficient stock")
	case errors.Is(err, repository.ErrDiscountNotFound), errors.Is(err, repository.ErrDiscountLimitReached):
		return newServiceError(http.StatusUnprocessableEntity, CodeDiscountCodeInvalid, "Discount code is not redeemable")
	default:
		return internalError(fallback)
	}
}
