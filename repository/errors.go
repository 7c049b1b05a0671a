package repository

import "errors"

// Sentinel errors surfaced by the data layer. Services map these onto typed
// ServiceErrors; they are never retried except where the caller explicitly
// retries transient contention.
var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrDiscountNotFound     = errors.New("discount code not found")
	ErrFlashSaleNotFound    = errors.New("flash sale not found")
	ErrInsufficientFunds    = errors.New("insufficient wallet balance")
	ErrStockUnavailable     = errors.New("insufficient stock")
	ErrDiscountLimitReached = errors.New("discount code usage limit reached")
)
