package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxCheckoutAttempts bounds retries on transient data-store contention.
// Business-rule failures are never retried.
const maxCheckoutAttempts = 3

// CartLine is one product/variant + quantity in a checkout request.
type CartLine struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" binding:"required,min=1"`
}

// CheckoutRequest is the payload for POST /checkout.
type CheckoutRequest struct {
	Lines         []CartLine           `json:"lines" binding:"required,min=1,dive"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required,oneof=wallet cash_on_delivery gateway"`
	DiscountCode  *string              `json:"discount_code,omitempty"`
}

// CheckoutService executes checkout: price the cart at the current instant,
// then commit stock decrement, order creation with snapshotted prices,
// discount redemption and wallet settlement as one transaction.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*models.Order, *ServiceError)
}

type checkoutServiceImpl struct {
	tx           repository.Transactor
	orderRepo    repository.OrderRepository
	walletRepo   repository.WalletRepository
	productRepo  repository.ProductRepository
	discountRepo repository.DiscountRepository
	pricing      PricingService
	catalog      *CatalogClient
	events       *EventPublisher
	logger       *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. catalog may be nil when
// the product mirror is maintained out of band.
func NewCheckoutService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	walletRepo repository.WalletRepository,
	productRepo repository.ProductRepository,
	discountRepo repository.DiscountRepository,
	pricing PricingService,
	catalog *CatalogClient,
	events *EventPublisher,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		tx:           tx,
		orderRepo:    orderRepo,
		walletRepo:   walletRepo,
		productRepo:  productRepo,
		discountRepo: discountRepo,
		pricing:      pricing,
		catalog:      catalog,
		events:       events,
		logger:       logger,
	}
}

// pricedLine carries a cart line with its authoritative snapshot price.
type pricedLine struct {
	line    CartLine
	quote   PriceQuote
	product *models.Product
	variant *models.ProductVariant
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*models.Order, *ServiceError) {
	now := time.Now()

	priced, subtotal, svcErr := s.priceCart(ctx, req.Lines, now)
	if svcErr != nil {
		return nil, svcErr
	}

	var (
		code     *models.DiscountCode
		discount float64
	)
	if req.DiscountCode != nil && *req.DiscountCode != "" {
		code, discount, svcErr = s.pricing.ResolveCode(ctx, *req.DiscountCode, subtotal, now)
		if svcErr != nil {
			return nil, svcErr
		}
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	var wallet *models.Wallet
	if req.PaymentMethod == models.PaymentMethodWallet {
		w, err := s.walletRepo.FindByUserID(ctx, userID)
		if err != nil {
			return nil, mapRepoError(err, "Failed to fetch wallet")
		}
		wallet = w
	}

	var order *models.Order
	var debit *models.WalletTransaction

	for attempt := 1; attempt <= maxCheckoutAttempts; attempt++ {
		order, debit, svcErr = s.commit(ctx, userID, priced, code, subtotal, discount, total, req.PaymentMethod, wallet)
		if svcErr == nil {
			break
		}
		if !svcErr.retryable || attempt == maxCheckoutAttempts {
			return nil, svcErr
		}
		s.logger.Warn("Checkout contention, retrying",
			zap.Int("attempt", attempt),
			zap.String("user_id", userID.String()),
		)
	}

	s.logger.Info("Checkout committed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", string(req.PaymentMethod)),
		zap.Float64("total", order.Total),
	)

	s.events.OrderEvent(ctx, models.EventOrderCreated, order)
	if order.Status == models.OrderStatusPaid {
		s.events.OrderEvent(ctx, models.EventOrderPaid, order)
	}
	if debit != nil {
		s.events.WalletEvent(ctx, models.EventWalletDebited, userID.String(), debit)
	}

	return order, nil
}

// priceCart quotes every line at the checkout instant with one flash-sale
// snapshot and rejects lines whose live stock is already short.
func (s *checkoutServiceImpl) priceCart(ctx context.Context, lines []CartLine, now time.Time) ([]pricedLine, float64, *ServiceError) {
	sales, svcErr := s.pricing.EffectiveSales(ctx, now)
	if svcErr != nil {
		return nil, 0, svcErr
	}

	priced := make([]pricedLine, 0, len(lines))
	var subtotal float64

	for _, line := range lines {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err == repository.ErrProductNotFound && s.catalog != nil {
			product, err = s.catalog.MirrorProduct(ctx, line.ProductID)
		}
		if err != nil {
			return nil, 0, mapRepoError(err, "Failed to fetch product")
		}

		var variant *models.ProductVariant
		stock := product.Stock
		if line.VariantID != nil {
			v, err := s.productRepo.FindVariant(ctx, *line.VariantID)
			if err != nil {
				return nil, 0, mapRepoError(err, "Failed to fetch variant")
			}
			variant = v
			stock = v.Stock
		}

		if stock < line.Quantity {
			return nil, 0, newServiceError(http.StatusConflict, CodeStockUnavailable,
				fmt.Sprintf("Insufficient stock for product %s", product.Name))
		}

		quote := QuoteUnitPrice(product, variant, sales, now)
		subtotal += quote.UnitPrice * float64(line.Quantity)
		priced = append(priced, pricedLine{line: line, quote: quote, product: product, variant: variant})
	}

	return priced, subtotal, nil
}

// commit runs the single atomic transaction. Any failure rolls back stock,
// discount usage and wallet movement together; no partial order is ever
// observable.
func (s *checkoutServiceImpl) commit(
	ctx context.Context,
	userID uuid.UUID,
	priced []pricedLine,
	code *models.DiscountCode,
	subtotal, discount, total float64,
	method models.PaymentMethod,
	wallet *models.Wallet,
) (*models.Order, *models.WalletTransaction, *ServiceError) {
	var (
		svcErr *ServiceError
		order  *models.Order
		debit  *models.WalletTransaction
	)

	err := s.tx.InTransaction(ctx, func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		for _, pl := range priced {
			if err := products.DecrementStock(ctx, pl.line.ProductID, pl.line.VariantID, pl.line.Quantity); err != nil {
				if err == repository.ErrStockUnavailable {
					svcErr = newServiceError(http.StatusConflict, CodeStockUnavailable,
						fmt.Sprintf("Insufficient stock for product %s", pl.product.Name))
					return svcErr
				}
				return err
			}
		}

		if code != nil {
			if err := s.discountRepo.WithTx(tx).ConsumeUsage(ctx, code.Code); err != nil {
				if err == repository.ErrDiscountLimitReached {
					svcErr = newServiceError(http.StatusUnprocessableEntity, CodeDiscountCodeInvalid,
						"Discount code usage limit reached")
					return svcErr
				}
				return err
			}
		}

		status := models.OrderStatusAwaitingPayment
		paymentStatus := models.PaymentStatusAwaitingPayment
		if method == models.PaymentMethodWallet {
			status = models.OrderStatusPaid
			paymentStatus = models.PaymentStatusPaid
		}

		items := make([]models.OrderItem, 0, len(priced))
		for _, pl := range priced {
			items = append(items, models.OrderItem{
				ProductID:     pl.line.ProductID,
				VariantID:     pl.line.VariantID,
				Quantity:      pl.line.Quantity,
				UnitPrice:     pl.quote.UnitPrice,
				OriginalPrice: pl.quote.OriginalPrice,
			})
		}

		order = &models.Order{
			OrderNumber:   newOrderNumber(),
			UserID:        userID,
			Subtotal:      subtotal,
			Discount:      discount,
			Total:         total,
			PaymentMethod: method,
			PaymentStatus: paymentStatus,
			Status:        status,
			Items:         items,
		}
		if code != nil {
			c := code.Code
			order.DiscountCode = &c
		}

		orders := s.orderRepo.WithTx(tx)
		if err := orders.Create(ctx, order); err != nil {
			return err
		}

		if method == models.PaymentMethodWallet {
			// ledger entries are strictly positive; a fully discounted order
			// settles without a wallet movement
			note := "order fully discounted, no balance due"
			if total > 0 {
				entry, err := s.walletRepo.WithTx(tx).Debit(ctx, wallet.ID, total,
					fmt.Sprintf("Payment for order %s", order.OrderNumber), &order.ID)
				if err != nil {
					if err == repository.ErrInsufficientFunds {
						svcErr = newServiceError(http.StatusUnprocessableEntity, CodeInsufficientFunds,
							"Insufficient wallet balance")
						return svcErr
					}
					return err
				}
				debit = entry
				note = "wallet debit settled"
			}

			event := &models.OrderStatusEvent{
				OrderID:    order.ID,
				FromStatus: models.OrderStatusAwaitingPayment,
				ToStatus:   models.OrderStatusPaid,
				Actor:      models.ActorSystem,
				Note:       note,
			}
			if err := orders.RecordStatusEvent(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if svcErr != nil {
			return nil, nil, svcErr
		}
		if isRetryableTxError(err) {
			retry := internalError("Checkout contention")
			retry.retryable = true
			return nil, nil, retry
		}
		s.logger.Error("Checkout transaction failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, nil, internalError("Checkout failed")
	}

	return order, debit, nil
}

func newOrderNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "ORD-" + id[:12]
}

// isRetryableTxError spots transient contention the atomic section may retry
// transparently; everything else surfaces as-is.
func isRetryableTxError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "40001")
}
