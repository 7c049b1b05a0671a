package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
)

// DiscountSource records where a quoted price came from.
type DiscountSource string

const (
	DiscountSourceNone      DiscountSource = "none"
	DiscountSourceFlashSale DiscountSource = "flash_sale"
)

// PriceQuote is the authoritative unit price for one cart line at a given
// instant. OriginalPrice is the pre-flash-sale selling price.
type PriceQuote struct {
	UnitPrice      float64        `json:"unit_price"`
	OriginalPrice  float64        `json:"original_price"`
	DiscountSource DiscountSource `json:"discount_source"`
	FlashSaleID    *uuid.UUID     `json:"flash_sale_id,omitempty"`
}

// QuoteUnitPrice computes the flash-sale-adjusted unit price. Pure function:
// same inputs, same output, nothing mutated. Among the sales that cover the
// product and are effective at now, the highest discount percent wins.
func QuoteUnitPrice(product *models.Product, variant *models.ProductVariant, sales []models.FlashSale, now time.Time) PriceQuote {
	base := product.SellingPrice(variant)
	quote := PriceQuote{
		UnitPrice:      base,
		OriginalPrice:  base,
		DiscountSource: DiscountSourceNone,
	}

	var best *models.FlashSale
	for i := range sales {
		sale := &sales[i]
		if !sale.EffectiveAt(now) || !sale.CoversProduct(product.ID) {
			continue
		}
		if best == nil || sale.DiscountPercent > best.DiscountPercent {
			best = sale
		}
	}

	if best != nil {
		price := base * (1 - best.DiscountPercent/100)
		if price < 0 {
			price = 0
		}
		saleID := best.ID
		quote.UnitPrice = price
		quote.DiscountSource = DiscountSourceFlashSale
		quote.FlashSaleID = &saleID
	}

	return quote
}

// CodeDiscount computes the discount a code grants on an already
// flash-sale-adjusted subtotal. Codes compose on top of flash sales; the two
// are never computed independently and compared. Returns 0 when the code is
// not redeemable. Pure function; UsedCount is consumed at checkout commit,
// never here.
func CodeDiscount(code *models.DiscountCode, subtotal float64, now time.Time) float64 {
	if code == nil || !code.RedeemableAt(now, subtotal) {
		return 0
	}

	var discount float64
	switch code.Type {
	case models.DiscountTypePercentage:
		discount = subtotal * code.Value / 100
		if code.MaxDiscount != nil && discount > *code.MaxDiscount {
			discount = *code.MaxDiscount
		}
	case models.DiscountTypeFixed:
		discount = code.Value
	}

	if discount > subtotal {
		discount = subtotal // total never goes negative
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// PricingService resolves the read-mostly flash-sale and discount state per
// request and delegates the arithmetic to the pure functions above.
type PricingService interface {
	EffectiveSales(ctx context.Context, now time.Time) ([]models.FlashSale, *ServiceError)
	QuoteLine(ctx context.Context, product *models.Product, variant *models.ProductVariant, now time.Time) (PriceQuote, *ServiceError)
	ResolveCode(ctx context.Context, code string, subtotal float64, now time.Time) (*models.DiscountCode, float64, *ServiceError)
	ValidateCode(ctx context.Context, req *models.ValidateDiscountCodeRequest) (*models.ValidateDiscountCodeResponse, *ServiceError)
}

type pricingServiceImpl struct {
	flashSaleRepo repository.FlashSaleRepository
	discountRepo  repository.DiscountRepository
}

// NewPricingService creates a new PricingService.
func NewPricingService(flashSaleRepo repository.FlashSaleRepository, discountRepo repository.DiscountRepository) PricingService {
	return &pricingServiceImpl{flashSaleRepo: flashSaleRepo, discountRepo: discountRepo}
}

// EffectiveSales loads the sales live at now, once per request, so callers
// pricing a multi-line cart hit the pure function with a single snapshot.
func (s *pricingServiceImpl) EffectiveSales(ctx context.Context, now time.Time) ([]models.FlashSale, *ServiceError) {
	sales, err := s.flashSaleRepo.FindEffective(ctx, now)
	if err != nil {
		return nil, internalError("Failed to load flash sales")
	}
	return sales, nil
}

func (s *pricingServiceImpl) QuoteLine(ctx context.Context, product *models.Product, variant *models.ProductVariant, now time.Time) (PriceQuote, *ServiceError) {
	sales, svcErr := s.EffectiveSales(ctx, now)
	if svcErr != nil {
		return PriceQuote{}, svcErr
	}
	return QuoteUnitPrice(product, variant, sales, now), nil
}

// ResolveCode loads an explicitly supplied code and computes its discount on
// the given subtotal. An explicitly supplied code that is not redeemable is a
// DISCOUNT_CODE_INVALID error, not a silent ignore.
func (s *pricingServiceImpl) ResolveCode(ctx context.Context, code string, subtotal float64, now time.Time) (*models.DiscountCode, float64, *ServiceError) {
	dc, err := s.discountRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, 0, newServiceError(http.StatusUnprocessableEntity, CodeDiscountCodeInvalid, "Discount code not found or inactive")
	}

	if !dc.RedeemableAt(now, subtotal) {
		return nil, 0, newServiceError(http.StatusUnprocessableEntity, CodeDiscountCodeInvalid, codeRejectionMessage(dc, subtotal, now))
	}

	return dc, CodeDiscount(dc, subtotal, now), nil
}

// ValidateCode powers the cart-preview endpoint. It never consumes usage.
func (s *pricingServiceImpl) ValidateCode(ctx context.Context, req *models.ValidateDiscountCodeRequest) (*models.ValidateDiscountCodeResponse, *ServiceError) {
	now := time.Now()

	dc, err := s.discountRepo.FindByCode(ctx, req.Code)
	if err != nil {
		return &models.ValidateDiscountCodeResponse{
			Valid:   false,
			Code:    req.Code,
			Message: "Discount code not found or inactive",
		}, nil
	}

	if !dc.RedeemableAt(now, req.Subtotal) {
		return &models.ValidateDiscountCodeResponse{
			Valid:   false,
			Code:    dc.Code,
			Message: codeRejectionMessage(dc, req.Subtotal, now),
		}, nil
	}

	return &models.ValidateDiscountCodeResponse{
		Valid:          true,
		Code:           dc.Code,
		Type:           dc.Type,
		DiscountAmount: CodeDiscount(dc, req.Subtotal, now),
	}, nil
}

func codeRejectionMessage(dc *models.DiscountCode, subtotal float64, now time.Time) string {
	switch {
	case !dc.Active:
		return "Discount code is inactive"
	case now.Before(dc.StartsAt):
		return "Discount code is not active yet"
	case now.After(dc.ExpiresAt):
		return "Discount code has expired"
	case dc.UsageLimit > 0 && dc.UsedCount >= dc.UsageLimit:
		return "Discount code usage limit reached"
	case subtotal < dc.MinPurchase:
		return fmt.Sprintf("Minimum purchase of %.2f required", dc.MinPurchase)
	default:
		return "Discount code is not redeemable"
	}
}
