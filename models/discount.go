package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountType represents the kind of discount a code provides.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// DiscountCode is a redeemable code applying a percentage or fixed discount.
// Codes are matched case-insensitively and stored uppercased.
type DiscountCode struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type        DiscountType   `gorm:"type:varchar(20);not null" json:"type"`
	Value       float64        `gorm:"not null" json:"value"`
	MinPurchase float64        `gorm:"not null;default:0" json:"min_purchase"`
	MaxDiscount *float64       `json:"max_discount,omitempty"` // cap for percentage codes; nil = uncapped
	UsageLimit  int            `gorm:"not null;default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount   int            `gorm:"not null;default:0" json:"used_count"`
	StartsAt    time.Time      `gorm:"not null" json:"starts_at"`
	ExpiresAt   time.Time      `gorm:"not null" json:"expires_at"`
	Active      bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// RedeemableAt reports whether the code can be redeemed at the given instant
// for the given subtotal. Usage-limit headroom is checked here as a fast
// pre-check only; the authoritative guard is the conditional increment at
// checkout commit time.
func (d *DiscountCode) RedeemableAt(now time.Time, subtotal float64) bool {
	if !d.Active {
		return false
	}
	if now.Before(d.StartsAt) || now.After(d.ExpiresAt) {
		return false
	}
	if d.UsageLimit > 0 && d.UsedCount >= d.UsageLimit {
		return false
	}
	return subtotal >= d.MinPurchase
}

// CreateDiscountCodeRequest is the admin payload for creating a code.
type CreateDiscountCodeRequest struct {
	Code        string       `json:"code" binding:"required,min=3,max=64"`
	Type        DiscountType `json:"type" binding:"required,oneof=percentage fixed"`
	Value       float64      `json:"value" binding:"required,gt=0"`
	MinPurchase float64      `json:"min_purchase" binding:"gte=0"`
	MaxDiscount *float64     `json:"max_discount,omitempty"`
	UsageLimit  int          `json:"usage_limit" binding:"gte=0"`
	StartsAt    time.Time    `json:"starts_at" binding:"required"`
	ExpiresAt   time.Time    `json:"expires_at" binding:"required"`
}

// UpdateDiscountCodeRequest is the admin payload for updating a code.
type UpdateDiscountCodeRequest struct {
	Value       *float64   `json:"value,omitempty"`
	MinPurchase *float64   `json:"min_purchase,omitempty"`
	MaxDiscount *float64   `json:"max_discount,omitempty"`
	UsageLimit  *int       `json:"usage_limit,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Active      *bool      `json:"active,omitempty"`
}

// ValidateDiscountCodeRequest is the payload for the cart-preview validation endpoint.
type ValidateDiscountCodeRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"required,gt=0"`
}

// ValidateDiscountCodeResponse is returned by the validation endpoint.
// Validation never consumes usage; redemption happens at checkout.
type ValidateDiscountCodeResponse struct {
	Valid          bool         `json:"valid"`
	Code           string       `json:"code"`
	Type           DiscountType `json:"type,omitempty"`
	DiscountAmount float64      `json:"discount_amount"`
	Message        string       `json:"message,omitempty"`
}
