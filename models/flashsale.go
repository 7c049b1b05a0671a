package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashSale is a time-boxed percentage discount over a set of products.
type FlashSale struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title           string         `gorm:"type:varchar(255);not null" json:"title"`
	DiscountPercent float64        `gorm:"not null" json:"discount_percent"`
	StartsAt        time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt          time.Time      `gorm:"not null" json:"ends_at"`
	Active          bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Products []FlashSaleProduct `gorm:"foreignKey:FlashSaleID;constraint:OnDelete:CASCADE" json:"products,omitempty"`
}

// FlashSaleProduct links a flash sale to one product.
type FlashSaleProduct struct {
	FlashSaleID uuid.UUID `gorm:"type:uuid;primaryKey" json:"flash_sale_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"product_id"`
}

// EffectiveAt reports whether the sale applies at the given instant.
func (f *FlashSale) EffectiveAt(now time.Time) bool {
	return f.Active && !now.Before(f.StartsAt) && !now.After(f.EndsAt)
}

// CoversProduct reports whether the sale includes the given product.
func (f *FlashSale) CoversProduct(productID uuid.UUID) bool {
	for _, p := range f.Products {
		if p.ProductID == productID {
			return true
		}
	}
	return false
}

// CreateFlashSaleRequest is the admin payload for creating a flash sale.
type CreateFlashSaleRequest struct {
	Title           string      `json:"title" binding:"required,min=3,max=255"`
	DiscountPercent float64     `json:"discount_percent" binding:"required,gt=0,lte=100"`
	StartsAt        time.Time   `json:"starts_at" binding:"required"`
	EndsAt          time.Time   `json:"ends_at" binding:"required"`
	ProductIDs      []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

// UpdateFlashSaleRequest is the admin payload for updating a flash sale.
type UpdateFlashSaleRequest struct {
	Title           *string     `json:"title,omitempty"`
	DiscountPercent *float64    `json:"discount_percent,omitempty"`
	StartsAt        *time.Time  `json:"starts_at,omitempty"`
	EndsAt          *time.Time  `json:"ends_at,omitempty"`
	Active          *bool       `json:"active,omitempty"`
	ProductIDs      []uuid.UUID `json:"product_ids,omitempty"`
}
