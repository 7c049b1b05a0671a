package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the locally mirrored catalog record the settlement core prices
// and decrements against. The catalog service owns the rest of the product
// data (media, description, SEO); only pricing and stock live here.
type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Price          float64   `gorm:"not null" json:"price"`
	CompareAtPrice *float64  `json:"compare_at_price,omitempty"` // when set and lower than Price, it is the selling price
	Stock          int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// ProductVariant optionally overrides the product price and carries its own stock.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Price     *float64  `json:"price,omitempty"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SellingPrice returns the variant override if present, otherwise the
// compare-at price when it undercuts the base price, otherwise the base price.
func (p *Product) SellingPrice(variant *ProductVariant) float64 {
	if variant != nil && variant.Price != nil {
		return *variant.Price
	}
	if p.CompareAtPrice != nil && *p.CompareAtPrice < p.Price {
		return *p.CompareAtPrice
	}
	return p.Price
}
