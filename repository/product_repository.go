package repository

import (
	"context"
	"errors"

	"settlement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository gives the settlement core access to the locally mirrored
// price/stock columns. Stock moves only through the conditional decrement and
// its restore counterpart.
type ProductRepository interface {
	FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	Upsert(ctx context.Context, product *models.Product) error
	DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

func (r *GormProductRepository) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, err
	}
	return &variant, nil
}

// Upsert writes a catalog mirror row, replacing price/stock columns when the
// product already exists.
func (r *GormProductRepository) Upsert(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "price", "compare_at_price", "stock", "updated_at"}),
		}).
		Create(product).Error
}

// DecrementStock conditionally deducts stock (`stock >= quantity`). Zero rows
// affected means another checkout won the race; the caller's transaction must
// abort with ErrStockUnavailable.
func (r *GormProductRepository) DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	var result *gorm.DB
	if variantID != nil {
		result = r.db.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND stock >= ?", *variantID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	} else {
		result = r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStockUnavailable
	}
	return nil
}

// RestoreStock returns held stock after a cancellation or sweep.
func (r *GormProductRepository) RestoreStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	if variantID != nil {
		return r.db.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ?", *variantID).
			UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
