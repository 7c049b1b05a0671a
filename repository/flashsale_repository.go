package repository

import (
	"context"
	"errors"
	"time"

	"settlement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlashSaleRepository defines the interface for flash sale data access.
type FlashSaleRepository interface {
	Create(ctx context.Context, sale *models.FlashSale) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FlashSale, error)
	FindEffective(ctx context.Context, now time.Time) ([]models.FlashSale, error)
	Update(ctx context.Context, sale *models.FlashSale) error
	ReplaceProducts(ctx context.Context, saleID uuid.UUID, productIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, page, limit int) ([]models.FlashSale, int64, error)
}

// GormFlashSaleRepository implements FlashSaleRepository using GORM.
type GormFlashSaleRepository struct {
	db *gorm.DB
}

// NewGormFlashSaleRepository creates a new GormFlashSaleRepository.
func NewGormFlashSaleRepository(db *gorm.DB) FlashSaleRepository {
	return &GormFlashSaleRepository{db: db}
}

func (r *GormFlashSaleRepository) Create(ctx context.Context, sale *models.FlashSale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *GormFlashSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FlashSale, error) {
	var sale models.FlashSale
	err := r.db.WithContext(ctx).
		Preload("Products").
		First(&sale, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlashSaleNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindEffective returns sales live at the given instant, products preloaded.
// Read-mostly data fetched per request; the pricing engine stays pure.
func (r *GormFlashSaleRepository) FindEffective(ctx context.Context, now time.Time) ([]models.FlashSale, error) {
	var sales []models.FlashSale
	err := r.db.WithContext(ctx).
		Preload("Products").
		Where("active = ? AND starts_at <= ? AND ends_at >= ?", true, now, now).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *GormFlashSaleRepository) Update(ctx context.Context, sale *models.FlashSale) error {
	return r.db.WithContext(ctx).
		Omit("Products").
		Save(sale).Error
}

// ReplaceProducts swaps the product set of a sale.
func (r *GormFlashSaleRepository) ReplaceProducts(ctx context.Context, saleID uuid.UUID, productIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flash_sale_id = ?", saleID).
			Delete(&models.FlashSaleProduct{}).Error; err != nil {
			return err
		}
		links := make([]models.FlashSaleProduct, 0, len(productIDs))
		for _, pid := range productIDs {
			links = append(links, models.FlashSaleProduct{FlashSaleID: saleID, ProductID: pid})
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

func (r *GormFlashSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FlashSale{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFlashSaleNotFound
	}
	return nil
}

func (r *GormFlashSaleRepository) FindAll(ctx context.Context, page, limit int) ([]models.FlashSale, int64, error) {
	var sales []models.FlashSale
	var total int64

	query := r.db.WithContext(ctx).Model(&models.FlashSale{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Products").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}
