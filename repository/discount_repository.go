package repository

import (
	"context"
	"errors"
	"strings"

	"settlement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountRepository defines the interface for discount code data access.
type DiscountRepository interface {
	Create(ctx context.Context, code *models.DiscountCode) error
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error)
	ConsumeUsage(ctx context.Context, code string) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, page, limit int) ([]models.DiscountCode, int64, error)
	WithTx(tx *gorm.DB) DiscountRepository
}

// GormDiscountRepository implements DiscountRepository using GORM.
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewGormDiscountRepository creates a new GormDiscountRepository.
func NewGormDiscountRepository(db *gorm.DB) DiscountRepository {
	return &GormDiscountRepository{db: db}
}

func (r *GormDiscountRepository) WithTx(tx *gorm.DB) DiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

func (r *GormDiscountRepository) Create(ctx context.Context, code *models.DiscountCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// FindByCode retrieves an active code, matched case-insensitively.
func (r *GormDiscountRepository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ? AND active = ?", strings.ToLower(code), true).
		First(&dc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}
	return &dc, nil
}

func (r *GormDiscountRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	if err := r.db.WithContext(ctx).First(&dc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, err
	}
	return &dc, nil
}

// ConsumeUsage is the compare-and-increment guard: the row only updates while
// usage headroom remains, so two checkouts racing for the last redemption
// cannot both pass. Zero rows affected aborts the caller's transaction.
func (r *GormDiscountRepository) ConsumeUsage(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("LOWER(code) = ? AND active = ? AND (usage_limit = 0 OR used_count < usage_limit)",
			strings.ToLower(code), true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDiscountLimitReached
	}
	return nil
}

func (r *GormDiscountRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

func (r *GormDiscountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DiscountCode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

func (r *GormDiscountRepository) FindAll(ctx context.Context, page, limit int) ([]models.DiscountCode, int64, error) {
	var codes []models.DiscountCode
	var total int64

	query := r.db.WithContext(ctx).Model(&models.DiscountCode{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		return nil, 0, err
	}

	return codes, total, nil
}
