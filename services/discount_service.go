package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiscountService defines the interface for discount code admin operations.
// Redemption (usage consumption) lives in checkout, not here.
type DiscountService interface {
	Create(ctx context.Context, req *models.CreateDiscountCodeRequest) (*models.DiscountCode, *ServiceError)
	Get(ctx context.Context, code string) (*models.DiscountCode, *ServiceError)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateDiscountCodeRequest) (*models.DiscountCode, *ServiceError)
	Delete(ctx context.Context, id uuid.UUID) *ServiceError
	List(ctx context.Context, page, limit int) ([]models.DiscountCode, int64, *ServiceError)
}

type discountServiceImpl struct {
	repo   repository.DiscountRepository
	logger *zap.Logger
}

// NewDiscountService creates a new DiscountService.
func NewDiscountService(repo repository.DiscountRepository, logger *zap.Logger) DiscountService {
	return &discountServiceImpl{repo: repo, logger: logger}
}

func (s *discountServiceImpl) Create(ctx context.Context, req *models.CreateDiscountCodeRequest) (*models.DiscountCode, *ServiceError) {
	if req.ExpiresAt.Before(time.Now()) {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "Expiry date must be in the future")
	}
	if !req.ExpiresAt.After(req.StartsAt) {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "Expiry must be after start")
	}
	if req.Type == models.DiscountTypePercentage && req.Value > 100 {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "Percentage discount cannot exceed 100")
	}

	code := &models.DiscountCode{
		Code:        strings.ToUpper(req.Code),
		Type:        req.Type,
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		MaxDiscount: req.MaxDiscount,
		UsageLimit:  req.UsageLimit,
		StartsAt:    req.StartsAt,
		ExpiresAt:   req.ExpiresAt,
		Active:      true,
	}

	if err := s.repo.Create(ctx, code); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, newServiceError(http.StatusConflict, CodeInternal, "Discount code already exists")
		}
		s.logger.Error("Failed to create discount code", zap.Error(err))
		return nil, internalError("Failed to create discount code")
	}

	s.logger.Info("Discount code created",
		zap.String("code", code.Code),
		zap.String("type", string(code.Type)),
	)
	return code, nil
}

func (s *discountServiceImpl) Get(ctx context.Context, code string) (*models.DiscountCode, *ServiceError) {
	dc, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, newServiceError(http.StatusNotFound, CodeDiscountCodeInvalid, "Discount code not found")
	}
	return dc, nil
}

func (s *discountServiceImpl) Update(ctx context.Context, id uuid.UUID, req *models.UpdateDiscountCodeRequest) (*models.DiscountCode, *ServiceError) {
	updates := map[string]interface{}{}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.MinPurchase != nil {
		updates["min_purchase"] = *req.MinPurchase
	}
	if req.MaxDiscount != nil {
		updates["max_discount"] = *req.MaxDiscount
	}
	if req.UsageLimit != nil {
		updates["usage_limit"] = *req.UsageLimit
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "No fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if err == repository.ErrDiscountNotFound {
			return nil, newServiceError(http.StatusNotFound, CodeDiscountCodeInvalid, "Discount code not found")
		}
		s.logger.Error("Failed to update discount code", zap.String("id", id.String()), zap.Error(err))
		return nil, internalError("Failed to update discount code")
	}

	dc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError("Failed to reload discount code")
	}
	return dc, nil
}

func (s *discountServiceImpl) Delete(ctx context.Context, id uuid.UUID) *ServiceError {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrDiscountNotFound {
			return newServiceError(http.StatusNotFound, CodeDiscountCodeInvalid, "Discount code not found")
		}
		s.logger.Error("Failed to delete discount code", zap.String("id", id.String()), zap.Error(err))
		return internalError("Failed to delete discount code")
	}
	s.logger.Info("Discount code deleted", zap.String("id", id.String()))
	return nil
}

func (s *discountServiceImpl) List(ctx context.Context, page, limit int) ([]models.DiscountCode, int64, *ServiceError) {
	codes, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list discount codes", zap.Error(err))
		return nil, 0, internalError("Failed to list discount codes")
	}
	return codes, total, nil
}
