package services

import (
	"context"
	"net/http"
	"time"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlashSaleService defines the interface for flash sale admin operations.
type FlashSaleService interface {
	Create(ctx context.Context, req *models.CreateFlashSaleRequest) (*models.FlashSale, *ServiceError)
	Get(ctx context.Context, id uuid.UUID) (*models.FlashSale, *ServiceError)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateFlashSaleRequest) (*models.FlashSale, *ServiceError)
	Delete(ctx context.Context, id uuid.UUID) *ServiceError
	List(ctx context.Context, page, limit int) ([]models.FlashSale, int64, *ServiceError)
}

type flashSaleServiceImpl struct {
	repo   repository.FlashSaleRepository
	logger *zap.Logger
}

// NewFlashSaleService creates a new FlashSaleService.
func NewFlashSaleService(repo repository.FlashSaleRepository, logger *zap.Logger) FlashSaleService {
	return &flashSaleServiceImpl{repo: repo, logger: logger}
}

func (s *flashSaleServiceImpl) Create(ctx context.Context, req *models.CreateFlashSaleRequest) (*models.FlashSale, *ServiceError) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "End time must be after start time")
	}
	if req.EndsAt.Before(time.Now()) {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "End time must be in the future")
	}

	sale := &models.FlashSale{
		Title:           req.Title,
		DiscountPercent: req.DiscountPercent,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Active:          true,
	}
	for _, pid := range req.ProductIDs {
		sale.Products = append(sale.Products, models.FlashSaleProduct{ProductID: pid})
	}

	if err := s.repo.Create(ctx, sale); err != nil {
		s.logger.Error("Failed to create flash sale", zap.Error(err))
		return nil, internalError("Failed to create flash sale")
	}

	s.logger.Info("Flash sale created",
		zap.String("id", sale.ID.String()),
		zap.String("title", sale.Title),
		zap.Float64("discount_percent", sale.DiscountPercent),
	)
	return sale, nil
}

func (s *flashSaleServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.FlashSale, *ServiceError) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, newServiceError(http.StatusNotFound, CodeInternal, "Flash sale not found")
	}
	return sale, nil
}

func (s *flashSaleServiceImpl) Update(ctx context.Context, id uuid.UUID, req *models.UpdateFlashSaleRequest) (*models.FlashSale, *ServiceError) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, newServiceError(http.StatusNotFound, CodeInternal, "Flash sale not found")
	}

	if req.Title != nil {
		sale.Title = *req.Title
	}
	if req.DiscountPercent != nil {
		if *req.DiscountPercent <= 0 || *req.DiscountPercent > 100 {
			return nil, newServiceError(http.StatusBadRequest, CodeInternal, "Discount percent must be between 0 and 100")
		}
		sale.DiscountPercent = *req.DiscountPercent
	}
	if req.StartsAt != nil {
		sale.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		sale.EndsAt = *req.EndsAt
	}
	if req.Active != nil {
		sale.Active = *req.Active
	}
	if !sale.EndsAt.After(sale.StartsAt) {
		return nil, newServiceError(http.StatusBadRequest, CodeInternal, "End time must be after start time")
	}

	if err := s.repo.Update(ctx, sale); err != nil {
		s.logger.Error("Failed to update flash sale", zap.String("id", id.String()), zap.Error(err))
		return nil, internalError("Failed to update flash sale")
	}

	if req.ProductIDs != nil {
		if err := s.repo.ReplaceProducts(ctx, sale.ID, req.ProductIDs); err != nil {
			s.logger.Error("Failed to replace flash sale products", zap.String("id", id.String()), zap.Error(err))
			return nil, internalError("Failed to update flash sale products")
		}
	}

	return s.Get(ctx, id)
}

func (s *flashSaleServiceImpl) Delete(ctx context.Context, id uuid.UUID) *ServiceError {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == repository.ErrFlashSaleNotFound {
			return newServiceError(http.StatusNotFound, CodeInternal, "Flash sale not found")
		}
		s.logger.Error("Failed to delete flash sale", zap.String("id", id.String()), zap.Error(err))
		return internalError("Failed to delete flash sale")
	}
	s.logger.Info("Flash sale deleted", zap.String("id", id.String()))
	return nil
}

func (s *flashSaleServiceImpl) List(ctx context.Context, page, limit int) ([]models.FlashSale, int64, *ServiceError) {
	sales, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list flash sales", zap.Error(err))
		return nil, 0, internalError("Failed to list flash sales")
	}
	return sales, total, nil
}
