package controllers

import (
	"net/http"

	"settlement-service/models"
	"settlement-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FlashSaleController handles HTTP requests for flash sale admin operations.
type FlashSaleController struct {
	flashSaleService services.FlashSaleService
}

// NewFlashSaleController creates a new FlashSaleController.
func NewFlashSaleController(flashSaleService services.FlashSaleService) *FlashSaleController {
	return &FlashSaleController{flashSaleService: flashSaleService}
}

// CreateFlashSale handles POST /admin/flash-sales.
func (fc *FlashSaleController) CreateFlashSale(ctx *gin.Context) {
	var req models.CreateFlashSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	sale, svcErr := fc.flashSaleService.Create(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"flash_sale": sale})
}

// GetFlashSale handles GET /admin/flash-sales/:id.
func (fc *FlashSaleController) GetFlashSale(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flash sale ID format"})
		return
	}

	sale, svcErr := fc.flashSaleService.Get(ctx.Request.Context(), id)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"flash_sale": sale})
}

// UpdateFlashSale handles PUT /admin/flash-sales/:id.
func (fc *FlashSaleController) UpdateFlashSale(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flash sale ID format"})
		return
	}

	var req models.UpdateFlashSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	sale, svcErr := fc.flashSaleService.Update(ctx.Request.Context(), id, &req)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"flash_sale": sale})
}

// DeleteFlashSale handles DELETE /admin/flash-sales/:id.
func (fc *FlashSaleController) DeleteFlashSale(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid flash sale ID format"})
		return
	}

	if svcErr := fc.flashSaleService.Delete(ctx.Request.Context(), id); svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Flash sale deleted"})
}

// ListFlashSales handles GET /admin/flash-sales.
func (fc *FlashSaleController) ListFlashSales(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	sales, total, svcErr := fc.flashSaleService.List(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"flash_sales": sales,
		"meta": gin.H{
			"page":     page,
			"limit":    limit,
			"total":    total,
			"has_more": total > int64(page*limit),
		},
	})
}
