package controllers

import (
	"net/http"

	"settlement-service/models"
	"settlement-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DiscountController handles HTTP requests for discount code operations.
type DiscountController struct {
	discountService services.DiscountService
	pricingService  services.PricingService
}

// NewDiscountController creates a new DiscountController.
func NewDiscountController(discountService services.DiscountService, pricingService services.PricingService) *DiscountController {
	return &DiscountController{discountService: discountService, pricingService: pricingService}
}

// CreateDiscountCode handles POST /admin/discount-codes.
func (dc *DiscountController) CreateDiscountCode(ctx *gin.Context) {
	var req models.CreateDiscountCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	code, svcErr := dc.discountService.Create(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"discount_code": code})
}

// GetDiscountCode handles GET /admin/discount-codes/:code.
func (dc *DiscountController) GetDiscountCode(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Discount code is required"})
		return
	}

	result, svcErr := dc.discountService.Get(ctx.Request.Context(), code)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"discount_code": result})
}

// UpdateDiscountCode handles PUT /admin/discount-codes/:id.
func (dc *DiscountController) UpdateDiscountCode(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid discount code ID format"})
		return
	}

	var req models.UpdateDiscountCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	code, svcErr := dc.discountService.Update(ctx.Request.Context(), id, &req)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"discount_code": code})
}

// DeleteDiscountCode handles DELETE /admin/discount-codes/:id.
func (dc *DiscountController) DeleteDiscountCode(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid discount code ID format"})
		return
	}

	if svcErr := dc.discountService.Delete(ctx.Request.Context(), id); svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Discount code deleted"})
}

// ListDiscountCodes handles GET /admin/discount-codes.
func (dc *DiscountController) ListDiscountCodes(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	codes, total, svcErr := dc.discountService.List(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"discount_codes": codes,
		"meta": gin.H{
			"page":     page,
			"limit":    limit,
			"total":    total,
			"has_more": total > int64(page*limit),
		},
	})
}

// ValidateDiscountCode handles POST /discount-codes/validate (cart preview;
// never consumes usage).
func (dc *DiscountController) ValidateDiscountCode(ctx *gin.Context) {
	var req models.ValidateDiscountCodeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := dc.pricingService.ValidateCode(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
