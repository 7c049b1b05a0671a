package controllers

import (
	"net/http"

	"settlement-service/middleware"
	"settlement-service/models"
	"settlement-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletController handles HTTP requests for wallet statements and admin
// balance adjustments.
type WalletController struct {
	walletService services.WalletService
}

// NewWalletController creates a new WalletController.
func NewWalletController(walletService services.WalletService) *WalletController {
	return &WalletController{walletService: walletService}
}

// GetStatement handles GET /wallets/me.
func (wc *WalletController) GetStatement(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	page, limit := parsePaginationParams(ctx)

	statement, svcErr := wc.walletService.GetStatement(ctx.Request.Context(), userUUID, page, limit)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, statement)
}

// AddFunds handles POST /admin/wallets/:id/add.
func (wc *WalletController) AddFunds(ctx *gin.Context) {
	walletID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet ID format"})
		return
	}

	var req models.WalletAdjustmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	entry, svcErr := wc.walletService.Credit(ctx.Request.Context(), walletID, req.Amount, req.Description, nil)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// DeductFunds handles POST /admin/wallets/:id/deduct.
func (wc *WalletController) DeductFunds(ctx *gin.Context) {
	walletID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet ID format"})
		return
	}

	var req models.WalletAdjustmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	entry, svcErr := wc.walletService.Debit(ctx.Request.Context(), walletID, req.Amount, req.Description, nil)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// GetBalance handles GET /admin/wallets/:id/balance.
func (wc *WalletController) GetBalance(ctx *gin.Context) {
	walletID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet ID format"})
		return
	}

	balance, svcErr := wc.walletService.GetBalance(ctx.Request.Context(), walletID)
	if svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"wallet_id": walletID, "balance": balance})
}
