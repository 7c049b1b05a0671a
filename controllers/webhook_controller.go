package controllers

import (
	"net/http"

	"settlement-service/models"
	"settlement-service/services"

	"github.com/gin-gonic/gin"
)

// WebhookController receives inbound payment gateway events.
type WebhookController struct {
	webhookService services.WebhookService
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(webhookService services.WebhookService) *WebhookController {
	return &WebhookController{webhookService: webhookService}
}

// GatewayWebhook handles POST /webhooks/payment.
func (wc *WebhookController) GatewayWebhook(ctx *gin.Context) {
	var evt models.GatewayWebhookEvent
	if err := ctx.ShouldBindJSON(&evt); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload", "details": err.Error()})
		return
	}

	if svcErr := wc.webhookService.HandleGatewayEvent(ctx.Request.Context(), &evt); svcErr != nil {
		respondServiceError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "received"})
}
