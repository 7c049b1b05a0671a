package routes

import (
	"settlement-service/controllers"
	"settlement-service/middleware"

	"github.com/gin-gonic/gin"
)

// Controllers bundles the handler set wired into the router.
type Controllers struct {
	Checkout  *controllers.CheckoutController
	Orders    *controllers.OrderController
	Wallets   *controllers.WalletController
	FlashSale *controllers.FlashSaleController
	Discounts *controllers.DiscountController
	Webhooks  *controllers.WebhookController
}

func RegisterRoutes(r *gin.Engine, c *Controllers, jwtSecret []byte) {
	// Customer surface; identity comes from the edge gateway header.
	customer := r.Group("/")
	customer.Use(middleware.AuthMiddleware())
	customer.POST("/checkout", c.Checkout.Checkout)
	customer.GET("/orders", c.Orders.GetOrders)
	customer.GET("/orders/:id", c.Orders.GetOrderByID)
	customer.GET("/wallets/me", c.Wallets.GetStatement)
	customer.POST("/discount-codes/validate", c.Discounts.ValidateDiscountCode)

	// Gateway callbacks are authenticated upstream by signature verification
	// at the edge, not per-user.
	r.POST("/webhooks/payment", c.Webhooks.GatewayWebhook)

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(jwtSecret))

	admin.GET("/orders", c.Orders.GetAllOrders)
	admin.PUT("/orders/:id/status", c.Orders.UpdateOrderStatus)

	admin.GET("/wallets/:id/balance", c.Wallets.GetBalance)
	admin.POST("/wallets/:id/add", c.Wallets.AddFunds)
	admin.POST("/wallets/:id/deduct", c.Wallets.DeductFunds)

	admin.POST("/flash-sales", c.FlashSale.CreateFlashSale)
	admin.GET("/flash-sales", c.FlashSale.ListFlashSales)
	admin.GET("/flash-sales/:id", c.FlashSale.GetFlashSale)
	admin.PUT("/flash-sales/:id", c.FlashSale.UpdateFlashSale)
	admin.DELETE("/flash-sales/:id", c.FlashSale.DeleteFlashSale)

	admin.POST("/discount-codes", c.Discounts.CreateDiscountCode)
	admin.GET("/discount-codes", c.Discounts.ListDiscountCodes)
	admin.GET("/discount-codes/:code", c.Discounts.GetDiscountCode)
	admin.PUT("/discount-codes/:id", c.Discounts.UpdateDiscountCode)
	admin.DELETE("/discount-codes/:id", c.Discounts.DeleteDiscountCode)
}
