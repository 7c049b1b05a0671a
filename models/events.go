package models

import "time"

// Event types published to Kafka and (best-effort) SNS after commit.
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
	EventWalletCredited = "wallet.credited"
	EventWalletDebited  = "wallet.debited"
)

// OrderEvent is emitted after an order is created or transitions status.
type OrderEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	Total         float64   `json:"total"`
	Timestamp     time.Time `json:"timestamp"`
}

// WalletEvent is emitted after a committed wallet movement.
type WalletEvent struct {
	EventType    string    `json:"event_type"`
	WalletID     string    `json:"wallet_id"`
	UserID       string    `json:"user_id"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	OrderID      string    `json:"order_id,omitempty"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
}

// GatewayWebhookEvent is the inbound payload from the payment gateway.
type GatewayWebhookEvent struct {
	OrderID   string `json:"order_id" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=success failure"`
	Reference string `json:"reference" binding:"required"`
}
