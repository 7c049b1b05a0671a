package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus tracks settlement independently of fulfilment.
type PaymentStatus string

const (
	PaymentStatusAwaitingPayment PaymentStatus = "AWAITING_PAYMENT"
	PaymentStatusPaid            PaymentStatus = "PAID"
	PaymentStatusFailed          PaymentStatus = "FAILED"
	PaymentStatusRefunded        PaymentStatus = "REFUNDED"
)

// PaymentMethod selects how an order is settled.
type PaymentMethod string

const (
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodGateway        PaymentMethod = "gateway"
)

// Order is created once at checkout with snapshotted prices. Only Status,
// PaymentStatus and TrackingNumber mutate afterwards; orders are never
// deleted (cancellation is a status).
type Order struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber    string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Subtotal       float64       `gorm:"not null" json:"subtotal"`
	Discount       float64       `gorm:"not null;default:0" json:"discount"`
	Total          float64       `gorm:"not null" json:"total"`
	DiscountCode   *string       `gorm:"type:varchar(64)" json:"discount_code,omitempty"`
	PaymentMethod  PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	Status         OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	TrackingNumber *string       `gorm:"type:varchar(64)" json:"tracking_number,omitempty"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	StatusEvents []OrderStatusEvent `gorm:"foreignKey:OrderID" json:"status_events,omitempty"`
}

// OrderItem snapshots the unit price at time of purchase; never recomputed.
type OrderItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null" json:"product_id"`
	VariantID     *uuid.UUID `gorm:"type:uuid" json:"variant_id,omitempty"`
	Quantity      int        `gorm:"not null" json:"quantity"`
	UnitPrice     float64    `gorm:"not null" json:"unit_price"`
	OriginalPrice float64    `gorm:"not null" json:"original_price"`
}

// Actor identifies who triggered an order transition.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorAdmin  Actor = "admin"
)

// OrderStatusEvent logs one transition; no transition happens without a row here.
type OrderStatusEvent struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	Actor      Actor       `gorm:"type:varchar(10);not null" json:"actor"`
	Note       string      `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

// UpdateOrderStatusRequest is the admin payload for PUT /admin/orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status         OrderStatus `json:"status" binding:"required"`
	TrackingNumber *string     `json:"tracking_number,omitempty"`
	Note           string      `json:"note,omitempty"`
}
