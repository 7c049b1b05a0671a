package services

import (
	"context"
	"fmt"
	"net/http"

	"settlement-service/models"
	"settlement-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedTransitions is the full lifecycle. Anything not listed fails with
// INVALID_TRANSITION; there is no skipping (AWAITING_PAYMENT can never jump
// straight to SHIPPED).
var allowedTransitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderStatusAwaitingPayment: {
		models.OrderStatusPaid:      true,
		models.OrderStatusCancelled: true,
	},
	models.OrderStatusPaid: {
		models.OrderStatusProcessing: true,
		models.OrderStatusCancelled:  true,
	},
	models.OrderStatusProcessing: {
		models.OrderStatusShipped:   true,
		models.OrderStatusCancelled: true,
	},
	models.OrderStatusShipped: {
		models.OrderStatusDelivered: true,
		models.OrderStatusCancelled: true,
	},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to models.OrderStatus) bool {
	return allowedTransitions[from][to]
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

// OrderService owns the order status lifecycle: payment settlement, admin
// fulfilment steps, cancellations and the refunds they trigger.
type OrderService interface {
	GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderListResponse, *ServiceError)
	GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *ServiceError)
	GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, *ServiceError)
	Transition(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, actor models.Actor, trackingNumber *string, note string) (*models.Order, *ServiceError)
}

type orderServiceImpl struct {
	tx          repository.Transactor
	orderRepo   repository.OrderRepository
	walletRepo  repository.WalletRepository
	productRepo repository.ProductRepository
	events      *EventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	tx repository.Transactor,
	orderRepo repository.OrderRepository,
	walletRepo repository.WalletRepository,
	productRepo repository.ProductRepository,
	events *EventPublisher,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		tx:          tx,
		orderRepo:   orderRepo,
		walletRepo:  walletRepo,
		productRepo: productRepo,
		events:      events,
		logger:      logger,
	}
}

func (s *orderServiceImpl) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderListResponse, *ServiceError) {
	orders, total, err := s.orderRepo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, internalError("Failed to fetch orders")
	}
	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: total > int64(page*limit),
		},
	}, nil
}

func (s *orderServiceImpl) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		return nil, mapRepoError(err, "Failed to fetch order")
	}
	return order, nil
}

func (s *orderServiceImpl) GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, *ServiceError) {
	orders, total, err := s.orderRepo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, internalError("Failed to fetch orders")
	}
	return &OrderListResponse{
		Orders: orders,
		Meta: MetaData{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: total > int64(page*limit),
		},
	}, nil
}

// Transition advances an order through the lifecycle. The order row is locked
// for the duration, the transition is validated against the table, the status
// event is logged, and any refund credit plus stock release commits in the
// same transaction as the status flip.
func (s *orderServiceImpl) Transition(ctx context.Context, orderID uuid.UUID, to models.OrderStatus, actor models.Actor, trackingNumber *string, note string) (*models.Order, *ServiceError) {
	var (
		svcErr   *ServiceError
		updated  *models.Order
		refunded *models.WalletTransaction
		userID   uuid.UUID
	)

	err := s.tx.InTransaction(ctx, func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		order, err := orders.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			svcErr = mapRepoError(err, "Failed to fetch order")
			return err
		}
		userID = order.UserID

		if !CanTransition(order.Status, to) {
			svcErr = newServiceError(http.StatusConflict, CodeInvalidTransition,
				fmt.Sprintf("Cannot transition order from %s to %s", order.Status, to))
			return svcErr
		}

		updates := map[string]interface{}{"status": to}

		switch to {
		case models.OrderStatusPaid:
			updates["payment_status"] = models.PaymentStatusPaid

		case models.OrderStatusShipped:
			tn := trackingNumber
			if tn == nil {
				tn = order.TrackingNumber
			}
			if tn == nil || *tn == "" {
				svcErr = newServiceError(http.StatusBadRequest, CodeInvalidTransition,
					"Tracking number is required to mark an order shipped")
				return svcErr
			}
			updates["tracking_number"] = *tn

		case models.OrderStatusCancelled:
			if order.PaymentStatus == models.PaymentStatusPaid {
				updates["payment_status"] = models.PaymentStatusRefunded
				if order.PaymentMethod == models.PaymentMethodWallet {
					entry, refundErr := s.refundWallet(ctx, tx, order)
					if refundErr != nil {
						svcErr = refundErr
						return svcErr
					}
					refunded = entry
				}
			} else {
				updates["payment_status"] = models.PaymentStatusFailed
			}

			products := s.productRepo.WithTx(tx)
			for _, item := range order.Items {
				if err := products.RestoreStock(ctx, item.ProductID, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}

		event := &models.OrderStatusEvent{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   to,
			Actor:      actor,
			Note:       note,
		}
		if err := orders.UpdateStatus(ctx, order.ID, updates, event); err != nil {
			return err
		}

		updated, err = orders.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		if svcErr != nil {
			return nil, svcErr
		}
		s.logger.Error("Order transition failed",
			zap.String("order_id", orderID.String()),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil, internalError("Failed to update order status")
	}

	s.logger.Info("Order transitioned",
		zap.String("order_id", orderID.String()),
		zap.String("to", string(to)),
		zap.String("actor", string(actor)),
	)

	s.publishTransitionEvents(ctx, updated, to, userID, refunded)
	return updated, nil
}

// refundWallet credits the order total back to the buyer's wallet inside the
// cancel transaction. A prior refund for the same order is honored, not
// repeated, so replayed cancels cannot double-credit.
func (s *orderServiceImpl) refundWallet(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.WalletTransaction, *ServiceError) {
	wallets := s.walletRepo.WithTx(tx)

	wallet, err := wallets.FindByUserID(ctx, order.UserID)
	if err != nil {
		return nil, mapRepoError(err, "Failed to fetch wallet for refund")
	}

	if existing, err := wallets.FindTransactionByOrder(ctx, wallet.ID, order.ID, models.TransactionTypeCredit); err == nil {
		return existing, nil
	}

	entry, err := wallets.Credit(ctx, wallet.ID, order.Total,
		fmt.Sprintf("Refund for order %s", order.OrderNumber), &order.ID)
	if err != nil {
		return nil, mapRepoError(err, "Failed to credit refund")
	}
	return entry, nil
}

func (s *orderServiceImpl) publishTransitionEvents(ctx context.Context, order *models.Order, to models.OrderStatus, userID uuid.UUID, refunded *models.WalletTransaction) {
	if order == nil {
		return
	}
	switch to {
	case models.OrderStatusPaid:
		s.events.OrderEvent(ctx, models.EventOrderPaid, order)
	case models.OrderStatusShipped:
		s.events.OrderEvent(ctx, models.EventOrderShipped, order)
	case models.OrderStatusDelivered:
		s.events.OrderEvent(ctx, models.EventOrderDelivered, order)
	case models.OrderStatusCancelled:
		s.events.OrderEvent(ctx, models.EventOrderCancelled, order)
		if refunded != nil {
			s.events.WalletEvent(ctx, models.EventWalletCredited, userID.String(), refunded)
		}
	}
}
