package services_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"settlement-service/models"
	"settlement-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSweeper_CancelsStaleOrders(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orders := newMockOrderService()

	stale := orderRepo.addOrder(&models.Order{
		OrderNumber: "ORD-STALE0000001",
		UserID:      uuid.New(),
		Status:      models.OrderStatusAwaitingPayment,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	})
	fresh := orderRepo.addOrder(&models.Order{
		OrderNumber: "ORD-FRESH0000001",
		UserID:      uuid.New(),
		Status:      models.OrderStatusAwaitingPayment,
		CreatedAt:   time.Now(),
	})

	sweeper := services.NewExpirySweeper(orderRepo, orders, time.Minute, 30*time.Minute, testLogger())
	sweeper.SweepOnce(context.Background())

	assert.Len(t, orders.transitions, 1)
	assert.Equal(t, stale.ID, orders.transitions[0].orderID)
	assert.Equal(t, models.OrderStatusCancelled, orders.transitions[0].to)
	assert.Equal(t, models.ActorSystem, orders.transitions[0].actor)
	assert.NotEqual(t, fresh.ID, orders.transitions[0].orderID)
}

func TestSweeper_SkipsOrdersSettledDuringSweep(t *testing.T) {
	orderRepo := newMockOrderRepo()
	orders := newMockOrderService()

	racing := orderRepo.addOrder(&models.Order{
		OrderNumber: "ORD-RACED0000001",
		UserID:      uuid.New(),
		Status:      models.OrderStatusAwaitingPayment,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	})
	expired := orderRepo.addOrder(&models.Order{
		OrderNumber: "ORD-EXPRD0000001",
		UserID:      uuid.New(),
		Status:      models.OrderStatusAwaitingPayment,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	})

	// paid while the sweep was running; cancel is now illegal
	orders.errByOrder[racing.ID] = &services.ServiceError{
		StatusCode: http.StatusConflict,
		Code:       services.CodeInvalidTransition,
		Message:    "Cannot transition order from PAID to CANCELLED",
	}

	sweeper := services.NewExpirySweeper(orderRepo, orders, time.Minute, 30*time.Minute, testLogger())
	sweeper.SweepOnce(context.Background())

	assert.Len(t, orders.transitions, 1)
	assert.Equal(t, expired.ID, orders.transitions[0].orderID)
}
