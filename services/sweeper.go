package services

import (
	"context"
	"time"

	"settlement-service/models"
	"settlement-service/repository"

	"go.uber.org/zap"
)

// sweepBatchSize caps how many stale orders one pass cancels.
const sweepBatchSize = 100

// ExpirySweeper cancels AWAITING_PAYMENT orders whose payment window has
// elapsed, releasing their held stock through the normal cancel transition.
type ExpirySweeper struct {
	orderRepo repository.OrderRepository
	orders    OrderService
	interval  time.Duration
	window    time.Duration
	logger    *zap.Logger
}

// NewExpirySweeper creates a new ExpirySweeper.
func NewExpirySweeper(orderRepo repository.OrderRepository, orders OrderService, interval, window time.Duration, logger *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		orderRepo: orderRepo,
		orders:    orders,
		interval:  interval,
		window:    window,
		logger:    logger,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *ExpirySweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Expiry sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("window", s.window),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce cancels one batch of stale orders. Per-order failures are logged
// and skipped; a racing settlement simply makes the transition illegal and
// the order is left alone.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.window)

	stale, err := s.orderRepo.FindStaleAwaitingPayment(ctx, cutoff, sweepBatchSize)
	if err != nil {
		s.logger.Error("Sweep query failed", zap.Error(err))
		return
	}

	for _, order := range stale {
		_, svcErr := s.orders.Transition(ctx, order.ID, models.OrderStatusCancelled,
			models.ActorSystem, nil, "payment window expired")
		if svcErr != nil {
			if svcErr.Code == CodeInvalidTransition {
				continue // settled while we were sweeping
			}
			s.logger.Error("Failed to expire order",
				zap.String("order_id", order.ID.String()),
				zap.String("code", svcErr.Code),
			)
			continue
		}
		s.logger.Info("Expired stale order",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
		)
	}
}
