package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"settlement-service/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// webhookDedupeTTL keeps a settled gateway reference long enough to absorb
// gateway retries and manual replays.
const webhookDedupeTTL = 24 * time.Hour

// GatewayDeduper tracks which gateway references have been consumed. Mark
// claims a reference; Release gives it back when settlement did not complete,
// so a gateway retry can drive the state machine again.
type GatewayDeduper interface {
	Mark(ctx context.Context, reference, status string) (bool, error)
	Release(ctx context.Context, reference string) error
}

type redisGatewayDeduper struct {
	client *redis.Client
}

// NewRedisGatewayDeduper creates a GatewayDeduper backed by Redis SETNX.
func NewRedisGatewayDeduper(client *redis.Client) GatewayDeduper {
	return &redisGatewayDeduper{client: client}
}

func dedupeKey(reference string) string {
	return "webhook:gateway:" + reference
}

func (d *redisGatewayDeduper) Mark(ctx context.Context, reference, status string) (bool, error) {
	return d.client.SetNX(ctx, dedupeKey(reference), status, webhookDedupeTTL).Result()
}

func (d *redisGatewayDeduper) Release(ctx context.Context, reference string) error {
	return d.client.Del(ctx, dedupeKey(reference)).Err()
}

// WebhookService settles gateway-paid orders from inbound webhook events.
// Each gateway reference settles at most once; replays are acknowledged
// without re-driving the state machine.
type WebhookService interface {
	HandleGatewayEvent(ctx context.Context, evt *models.GatewayWebhookEvent) *ServiceError
}

type webhookServiceImpl struct {
	orders  OrderService
	deduper GatewayDeduper
	logger  *zap.Logger
}

// NewWebhookService creates a new WebhookService. deduper may be nil; dedupe
// is then skipped and the state machine's own transition guard is the only
// replay protection.
func NewWebhookService(orders OrderService, deduper GatewayDeduper, logger *zap.Logger) WebhookService {
	return &webhookServiceImpl{orders: orders, deduper: deduper, logger: logger}
}

func (s *webhookServiceImpl) HandleGatewayEvent(ctx context.Context, evt *models.GatewayWebhookEvent) *ServiceError {
	orderID, err := uuid.Parse(evt.OrderID)
	if err != nil {
		return newServiceError(http.StatusBadRequest, CodeOrderNotFound, "Invalid order ID in webhook payload")
	}

	var to models.OrderStatus
	switch evt.Status {
	case "success":
		to = models.OrderStatusPaid
	case "failure":
		to = models.OrderStatusCancelled
	default:
		return newServiceError(http.StatusBadRequest, CodeInvalidTransition, "Unknown webhook status")
	}

	marked := false
	if s.deduper != nil {
		set, err := s.deduper.Mark(ctx, evt.Reference, evt.Status)
		if err != nil {
			// dedupe store unavailable; fall through to the transition guard
			s.logger.Warn("Webhook dedupe check failed", zap.String("reference", evt.Reference), zap.Error(err))
		} else if !set {
			s.logger.Info("Skipping duplicate gateway webhook",
				zap.String("reference", evt.Reference),
				zap.String("order_id", evt.OrderID),
			)
			return nil
		} else {
			marked = true
		}
	}

	note := fmt.Sprintf("gateway reference %s", evt.Reference)
	if _, svcErr := s.orders.Transition(ctx, orderID, to, models.ActorSystem, nil, note); svcErr != nil {
		// A mark held for a failed settlement would make the gateway's retry
		// a no-op and strand the order; release it so the retry can settle.
		// INVALID_TRANSITION means the order already moved, so the mark stands.
		if marked && svcErr.Code != CodeInvalidTransition {
			if relErr := s.deduper.Release(ctx, evt.Reference); relErr != nil {
				s.logger.Warn("Failed to release webhook dedupe mark",
					zap.String("reference", evt.Reference),
					zap.Error(relErr),
				)
			}
		}
		return svcErr
	}

	s.logger.Info("Gateway webhook settled",
		zap.String("order_id", evt.OrderID),
		zap.String("status", evt.Status),
		zap.String("reference", evt.Reference),
	)
	return nil
}
