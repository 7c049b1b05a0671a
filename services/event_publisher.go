package services

import (
	"context"
	"encoding/json"
	"time"

	"settlement-service/kafka"
	"settlement-service/models"
	aws_pkg "settlement-service/pkg/aws"

	"go.uber.org/zap"
)

// EventPublisher fans settlement events out to Kafka and, best-effort, SNS.
// Publishing happens after commit; a failed publish never rolls anything back.
type EventPublisher struct {
	producer    kafka.ProducerAPI
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewEventPublisher creates a new EventPublisher. producer and snsClient may
// each be nil; publishing then skips that sink.
func NewEventPublisher(producer kafka.ProducerAPI, snsClient aws_pkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// OrderEvent publishes an order lifecycle event keyed by order id.
func (p *EventPublisher) OrderEvent(ctx context.Context, eventType string, order *models.Order) {
	evt := models.OrderEvent{
		EventType:     eventType,
		OrderID:       order.ID.String(),
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID.String(),
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total,
		Timestamp:     time.Now().UTC(),
	}
	p.publish(ctx, []byte(evt.OrderID), evt, eventType)
}

// WalletEvent publishes a wallet movement event keyed by wallet id.
func (p *EventPublisher) WalletEvent(ctx context.Context, eventType string, userID string, entry *models.WalletTransaction) {
	evt := models.WalletEvent{
		EventType:    eventType,
		WalletID:     entry.WalletID.String(),
		UserID:       userID,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		Description:  entry.Description,
		Timestamp:    time.Now().UTC(),
	}
	if entry.OrderID != nil {
		evt.OrderID = entry.OrderID.String()
	}
	p.publish(ctx, []byte(evt.WalletID), evt, eventType)
}

func (p *EventPublisher) publish(ctx context.Context, key []byte, payload interface{}, eventType string) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if p.producer != nil {
		if err := p.producer.Publish(ctx, key, data); err != nil {
			p.logger.Error("Failed to publish event to Kafka",
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}

	if p.snsClient != nil && p.snsTopicArn != "" {
		if err := p.snsClient.Publish(ctx, p.snsTopicArn, data); err != nil {
			// best-effort; Kafka is the primary sink
			p.logger.Warn("SNS publish failed",
				zap.String("event_type", eventType),
				zap.Error(err),
			)
		}
	}
}
