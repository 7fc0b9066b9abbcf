package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// SystemActor is recorded as performed_by for movements driven by events.
const SystemActor = "system"

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer   MessageReader
	uc         stock.UseCase
	logger     logger.ZapLogger
	retryDelay time.Duration
}

func NewOrderListener(consumer MessageReader, uc stock.UseCase, logger logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer:   consumer,
		uc:         uc,
		logger:     logger,
		retryDelay: time.Second,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting order events listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping order events listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.retryDelay):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID    string             `json:"id"`
	Items []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// processMessage turns OrderCreated into OUT movements and OrderCancelled
// into IN movements, one per line item. Each line is its own movement; a
// rejected line does not undo the others.
func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	var typ model.MovementType
	var note string
	switch event.EventType {
	case "OrderCreated":
		typ, note = model.MovementOut, fmt.Sprintf("Order %s", event.Payload.ID)
	case "OrderCancelled":
		typ, note = model.MovementIn, fmt.Sprintf("Order %s cancelled", event.Payload.ID)
	default:
		return
	}

	l.logger.Info("Processing order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID),
	)

	for _, item := range event.Payload.Items {
		input := &dto.MovementInput{
			ProductID: item.ProductID,
			Type:      typ,
			Magnitude: item.Quantity,
			Note:      note,
			ActorID:   SystemActor,
		}
		if _, _, err := l.uc.ApplyMovement(ctx, input); err != nil {
			log := l.logger.Error
			if apperror.IsKind(err, apperror.KindInsufficientStock) {
				log = l.logger.Warn
			}
			log("Failed to apply stock movement for order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}
