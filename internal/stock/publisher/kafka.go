package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/model"
	"github.com/fekuna/omnipos-stock-ledger/internal/stock"
	"github.com/google/uuid"
)

const EventStockMoved = "StockMoved"

// Producer is satisfied by *broker.KafkaProducer.
type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

type StockMovedEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	Payload   MovementEvent `json:"payload"`
	Timestamp time.Time     `json:"timestamp"`
}

type MovementEvent struct {
	HistoryID        string             `json:"history_id"`
	Seq              int64              `json:"seq"`
	ProductID        string             `json:"product_id"`
	SKU              string             `json:"sku"`
	Type             model.MovementType `json:"type"`
	Quantity         int64              `json:"quantity"`
	PreviousQuantity int64              `json:"previous_quantity"`
	NewQuantity      int64              `json:"new_quantity"`
	LowStock         bool               `json:"low_stock"`
	Note             string             `json:"note,omitempty"`
	PerformedBy      string             `json:"performed_by"`
	CreatedAt        time.Time          `json:"created_at"`
}

type KafkaPublisher struct {
	producer Producer
}

var _ stock.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// PublishMovement emits one StockMoved event keyed by product id so a
// product's movements stay ordered within a partition.
func (p *KafkaPublisher) PublishMovement(ctx context.Context, product *model.Product, h *model.StockHistory) error {
	event := StockMovedEvent{
		EventID:   uuid.New().String(),
		EventType: EventStockMoved,
		Payload: MovementEvent{
			HistoryID:        h.ID,
			Seq:              h.Seq,
			ProductID:        product.ID,
			SKU:              product.SKU,
			Type:             h.Type,
			Quantity:         h.Quantity,
			PreviousQuantity: h.PreviousQuantity,
			NewQuantity:      h.NewQuantity,
			LowStock:         product.IsLowStock(),
			Note:             h.Note,
			PerformedBy:      h.PerformedBy,
			CreatedAt:        h.CreatedAt,
		},
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, []byte(product.ID), value)
}

// Noop drops every event.
type Noop struct{}

func (Noop) PublishMovement(context.Context, *model.Product, *model.StockHistory) error { return nil }
