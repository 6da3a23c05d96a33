package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/polkiloo/atelier/internal/domain/model"
)

const publishTimeout = 5 * time.Second

// OrderStatusChanged is emitted after every accepted order transition.
type OrderStatusChanged struct {
	OrderID   int64             `json:"order_id"`
	Number    string            `json:"number"`
	From      model.OrderStatus `json:"from"`
	To        model.OrderStatus `json:"to"`
	ChangedBy string            `json:"changed_by"`
	Note      string            `json:"note,omitempty"`
	At        time.Time         `json:"at"`
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event OrderStatusChanged) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order number so one order's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	sugar := logger.Sugar()
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Logger:       kafka.LoggerFunc(sugar.Debugf),
			ErrorLogger:  kafka.LoggerFunc(sugar.Errorf),
		},
	}
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, event OrderStatusChanged) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := event.Number
	if key == "" {
		key = strconv.FormatInt(event.OrderID, 10)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("order.status_changed")},
		},
	}); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishStatusChanged(context.Context, OrderStatusChanged) error { return nil }
func (NopPublisher) Close() error                                                  { return nil }
