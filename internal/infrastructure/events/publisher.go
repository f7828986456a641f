package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/invorya-transformaciones/internal/application/transformation"
	"github.com/jhoicas/invorya-transformaciones/pkg/config"
)

var (
	_ transformation.EventPublisher = (*KafkaPublisher)(nil)
	_ transformation.EventPublisher = LogPublisher{}
)

// messageWriter abstrae kafka.Writer para poder sustituirlo en tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos de transformación en un tópico, con clave = OrderID
// para conservar el orden por orden.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher crea el publicador sobre los brokers configurados.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return NewKafkaPublisherWith(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	})
}

// NewKafkaPublisherWith usa un writer ya construido.
func NewKafkaPublisherWith(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event transformation.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
			{Key: "company", Value: []byte(event.CompanyID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// LogPublisher registra los eventos en el log cuando no hay brokers configurados.
type LogPublisher struct {
	Log zerolog.Logger
}

func (l LogPublisher) Publish(_ context.Context, event transformation.Event) error {
	l.Log.Debug().
		Str("type", event.Type).
		Str("order_id", event.OrderID).
		Str("company_id", event.CompanyID).
		Msg("evento de transformación")
	return nil
}
