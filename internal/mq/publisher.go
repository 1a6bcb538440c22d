package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/chunkplan/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// MessageTypeArtifactReady — артефакт опубликован в хранилище.
const MessageTypeArtifactReady MessageType = "artifact.ready"

// Message — конверт сообщения.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// publishFunc — отправка одного сообщения в брокер.
type publishFunc func(ctx context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	publish publishFunc
	logger  *slog.Logger
}

// NewPublisher создаёт Publisher поверх соединения.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return newPublisher(func(ctx context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error {
		return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
			return ch.PublishWithContext(ctx, string(exchange), string(key), false, false, msg)
		})
	}, logger)
}

func newPublisher(fn publishFunc, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{publish: fn, logger: logger}
}

// Publish публикует payload в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, key RoutingKey, msgType MessageType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	msg := Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.publish(ctx, exchange, key, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msgType),
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", key,
		"message_id", msg.ID,
		"type", msgType,
	)
	return nil
}

// PublishArtifactReady публикует событие о готовом артефакте.
func (p *Publisher) PublishArtifactReady(ctx context.Context, event domain.ArtifactReady) error {
	return p.Publish(ctx, ExchangeArtifacts, RoutingKeyReady, MessageTypeArtifactReady, event)
}
