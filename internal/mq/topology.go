package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	ExchangeArtifacts Exchange = "chunkplan.artifacts"
	ExchangeDLQ       Exchange = "chunkplan.dlq"
)

const (
	QueueArtifactsReady Queue = "artifacts.ready"
	QueueDLQArtifacts   Queue = "dlq.artifacts"
)

const (
	RoutingKeyReady        RoutingKey = "ready"
	RoutingKeyDLQArtifacts RoutingKey = "artifacts"
)

// SetupTopology объявляет exchanges, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeArtifacts, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		queues := []struct {
			name Queue
			args amqp.Table
		}{
			// artifacts.ready — нечитаемые сообщения уходят в DLQ
			{QueueArtifactsReady, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQArtifacts),
			}},
			{QueueDLQArtifacts, nil},
		}
		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
			exchange   Exchange
		}{
			{QueueArtifactsReady, RoutingKeyReady, ExchangeArtifacts},
			{QueueDLQArtifacts, RoutingKeyDLQArtifacts, ExchangeDLQ},
		}
		for _, b := range bindings {
			if err := ch.QueueBind(string(b.queue), string(b.routingKey), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  chunkplan RabbitMQ topology:

    chunkplan.artifacts (direct)
    └── artifacts.ready [routing: ready]
            Consumer: chunkplan watch (optional)
            DLQ: dlq.artifacts

    chunkplan.dlq (direct)
    └── dlq.artifacts [routing: artifacts]
            Manual processing
`
}
