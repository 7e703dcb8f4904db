package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/pkg/logger"
)

const (
	// StatusExchange carries OrderStatusChanged events. Routing key is
	// orders.status.<to-status>, so subscribers bind per target status.
	StatusExchange = "orders_topic"
)

// RabbitMQ publishes order status changes for the notification surface.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mylog   logger.Logger
}

func New(cfg *config.RabbitMQ, mylog logger.Logger) (*RabbitMQ, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		StatusExchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	mylog.Action("rabbitmq_connected").Info("Connected to RabbitMQ")
	return &RabbitMQ{conn: conn, channel: channel, mylog: mylog}, nil
}

func (r *RabbitMQ) PublishStatusChanged(ctx context.Context, event dto.StatusChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	routingKey := fmt.Sprintf("orders.status.%s", event.ToStatus)
	return r.channel.PublishWithContext(ctx,
		StatusExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

var _ core.EventPublisher = (*RabbitMQ)(nil)
