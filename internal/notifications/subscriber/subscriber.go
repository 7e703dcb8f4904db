package subscriber

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"whos-got-my-order/internal/floor/adapter/broker"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

const notificationsQueue = "notifications_queue"

// Subscriber consumes OrderStatusChanged events and emits role-targeted
// alerts. Alert delivery here is the structured log stream; a push channel
// would hang off the same consumer.
type Subscriber struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mylog   logger.Logger
}

func New(cfg *config.RabbitMQ, mylog logger.Logger) (*Subscriber, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		broker.StatusExchange, // name
		"topic",               // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	_, err = channel.QueueDeclare(
		notificationsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	err = channel.QueueBind(
		notificationsQueue,    // queue name
		"orders.status.*",     // routing key
		broker.StatusExchange, // exchange
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	mylog.Action("rabbitmq_connected").Info("Connected to RabbitMQ")
	return &Subscriber{conn: conn, channel: channel, mylog: mylog}, nil
}

// Run consumes events until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.channel.Consume(
		notificationsQueue, // queue
		"",                 // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case msg, ok := <-deliveries:
				if !ok {
					return fmt.Errorf("delivery channel closed")
				}
				s.handle(msg)
			}
		}
	})

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (s *Subscriber) handle(msg amqp.Delivery) {
	var event dto.StatusChangedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		s.mylog.Action("decode_failed").Error("Failed to decode event", err)
		msg.Nack(false, false)
		return
	}

	s.mylog.Action("order_status_changed").
		With("order_id", event.OrderID, "from", string(event.FromStatus), "to", string(event.ToStatus), "actor_id", event.ActorID).
		Info(alertFor(event.ToStatus))

	if err := msg.Ack(false); err != nil {
		s.mylog.Action("ack_failed").Error("Failed to ack message", err)
	}
}

// alertFor phrases the alert for the audience that cares about the new
// status: waiters watch for ready, cashiers for delivered.
func alertFor(to models.OrderStatus) string {
	switch to {
	case models.StatusPreparing:
		return "Kitchen started preparing the order"
	case models.StatusReady:
		return "Order is ready for pickup, waiters take note"
	case models.StatusDelivered:
		return "Order delivered, awaiting settlement"
	case models.StatusPaid:
		return "Order settled"
	case models.StatusCancelled:
		return "Order cancelled"
	}
	return "Order status changed"
}

func (s *Subscriber) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
