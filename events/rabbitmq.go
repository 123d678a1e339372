package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/rabbitmq/amqp091-go"
)

const TripsExchange = "trips"

// AMQPPublisher publishes trip events to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
	mu       sync.Mutex
}

// DialAMQP connects to the broker, retrying while it starts up, and
// declares the trips exchange.
func DialAMQP(ctx context.Context, url string, attempts int, log logging.Logger) (*AMQPPublisher, error) {
	var (
		conn *amqp091.Connection
		err  error
	)
	backoff := time.Second
	for i := 1; i <= attempts; i++ {
		conn, err = amqp091.Dial(url)
		if err == nil {
			break
		}
		log.Warn(ctx, "rabbitmq not ready, retrying", "attempt", i, "of", attempts, "err", err)
		if i == attempts {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		TripsExchange, // name
		"topic",       // kind
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: TripsExchange}, nil
}

func (p *AMQPPublisher) PublishTrip(ctx context.Context, ev TripEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange, // exchange
		ev.Event,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
