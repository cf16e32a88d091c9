package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	routingKeyReservationConfirmed = "rsvp.reservation.confirmed"
	routingKeyCheckedIn            = "rsvp.checked_in"
)

type message struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
}

// AMQPPublisher publishes notification events to a topic exchange. The
// mailer consuming the exchange owns delivery; the api only publishes.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) ReservationConfirmed(ctx context.Context, userID, eventID string) error {
	return p.publish(ctx, routingKeyReservationConfirmed, message{UserID: userID, EventID: eventID})
}

func (p *AMQPPublisher) CheckedIn(ctx context.Context, userID, eventID string) error {
	return p.publish(ctx, routingKeyCheckedIn, message{UserID: userID, EventID: eventID})
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, msg message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

// Close releases the channel and connection. The first failure is
// reported; both are always attempted.
func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
