// ABOUTME: Publishes migration run summaries to a RabbitMQ topic exchange
// ABOUTME: One persistent JSON message per finished run, routed by status
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/harperreed/shopmigrate/models"
)

// DefaultExchange is used when no exchange name is configured.
const DefaultExchange = "shopmigrate"

// RoutingKey returns the routing key for a run, e.g. "run.completed".
func RoutingKey(run *models.MigrationRun) string {
	return "run." + run.Status
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends run summaries. It satisfies importer.Notifier.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// Dial connects to the broker at url and declares a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Message builds the AMQP message for run.
func Message(run *models.MigrationRun) (amqp.Publishing, error) {
	body, err := json.Marshal(run)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}
	ts := run.StartedAt
	if run.FinishedAt != nil {
		ts = *run.FinishedAt
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    run.ID,
		Timestamp:    ts,
		Type:         run.Kind,
		Body:         body,
	}, nil
}

// Publish sends one run summary.
func (p *Publisher) Publish(ctx context.Context, run *models.MigrationRun) error {
	msg, err := Message(run)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(run), false, false, msg); err != nil {
		return fmt.Errorf("failed to publish run %s: %w", run.ID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
