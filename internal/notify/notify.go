// Package notify implements the Lifecycle Event Notifier: a best-effort
// publisher that announces COMPLETED/FAILED/RETRIED transitions to
// external consumers over AMQP. It is publish-only (no consumer side)
// and fire-and-forget: a publish failure is logged and dropped, never
// retried against the job's own state.
package notify

import (
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"jobengine/internal/job"
)

const (
	exchangeName = "jobengine.events"
	routingKey   = "job.transition"
)

// Event is the small JSON payload published on every terminal or
// near-terminal transition the Worker Pool drives.
type Event struct {
	JobID      string     `json:"job_id"`
	Status     job.Status `json:"status"`
	Error      string     `json:"error,omitempty"`
	RetryCount int        `json:"retry_count"`
	At         time.Time  `json:"at"`
}

// Notifier publishes Events to a RabbitMQ exchange. A nil *Notifier is
// valid and a no-op Publish, matching SPEC_FULL.md's "NOTIFY_AMQP_URL
// empty disables the Notifier".
type Notifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Connect dials url and declares the durable fanout exchange events
// publish to. Returns (nil, nil) if url is empty — the documented way
// to run without a Notifier.
func Connect(url string) (*Notifier, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Notifier{conn: conn, channel: ch}, nil
}

// Publish fire-and-forgets an Event. Errors are logged, never returned
// to the caller — a transition that already committed to the Store must
// not be undone because the Notifier is unreachable.
func (n *Notifier) Publish(e Event) {
	if n == nil {
		return
	}
	body, err := json.Marshal(e)
	if err != nil {
		log.Printf("notify: marshal event for job %s: %v", e.JobID, err)
		return
	}
	err = n.channel.Publish(exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   e.At,
		Body:        body,
	})
	if err != nil {
		log.Printf("notify: publish event for job %s: %v", e.JobID, err)
	}
}

func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	if err := n.channel.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}
