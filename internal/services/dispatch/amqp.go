package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/models"
)

// DefaultQueue is the durable queue events are published to
const DefaultQueue = "kegledger.events"

// AMQPChannel is the subset of *amqp.Channel the sink uses
type AMQPChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPConfig holds configuration for the AMQP sink
type AMQPConfig struct {
	// Channel is an open broker channel
	Channel AMQPChannel

	// Queue defaults to DefaultQueue
	Queue string

	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again
	OpenTimeout time.Duration
}

// AMQPSink publishes events as persistent JSON messages on a durable queue.
// Publishing goes through a circuit breaker so an unavailable broker costs
// one fast failure per operation instead of a timeout.
type AMQPSink struct {
	channel AMQPChannel
	queue   string
	breaker *gobreaker.CircuitBreaker[interface{}]
}

// NewAMQPSink declares the queue and creates an AMQP sink
func NewAMQPSink(cfg *AMQPConfig) (*AMQPSink, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Channel == nil {
		return nil, errors.New("amqp channel cannot be nil")
	}

	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	timeout := cfg.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	if _, err := cfg.Channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	breaker := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "amqp-" + queue,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &AMQPSink{channel: cfg.Channel, queue: queue, breaker: breaker}, nil
}

// DialAMQP connects to the broker and opens a channel
func DialAMQP(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open broker channel: %w", err)
	}

	return conn, ch, nil
}

// Name implements Collaborator
func (a *AMQPSink) Name() string {
	return "amqp"
}

// State returns the breaker state for health reporting
func (a *AMQPSink) State() string {
	return a.breaker.State().String()
}

// OnEvents implements Collaborator
func (a *AMQPSink) OnEvents(ctx context.Context, events []*models.SystemEvent) error {
	for _, event := range events {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode %s event: %w", event.Kind, err)
		}

		pub := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Time.UTC(),
			Type:         string(event.Kind),
			Body:         body,
		}

		_, err = a.breaker.Execute(func() (interface{}, error) {
			return nil, a.channel.PublishWithContext(ctx, "", a.queue, false, false, pub)
		})
		if err != nil {
			return fmt.Errorf("failed to publish %s event %d: %w", event.Kind, event.ID, err)
		}
	}
	return nil
}
