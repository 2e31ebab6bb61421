package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/KirkDiggler/kegledger/internal/common/uuid"
	"github.com/KirkDiggler/kegledger/internal/models"
)

// DefaultTopicPrefix prefixes the topic of every published event
const DefaultTopicPrefix = "kegledger.events"

// WatermillConfig holds configuration for the watermill sink
type WatermillConfig struct {
	// Publisher receives one message per event
	Publisher message.Publisher

	// TopicPrefix defaults to DefaultTopicPrefix; the topic is "<prefix>.<kind>"
	TopicPrefix string

	// UUID generates message IDs
	UUID uuid.UUID
}

// WatermillSink publishes events as watermill messages
type WatermillSink struct {
	publisher message.Publisher
	prefix    string
	uuid      uuid.UUID
}

// NewWatermillSink creates a watermill sink
func NewWatermillSink(cfg *WatermillConfig) (*WatermillSink, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}

	if cfg.UUID == nil {
		return nil, errors.New("UUID generator cannot be nil")
	}

	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	return &WatermillSink{publisher: cfg.Publisher, prefix: prefix, uuid: cfg.UUID}, nil
}

// Topic returns the topic events of the kind are published on
func (w *WatermillSink) Topic(kind models.EventKind) string {
	return w.prefix + "." + string(kind)
}

// Name implements Collaborator
func (w *WatermillSink) Name() string {
	return "watermill"
}

// OnEvents implements Collaborator
func (w *WatermillSink) OnEvents(ctx context.Context, events []*models.SystemEvent) error {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode %s event: %w", event.Kind, err)
		}

		msg := message.NewMessage(w.uuid.NewUUID(), payload)
		msg.Metadata.Set("kind", string(event.Kind))
		msg.SetContext(ctx)

		if err := w.publisher.Publish(w.Topic(event.Kind), msg); err != nil {
			return fmt.Errorf("failed to publish %s event %d: %w", event.Kind, event.ID, err)
		}
	}
	return nil
}

// watermillLogger adapts zerolog to watermill.LoggerAdapter
type watermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger returns a watermill logger writing through zerolog
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return &watermillLogger{logger: logger}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
