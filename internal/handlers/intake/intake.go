// Package intake feeds ledger commands arriving as watermill messages into
// the recording backend and publishes a reply for each one.
package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/common/uuid"
	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/services/recording"
)

// DefaultTopic is the topic commands are read from
const DefaultTopic = "kegledger.commands"

// CommandMetadata is the metadata key naming the command of a message
const CommandMetadata = "command"

// CorrelationMetadata is set on replies to the UUID of the command message
const CorrelationMetadata = "correlation_id"

// Config holds configuration for the intake
type Config struct {
	// Subscriber delivers command messages
	Subscriber message.Subscriber

	// Publisher receives replies on "<topic>.replies"
	Publisher message.Publisher

	// Topic defaults to DefaultTopic
	Topic string

	// Service runs the commands
	Service recording.Service

	// Stats answers latest_stats queries; optional
	Stats StatsReader

	// UUID generates reply message IDs
	UUID uuid.UUID
}

// Intake consumes command messages. It implements suture.Service.
type Intake struct {
	subscriber message.Subscriber
	publisher  message.Publisher
	topic      string
	uuid       uuid.UUID
	commands   map[string]CommandHandler
}

// New creates an intake with a handler for every recording operation, plus
// latest_stats when a stats reader is configured
func New(cfg *Config) (*Intake, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Subscriber == nil {
		return nil, errors.New("subscriber cannot be nil")
	}

	if cfg.Publisher == nil {
		return nil, errors.New("publisher cannot be nil")
	}

	if cfg.Service == nil {
		return nil, errors.New("recording service cannot be nil")
	}

	if cfg.UUID == nil {
		return nil, errors.New("UUID generator cannot be nil")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	in := &Intake{
		subscriber: cfg.Subscriber,
		publisher:  cfg.Publisher,
		topic:      topic,
		uuid:       cfg.UUID,
		commands:   make(map[string]CommandHandler),
	}
	commands := ledgerCommands(cfg.Service)
	if cfg.Stats != nil {
		commands = append(commands, latestStatsCommand(cfg.Stats))
	}
	for _, cmd := range commands {
		in.commands[cmd.GetName()] = cmd
	}

	return in, nil
}

// ReplyTopic returns the topic replies are published on
func (in *Intake) ReplyTopic() string {
	return in.topic + ".replies"
}

// Serve implements suture.Service
func (in *Intake) Serve(ctx context.Context) error {
	messages, err := in.subscriber.Subscribe(ctx, in.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", in.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", in.topic)
			}
			if err := in.handle(ctx, msg); err != nil {
				msg.Nack()
				return err
			}
			msg.Ack()
		}
	}
}

// String implements fmt.Stringer for supervisor logs
func (in *Intake) String() string {
	return "command-intake"
}

// handle runs one command and publishes its reply. Command failures are
// reported in the reply; only a failed publish is returned.
func (in *Intake) handle(ctx context.Context, msg *message.Message) error {
	ctx = logging.ContextWithCorrelationID(ctx, msg.UUID)
	name := msg.Metadata.Get(CommandMetadata)

	var result interface{}
	var err error
	cmd, ok := in.commands[name]
	if ok {
		result, err = cmd.Handle(ctx, msg.Payload)
	} else {
		err = fmt.Errorf("%w: unknown command %q", errkind.ErrValidation, name)
	}

	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("command", name).Msg("command failed")
	}

	payload, renderErr := renderReply(name, result, err)
	if renderErr != nil {
		return fmt.Errorf("failed to render %s reply: %w", name, renderErr)
	}

	reply := message.NewMessage(in.uuid.NewUUID(), payload)
	reply.Metadata.Set(CommandMetadata, name)
	reply.Metadata.Set(CorrelationMetadata, msg.UUID)
	if err := in.publisher.Publish(in.ReplyTopic(), reply); err != nil {
		return fmt.Errorf("failed to publish %s reply: %w", name, err)
	}

	return nil
}
