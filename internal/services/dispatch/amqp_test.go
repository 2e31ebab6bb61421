package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/kegledger/internal/models"
)

// fakeChannel records publishings and fails while err is set
type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	declareErr error
	calls      int
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if f.declareErr != nil {
		return amqp.Queue{}, f.declareErr
	}
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.calls++
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

type AMQPSinkTestSuite struct {
	suite.Suite
	channel *fakeChannel
	sink    *AMQPSink
	ctx     context.Context
	events  []*models.SystemEvent
}

func (s *AMQPSinkTestSuite) SetupTest() {
	s.channel = &fakeChannel{}
	sink, err := NewAMQPSink(&AMQPConfig{
		Channel:          s.channel,
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	})
	s.Require().NoError(err)
	s.sink = sink
	s.ctx = context.Background()
	s.events = []*models.SystemEvent{
		{ID: 1, Kind: models.EventKegTapped, Time: time.Unix(1000, 0)},
	}
}

func TestAMQPSinkTestSuite(t *testing.T) {
	suite.Run(t, new(AMQPSinkTestSuite))
}

func (s *AMQPSinkTestSuite) TestNewDeclaresDurableQueue() {
	s.Equal([]string{DefaultQueue}, s.channel.declared)

	_, err := NewAMQPSink(&AMQPConfig{Channel: &fakeChannel{declareErr: errors.New("closed")}})
	s.Error(err)

	_, err = NewAMQPSink(&AMQPConfig{})
	s.Error(err)
}

func (s *AMQPSinkTestSuite) TestPublishesPersistentJSON() {
	s.Require().NoError(s.sink.OnEvents(s.ctx, s.events))

	s.Require().Len(s.channel.published, 1)
	pub := s.channel.published[0]
	s.Equal(DefaultQueue, s.channel.keys[0])
	s.Equal("application/json", pub.ContentType)
	s.Equal(amqp.Persistent, pub.DeliveryMode)
	s.Equal("keg_tapped", pub.Type)
	s.Contains(string(pub.Body), `"kind":"keg_tapped"`)
}

func (s *AMQPSinkTestSuite) TestBreakerOpensAfterConsecutiveFailures() {
	s.channel.publishErr = errors.New("connection reset")

	s.Error(s.sink.OnEvents(s.ctx, s.events))
	s.Error(s.sink.OnEvents(s.ctx, s.events))
	s.Equal("open", s.sink.State())

	// An open breaker fails without touching the channel
	s.Error(s.sink.OnEvents(s.ctx, s.events))
	s.Equal(2, s.channel.calls)
}
