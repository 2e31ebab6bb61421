package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/services/dispatch/mocks"
)

type RegistryTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	first    *mocks.MockCollaborator
	second   *mocks.MockCollaborator
	registry *Registry
	ctx      context.Context
	events   []*models.SystemEvent
}

func (s *RegistryTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.first = mocks.NewMockCollaborator(s.ctrl)
	s.second = mocks.NewMockCollaborator(s.ctrl)
	s.first.EXPECT().Name().Return("first").AnyTimes()
	s.second.EXPECT().Name().Return("second").AnyTimes()

	s.registry = NewRegistry()
	s.registry.Register(s.first)
	s.registry.Register(s.second)

	s.ctx = context.Background()
	s.events = []*models.SystemEvent{
		{ID: 1, Kind: models.EventSessionStarted, Time: time.Unix(1000, 0)},
		{ID: 2, Kind: models.EventDrinkPoured, Time: time.Unix(1000, 0)},
	}
}

func (s *RegistryTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) TestDispatchInRegistrationOrder() {
	gomock.InOrder(
		s.first.EXPECT().OnEvents(s.ctx, s.events).Return(nil),
		s.second.EXPECT().OnEvents(s.ctx, s.events).Return(nil),
	)

	s.registry.Dispatch(s.ctx, s.events)
	s.Equal(2, s.registry.Len())
}

func (s *RegistryTestSuite) TestFailureDoesNotStopOtherCollaborators() {
	s.first.EXPECT().OnEvents(s.ctx, s.events).Return(errors.New("unavailable"))
	s.second.EXPECT().OnEvents(s.ctx, s.events).Return(nil)

	s.registry.Dispatch(s.ctx, s.events)
}

func (s *RegistryTestSuite) TestPanicIsRecovered() {
	s.first.EXPECT().OnEvents(s.ctx, s.events).DoAndReturn(
		func(context.Context, []*models.SystemEvent) error {
			panic("boom")
		})
	s.second.EXPECT().OnEvents(s.ctx, s.events).Return(nil)

	s.NotPanics(func() {
		s.registry.Dispatch(s.ctx, s.events)
	})
}

func (s *RegistryTestSuite) TestNoEventsSkipsCollaborators() {
	// No OnEvents expectations are set
	s.registry.Dispatch(s.ctx, nil)
}
