package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

type EventBuilderTestSuite struct {
	suite.Suite
	store    ledger.Store
	builder  *Builder
	ctx      context.Context
	testTime time.Time
	keg      *models.Keg
	session  *models.DrinkingSession
	aliceID  int64
	bobID    int64
}

func (s *EventBuilderTestSuite) SetupTest() {
	db, err := ledger.Open(ledger.DriverSQLite, ":memory:?_loc=UTC&_txlock=immediate")
	s.Require().NoError(err)
	store, err := ledger.NewSQL(&ledger.Config{DB: db})
	s.Require().NoError(err)
	s.store = store

	s.builder, err = NewBuilder(&Config{LowVolumeThresholdPercent: 15})
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.testTime = time.Date(2025, 4, 5, 18, 0, 0, 0, time.UTC)

	alice, err := s.store.CreateUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.aliceID = alice.ID
	bob, err := s.store.CreateUser(s.ctx, "bob")
	s.Require().NoError(err)
	s.bobID = bob.ID

	s.keg = &models.Keg{FullVolume: 1000, Status: models.KegStatusOnTap, StartTime: s.testTime.Add(-time.Hour)}
	s.session = &models.DrinkingSession{StartTime: s.testTime, EndTime: s.testTime.Add(90 * time.Minute), TimeZone: "UTC"}
	err = s.store.WithTransaction(s.ctx, func(tx ledger.Tx) error {
		if err := tx.CreateKeg(s.ctx, s.keg); err != nil {
			return err
		}
		return tx.CreateSession(s.ctx, s.session)
	})
	s.Require().NoError(err)
}

func (s *EventBuilderTestSuite) TearDownTest() {
	s.store.Close()
}

func TestEventBuilderTestSuite(t *testing.T) {
	suite.Run(t, new(EventBuilderTestSuite))
}

// pour records a drink, moves the keg's served volume and builds its events
func (s *EventBuilderTestSuite) pour(userID int64, volume float64, offset time.Duration) []*models.SystemEvent {
	var created []*models.SystemEvent
	err := s.store.WithTransaction(s.ctx, func(tx ledger.Tx) error {
		drink := &models.Drink{
			Volume:    volume,
			Time:      s.testTime.Add(offset),
			UserID:    userID,
			KegID:     s.keg.ID,
			SessionID: &s.session.ID,
		}
		if err := tx.CreateDrink(s.ctx, drink); err != nil {
			return err
		}
		if err := tx.AddKegVolume(s.ctx, &ledger.AddKegVolumeInput{KegID: s.keg.ID, Served: volume}); err != nil {
			return err
		}
		keg, err := tx.GetKeg(s.ctx, s.keg.ID)
		if err != nil {
			return err
		}
		created, err = s.builder.ForDrink(s.ctx, tx, &DrinkInput{Drink: drink, Session: s.session, Keg: keg})
		return err
	})
	s.Require().NoError(err)
	return created
}

func kinds(events []*models.SystemEvent) []models.EventKind {
	out := make([]models.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func (s *EventBuilderTestSuite) TestNewBuilderValidatesThreshold() {
	_, err := NewBuilder(nil)
	s.Error(err)

	_, err = NewBuilder(&Config{LowVolumeThresholdPercent: 120})
	s.Error(err)

	b, err := NewBuilder(&Config{})
	s.Require().NoError(err)
	s.Equal(DefaultLowVolumeThresholdPercent, b.lowThreshold)
}

func (s *EventBuilderTestSuite) TestFirstDrinkOfSession() {
	created := s.pour(s.aliceID, 100, 0)
	s.Equal([]models.EventKind{
		models.EventKegTapped,
		models.EventSessionStarted,
		models.EventSessionJoined,
		models.EventDrinkPoured,
	}, kinds(created))

	s.True(created[0].Time.Equal(s.keg.StartTime))
	s.True(created[1].Time.Equal(s.session.StartTime))
	s.Equal(s.aliceID, *created[2].UserID)
}

func (s *EventBuilderTestSuite) TestEventsAreEmittedOncePerScope() {
	s.pour(s.aliceID, 100, 0)

	again := s.pour(s.aliceID, 100, time.Minute)
	s.Equal([]models.EventKind{models.EventDrinkPoured}, kinds(again))

	bob := s.pour(s.bobID, 100, 2*time.Minute)
	s.Equal([]models.EventKind{models.EventSessionJoined, models.EventDrinkPoured}, kinds(bob))

	joined, err := s.store.ListEvents(s.ctx, &ledger.ListEventsInput{Kind: models.EventSessionJoined})
	s.Require().NoError(err)
	s.Len(joined, 2)
}

func (s *EventBuilderTestSuite) TestKegVolumeLowFiresOnCrossing() {
	// 1000 full, 15% threshold is 150 remaining
	s.pour(s.aliceID, 800, 0)
	created := s.pour(s.aliceID, 49, time.Minute)
	s.NotContains(kinds(created), models.EventKegVolumeLow)

	created = s.pour(s.aliceID, 1, 2*time.Minute)
	s.Contains(kinds(created), models.EventKegVolumeLow)

	created = s.pour(s.aliceID, 50, 3*time.Minute)
	s.NotContains(kinds(created), models.EventKegVolumeLow)
}

func (s *EventBuilderTestSuite) TestKegLifecycleEvents() {
	err := s.store.WithTransaction(s.ctx, func(tx ledger.Tx) error {
		tapped, err := s.builder.KegTapped(s.ctx, tx, s.keg)
		s.Require().NoError(err)
		s.NotNil(tapped)

		tapped, err = s.builder.KegTapped(s.ctx, tx, s.keg)
		s.Require().NoError(err)
		s.Nil(tapped)

		ended, err := s.builder.KegEnded(s.ctx, tx, s.keg, s.testTime)
		s.Require().NoError(err)
		s.Require().NotNil(ended)
		s.True(ended.Time.Equal(s.testTime))

		ended, err = s.builder.KegEnded(s.ctx, tx, s.keg, s.testTime)
		s.Require().NoError(err)
		s.Nil(ended)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EventBuilderTestSuite) TestSessionJoinedNeedsSession() {
	err := s.store.WithTransaction(s.ctx, func(tx ledger.Tx) error {
		event, err := s.builder.SessionJoined(s.ctx, tx, &models.Drink{ID: 99, UserID: 1, KegID: s.keg.ID})
		s.Nil(event)
		return err
	})
	s.Require().NoError(err)
}
