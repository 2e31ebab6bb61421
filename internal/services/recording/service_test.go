package recording

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/kegledger/internal/common/clock"
	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/cache"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
	"github.com/KirkDiggler/kegledger/internal/services/events"
	"github.com/KirkDiggler/kegledger/internal/services/generation"
	"github.com/KirkDiggler/kegledger/internal/services/sessions"
	"github.com/KirkDiggler/kegledger/internal/services/stats"
)

// capturingDispatcher records every dispatched batch
type capturingDispatcher struct {
	batches [][]*models.SystemEvent
}

func (c *capturingDispatcher) Dispatch(ctx context.Context, events []*models.SystemEvent) {
	c.batches = append(c.batches, events)
}

func (c *capturingDispatcher) kinds() []models.EventKind {
	var kinds []models.EventKind
	for _, batch := range c.batches {
		for _, event := range batch {
			kinds = append(kinds, event.Kind)
		}
	}
	return kinds
}

type RecordingServiceTestSuite struct {
	suite.Suite
	mr         *miniredis.Miniredis
	redis      *redis.Client
	store      ledger.Store
	gen        *generation.Client
	builder    *stats.Builder
	sessions   *sessions.Service
	events     *events.Builder
	dispatcher *capturingDispatcher
	service    *service
	ctx        context.Context
	testTime   time.Time
	tap        *models.Tap
	keg        *models.Keg
}

func (s *RecordingServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.testTime = time.Date(2025, 4, 5, 18, 0, 0, 0, time.UTC)

	db, err := ledger.Open(ledger.DriverSQLite, ":memory:?_loc=UTC&_txlock=immediate")
	s.Require().NoError(err)
	s.store, err = ledger.NewSQL(&ledger.Config{DB: db})
	s.Require().NoError(err)

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cacheStore, err := cache.NewRedis(&cache.RedisConfig{RedisClient: s.redis})
	s.Require().NoError(err)
	s.gen, err = generation.New(&generation.Config{Store: cacheStore, Clock: clock.Fixed{At: s.testTime}})
	s.Require().NoError(err)

	s.sessions, err = sessions.New(&sessions.Config{IdleTimeout: 90 * time.Minute, TimeZone: "UTC"})
	s.Require().NoError(err)
	s.builder, err = stats.NewBuilder(&stats.Config{})
	s.Require().NoError(err)
	s.events, err = events.NewBuilder(&events.Config{})
	s.Require().NoError(err)
	s.dispatcher = &capturingDispatcher{}

	s.service = s.newService(StatsModeSync, nil)

	for _, name := range []string{"alice", "bob"} {
		_, err := s.store.CreateUser(s.ctx, name)
		s.Require().NoError(err)
	}

	s.tap, err = s.store.CreateTap(s.ctx, &ledger.CreateTapInput{Name: "left", MeterName: "kegboard.flow0", TicksPerUnit: 2.2})
	s.Require().NoError(err)

	started, err := s.service.StartKeg(s.ctx, &StartKegInput{
		TapName:    "left",
		Beverage:   "Pale Ale",
		FullVolume: 10000,
		Time:       &s.testTime,
	})
	s.Require().NoError(err)
	s.keg = started.Keg
	s.dispatcher.batches = nil
}

func (s *RecordingServiceTestSuite) TearDownTest() {
	s.store.Close()
	s.redis.Close()
	s.mr.Close()
}

func TestRecordingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecordingServiceTestSuite))
}

func (s *RecordingServiceTestSuite) newService(mode StatsMode, queue StatsQueue) *service {
	svc, err := New(&Config{
		Store:      s.store,
		Sessions:   s.sessions,
		Stats:      s.builder,
		Events:     s.events,
		Clock:      clock.Fixed{At: s.testTime},
		Generation: s.gen,
		StatsMode:  mode,
		StatsQueue: queue,
		Dispatcher: s.dispatcher,
	})
	s.Require().NoError(err)
	return svc
}

func (s *RecordingServiceTestSuite) pour(ticks int64, username string, offset time.Duration) *RecordDrinkOutput {
	at := s.testTime.Add(offset)
	out, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{
		TapName:  "left",
		Ticks:    ticks,
		Username: username,
		Time:     &at,
	})
	s.Require().NoError(err)
	return out
}

func (s *RecordingServiceTestSuite) latestSnapshot(view stats.View) *models.Snapshot {
	row, err := s.store.LatestStats(s.ctx, view.Key())
	s.Require().NoError(err)
	s.Require().NotNil(row)
	snap, err := row.Snapshot()
	s.Require().NoError(err)
	return snap
}

func (s *RecordingServiceTestSuite) TestNewValidatesConfig() {
	_, err := New(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = New(&Config{})
	s.ErrorIs(err, ErrNilStore)

	_, err = New(&Config{
		Store: s.store, Sessions: s.sessions, Stats: s.builder, Events: s.events,
		Clock: clock.New(), Generation: s.gen, StatsMode: StatsModeDeferred,
	})
	s.ErrorIs(err, ErrNilStatsQueue)

	_, err = New(&Config{
		Store: s.store, Sessions: s.sessions, Stats: s.builder, Events: s.events,
		Clock: clock.New(), Generation: s.gen, StatsMode: "nightly",
	})
	s.ErrorIs(err, ErrBadStatsMode)
}

func (s *RecordingServiceTestSuite) TestTickConversionAndCancel() {
	first := s.pour(2200, "alice", 0)
	s.Equal(1000.0, first.Drink.Volume)

	second := s.pour(1100, "bob", 10*time.Minute)
	s.Equal(500.0, second.Drink.Volume)
	s.Equal(1500.0, second.Keg.ServedVolume)
	s.Equal(*first.Drink.SessionID, *second.Drink.SessionID)
	s.Equal(1500.0, second.Session.Volume)

	cancelled, err := s.service.CancelDrink(s.ctx, &CancelDrinkInput{DrinkID: second.Drink.ID})
	s.Require().NoError(err)
	s.Equal(1000.0, cancelled.Keg.ServedVolume)
	s.Equal(0.0, cancelled.Keg.SpilledVolume)
	s.Require().NotNil(cancelled.Session)
	s.Equal(1000.0, cancelled.Session.Volume)

	_, err = s.store.GetDrink(s.ctx, second.Drink.ID)
	s.ErrorIs(err, errkind.ErrNotFound)

	system := s.latestSnapshot(stats.SystemView())
	s.Equal(1000.0, system.TotalVolume)
	s.Equal(int64(1), system.TotalPours)
}

func (s *RecordingServiceTestSuite) TestCancelAsSpilled() {
	out := s.pour(2200, "alice", 0)

	cancelled, err := s.service.CancelDrink(s.ctx, &CancelDrinkInput{DrinkID: out.Drink.ID, Spilled: true})
	s.Require().NoError(err)
	s.Equal(0.0, cancelled.Keg.ServedVolume)
	s.Equal(1000.0, cancelled.Keg.SpilledVolume)

	// The only drink is gone so its session is deleted
	s.Nil(cancelled.Session)
	_, err = s.store.GetSession(s.ctx, *out.Drink.SessionID)
	s.ErrorIs(err, errkind.ErrNotFound)

	// Events of the drink survive without the drink reference
	poured, err := s.store.ListEvents(s.ctx, &ledger.ListEventsInput{Kind: models.EventDrinkPoured})
	s.Require().NoError(err)
	s.Require().Len(poured, 1)
	s.Nil(poured[0].DrinkID)
}

func (s *RecordingServiceTestSuite) TestRecordByMeterWithExplicitVolume() {
	volume := 330.0
	out, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{
		MeterName: "kegboard.flow0",
		Ticks:     9999,
		Volume:    &volume,
		Duration:  12,
		Shout:     "cheers",
	})
	s.Require().NoError(err)
	s.Equal(330.0, out.Drink.Volume)
	s.Equal("cheers", out.Drink.Shout)
	s.True(out.Drink.Time.Equal(s.testTime))

	guest, err := s.store.GetUserByUsername(s.ctx, models.GuestUsername)
	s.Require().NoError(err)
	s.Equal(guest.ID, out.Drink.UserID)
}

func (s *RecordingServiceTestSuite) TestRecordSpill() {
	volume := 200.0
	out, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "left", Volume: &volume, Spilled: true})
	s.Require().NoError(err)
	s.True(out.Spilled)
	s.Nil(out.Drink)
	s.Equal(200.0, out.Keg.SpilledVolume)
	s.Equal(0.0, out.Keg.ServedVolume)

	latest, err := s.store.LatestSession(s.ctx)
	s.Require().NoError(err)
	s.Nil(latest)
	s.Empty(s.dispatcher.batches)
}

func (s *RecordingServiceTestSuite) TestRecordErrors() {
	_, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "missing", Ticks: 10})
	s.ErrorIs(err, errkind.ErrNotFound)

	_, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "left", Ticks: 10, Username: "nobody"})
	s.ErrorIs(err, errkind.ErrNotFound)

	_, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "left", Ticks: -1})
	s.ErrorIs(err, errkind.ErrValidation)

	negative := -5.0
	_, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "left", Volume: &negative})
	s.ErrorIs(err, errkind.ErrValidation)

	_, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{Ticks: 10})
	s.ErrorIs(err, errkind.ErrValidation)

	_, err = s.store.CreateTap(s.ctx, &ledger.CreateTapInput{Name: "right"})
	s.Require().NoError(err)
	_, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "right", Ticks: 10})
	s.ErrorIs(err, errkind.ErrState)

	_, err = s.service.StartKeg(s.ctx, &StartKegInput{TapName: "right", Beverage: "Stout", FullVolume: 5000})
	s.Require().NoError(err)
	_, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "right", Ticks: 10})
	s.ErrorIs(err, errkind.ErrConfiguration)

	// Nothing was written by the failed calls
	drinks, err := s.store.ListKegDrinks(s.ctx, s.keg.ID)
	s.Require().NoError(err)
	s.Empty(drinks)
}

func (s *RecordingServiceTestSuite) TestIdleTimeoutSplitsSessions() {
	a := s.pour(220, "alice", 0)
	b := s.pour(220, "alice", 80*time.Minute)
	c := s.pour(220, "alice", 200*time.Minute)

	s.Equal(*a.Drink.SessionID, *b.Drink.SessionID)
	s.True(b.Session.EndTime.Equal(s.testTime.Add(170 * time.Minute)))
	s.NotEqual(*a.Drink.SessionID, *c.Drink.SessionID)
}

func (s *RecordingServiceTestSuite) TestEventsAreDispatchedAfterCommit() {
	s.pour(2200, "alice", 0)
	s.pour(2200, "bob", time.Minute)

	s.Equal([]models.EventKind{
		models.EventSessionStarted,
		models.EventSessionJoined,
		models.EventDrinkPoured,
		models.EventSessionJoined,
		models.EventDrinkPoured,
	}, s.dispatcher.kinds())
}

func (s *RecordingServiceTestSuite) TestGenerationBumpsOnEveryChange() {
	before, err := s.gen.Get(s.ctx)
	s.Require().NoError(err)

	out := s.pour(2200, "alice", 0)
	_, err = s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: out.Drink.ID, Volume: 900})
	s.Require().NoError(err)

	after, err := s.gen.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(before+2, after)

	// A no-op change does not bump
	_, err = s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: out.Drink.ID, Volume: 900})
	s.Require().NoError(err)
	unchanged, err := s.gen.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal(after, unchanged)
}

func (s *RecordingServiceTestSuite) TestReassignKeepsSystemViewTotals() {
	s.pour(2200, "alice", 0)
	moved := s.pour(1100, "alice", 5*time.Minute)
	s.pour(2640, "bob", 10*time.Minute)

	alice, err := s.store.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	bob, err := s.store.GetUserByUsername(s.ctx, "bob")
	s.Require().NoError(err)

	systemBefore := s.latestSnapshot(stats.SystemView())
	s.Equal(1200.0, s.latestSnapshot(stats.UserView(bob.ID)).TotalVolume)

	out, err := s.service.AssignDrink(s.ctx, &AssignDrinkInput{DrinkID: moved.Drink.ID, Username: "bob"})
	s.Require().NoError(err)
	s.True(out.Changed)
	s.Equal(bob.ID, out.Drink.UserID)

	systemAfter := s.latestSnapshot(stats.SystemView())
	s.Equal(systemBefore.TotalVolume, systemAfter.TotalVolume)
	s.Equal(systemBefore.TotalPours, systemAfter.TotalPours)
	s.Equal(systemBefore.AverageVolume, systemAfter.AverageVolume)
	s.Equal(systemBefore.GreatestVolume, systemAfter.GreatestVolume)

	s.Equal(1000.0, s.latestSnapshot(stats.UserView(alice.ID)).TotalVolume)
	s.Equal(1700.0, s.latestSnapshot(stats.UserView(bob.ID)).TotalVolume)

	poured, err := s.store.HasEvent(s.ctx, &ledger.HasEventInput{Kind: models.EventDrinkPoured, DrinkID: &moved.Drink.ID, UserID: &bob.ID})
	s.Require().NoError(err)
	s.True(poured)

	again, err := s.service.AssignDrink(s.ctx, &AssignDrinkInput{DrinkID: moved.Drink.ID, Username: "bob"})
	s.Require().NoError(err)
	s.False(again.Changed)
}

func (s *RecordingServiceTestSuite) TestReassignKeepsSessionJoinedWithOriginalUser() {
	first := s.pour(2200, "alice", 0)
	moved := s.pour(1100, "alice", 5*time.Minute)
	sessionID := *first.Drink.SessionID

	alice, err := s.store.GetUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	bob, err := s.store.GetUserByUsername(s.ctx, "bob")
	s.Require().NoError(err)

	out, err := s.service.AssignDrink(s.ctx, &AssignDrinkInput{DrinkID: moved.Drink.ID, Username: "bob"})
	s.Require().NoError(err)
	s.Require().Len(out.Events, 1)
	s.Equal(models.EventSessionJoined, out.Events[0].Kind)
	s.Equal(bob.ID, *out.Events[0].UserID)

	s.pour(440, "alice", 10*time.Minute)

	joined, err := s.store.ListEvents(s.ctx, &ledger.ListEventsInput{Kind: models.EventSessionJoined})
	s.Require().NoError(err)
	perUser := map[int64]int{}
	for _, event := range joined {
		s.Equal(sessionID, *event.SessionID)
		perUser[*event.UserID]++
	}
	s.Equal(map[int64]int{alice.ID: 1, bob.ID: 1}, perUser)
}

func (s *RecordingServiceTestSuite) TestPictureFollowsDrinkOwner() {
	at := s.testTime
	out, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{
		TapName:   "left",
		Ticks:     2200,
		Username:  "alice",
		Time:      &at,
		PhotoPath: "pictures/1.jpg",
	})
	s.Require().NoError(err)
	s.Require().NotNil(out.Drink.PictureID)

	_, err = s.service.AssignDrink(s.ctx, &AssignDrinkInput{DrinkID: out.Drink.ID, Username: "bob"})
	s.Require().NoError(err)

	drink, err := s.store.GetDrink(s.ctx, out.Drink.ID)
	s.Require().NoError(err)
	s.Equal(out.Drink.PictureID, drink.PictureID)

	_, err = s.service.CancelDrink(s.ctx, &CancelDrinkInput{DrinkID: out.Drink.ID})
	s.Require().NoError(err)
}

func (s *RecordingServiceTestSuite) TestMalformedTickSeriesIsDropped() {
	out, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{
		TapName:        "left",
		Ticks:          2200,
		TickTimeSeries: "0:0 100:banana",
	})
	s.Require().NoError(err)
	s.Empty(out.Drink.TickTimeSeries)

	out, err = s.service.RecordDrink(s.ctx, &RecordDrinkInput{
		TapName:        "left",
		Ticks:          2200,
		TickTimeSeries: " 0:0   250:1100 500:2200 ",
	})
	s.Require().NoError(err)
	s.Equal("0:0 250:1100 500:2200", out.Drink.TickTimeSeries)
}

func (s *RecordingServiceTestSuite) TestVolumeConservation() {
	var ids []int64
	for i, ticks := range []int64{2200, 1100, 660, 4400, 220} {
		out := s.pour(ticks, "alice", time.Duration(i)*time.Minute)
		ids = append(ids, out.Drink.ID)
	}

	_, err := s.service.CancelDrink(s.ctx, &CancelDrinkInput{DrinkID: ids[1]})
	s.Require().NoError(err)
	_, err = s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: ids[3], Volume: 1234.5})
	s.Require().NoError(err)
	_, err = s.service.CancelDrink(s.ctx, &CancelDrinkInput{DrinkID: ids[4], Spilled: true})
	s.Require().NoError(err)
	_, err = s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: ids[0], Volume: 0})
	s.Require().NoError(err)

	keg, err := s.store.GetKeg(s.ctx, s.keg.ID)
	s.Require().NoError(err)
	drinks, err := s.store.ListKegDrinks(s.ctx, s.keg.ID)
	s.Require().NoError(err)

	var sum float64
	for _, drink := range drinks {
		sum += drink.Volume
	}
	s.InDelta(sum, keg.ServedVolume, 1e-9)
	s.InDelta(100.0, keg.SpilledVolume, 1e-9)

	system := s.latestSnapshot(stats.SystemView())
	s.InDelta(sum, system.TotalVolume, 1e-9)
	s.Equal(int64(len(drinks)), system.TotalPours)
}

func (s *RecordingServiceTestSuite) TestSetDrinkVolumeRejectsNegative() {
	out := s.pour(2200, "alice", 0)

	_, err := s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: out.Drink.ID, Volume: -1})
	s.ErrorIs(err, errkind.ErrValidation)

	_, err = s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: out.Drink.ID + 100, Volume: 1})
	s.ErrorIs(err, errkind.ErrNotFound)
}

func (s *RecordingServiceTestSuite) TestDeferredStatsMode() {
	worker, err := stats.NewWorker(&stats.WorkerConfig{Store: s.store, Builder: s.builder})
	s.Require().NoError(err)
	s.service = s.newService(StatsModeDeferred, worker)

	out := s.pour(2200, "alice", 0)

	row, err := s.store.LatestStats(s.ctx, stats.SystemView().Key())
	s.Require().NoError(err)
	s.Nil(row)

	pending, queued := worker.Pending()
	s.True(queued)
	s.Equal(out.Drink.ID, pending)

	s.Require().NoError(worker.Flush(s.ctx))
	s.Equal(1000.0, s.latestSnapshot(stats.SystemView()).TotalVolume)
}

func (s *RecordingServiceTestSuite) TestNilInput() {
	_, err := s.service.RecordDrink(s.ctx, nil)
	s.True(errors.Is(err, errkind.ErrValidation))
}
