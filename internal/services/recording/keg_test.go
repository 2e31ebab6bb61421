package recording

import (
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

func (s *RecordingServiceTestSuite) TestStartKegEndsPreviousKeg() {
	later := s.testTime.Add(48 * time.Hour)
	out, err := s.service.StartKeg(s.ctx, &StartKegInput{
		TapName:    "left",
		Beverage:   "Porter",
		FullVolume: 19000,
		Time:       &later,
	})
	s.Require().NoError(err)

	s.Require().NotNil(out.Previous)
	s.Equal(s.keg.ID, out.Previous.ID)
	s.Equal(models.KegStatusFinished, out.Previous.Status)
	s.Require().NotNil(out.Previous.EndTime)
	s.True(out.Previous.EndTime.Equal(later))

	s.Equal(models.KegStatusOnTap, out.Keg.Status)
	s.Equal([]models.EventKind{models.EventKegEnded, models.EventKegTapped}, s.dispatcher.kinds())

	tap, err := s.store.GetTap(s.ctx, "left")
	s.Require().NoError(err)
	s.Require().NotNil(tap.CurrentKegID)
	s.Equal(out.Keg.ID, *tap.CurrentKegID)
}

func (s *RecordingServiceTestSuite) TestEndKegRequiresDetachedKeg() {
	_, err := s.service.EndKeg(s.ctx, &EndKegInput{KegID: s.keg.ID})
	s.ErrorIs(err, errkind.ErrState)

	disconnected, err := s.service.DisconnectKeg(s.ctx, &DisconnectKegInput{TapName: "left"})
	s.Require().NoError(err)
	s.Equal(models.KegStatusAvailable, disconnected.Keg.Status)

	ended, err := s.service.EndKeg(s.ctx, &EndKegInput{KegID: s.keg.ID})
	s.Require().NoError(err)
	s.Equal(models.KegStatusFinished, ended.Keg.Status)
	s.Require().Len(ended.Events, 1)
	s.Equal(models.EventKegEnded, ended.Events[0].Kind)

	_, err = s.service.EndKeg(s.ctx, &EndKegInput{KegID: s.keg.ID})
	s.ErrorIs(err, errkind.ErrState)

	_, err = s.service.EndKeg(s.ctx, &EndKegInput{KegID: s.keg.ID + 100})
	s.ErrorIs(err, errkind.ErrNotFound)
}

func (s *RecordingServiceTestSuite) TestConnectAndDisconnect() {
	_, err := s.service.DisconnectKeg(s.ctx, &DisconnectKegInput{TapName: "left"})
	s.Require().NoError(err)

	_, err = s.service.DisconnectKeg(s.ctx, &DisconnectKegInput{TapName: "left"})
	s.ErrorIs(err, errkind.ErrState)

	_, err = s.store.CreateTap(s.ctx, &ledger.CreateTapInput{Name: "right", TicksPerUnit: 2.2})
	s.Require().NoError(err)

	connected, err := s.service.ConnectKeg(s.ctx, &ConnectKegInput{TapName: "right", KegID: s.keg.ID})
	s.Require().NoError(err)
	s.Equal(models.KegStatusOnTap, connected.Keg.Status)
	// The keg was tapped when it was started
	s.Empty(connected.Events)

	// The keg is on a tap now, so connecting it again fails
	_, err = s.service.ConnectKeg(s.ctx, &ConnectKegInput{TapName: "left", KegID: s.keg.ID})
	s.ErrorIs(err, errkind.ErrState)

	// The right tap is occupied
	_, err = s.service.ConnectKeg(s.ctx, &ConnectKegInput{TapName: "right", KegID: s.keg.ID})
	s.ErrorIs(err, errkind.ErrState)

	at := s.testTime.Add(time.Minute)
	out, err := s.service.RecordDrink(s.ctx, &RecordDrinkInput{TapName: "right", Ticks: 2200, Time: &at})
	s.Require().NoError(err)
	s.Equal(s.keg.ID, out.Drink.KegID)
}

func (s *RecordingServiceTestSuite) TestLowVolumeEventOnce() {
	// 10000 full at a 15% threshold goes low once remaining reaches 1500
	s.pour(17600, "alice", 0)
	s.pour(880, "alice", time.Minute)
	s.Empty(filterKind(s.dispatcher.kinds(), models.EventKegVolumeLow))

	s.pour(440, "alice", 2*time.Minute)
	s.Len(filterKind(s.dispatcher.kinds(), models.EventKegVolumeLow), 1)

	s.pour(440, "alice", 3*time.Minute)
	s.Len(filterKind(s.dispatcher.kinds(), models.EventKegVolumeLow), 1)
}

func (s *RecordingServiceTestSuite) TestVolumeCorrectionCanMakeKegLow() {
	// 8000 served leaves 2000, above the 1500 threshold
	first := s.pour(17600, "alice", 0)
	s.Empty(filterKind(s.dispatcher.kinds(), models.EventKegVolumeLow))

	out, err := s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: first.Drink.ID, Volume: 8600})
	s.Require().NoError(err)
	s.Require().Len(out.Events, 1)
	s.Equal(models.EventKegVolumeLow, out.Events[0].Kind)
	s.Equal(1400.0, out.Keg.RemainingVolume())
	s.Len(filterKind(s.dispatcher.kinds(), models.EventKegVolumeLow), 1)

	found, err := s.store.HasEvent(s.ctx, &ledger.HasEventInput{Kind: models.EventKegVolumeLow, KegID: &s.keg.ID})
	s.Require().NoError(err)
	s.True(found)

	// Lowering the volume again never emits it
	out, err = s.service.SetDrinkVolume(s.ctx, &SetDrinkVolumeInput{DrinkID: first.Drink.ID, Volume: 8000})
	s.Require().NoError(err)
	s.Empty(out.Events)
	s.Len(filterKind(s.dispatcher.kinds(), models.EventKegVolumeLow), 1)
}

func filterKind(kinds []models.EventKind, kind models.EventKind) []models.EventKind {
	var out []models.EventKind
	for _, k := range kinds {
		if k == kind {
			out = append(out, k)
		}
	}
	return out
}
