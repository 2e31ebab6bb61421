package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KirkDiggler/kegledger/internal/models"
)

// sqlTx implements Tx on an open database transaction
type sqlTx struct {
	sqlReader
	tx *sqlx.Tx
}

// insert executes an insert statement and returns the generated ID
func (t *sqlTx) insert(ctx context.Context, what string, query string, args ...interface{}) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", what, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s ID: %w", what, err)
	}

	return id, nil
}

// exec executes an update or delete statement
func (t *sqlTx) exec(ctx context.Context, what string, query string, args ...interface{}) error {
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}

// CreateKeg inserts a keg and sets its ID
func (t *sqlTx) CreateKeg(ctx context.Context, keg *models.Keg) error {
	if keg == nil {
		return errors.New("keg cannot be nil")
	}

	id, err := t.insert(ctx, "keg",
		`INSERT INTO kegs (beverage, full_volume, served_volume, spilled_volume, status, start_time, end_time, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		keg.Beverage, keg.FullVolume, keg.ServedVolume, keg.SpilledVolume, keg.Status,
		keg.StartTime.UTC(), utcPtr(keg.EndTime), keg.Notes)
	if err != nil {
		return err
	}

	keg.ID = id
	return nil
}

// UpdateKeg persists the lifecycle fields of a keg
func (t *sqlTx) UpdateKeg(ctx context.Context, keg *models.Keg) error {
	if keg == nil {
		return errors.New("keg cannot be nil")
	}

	return t.exec(ctx, fmt.Sprintf("update keg %d", keg.ID),
		`UPDATE kegs SET beverage = ?, full_volume = ?, status = ?, start_time = ?, end_time = ?, notes = ? WHERE id = ?`,
		keg.Beverage, keg.FullVolume, keg.Status, keg.StartTime.UTC(), utcPtr(keg.EndTime), keg.Notes, keg.ID)
}

// AddKegVolume applies relative deltas so concurrent pours on the same keg never
// overwrite each other
func (t *sqlTx) AddKegVolume(ctx context.Context, input *AddKegVolumeInput) error {
	if input == nil {
		return errors.New("input cannot be nil")
	}

	return t.exec(ctx, fmt.Sprintf("update volume of keg %d", input.KegID),
		`UPDATE kegs SET served_volume = served_volume + ?, spilled_volume = spilled_volume + ? WHERE id = ?`,
		input.Served, input.Spilled, input.KegID)
}

// SetTapKeg attaches a keg to a tap, or detaches when kegID is nil
func (t *sqlTx) SetTapKeg(ctx context.Context, tapID int64, kegID *int64) error {
	return t.exec(ctx, fmt.Sprintf("set keg of tap %d", tapID),
		`UPDATE taps SET current_keg_id = ? WHERE id = ?`, kegID, tapID)
}

// CreateDrink inserts a drink and sets its ID
func (t *sqlTx) CreateDrink(ctx context.Context, drink *models.Drink) error {
	if drink == nil {
		return errors.New("drink cannot be nil")
	}

	id, err := t.insert(ctx, "drink",
		`INSERT INTO drinks (ticks, volume, time, duration, user_id, keg_id, session_id, shout, tick_time_series, picture_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		drink.Ticks, drink.Volume, drink.Time.UTC(), drink.Duration, drink.UserID, drink.KegID,
		drink.SessionID, drink.Shout, drink.TickTimeSeries, drink.PictureID)
	if err != nil {
		return err
	}

	drink.ID = id
	return nil
}

// UpdateDrink persists the mutable fields of a drink
func (t *sqlTx) UpdateDrink(ctx context.Context, drink *models.Drink) error {
	if drink == nil {
		return errors.New("drink cannot be nil")
	}

	return t.exec(ctx, fmt.Sprintf("update drink %d", drink.ID),
		`UPDATE drinks SET ticks = ?, volume = ?, user_id = ?, session_id = ?, shout = ?, tick_time_series = ?, picture_id = ?
		WHERE id = ?`,
		drink.Ticks, drink.Volume, drink.UserID, drink.SessionID, drink.Shout, drink.TickTimeSeries,
		drink.PictureID, drink.ID)
}

// DeleteDrink removes a drink
func (t *sqlTx) DeleteDrink(ctx context.Context, id int64) error {
	return t.exec(ctx, fmt.Sprintf("delete drink %d", id), `DELETE FROM drinks WHERE id = ?`, id)
}

// CreateSession inserts a session and sets its ID
func (t *sqlTx) CreateSession(ctx context.Context, session *models.DrinkingSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}

	id, err := t.insert(ctx, "session",
		`INSERT INTO sessions (start_time, end_time, volume, name, time_zone) VALUES (?, ?, ?, ?, ?)`,
		session.StartTime.UTC(), session.EndTime.UTC(), session.Volume, session.Name, session.TimeZone)
	if err != nil {
		return err
	}

	session.ID = id
	return nil
}

// UpdateSession persists a session
func (t *sqlTx) UpdateSession(ctx context.Context, session *models.DrinkingSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}

	return t.exec(ctx, fmt.Sprintf("update session %d", session.ID),
		`UPDATE sessions SET start_time = ?, end_time = ?, volume = ?, name = ?, time_zone = ? WHERE id = ?`,
		session.StartTime.UTC(), session.EndTime.UTC(), session.Volume, session.Name, session.TimeZone, session.ID)
}

// DeleteSession removes a session
func (t *sqlTx) DeleteSession(ctx context.Context, id int64) error {
	return t.exec(ctx, fmt.Sprintf("delete session %d", id), `DELETE FROM sessions WHERE id = ?`, id)
}

// CreatePicture inserts a picture and sets its ID
func (t *sqlTx) CreatePicture(ctx context.Context, picture *models.Picture) error {
	if picture == nil {
		return errors.New("picture cannot be nil")
	}

	id, err := t.insert(ctx, "picture",
		`INSERT INTO pictures (path, user_id, keg_id, session_id, drink_id, time) VALUES (?, ?, ?, ?, ?, ?)`,
		picture.Path, picture.UserID, picture.KegID, picture.SessionID, picture.DrinkID, picture.Time.UTC())
	if err != nil {
		return err
	}

	picture.ID = id
	return nil
}

// SetPictureUser changes the owner of a picture
func (t *sqlTx) SetPictureUser(ctx context.Context, pictureID int64, userID int64) error {
	return t.exec(ctx, fmt.Sprintf("update picture %d", pictureID),
		`UPDATE pictures SET user_id = ? WHERE id = ?`, userID, pictureID)
}

// DeletePicture removes a picture
func (t *sqlTx) DeletePicture(ctx context.Context, id int64) error {
	return t.exec(ctx, fmt.Sprintf("delete picture %d", id), `DELETE FROM pictures WHERE id = ?`, id)
}

// CreateEvent inserts an event and sets its ID
func (t *sqlTx) CreateEvent(ctx context.Context, event *models.SystemEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	id, err := t.insert(ctx, "event",
		`INSERT INTO system_events (kind, time, user_id, drink_id, keg_id, session_id) VALUES (?, ?, ?, ?, ?, ?)`,
		event.Kind, event.Time.UTC(), event.UserID, event.DrinkID, event.KegID, event.SessionID)
	if err != nil {
		return err
	}

	event.ID = id
	return nil
}

// ReassignDrinkEvents points the drink-poured event of a drink at a new user.
// Session events stay with the user who joined the session.
func (t *sqlTx) ReassignDrinkEvents(ctx context.Context, drinkID int64, userID int64) error {
	return t.exec(ctx, fmt.Sprintf("reassign events of drink %d", drinkID),
		`UPDATE system_events SET user_id = ? WHERE drink_id = ? AND kind = ?`, userID, drinkID, models.EventDrinkPoured)
}

// DetachDrinkEvents clears the drink reference of a drink's events
func (t *sqlTx) DetachDrinkEvents(ctx context.Context, drinkID int64) error {
	return t.exec(ctx, fmt.Sprintf("detach events of drink %d", drinkID),
		`UPDATE system_events SET drink_id = NULL WHERE drink_id = ?`, drinkID)
}

// CreateStats inserts a stats row and sets its ID
func (t *sqlTx) CreateStats(ctx context.Context, stats *models.Stats) error {
	if stats == nil {
		return errors.New("stats cannot be nil")
	}

	id, err := t.insert(ctx, "stats",
		`INSERT INTO stats (drink_id, view_kind, view_key, user_id, keg_id, session_id, time, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.DrinkID, stats.View, stats.ViewKey, stats.UserID, stats.KegID, stats.SessionID,
		stats.Time.UTC(), stats.Payload)
	if err != nil {
		return err
	}

	stats.ID = id
	return nil
}

// DeleteStatsFrom removes every stats row with drink ID >= drinkID
func (t *sqlTx) DeleteStatsFrom(ctx context.Context, drinkID int64) error {
	return t.exec(ctx, fmt.Sprintf("delete stats from drink %d", drinkID),
		`DELETE FROM stats WHERE drink_id >= ?`, drinkID)
}

// DeleteStatsForDrink removes the stats rows of one drink
func (t *sqlTx) DeleteStatsForDrink(ctx context.Context, drinkID int64) error {
	return t.exec(ctx, fmt.Sprintf("delete stats of drink %d", drinkID),
		`DELETE FROM stats WHERE drink_id = ?`, drinkID)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
