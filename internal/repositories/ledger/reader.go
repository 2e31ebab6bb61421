package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/KirkDiggler/kegledger/internal/models"
)

const (
	tapColumns     = `id, name, meter_name, ticks_per_unit, current_keg_id`
	kegColumns     = `id, beverage, full_volume, served_volume, spilled_volume, status, start_time, end_time, notes`
	userColumns    = `id, username, is_guest`
	drinkColumns   = `id, ticks, volume, time, duration, user_id, keg_id, session_id, shout, tick_time_series, picture_id`
	sessionColumns = `id, start_time, end_time, volume, name, time_zone`
	eventColumns   = `id, kind, time, user_id, drink_id, keg_id, session_id`
	statsColumns   = `id, drink_id, view_kind, view_key, user_id, keg_id, session_id, time, payload`
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// sqlReader implements Reader against either the database or an open transaction
type sqlReader struct {
	q    queryer
	lock string
}

// getOne runs a single-row query and maps sql.ErrNoRows to notFound
func (r *sqlReader) getOne(ctx context.Context, dest interface{}, notFound error, key interface{}, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, r.q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %v", notFound, key)
		}
		return fmt.Errorf("failed to query %v: %w", key, err)
	}
	return nil
}

// getOptional runs a single-row query and reports whether a row was found
func (r *sqlReader) getOptional(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	if err := sqlx.GetContext(ctx, r.q, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetTap retrieves a tap by name
func (r *sqlReader) GetTap(ctx context.Context, name string) (*models.Tap, error) {
	var tap models.Tap
	err := r.getOne(ctx, &tap, ErrTapNotFound, name,
		`SELECT `+tapColumns+` FROM taps WHERE name = ?`+r.lock, name)
	if err != nil {
		return nil, err
	}
	return &tap, nil
}

// GetTapByMeter retrieves a tap by the name of its flow meter
func (r *sqlReader) GetTapByMeter(ctx context.Context, meterName string) (*models.Tap, error) {
	var tap models.Tap
	err := r.getOne(ctx, &tap, ErrTapNotFound, meterName,
		`SELECT `+tapColumns+` FROM taps WHERE meter_name = ?`+r.lock, meterName)
	if err != nil {
		return nil, err
	}
	return &tap, nil
}

// GetTapForKeg retrieves the tap a keg is attached to
func (r *sqlReader) GetTapForKeg(ctx context.Context, kegID int64) (*models.Tap, error) {
	var tap models.Tap
	found, err := r.getOptional(ctx, &tap,
		`SELECT `+tapColumns+` FROM taps WHERE current_keg_id = ?`+r.lock, kegID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tap for keg %d: %w", kegID, err)
	}
	if !found {
		return nil, nil
	}
	return &tap, nil
}

// GetKeg retrieves a keg by ID
func (r *sqlReader) GetKeg(ctx context.Context, id int64) (*models.Keg, error) {
	var keg models.Keg
	err := r.getOne(ctx, &keg, ErrKegNotFound, id,
		`SELECT `+kegColumns+` FROM kegs WHERE id = ?`+r.lock, id)
	if err != nil {
		return nil, err
	}
	return &keg, nil
}

// GetUser retrieves a user by ID
func (r *sqlReader) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.getOne(ctx, &user, ErrUserNotFound, id,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (r *sqlReader) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.getOne(ctx, &user, ErrUserNotFound, username,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetDrink retrieves a drink by ID
func (r *sqlReader) GetDrink(ctx context.Context, id int64) (*models.Drink, error) {
	var drink models.Drink
	err := r.getOne(ctx, &drink, ErrDrinkNotFound, id,
		`SELECT `+drinkColumns+` FROM drinks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &drink, nil
}

// GetSession retrieves a drinking session by ID
func (r *sqlReader) GetSession(ctx context.Context, id int64) (*models.DrinkingSession, error) {
	var session models.DrinkingSession
	err := r.getOne(ctx, &session, ErrSessionNotFound, id,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// LatestSession retrieves the session with the latest end time
func (r *sqlReader) LatestSession(ctx context.Context) (*models.DrinkingSession, error) {
	var session models.DrinkingSession
	found, err := r.getOptional(ctx, &session,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY end_time DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// ListSessionDrinks retrieves the drinks of a session
func (r *sqlReader) ListSessionDrinks(ctx context.Context, sessionID int64) ([]*models.Drink, error) {
	drinks := []*models.Drink{}
	err := sqlx.SelectContext(ctx, r.q, &drinks,
		`SELECT `+drinkColumns+` FROM drinks WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drinks for session %d: %w", sessionID, err)
	}
	return drinks, nil
}

// ListKegDrinks retrieves the drinks poured from a keg
func (r *sqlReader) ListKegDrinks(ctx context.Context, kegID int64) ([]*models.Drink, error) {
	drinks := []*models.Drink{}
	err := sqlx.SelectContext(ctx, r.q, &drinks,
		`SELECT `+drinkColumns+` FROM drinks WHERE keg_id = ? ORDER BY id`, kegID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drinks for keg %d: %w", kegID, err)
	}
	return drinks, nil
}

// ListDrinksFrom retrieves a page of drinks in ID order
func (r *sqlReader) ListDrinksFrom(ctx context.Context, input *ListDrinksFromInput) ([]*models.Drink, error) {
	if input == nil || input.Limit <= 0 {
		return nil, errors.New("input must have a positive limit")
	}

	drinks := []*models.Drink{}
	err := sqlx.SelectContext(ctx, r.q, &drinks,
		`SELECT `+drinkColumns+` FROM drinks WHERE id >= ? ORDER BY id LIMIT ?`, input.FromID, input.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list drinks from %d: %w", input.FromID, err)
	}
	return drinks, nil
}

// LatestStats retrieves the newest stats row of a view
func (r *sqlReader) LatestStats(ctx context.Context, viewKey string) (*models.Stats, error) {
	var stats models.Stats
	found, err := r.getOptional(ctx, &stats,
		`SELECT `+statsColumns+` FROM stats WHERE view_key = ? ORDER BY drink_id DESC LIMIT 1`, viewKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest stats for %s: %w", viewKey, err)
	}
	if !found {
		return nil, nil
	}
	return &stats, nil
}

// LatestStatsBefore retrieves the newest stats row of a view older than drinkID
func (r *sqlReader) LatestStatsBefore(ctx context.Context, viewKey string, drinkID int64) (*models.Stats, error) {
	var stats models.Stats
	found, err := r.getOptional(ctx, &stats,
		`SELECT `+statsColumns+` FROM stats WHERE view_key = ? AND drink_id < ? ORDER BY drink_id DESC LIMIT 1`,
		viewKey, drinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for %s before drink %d: %w", viewKey, drinkID, err)
	}
	if !found {
		return nil, nil
	}
	return &stats, nil
}

// ListStatsForDrink retrieves every stats row written for a drink
func (r *sqlReader) ListStatsForDrink(ctx context.Context, drinkID int64) ([]*models.Stats, error) {
	rows := []*models.Stats{}
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+statsColumns+` FROM stats WHERE drink_id = ? ORDER BY view_key`, drinkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stats for drink %d: %w", drinkID, err)
	}
	return rows, nil
}

// HasEvent reports whether an event of the kind exists for the scope
func (r *sqlReader) HasEvent(ctx context.Context, input *HasEventInput) (bool, error) {
	if input == nil || input.Kind == "" {
		return false, errors.New("input and event kind cannot be empty")
	}

	query := `SELECT COUNT(1) FROM system_events WHERE kind = ?`
	args := []interface{}{input.Kind}
	scope := []struct {
		column string
		value  *int64
	}{
		{"keg_id", input.KegID},
		{"session_id", input.SessionID},
		{"user_id", input.UserID},
		{"drink_id", input.DrinkID},
	}
	for _, c := range scope {
		if c.value != nil {
			query += ` AND ` + c.column + ` = ?`
			args = append(args, *c.value)
		}
	}

	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, query, args...); err != nil {
		return false, fmt.Errorf("failed to check for %s event: %w", input.Kind, err)
	}
	return count > 0, nil
}

// ListEvents retrieves events in ID order
func (r *sqlReader) ListEvents(ctx context.Context, input *ListEventsInput) ([]*models.SystemEvent, error) {
	if input == nil {
		input = &ListEventsInput{}
	}

	query := `SELECT ` + eventColumns + ` FROM system_events WHERE id > ?`
	args := []interface{}{input.AfterID}
	if input.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, input.Kind)
	}
	query += ` ORDER BY id`
	if input.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, input.Limit)
	}

	events := []*models.SystemEvent{}
	if err := sqlx.SelectContext(ctx, r.q, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
