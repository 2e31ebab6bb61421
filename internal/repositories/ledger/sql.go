package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/models"
)

const (
	// DriverSQLite is the embedded database driver name
	DriverSQLite = "sqlite3"

	// DriverMySQL is the networked database driver name
	DriverMySQL = "mysql"
)

var (
	// ErrTapNotFound is returned when a tap is not found
	ErrTapNotFound = fmt.Errorf("tap %w", errkind.ErrNotFound)

	// ErrKegNotFound is returned when a keg is not found
	ErrKegNotFound = fmt.Errorf("keg %w", errkind.ErrNotFound)

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = fmt.Errorf("user %w", errkind.ErrNotFound)

	// ErrDrinkNotFound is returned when a drink is not found
	ErrDrinkNotFound = fmt.Errorf("drink %w", errkind.ErrNotFound)

	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = fmt.Errorf("session %w", errkind.ErrNotFound)
)

// ledgerLockID is the single row of ledger_lock
const ledgerLockID = 1

// dialect captures the SQL differences between the supported drivers
type dialect struct {
	schema      []string
	insertGuest string
	insertLock  string
	// lock is appended to reads of rows that are later updated in the same transaction
	lock string
	// serialize is the first statement of every transaction. On MySQL it locks
	// the ledger_lock row so sessions and stats chains are only read and written
	// by one transaction at a time; sqlite gets the same from _txlock=immediate.
	serialize string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		schema:      sqliteSchema,
		insertGuest: `INSERT OR IGNORE INTO users (username, is_guest) VALUES (?, ?)`,
		insertLock:  `INSERT OR IGNORE INTO ledger_lock (id) VALUES (?)`,
		serialize:   `SELECT id FROM ledger_lock WHERE id = ?`,
	},
	DriverMySQL: {
		schema:      mysqlSchema,
		insertGuest: `INSERT IGNORE INTO users (username, is_guest) VALUES (?, ?)`,
		insertLock:  `INSERT IGNORE INTO ledger_lock (id) VALUES (?)`,
		lock:        " FOR UPDATE",
		serialize:   `SELECT id FROM ledger_lock WHERE id = ? FOR UPDATE`,
	},
}

// Config holds configuration for the SQL ledger store
type Config struct {
	// DB is an open database handle for one of the supported drivers
	DB *sqlx.DB
}

// sqlStore implements the Store interface on a relational database
type sqlStore struct {
	sqlReader
	db      *sqlx.DB
	dialect dialect
}

// Open opens a database handle for the driver and verifies the connection.
// In-memory SQLite databases are pinned to a single connection so every caller
// sees the same database.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
		}
	case DriverMySQL:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	return db, nil
}

// NewSQL creates a ledger store on the given database and makes sure the schema
// and the guest user exist
func NewSQL(cfg *Config) (*sqlStore, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.DB == nil {
		return nil, errors.New("database cannot be nil")
	}

	d, ok := dialects[cfg.DB.DriverName()]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DB.DriverName())
	}

	s := &sqlStore{
		sqlReader: sqlReader{q: cfg.DB},
		db:        cfg.DB,
		dialect:   d,
	}

	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *sqlStore) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range s.dialect.schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.dialect.insertGuest, models.GuestUsername, true); err != nil {
		return fmt.Errorf("failed to create guest user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.insertLock, ledgerLockID); err != nil {
		return fmt.Errorf("failed to create ledger lock: %w", err)
	}

	return tx.Commit()
}

// WithTransaction runs fn inside one database transaction. Transactions are
// serialized site wide before fn reads anything.
func (s *sqlStore) WithTransaction(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op
	defer tx.Rollback()

	var lockID int64
	if err := tx.GetContext(ctx, &lockID, s.dialect.serialize, ledgerLockID); err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}

	if err := fn(&sqlTx{sqlReader: sqlReader{q: tx, lock: s.dialect.lock}, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateUser registers a new user
func (s *sqlStore) CreateUser(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", errkind.ErrValidation)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username, is_guest) VALUES (?, ?)`, username, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user ID: %w", err)
	}

	return &models.User{ID: id, Username: username}, nil
}

// CreateTap registers a new tap
func (s *sqlStore) CreateTap(ctx context.Context, input *CreateTapInput) (*models.Tap, error) {
	if input == nil || input.Name == "" {
		return nil, fmt.Errorf("%w: tap name cannot be empty", errkind.ErrValidation)
	}

	if input.TicksPerUnit < 0 {
		return nil, fmt.Errorf("%w: ticks per unit cannot be negative", errkind.ErrValidation)
	}

	tap := &models.Tap{
		Name:         input.Name,
		TicksPerUnit: input.TicksPerUnit,
	}
	if input.MeterName != "" {
		meter := input.MeterName
		tap.MeterName = &meter
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO taps (name, meter_name, ticks_per_unit) VALUES (?, ?, ?)`,
		tap.Name, tap.MeterName, tap.TicksPerUnit)
	if err != nil {
		return nil, fmt.Errorf("failed to create tap %q: %w", input.Name, err)
	}

	if tap.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read tap ID: %w", err)
	}

	return tap, nil
}

// Close releases the database
func (s *sqlStore) Close() error {
	return s.db.Close()
}
