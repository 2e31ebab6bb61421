package ledger

// Each dialect keeps its DDL as a list of statements executed in order on startup.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	is_guest BOOLEAN NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS kegs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	beverage TEXT NOT NULL DEFAULT '',
	full_volume REAL NOT NULL DEFAULT 0,
	served_volume REAL NOT NULL DEFAULT 0,
	spilled_volume REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NULL,
	notes TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS taps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	meter_name TEXT NULL UNIQUE,
	ticks_per_unit REAL NOT NULL DEFAULT 0,
	current_keg_id INTEGER NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	volume REAL NOT NULL DEFAULT 0,
	name TEXT NOT NULL DEFAULT '',
	time_zone TEXT NOT NULL DEFAULT 'UTC'
)`,
	`CREATE INDEX IF NOT EXISTS sessions_end_time ON sessions (end_time)`,
	`CREATE TABLE IF NOT EXISTS drinks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticks INTEGER NOT NULL DEFAULT 0,
	volume REAL NOT NULL,
	time DATETIME NOT NULL,
	duration INTEGER NOT NULL DEFAULT 0,
	user_id INTEGER NOT NULL,
	keg_id INTEGER NOT NULL,
	session_id INTEGER NULL,
	shout TEXT NOT NULL DEFAULT '',
	tick_time_series TEXT NOT NULL DEFAULT '',
	picture_id INTEGER NULL
)`,
	`CREATE INDEX IF NOT EXISTS drinks_session ON drinks (session_id)`,
	`CREATE INDEX IF NOT EXISTS drinks_keg ON drinks (keg_id)`,
	`CREATE TABLE IF NOT EXISTS pictures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	keg_id INTEGER NULL,
	session_id INTEGER NULL,
	drink_id INTEGER NULL,
	time DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS system_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	time DATETIME NOT NULL,
	user_id INTEGER NULL,
	drink_id INTEGER NULL,
	keg_id INTEGER NULL,
	session_id INTEGER NULL
)`,
	`CREATE INDEX IF NOT EXISTS system_events_kind ON system_events (kind)`,
	`CREATE TABLE IF NOT EXISTS stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	drink_id INTEGER NOT NULL,
	view_kind TEXT NOT NULL,
	view_key TEXT NOT NULL,
	user_id INTEGER NULL,
	keg_id INTEGER NULL,
	session_id INTEGER NULL,
	time DATETIME NOT NULL,
	payload BLOB NOT NULL,
	UNIQUE (drink_id, view_key)
)`,
	`CREATE INDEX IF NOT EXISTS stats_view ON stats (view_key, drink_id)`,
	`CREATE TABLE IF NOT EXISTS ledger_lock (
	id INTEGER PRIMARY KEY
)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(191) NOT NULL UNIQUE,
	is_guest BOOLEAN NOT NULL DEFAULT FALSE
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS kegs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	beverage VARCHAR(255) NOT NULL DEFAULT '',
	full_volume DOUBLE NOT NULL DEFAULT 0,
	served_volume DOUBLE NOT NULL DEFAULT 0,
	spilled_volume DOUBLE NOT NULL DEFAULT 0,
	status VARCHAR(32) NOT NULL,
	start_time DATETIME(6) NOT NULL,
	end_time DATETIME(6) NULL,
	notes TEXT NOT NULL
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS taps (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(191) NOT NULL UNIQUE,
	meter_name VARCHAR(191) NULL UNIQUE,
	ticks_per_unit DOUBLE NOT NULL DEFAULT 0,
	current_keg_id BIGINT NULL UNIQUE
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sessions (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	start_time DATETIME(6) NOT NULL,
	end_time DATETIME(6) NOT NULL,
	volume DOUBLE NOT NULL DEFAULT 0,
	name VARCHAR(255) NOT NULL DEFAULT '',
	time_zone VARCHAR(64) NOT NULL DEFAULT 'UTC',
	INDEX sessions_end_time (end_time)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS drinks (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	ticks BIGINT NOT NULL DEFAULT 0,
	volume DOUBLE NOT NULL,
	time DATETIME(6) NOT NULL,
	duration BIGINT NOT NULL DEFAULT 0,
	user_id BIGINT NOT NULL,
	keg_id BIGINT NOT NULL,
	session_id BIGINT NULL,
	shout TEXT NOT NULL,
	tick_time_series TEXT NOT NULL,
	picture_id BIGINT NULL,
	INDEX drinks_session (session_id),
	INDEX drinks_keg (keg_id)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS pictures (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	path VARCHAR(1024) NOT NULL,
	user_id BIGINT NOT NULL,
	keg_id BIGINT NULL,
	session_id BIGINT NULL,
	drink_id BIGINT NULL,
	time DATETIME(6) NOT NULL
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS system_events (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	kind VARCHAR(32) NOT NULL,
	time DATETIME(6) NOT NULL,
	user_id BIGINT NULL,
	drink_id BIGINT NULL,
	keg_id BIGINT NULL,
	session_id BIGINT NULL,
	INDEX system_events_kind (kind)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS stats (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	drink_id BIGINT NOT NULL,
	view_kind VARCHAR(32) NOT NULL,
	view_key VARCHAR(96) NOT NULL,
	user_id BIGINT NULL,
	keg_id BIGINT NULL,
	session_id BIGINT NULL,
	time DATETIME(6) NOT NULL,
	payload LONGBLOB NOT NULL,
	UNIQUE KEY stats_drink_view (drink_id, view_key),
	INDEX stats_view (view_key, drink_id)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS ledger_lock (
	id INT NOT NULL PRIMARY KEY
) ENGINE=InnoDB`,
}

