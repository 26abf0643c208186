package db

// SchemaVersion is the current database schema version
const SchemaVersion = 1

const schema = `
-- Tracked time spans
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    start_time TEXT NOT NULL,
    stop_time TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '',
    project TEXT NOT NULL DEFAULT '',
    rate REAL NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT '',
    is_deleted INTEGER NOT NULL DEFAULT 0,
    last_updated INTEGER NOT NULL DEFAULT 0
);

-- Saved task templates
CREATE TABLE IF NOT EXISTS shortcuts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    project TEXT NOT NULL DEFAULT '',
    rate REAL NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT '',
    color_hex TEXT NOT NULL DEFAULT '',
    is_deleted INTEGER NOT NULL DEFAULT 0,
    last_updated INTEGER NOT NULL DEFAULT 0
);

-- Planned tasks
CREATE TABLE IF NOT EXISTS todos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    project TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    rate REAL NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL,
    is_completed INTEGER NOT NULL DEFAULT 0,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    last_updated INTEGER NOT NULL DEFAULT 0
);

-- Sync login, at most one row
CREATE TABLE IF NOT EXISTS user (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    email TEXT NOT NULL,
    encrypted_key TEXT NOT NULL,
    key_nonce TEXT NOT NULL,
    access_token TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    server TEXT NOT NULL
);

-- Sync watermark, exactly one row
CREATE TABLE IF NOT EXISTS sync_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_sync INTEGER NOT NULL DEFAULT 0,
    needs_full_sync INTEGER NOT NULL DEFAULT 1,
    credential_generation INTEGER NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO sync_settings (id) VALUES (1);

CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_last_updated ON tasks(last_updated);
CREATE INDEX IF NOT EXISTS idx_shortcuts_last_updated ON shortcuts(last_updated);
CREATE INDEX IF NOT EXISTS idx_todos_last_updated ON todos(last_updated);
CREATE INDEX IF NOT EXISTS idx_todos_date ON todos(date);
`

// Migration defines a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all database migrations in order.
// Version 1 is the base schema above; later versions append here.
var Migrations = []Migration{}
