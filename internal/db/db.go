// Package db is the local SQLite store for tasks, shortcuts, todos, the sync
// login and the sync watermark.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/tock/internal/models"
	_ "modernc.org/sqlite"
)

// FileName is the database file inside the data directory
const FileName = "tock.db"

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	baseDir string

	tasks     *Table[models.Task]
	shortcuts *Table[models.Shortcut]
	todos     *Table[models.Todo]
}

// Open opens (creating if needed) the database in baseDir and runs any
// pending migrations
func Open(baseDir string) (*DB, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(baseDir, FileName)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout as fallback protection (500ms, matches lock timeout)
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	conn.Exec("PRAGMA synchronous=NORMAL")

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	db := &DB{conn: conn, baseDir: baseDir}
	db.tasks = newTable(db, taskSpec)
	db.shortcuts = newTable(db, shortcutSpec)
	db.todos = newTable(db, todoSpec)

	if _, err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// BaseDir returns the data directory holding the database
func (db *DB) BaseDir() string {
	return db.baseDir
}

// withWriteLock executes fn while holding an exclusive write lock.
// This prevents concurrent writes from the CLI and the daemon.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}
