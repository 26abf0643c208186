package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcus/tock/internal/models"
)

var (
	// ErrNotFound is returned when a record uid does not exist
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguous is returned when a uid prefix matches more than one record
	ErrAmbiguous = errors.New("ambiguous uid prefix")
)

// maxInArgs keeps IN (...) lists under SQLite's host parameter limit
const maxInArgs = 500

type scanner interface {
	Scan(dest ...any) error
}

// tableSpec maps one record type onto its table. columns excludes the
// shared uid, is_deleted and last_updated columns.
type tableSpec[T any] struct {
	table   string
	columns []string
	order   string
	values  func(*T) []any
	scan    func(scanner) (*T, error)
	meta    func(*T) *models.SyncMeta
}

// Table gives CRUD and timestamp queries over one record type
type Table[T any] struct {
	db   *DB
	spec tableSpec[T]
}

func newTable[T any](db *DB, spec tableSpec[T]) *Table[T] {
	return &Table[T]{db: db, spec: spec}
}

// Tasks returns the task table
func (db *DB) Tasks() *Table[models.Task] { return db.tasks }

// Shortcuts returns the shortcut table
func (db *DB) Shortcuts() *Table[models.Shortcut] { return db.shortcuts }

// Todos returns the todo table
func (db *DB) Todos() *Table[models.Todo] { return db.todos }

func (t *Table[T]) selectCols() string {
	return strings.Join(t.spec.columns, ", ") + ", uid, is_deleted, last_updated"
}

// Insert adds a new record
func (t *Table[T]) Insert(rec *T) error {
	meta := t.spec.meta(rec)
	args := append(t.spec.values(rec), meta.UID, meta.IsDeleted, meta.LastUpdated)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.spec.table, t.selectCols(), placeholders)

	return t.db.withWriteLock(func() error {
		if _, err := t.db.conn.Exec(query, args...); err != nil {
			return fmt.Errorf("insert %s %s: %w", t.spec.table, meta.UID, err)
		}
		return nil
	})
}

// Update overwrites every field of the record with the same uid
func (t *Table[T]) Update(rec *T) error {
	meta := t.spec.meta(rec)
	sets := make([]string, 0, len(t.spec.columns)+2)
	for _, c := range t.spec.columns {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "is_deleted = ?", "last_updated = ?")
	args := append(t.spec.values(rec), meta.IsDeleted, meta.LastUpdated, meta.UID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE uid = ?", t.spec.table, strings.Join(sets, ", "))

	return t.db.withWriteLock(func() error {
		res, err := t.db.conn.Exec(query, args...)
		if err != nil {
			return fmt.Errorf("update %s %s: %w", t.spec.table, meta.UID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update %s %s: %w", t.spec.table, meta.UID, ErrNotFound)
		}
		return nil
	})
}

// Exists reports whether a record with uid is stored, deleted or not
func (t *Table[T]) Exists(uid string) (bool, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE uid = ?", t.spec.table)
	if err := t.db.conn.QueryRow(query, uid).Scan(&n); err != nil {
		return false, fmt.Errorf("exists %s %s: %w", t.spec.table, uid, err)
	}
	return n > 0, nil
}

// FetchByUID returns one record, or ErrNotFound
func (t *Table[T]) FetchByUID(uid string) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE uid = ?", t.selectCols(), t.spec.table)
	rec, err := t.spec.scan(t.db.conn.QueryRow(query, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", t.spec.table, uid, err)
	}
	return rec, nil
}

// FetchSince returns records with last_updated >= since, soft-deleted included
func (t *Table[T]) FetchSince(since int64) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE last_updated >= ? ORDER BY last_updated", t.selectCols(), t.spec.table)
	return t.query(query, since)
}

// FetchAll returns every record, soft-deleted included
func (t *Table[T]) FetchAll() ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY last_updated", t.selectCols(), t.spec.table)
	return t.query(query)
}

// FetchByUIDs returns the records whose uid is in uids. Unknown uids are skipped.
func (t *Table[T]) FetchByUIDs(uids []string) ([]T, error) {
	var out []T
	for start := 0; start < len(uids); start += maxInArgs {
		end := start + maxInArgs
		if end > len(uids) {
			end = len(uids)
		}
		chunk := uids[start:end]

		args := make([]any, len(chunk))
		for i, uid := range chunk {
			args[i] = uid
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")
		query := fmt.Sprintf("SELECT %s FROM %s WHERE uid IN (%s)", t.selectCols(), t.spec.table, placeholders)

		recs, err := t.query(query, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ListActive returns records that are not soft-deleted, in display order
func (t *Table[T]) ListActive() ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE is_deleted = 0 ORDER BY %s", t.selectCols(), t.spec.table, t.spec.order)
	return t.query(query)
}

// CountActive returns the number of records that are not soft-deleted
func (t *Table[T]) CountActive() (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_deleted = 0", t.spec.table)
	if err := t.db.conn.QueryRow(query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.spec.table, err)
	}
	return n, nil
}

// ResolveUID expands a displayed uid prefix to the full uid of an active record
func (t *Table[T]) ResolveUID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("resolve %s: %w", t.spec.table, ErrNotFound)
	}
	query := fmt.Sprintf("SELECT uid FROM %s WHERE is_deleted = 0 AND uid LIKE ? || '%%' LIMIT 2", t.spec.table)
	rows, err := t.db.conn.Query(query, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve %s %s: %w", t.spec.table, prefix, err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return "", err
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(uids) {
	case 0:
		return "", fmt.Errorf("%s %s: %w", t.spec.table, prefix, ErrNotFound)
	case 1:
		return uids[0], nil
	default:
		return "", fmt.Errorf("%s %s: %w", t.spec.table, prefix, ErrAmbiguous)
	}
}

// SoftDelete marks a record deleted and bumps last_updated so the deletion
// travels to other devices as an ordinary change
func (t *Table[T]) SoftDelete(uid string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET is_deleted = 1, last_updated = ? WHERE uid = ?", t.spec.table)
	return t.db.withWriteLock(func() error {
		res, err := t.db.conn.Exec(query, at.Unix(), uid)
		if err != nil {
			return fmt.Errorf("soft delete %s %s: %w", t.spec.table, uid, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("soft delete %s %s: %w", t.spec.table, uid, ErrNotFound)
		}
		return nil
	})
}

func (t *Table[T]) query(query string, args ...any) ([]T, error) {
	rows, err := t.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.spec.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := t.spec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.spec.table, err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

var taskSpec = tableSpec[models.Task]{
	table:   "tasks",
	columns: []string{"name", "start_time", "stop_time", "tags", "project", "rate", "currency"},
	order:   "start_time DESC",
	values: func(t *models.Task) []any {
		return []any{t.Name, formatTime(t.StartTime), formatTime(t.StopTime), t.Tags, t.Project, t.Rate, t.Currency}
	},
	scan: func(s scanner) (*models.Task, error) {
		var t models.Task
		var start, stop string
		if err := s.Scan(&t.Name, &start, &stop, &t.Tags, &t.Project, &t.Rate, &t.Currency,
			&t.UID, &t.IsDeleted, &t.LastUpdated); err != nil {
			return nil, err
		}
		var err error
		if t.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("start_time: %w", err)
		}
		if t.StopTime, err = parseTime(stop); err != nil {
			return nil, fmt.Errorf("stop_time: %w", err)
		}
		return &t, nil
	},
	meta: func(t *models.Task) *models.SyncMeta { return &t.SyncMeta },
}

var shortcutSpec = tableSpec[models.Shortcut]{
	table:   "shortcuts",
	columns: []string{"name", "tags", "project", "rate", "currency", "color_hex"},
	order:   "name",
	values: func(s *models.Shortcut) []any {
		return []any{s.Name, s.Tags, s.Project, s.Rate, s.Currency, s.ColorHex}
	},
	scan: func(sc scanner) (*models.Shortcut, error) {
		var s models.Shortcut
		if err := sc.Scan(&s.Name, &s.Tags, &s.Project, &s.Rate, &s.Currency, &s.ColorHex,
			&s.UID, &s.IsDeleted, &s.LastUpdated); err != nil {
			return nil, err
		}
		return &s, nil
	},
	meta: func(s *models.Shortcut) *models.SyncMeta { return &s.SyncMeta },
}

var todoSpec = tableSpec[models.Todo]{
	table:   "todos",
	columns: []string{"name", "project", "tags", "rate", "currency", "date", "is_completed"},
	order:   "date, name",
	values: func(t *models.Todo) []any {
		return []any{t.Name, t.Project, t.Tags, t.Rate, t.Currency, formatTime(t.Date), t.IsCompleted}
	},
	scan: func(s scanner) (*models.Todo, error) {
		var t models.Todo
		var date string
		if err := s.Scan(&t.Name, &t.Project, &t.Tags, &t.Rate, &t.Currency, &date, &t.IsCompleted,
			&t.UID, &t.IsDeleted, &t.LastUpdated); err != nil {
			return nil, err
		}
		var err error
		if t.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		return &t, nil
	},
	meta: func(t *models.Todo) *models.SyncMeta { return &t.SyncMeta },
}
