package models

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Entity names a synced record type
type Entity string

const (
	EntityTask     Entity = "task"
	EntityShortcut Entity = "shortcut"
	EntityTodo     Entity = "todo"
)

// SyncMeta is the metadata every synced record carries.
// LastUpdated is unix seconds and must be bumped on every mutation,
// including soft deletes.
type SyncMeta struct {
	UID         string `json:"uid"`
	IsDeleted   bool   `json:"is_deleted"`
	LastUpdated int64  `json:"last_updated"`
}

// Meta returns the record's sync metadata
func (m *SyncMeta) Meta() *SyncMeta {
	return m
}

// Touch bumps LastUpdated to now
func (m *SyncMeta) Touch(now time.Time) {
	m.LastUpdated = now.Unix()
}

// Record is implemented by pointers to Task, Shortcut and Todo
type Record interface {
	Meta() *SyncMeta
}

// Task is a tracked span of time
type Task struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	StopTime  time.Time `json:"stop_time"`
	Tags      string    `json:"tags"`
	Project   string    `json:"project"`
	Rate      float64   `json:"rate"`
	Currency  string    `json:"currency"`
	SyncMeta
}

// Duration returns the task's tracked time
func (t *Task) Duration() time.Duration {
	if t.StopTime.Before(t.StartTime) {
		return 0
	}
	return t.StopTime.Sub(t.StartTime)
}

// Shortcut is a saved task template
type Shortcut struct {
	Name     string  `json:"name"`
	Tags     string  `json:"tags"`
	Project  string  `json:"project"`
	Rate     float64 `json:"rate"`
	Currency string  `json:"currency"`
	ColorHex string  `json:"color_hex"`
	SyncMeta
}

// Todo is a planned task for a given day
type Todo struct {
	Name        string    `json:"name"`
	Project     string    `json:"project"`
	Tags        string    `json:"tags"`
	Rate        float64   `json:"rate"`
	Currency    string    `json:"currency"`
	Date        time.Time `json:"date"`
	IsCompleted bool      `json:"is_completed"`
	SyncMeta
}

// EncryptedRecord is the wire form of a synced record. Only UID and
// LastUpdated are plaintext; EncryptedData and Nonce are standard base64.
type EncryptedRecord struct {
	EncryptedData string `json:"encrypted_data"`
	Nonce         string `json:"nonce"`
	UID           string `json:"uid"`
	LastUpdated   int64  `json:"last_updated"`
}

// Credentials is the single stored login. EncryptedKey and KeyNonce hold the
// data key wrapped with the device key, base64 encoded.
type Credentials struct {
	Email        string
	EncryptedKey string
	KeyNonce     string
	AccessToken  string
	RefreshToken string
	Server       string
}

// SyncSettings is the persisted sync watermark
type SyncSettings struct {
	LastSync             int64
	NeedsFullSync        bool
	CredentialGeneration int64
}

// NewTask creates a task with a fresh random uid
func NewTask(name string, start, stop time.Time, tags, project string, rate float64, currency string) *Task {
	return &Task{
		Name:      name,
		StartTime: start,
		StopTime:  stop,
		Tags:      tags,
		Project:   project,
		Rate:      rate,
		Currency:  currency,
		SyncMeta: SyncMeta{
			UID:         uuid.NewString(),
			LastUpdated: time.Now().Unix(),
		},
	}
}

// NewShortcut creates a shortcut whose uid is derived from its content, so
// the same shortcut created on two devices converges to one record.
func NewShortcut(name, tags, project string, rate float64, currency, colorHex string) *Shortcut {
	return &Shortcut{
		Name:     name,
		Tags:     tags,
		Project:  project,
		Rate:     rate,
		Currency: currency,
		ColorHex: colorHex,
		SyncMeta: SyncMeta{
			UID:         ShortcutUID(name, tags, project, rate, currency),
			LastUpdated: time.Now().Unix(),
		},
	}
}

// NewTodo creates a todo whose uid is derived from its name and date
func NewTodo(name, project, tags string, rate float64, currency string, date time.Time) *Todo {
	return &Todo{
		Name:     name,
		Project:  project,
		Tags:     tags,
		Rate:     rate,
		Currency: currency,
		Date:     date,
		SyncMeta: SyncMeta{
			UID:         TodoUID(name, date),
			LastUpdated: time.Now().Unix(),
		},
	}
}

// ShortcutUID hashes the identifying shortcut fields with BLAKE3
func ShortcutUID(name, tags, project string, rate float64, currency string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString(tags)
	b.WriteString(project)
	b.WriteString(strconv.FormatFloat(rate, 'f', -1, 32))
	b.WriteString(currency)
	return hashHex(b.String())
}

// TodoUID hashes the todo name and unix date with BLAKE3
func TodoUID(name string, date time.Time) string {
	return hashHex(name + strconv.FormatInt(date.Unix(), 10))
}

func hashHex(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
