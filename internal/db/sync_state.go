package db

import (
	"database/sql"
	"fmt"

	"github.com/marcus/tock/internal/models"
)

// GetSyncSettings returns the persisted watermark
func (db *DB) GetSyncSettings() (*models.SyncSettings, error) {
	var s models.SyncSettings
	err := db.conn.QueryRow(`SELECT last_sync, needs_full_sync, credential_generation FROM sync_settings WHERE id = 1`).
		Scan(&s.LastSync, &s.NeedsFullSync, &s.CredentialGeneration)
	if err == sql.ErrNoRows {
		return &models.SyncSettings{NeedsFullSync: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync settings: %w", err)
	}
	return &s, nil
}

// SetSyncWatermark stores last_sync and needs_full_sync in one statement,
// so a crash can never persist one without the other.
func (db *DB) SetSyncWatermark(lastSync int64, needsFullSync bool) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE sync_settings SET last_sync = ?, needs_full_sync = ? WHERE id = 1`,
			lastSync, needsFullSync)
		if err != nil {
			return fmt.Errorf("set sync watermark: %w", err)
		}
		return nil
	})
}

// SetNeedsFullSync flags the next sync to send every local record
func (db *DB) SetNeedsFullSync(needs bool) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE sync_settings SET needs_full_sync = ? WHERE id = 1`, needs)
		if err != nil {
			return fmt.Errorf("set needs_full_sync: %w", err)
		}
		return nil
	})
}

// CredentialGeneration returns the counter bumped on every login and logout
func (db *DB) CredentialGeneration() (int64, error) {
	var gen int64
	if err := db.conn.QueryRow(`SELECT credential_generation FROM sync_settings WHERE id = 1`).Scan(&gen); err != nil {
		return 0, fmt.Errorf("get credential generation: %w", err)
	}
	return gen, nil
}
