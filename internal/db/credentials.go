package db

import (
	"database/sql"
	"fmt"

	"github.com/marcus/tock/internal/models"
)

// GetCredentials returns the stored login, or nil if logged out
func (db *DB) GetCredentials() (*models.Credentials, error) {
	var c models.Credentials
	err := db.conn.QueryRow(`
		SELECT email, encrypted_key, key_nonce, access_token, refresh_token, server
		FROM user WHERE id = 1
	`).Scan(&c.Email, &c.EncryptedKey, &c.KeyNonce, &c.AccessToken, &c.RefreshToken, &c.Server)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	return &c, nil
}

// StoreCredentials replaces the stored login, bumps the credential generation
// and flags the next sync as a full one, all in one transaction.
func (db *DB) StoreCredentials(c *models.Credentials) error {
	return db.withWriteLock(func() error {
		return db.inTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				INSERT OR REPLACE INTO user (id, email, encrypted_key, key_nonce, access_token, refresh_token, server)
				VALUES (1, ?, ?, ?, ?, ?, ?)
			`, c.Email, c.EncryptedKey, c.KeyNonce, c.AccessToken, c.RefreshToken, c.Server); err != nil {
				return fmt.Errorf("store credentials: %w", err)
			}
			if _, err := tx.Exec(`UPDATE sync_settings SET needs_full_sync = 1 WHERE id = 1`); err != nil {
				return fmt.Errorf("flag full sync: %w", err)
			}
			return bumpGeneration(tx)
		})
	})
}

// UpdateAccessToken replaces the access token after a refresh
func (db *DB) UpdateAccessToken(email, token string) error {
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(`UPDATE user SET access_token = ? WHERE email = ?`, token, email)
		if err != nil {
			return fmt.Errorf("update access token: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update access token: %w", ErrNotFound)
		}
		return nil
	})
}

// DeleteCredentials purges the stored login and bumps the credential generation
func (db *DB) DeleteCredentials() error {
	return db.withWriteLock(func() error {
		return db.inTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(`DELETE FROM user`); err != nil {
				return fmt.Errorf("delete credentials: %w", err)
			}
			return bumpGeneration(tx)
		})
	})
}

func bumpGeneration(tx *sql.Tx) error {
	if _, err := tx.Exec(`UPDATE sync_settings SET credential_generation = credential_generation + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("bump credential generation: %w", err)
	}
	return nil
}

func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
