package sync

import (
	"fmt"
	"log/slog"

	"github.com/marcus/tock/internal/crypto"
	"github.com/marcus/tock/internal/models"
)

// recordPtr constrains PT to *T where *T carries sync metadata.
type recordPtr[T any] interface {
	*T
	models.Record
}

// gather returns the local delta for one record type: everything when a
// full sync is pending, otherwise records touched at or after the watermark.
func gather[T any, PT recordPtr[T]](repo Repository[T], st *models.SyncSettings, key []byte, entity models.Entity) ([]models.EncryptedRecord, int, error) {
	var (
		recs []T
		err  error
	)
	if st.NeedsFullSync {
		recs, err = repo.FetchAll()
	} else {
		recs, err = repo.FetchSince(st.LastSync)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: gather %s: %v", ErrPersistence, entity, err)
	}

	out, dropped := encryptAll[T, PT](recs, key, entity)
	return out, dropped, nil
}

// resend re-encrypts the records the server reported as orphaned.
func resend[T any, PT recordPtr[T]](repo Repository[T], uids []string, key []byte, entity models.Entity) ([]models.EncryptedRecord, int, error) {
	if len(uids) == 0 {
		return []models.EncryptedRecord{}, 0, nil
	}
	recs, err := repo.FetchByUIDs(uids)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: fetch orphaned %s: %v", ErrPersistence, entity, err)
	}
	if len(recs) < len(uids) {
		slog.Debug("sync: orphans missing locally", "entity", entity, "requested", len(uids), "found", len(recs))
	}

	out, dropped := encryptAll[T, PT](recs, key, entity)
	return out, dropped, nil
}

// encryptAll seals each record. Records that fail are logged and dropped
// from the batch; the count of dropped records is returned.
func encryptAll[T any, PT recordPtr[T]](recs []T, key []byte, entity models.Entity) ([]models.EncryptedRecord, int) {
	out := make([]models.EncryptedRecord, 0, len(recs))
	dropped := 0
	for i := range recs {
		rec := PT(&recs[i])
		env, err := crypto.EncryptRecord(rec, key)
		if err != nil {
			slog.Warn("sync: encrypt", "entity", entity, "uid", rec.Meta().UID, "err", err)
			dropped++
			continue
		}
		out = append(out, env)
	}
	return out, dropped
}

// reconcile applies a remote batch with last-write-wins on last_updated.
// Only a strictly newer remote record replaces the local one, so ties keep
// the local copy. Records that fail to decrypt are skipped; records the
// local store rejects are logged and counted, and the batch carries on.
func reconcile[T any, PT recordPtr[T]](repo Repository[T], remote []models.EncryptedRecord, key []byte, entity models.Entity) applyCounts {
	var counts applyCounts
	for _, env := range remote {
		rec, err := crypto.DecryptRecord[T](env, key)
		if err != nil {
			slog.Warn("sync: decrypt remote", "entity", entity, "uid", env.UID, "err", err)
			counts.skipped++
			continue
		}
		incoming := PT(&rec).Meta()
		if incoming.UID == "" {
			slog.Warn("sync: remote record without uid", "entity", entity, "envelope_uid", env.UID)
			counts.skipped++
			continue
		}

		outcome, err := store[T, PT](repo, &rec, incoming)
		if err != nil {
			slog.Warn("sync: store remote", "entity", entity, "uid", incoming.UID, "err", err)
			counts.failed++
			continue
		}
		switch outcome {
		case stored:
			counts.inserted++
		case replaced:
			counts.updated++
		default:
			counts.unchanged++
		}
	}
	return counts
}

type storeOutcome int

const (
	kept storeOutcome = iota
	stored
	replaced
)

// store writes one decrypted remote record.
func store[T any, PT recordPtr[T]](repo Repository[T], rec *T, incoming *models.SyncMeta) (storeOutcome, error) {
	exists, err := repo.Exists(incoming.UID)
	if err != nil {
		return kept, fmt.Errorf("exists: %w", err)
	}
	if !exists {
		if err := repo.Insert(rec); err != nil {
			return kept, fmt.Errorf("insert: %w", err)
		}
		return stored, nil
	}

	local, err := repo.FetchByUID(incoming.UID)
	if err != nil {
		return kept, fmt.Errorf("fetch: %w", err)
	}
	if incoming.LastUpdated <= PT(local).Meta().LastUpdated {
		return kept, nil
	}
	if err := repo.Update(rec); err != nil {
		return kept, fmt.Errorf("update: %w", err)
	}
	return replaced, nil
}
