package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
	"github.com/google/uuid"
)

const lastPurgeKey = "last_purge_at"

// Create inserts a capsule and its recipients and returns the new code.
func (d *Database) Create(ctx context.Context, params models.CreateParams) (string, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	id := uuid.NewString()
	var openAt int64
	if at, err := timegate.ParseOpenDate(params.OpenDate); err == nil {
		openAt = toUnixMilli(at)
	}
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO capsules (id, sender, sender_phone, message, open_date, open_at, use_password_key, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, params.From, nullableString(params.SenderPhone), params.Message, params.OpenDate,
			nullableInt64(openAt), boolToInt(params.UsePasswordKey), toUnixMilli(d.now()))
		if err != nil {
			return err
		}
		for i, r := range params.Recipients {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO capsule_recipients (capsule_id, position, name, phone) VALUES (?, ?, ?, ?)",
				id, i, r.Name, nullableString(r.Phone)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", wrapCapsuleErr("create", "", err)
	}
	return id, nil
}

// GetByID loads a capsule with its recipients in order.
func (d *Database) GetByID(ctx context.Context, id string) (*models.CapsuleRecord, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	var (
		r         models.CapsuleRecord
		phone     sql.NullString
		usePass   int
		createdMs int64
	)
	err := d.DB.QueryRowContext(ctx,
		`SELECT id, sender, sender_phone, message, open_date, use_password_key, created_at
		 FROM capsules WHERE id = ?`, id).
		Scan(&r.ID, &r.From, &phone, &r.Message, &r.OpenDate, &usePass, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrapCapsuleErr("get", id, err)
	}
	r.SenderPhone = phone.String
	r.UsePasswordKey = usePass != 0
	r.CreatedAt = fromUnixMilli(createdMs)

	rows, err := d.DB.QueryContext(ctx,
		"SELECT name, phone FROM capsule_recipients WHERE capsule_id = ? ORDER BY position ASC", id)
	if err != nil {
		return nil, wrapCapsuleErr("get recipients", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec models.Recipient
			ph  sql.NullString
		)
		if err := rows.Scan(&rec.Name, &ph); err != nil {
			return nil, wrapCapsuleErr("get recipients", id, err)
		}
		rec.Phone = ph.String
		r.Recipients = append(r.Recipients, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapCapsuleErr("get recipients", id, err)
	}
	return &r, nil
}

// GetStats counts capsules still waiting for their open date and those
// already delivered. Capsules with unreadable open dates count as delivered.
func (d *Database) GetStats(ctx context.Context) (models.Stats, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	var total, waiting int
	err := d.DB.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(CASE WHEN open_at > ? THEN 1 ELSE 0 END), 0) FROM capsules`,
		toUnixMilli(d.now())).Scan(&total, &waiting)
	if err != nil {
		return models.Stats{}, wrapCapsuleErr("stats", "", err)
	}
	return models.Stats{Waiting: waiting, Sent: total - waiting}, nil
}

// PurgeExpired deletes capsules whose open date is more than retention in
// the past and returns how many were removed. Capsules with unreadable open
// dates are kept.
func (d *Database) PurgeExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	cutoff := toUnixMilli(now.Add(-retention))
	var removed int64
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM capsule_recipients WHERE capsule_id IN
			 (SELECT id FROM capsules WHERE open_at IS NOT NULL AND open_at < ?)`, cutoff); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM capsules WHERE open_at IS NOT NULL AND open_at < ?", cutoff)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, wrapCapsuleErr("purge", "", err)
	}
	if err := d.SetSetting(ctx, lastPurgeKey, now.UTC().Format(time.RFC3339)); err != nil {
		return removed, err
	}
	return removed, nil
}

// LastPurge reports when PurgeExpired last completed.
func (d *Database) LastPurge(ctx context.Context) (time.Time, bool) {
	raw, ok := d.GetSetting(ctx, lastPurgeKey)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var _ store.CapsuleRecordStore = (*Database)(nil)
