package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"devicetrail/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByDeviceID returns the device for the external device id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Device, error) {
	const q = `SELECT id, device_id, mac_addr, created_at, updated_at FROM devices WHERE device_id = $1`
	var d domain.Device
	err := r.db.QueryRowContext(ctx, q, deviceID).Scan(&d.ID, &d.DeviceID, &d.MACAddr, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// CreateIfBelowLimit inserts the device only while the device count is below limit.
// The count check and the insert are one statement, so concurrent registrations
// cannot race past the ceiling. Returns false when the ceiling blocked the insert.
func (r *PostgresRepository) CreateIfBelowLimit(ctx context.Context, d *domain.Device, limit int) (bool, error) {
	const q = `
		INSERT INTO devices (id, device_id, mac_addr, created_at, updated_at)
		SELECT $1, $2, $3, $4, $4
		WHERE (SELECT COUNT(*) FROM devices) < $5`
	res, err := r.db.ExecContext(ctx, q, d.ID, d.DeviceID, d.MACAddr, d.CreatedAt, limit)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordAccess appends one entity observation and the IP sighting for the
// device row id, and bumps updated_at. All three writes share a transaction so
// a failure leaves no partial history.
func (r *PostgresRepository) RecordAccess(ctx context.Context, id string, kind AccessKind, entityID, ip string, seenAt int64, now time.Time) error {
	var accessQ string
	switch kind {
	case AccessDomain:
		accessQ = `INSERT INTO device_domain_access (device_id, domain_id, seen_at) VALUES ($1, $2, $3)`
	case AccessUser:
		accessQ = `INSERT INTO device_user_access (device_id, user_id, seen_at) VALUES ($1, $2, $3)`
	default:
		return fmt.Errorf("unknown access kind %q", kind)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, accessQ, id, entityID, seenAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO device_ip_log (device_id, ip, seen_at) VALUES ($1, $2, $3)`, id, ip, seenAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE devices SET updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return err
	}
	return tx.Commit()
}

// CountDevices returns the total number of registered devices.
func (r *PostgresRepository) CountDevices(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteIPLogBefore removes IP observations seen before cutoff (unix seconds).
func (r *PostgresRepository) DeleteIPLogBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_ip_log WHERE seen_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
