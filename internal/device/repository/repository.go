package repository

import (
	"context"
	"time"

	"devicetrail/internal/device/domain"
)

// AccessKind selects which access table a recording targets.
type AccessKind string

const (
	// AccessDomain records an organizational domain touching a device.
	AccessDomain AccessKind = "domain"
	// AccessUser records a user touching a device.
	AccessUser AccessKind = "user"
)

// Repository defines persistence for devices and their access observations.
type Repository interface {
	// GetByDeviceID returns the device for the external device id, or nil if not found.
	GetByDeviceID(ctx context.Context, deviceID string) (*domain.Device, error)
	// CreateIfBelowLimit inserts the device only while the total device count
	// is below limit, as a single atomic statement. Returns false (no error)
	// when the ceiling blocked the insert.
	CreateIfBelowLimit(ctx context.Context, d *domain.Device, limit int) (bool, error)
	// RecordAccess appends one entity observation plus the IP sighting and
	// bumps updated_at, all in one transaction.
	RecordAccess(ctx context.Context, deviceID string, kind AccessKind, entityID, ip string, seenAt int64, now time.Time) error
	// CountDevices returns the total number of registered devices.
	CountDevices(ctx context.Context) (int, error)
	// DeleteIPLogBefore removes IP observations older than cutoff; returns rows deleted.
	DeleteIPLogBefore(ctx context.Context, cutoff int64) (int64, error)
}
