package repository

import (
	"context"

	devicedomain "devicetrail/internal/device/domain"
	"devicetrail/internal/history/domain"
)

// Side selects which access category a single-device read targets.
type Side string

const (
	SideDomains Side = "domains"
	SideUsers   Side = "users"
)

// DeviceAccess is the raw read model for one device: its row plus the
// scope-qualified access entries grouped per entity, and the full IP log.
type DeviceAccess struct {
	Device  devicedomain.Device
	Domains []devicedomain.EntityAccess
	Users   []devicedomain.EntityAccess
	IPLog   []devicedomain.IPObservation
}

// DeviceSide is the raw read model for one side of a single-device lookup.
type DeviceSide struct {
	Device devicedomain.Device
	Access []devicedomain.EntityAccess
	IPLog  []devicedomain.IPObservation
}

// Repository is the read model over device access observations. It applies
// scope and filter restriction; grouping stays set-semantic (one entry per
// entity id, timestamps in append order).
type Repository interface {
	// ListDeviceAccess returns devices with at least one scope-qualified entry
	// on either side (OR), further narrowed by filter (AND). Entries outside
	// the scope are not returned.
	ListDeviceAccess(ctx context.Context, scope domain.VisibilityScope, filter domain.ListFilter) ([]DeviceAccess, error)
	// GetDeviceSide returns one device with the scope-qualified entries of a
	// single side, or nil when no device exists for deviceID. A device with
	// zero qualifying entries is still returned, with empty Access.
	GetDeviceSide(ctx context.Context, deviceID string, side Side, entityIDs []string) (*DeviceSide, error)
}
