package domain

import "time"

// Device is a registered hardware unit tracked by its external device id.
type Device struct {
	ID        string
	DeviceID  string
	MACAddr   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntityAccess is one domain's or user's access record on a device: the entity
// id with every observed unix-second timestamp, duplicates included. A device
// carries at most one EntityAccess per distinct entity id.
type EntityAccess struct {
	EntityID   string
	Timestamps []int64
}

// IPObservation is one append-only IP sighting on a device.
type IPObservation struct {
	IP     string `json:"ip"`
	SeenAt int64  `json:"timestamp"`
}
