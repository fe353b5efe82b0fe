// Package domain holds the derived, response-only shapes of the history read path.
package domain

import (
	"time"

	devicedomain "devicetrail/internal/device/domain"
)

// VisibilityScope restricts which domain and user entries a caller may see.
// Both sides empty is legal and matches nothing.
type VisibilityScope struct {
	DomainIDs []string
	UserIDs   []string
}

// IsEmpty reports whether the scope matches nothing on either side.
func (s VisibilityScope) IsEmpty() bool {
	return len(s.DomainIDs) == 0 && len(s.UserIDs) == 0
}

// HistoryEntry is one deduplicated (entity, timestamp) observation with its
// resolved display name. DisplayName is nil for dangling references.
type HistoryEntry struct {
	EntityID    string  `json:"entityId"`
	DisplayName *string `json:"displayName"`
	Timestamp   int64   `json:"timestamp"`
}

// DeviceSummary is the aggregated per-device view: scope-qualified distinct
// counts, the raw IP history, and the two deduplicated histories sorted
// descending by timestamp.
type DeviceSummary struct {
	DeviceID          string                       `json:"deviceId"`
	MACAddr           string                       `json:"macAddr"`
	UniqueDomainCount int                          `json:"uniqueDomainCount"`
	UniqueUserCount   int                          `json:"uniqueUserCount"`
	IPAddresses       []devicedomain.IPObservation `json:"ipAddress"`
	DomainsHistory    []HistoryEntry               `json:"domainsHistory"`
	UsersHistory      []HistoryEntry               `json:"usersHistory"`
	CreatedAt         time.Time                    `json:"createdAt"`
	UpdatedAt         time.Time                    `json:"updatedAt"`
}

// ListFilter is the structured filter over device attributes, combined with
// the scope match by logical AND. Zero values disable a clause.
type ListFilter struct {
	// DeviceID matches the external device id exactly.
	DeviceID string
	// MACAddr matches as a case-insensitive substring.
	MACAddr string
}

// SortClause orders one field; Desc selects direction.
type SortClause struct {
	Field string
	Desc  bool
}

// Sortable fields for the list view.
const (
	SortByUpdatedAt         = "updatedAt"
	SortByCreatedAt         = "createdAt"
	SortByDeviceID          = "deviceId"
	SortByMACAddr           = "macAddr"
	SortByUniqueDomainCount = "uniqueDomainCount"
	SortByUniqueUserCount   = "uniqueUserCount"
)

// DefaultSort orders by updatedAt descending.
func DefaultSort() []SortClause {
	return []SortClause{{Field: SortByUpdatedAt, Desc: true}}
}

// ListQuery carries the list-view inputs. Page 0 disables pagination and
// returns the full sorted set; otherwise Page is 1-indexed and Limit must be
// positive.
type ListQuery struct {
	Page   int
	Limit  int
	Sort   []SortClause
	Filter ListFilter
	Scope  VisibilityScope
}

// Page is the pagination envelope. When Paginated is false only Docs is
// meaningful and it holds the full sorted set.
type Page[T any] struct {
	Docs       []T  `json:"docs"`
	TotalDocs  int  `json:"totalDocs"`
	TotalPages int  `json:"totalPages"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Paginated  bool `json:"-"`
}
