// Package service implements the history read path: the list aggregator, the
// single-device detail resolver, and pagination over the assembled summaries.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	devicedomain "devicetrail/internal/device/domain"
	directorydomain "devicetrail/internal/directory/domain"
	"devicetrail/internal/history/domain"
	"devicetrail/internal/history/repository"
)

var (
	// ErrDeviceNotFound is returned by Detail when no device exists for the id.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrBadSort is returned for a sort clause naming an unknown field.
	ErrBadSort = errors.New("unsupported sort field")
)

// NameResolver is the minimal directory surface the pipelines need: batch
// name lookups by id. Unknown ids are omitted and surface as nil display names.
type NameResolver interface {
	GetDomainNames(ctx context.Context, ids []string) ([]directorydomain.NamedEntity, error)
	GetUserNames(ctx context.Context, ids []string) ([]directorydomain.NamedEntity, error)
}

// Service aggregates device access observations into consumable history views.
type Service struct {
	repo   repository.Repository
	names  NameResolver
	logger zerolog.Logger
}

// NewService returns a history Service over the given read repository and resolver.
func NewService(repo repository.Repository, names NameResolver, logger zerolog.Logger) *Service {
	return &Service{repo: repo, names: names, logger: logger}
}

// List produces the scope-restricted, filtered, sorted and optionally
// paginated device summaries. An empty scope yields an empty result, not an
// error.
func (s *Service) List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.DeviceSummary], error) {
	if len(q.Sort) == 0 {
		q.Sort = domain.DefaultSort()
	}
	if err := validateSort(q.Sort); err != nil {
		return domain.Page[domain.DeviceSummary]{}, err
	}

	records, err := s.repo.ListDeviceAccess(ctx, q.Scope, q.Filter)
	if err != nil {
		return domain.Page[domain.DeviceSummary]{}, fmt.Errorf("list device access: %w", err)
	}

	domainNames, userNames, err := s.resolveNames(ctx, records)
	if err != nil {
		return domain.Page[domain.DeviceSummary]{}, err
	}

	summaries := make([]domain.DeviceSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, buildSummary(rec.Device, rec.Domains, rec.Users, rec.IPLog, domainNames, userNames))
	}

	sortSummaries(summaries, q.Sort)
	return paginate(summaries, q.Page, q.Limit)
}

// resolveNames batch-joins every distinct entity id in the records against the
// directory, one lookup per side.
func (s *Service) resolveNames(ctx context.Context, records []repository.DeviceAccess) (map[string]string, map[string]string, error) {
	var domainIDs, userIDs []string
	seenDomain := make(map[string]bool)
	seenUser := make(map[string]bool)
	for _, rec := range records {
		for _, a := range rec.Domains {
			if !seenDomain[a.EntityID] {
				seenDomain[a.EntityID] = true
				domainIDs = append(domainIDs, a.EntityID)
			}
		}
		for _, a := range rec.Users {
			if !seenUser[a.EntityID] {
				seenUser[a.EntityID] = true
				userIDs = append(userIDs, a.EntityID)
			}
		}
	}

	domainNames, err := s.lookup(ctx, domainIDs, s.names.GetDomainNames)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve domain names: %w", err)
	}
	userNames, err := s.lookup(ctx, userIDs, s.names.GetUserNames)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve user names: %w", err)
	}
	return domainNames, userNames, nil
}

func (s *Service) lookup(ctx context.Context, ids []string, fn func(context.Context, []string) ([]directorydomain.NamedEntity, error)) (map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	entities, err := fn(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(entities))
	for _, e := range entities {
		names[e.ID] = e.Name
	}
	return names, nil
}

// buildSummary assembles one DeviceSummary from grouped access records and
// resolved names.
func buildSummary(d devicedomain.Device, domains, users []devicedomain.EntityAccess, ipLog []devicedomain.IPObservation, domainNames, userNames map[string]string) domain.DeviceSummary {
	if ipLog == nil {
		ipLog = []devicedomain.IPObservation{}
	}
	return domain.DeviceSummary{
		DeviceID:          d.DeviceID,
		MACAddr:           d.MACAddr,
		UniqueDomainCount: len(domains),
		UniqueUserCount:   len(users),
		IPAddresses:       ipLog,
		DomainsHistory:    buildHistory(domains, domainNames),
		UsersHistory:      buildHistory(users, userNames),
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// buildHistory flattens per-entity timestamp lists into individual entries,
// deduplicates by (entity, timestamp) keeping the first occurrence, and sorts
// descending by timestamp.
func buildHistory(access []devicedomain.EntityAccess, names map[string]string) []domain.HistoryEntry {
	entries := []domain.HistoryEntry{}
	type key struct {
		id string
		ts int64
	}
	seen := make(map[key]bool)
	for _, a := range access {
		var displayName *string
		if name, ok := names[a.EntityID]; ok {
			n := name
			displayName = &n
		}
		for _, ts := range a.Timestamps {
			k := key{a.EntityID, ts}
			if seen[k] {
				continue
			}
			seen[k] = true
			entries = append(entries, domain.HistoryEntry{EntityID: a.EntityID, DisplayName: displayName, Timestamp: ts})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries
}

func validateSort(clauses []domain.SortClause) error {
	for _, c := range clauses {
		switch c.Field {
		case domain.SortByUpdatedAt, domain.SortByCreatedAt, domain.SortByDeviceID,
			domain.SortByMACAddr, domain.SortByUniqueDomainCount, domain.SortByUniqueUserCount:
		default:
			return fmt.Errorf("%w: %q", ErrBadSort, c.Field)
		}
	}
	return nil
}

// sortSummaries orders the set by the given clauses, earlier clauses first.
func sortSummaries(summaries []domain.DeviceSummary, clauses []domain.SortClause) {
	sort.SliceStable(summaries, func(i, j int) bool {
		for _, c := range clauses {
			cmp := compareSummaries(summaries[i], summaries[j], c.Field)
			if cmp == 0 {
				continue
			}
			if c.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareSummaries(a, b domain.DeviceSummary, field string) int {
	switch field {
	case domain.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case domain.SortByDeviceID:
		return strings.Compare(a.DeviceID, b.DeviceID)
	case domain.SortByMACAddr:
		return strings.Compare(a.MACAddr, b.MACAddr)
	case domain.SortByUniqueDomainCount:
		return a.UniqueDomainCount - b.UniqueDomainCount
	case domain.SortByUniqueUserCount:
		return a.UniqueUserCount - b.UniqueUserCount
	}
	return 0
}
