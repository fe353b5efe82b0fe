package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	devicedomain "devicetrail/internal/device/domain"
	"devicetrail/internal/history/domain"
	"devicetrail/internal/history/repository"
)

// sideResult is one sub-aggregation's output: grouped entries joined with
// names, deduplicated and sorted, plus the device row read by that side.
type sideResult struct {
	device  devicedomain.Device
	found   bool
	count   int
	history []domain.HistoryEntry
	ipLog   []devicedomain.IPObservation
}

// Detail produces the merged summary for one device by running the
// domain-scoped and user-scoped aggregations concurrently. The two sides read
// storage independently, so they may observe slightly different states under
// concurrent writers; the merge tolerates that. Cancellation of either side
// aborts both. Returns ErrDeviceNotFound when no device exists for deviceID.
func (s *Service) Detail(ctx context.Context, deviceID string, scope domain.VisibilityScope) (*domain.DeviceSummary, error) {
	var domainSide, userSide sideResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		domainSide, err = s.aggregateSide(gctx, deviceID, repository.SideDomains, scope.DomainIDs)
		return err
	})
	g.Go(func() error {
		var err error
		userSide, err = s.aggregateSide(gctx, deviceID, repository.SideUsers, scope.UserIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !domainSide.found {
		return nil, ErrDeviceNotFound
	}

	// Merge by device id. The user side yielding nothing is not an error; the
	// merged summary reports zero users.
	summary := domain.DeviceSummary{
		DeviceID:          domainSide.device.DeviceID,
		MACAddr:           domainSide.device.MACAddr,
		UniqueDomainCount: domainSide.count,
		UniqueUserCount:   0,
		IPAddresses:       domainSide.ipLog,
		DomainsHistory:    domainSide.history,
		UsersHistory:      []domain.HistoryEntry{},
		CreatedAt:         domainSide.device.CreatedAt,
		UpdatedAt:         domainSide.device.UpdatedAt,
	}
	if userSide.found {
		summary.UniqueUserCount = userSide.count
		summary.UsersHistory = userSide.history
	}
	if summary.IPAddresses == nil {
		summary.IPAddresses = []devicedomain.IPObservation{}
	}
	return &summary, nil
}

// aggregateSide groups, name-joins, dedups and sorts one side of one device.
func (s *Service) aggregateSide(ctx context.Context, deviceID string, side repository.Side, entityIDs []string) (sideResult, error) {
	rec, err := s.repo.GetDeviceSide(ctx, deviceID, side, entityIDs)
	if err != nil {
		return sideResult{}, fmt.Errorf("aggregate %s: %w", side, err)
	}
	if rec == nil {
		return sideResult{}, nil
	}

	var ids []string
	for _, a := range rec.Access {
		ids = append(ids, a.EntityID)
	}
	lookupFn := s.names.GetDomainNames
	if side == repository.SideUsers {
		lookupFn = s.names.GetUserNames
	}
	names, err := s.lookup(ctx, ids, lookupFn)
	if err != nil {
		return sideResult{}, fmt.Errorf("aggregate %s: %w", side, err)
	}

	return sideResult{
		device:  rec.Device,
		found:   true,
		count:   len(rec.Access),
		history: buildHistory(rec.Access, names),
		ipLog:   rec.IPLog,
	}, nil
}
