// Package service implements the device registry and the interaction recorder.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"devicetrail/internal/device/domain"
	"devicetrail/internal/device/repository"
)

// Sentinel errors for the device service; handlers map them to HTTP statuses.
var (
	// ErrCapacityExceeded means registration was attempted at or above the device ceiling.
	ErrCapacityExceeded = errors.New("device capacity exceeded")
	// ErrDeviceUnavailable means a recording call could not obtain a device,
	// because auto-registration failed (capacity or storage).
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// Service is the write path: device registration with a global ceiling, and
// access recording with auto-registration on first contact.
type Service struct {
	repo        repository.Repository
	deviceLimit int
	logger      zerolog.Logger
}

// NewService returns a Service enforcing the given device ceiling.
func NewService(repo repository.Repository, deviceLimit int, logger zerolog.Logger) *Service {
	return &Service{repo: repo, deviceLimit: deviceLimit, logger: logger}
}

// Register creates a device with empty access history. Fails with
// ErrCapacityExceeded when the device count is at or above the ceiling; the
// count check and insert are a single atomic statement in the repository, so
// the ceiling is exact under concurrent registrations.
func (s *Service) Register(ctx context.Context, deviceID, macAddr string) (*domain.Device, error) {
	now := time.Now().UTC()
	d := &domain.Device{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		MACAddr:   macAddr,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ok, err := s.repo.CreateIfBelowLimit(ctx, d, s.deviceLimit)
	if err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}
	if !ok {
		return nil, ErrCapacityExceeded
	}
	s.logger.Info().Str("device_id", deviceID).Msg("device registered")
	return d, nil
}

// FindByDeviceID returns the device for the external device id, or nil when
// absent. Existence checks use the nil result; no error is raised for a miss.
func (s *Service) FindByDeviceID(ctx context.Context, deviceID string) (*domain.Device, error) {
	return s.repo.GetByDeviceID(ctx, deviceID)
}

// RecordUserAccess appends a user observation and the IP sighting for the
// device, auto-registering the device on first contact. now is unix seconds.
func (s *Service) RecordUserAccess(ctx context.Context, deviceID, userID, ip, macAddr string, now int64) error {
	return s.record(ctx, deviceID, repository.AccessUser, userID, ip, macAddr, now)
}

// RecordDomainAccess appends a domain observation and the IP sighting for the
// device, auto-registering the device on first contact. now is unix seconds.
func (s *Service) RecordDomainAccess(ctx context.Context, deviceID, domainID, ip, macAddr string, now int64) error {
	return s.record(ctx, deviceID, repository.AccessDomain, domainID, ip, macAddr, now)
}

func (s *Service) record(ctx context.Context, deviceID string, kind repository.AccessKind, entityID, ip, macAddr string, now int64) error {
	d, err := s.repo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("record access: %w", err)
	}
	if d == nil {
		d, err = s.Register(ctx, deviceID, macAddr)
		if err != nil {
			// Auto-registration failure fails the recording as a whole.
			return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
	}
	if err := s.repo.RecordAccess(ctx, d.ID, kind, entityID, ip, now, time.Unix(now, 0).UTC()); err != nil {
		return fmt.Errorf("record access: %w", err)
	}
	return nil
}
