// Package handler exposes the device write path over HTTP: registration and
// access recording.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"devicetrail/internal/device/domain"
	"devicetrail/internal/device/service"
	"devicetrail/internal/server/httpx"
)

// DeviceService is the write-path surface the handler needs.
type DeviceService interface {
	Register(ctx context.Context, deviceID, macAddr string) (*domain.Device, error)
	RecordUserAccess(ctx context.Context, deviceID, userID, ip, macAddr string, now int64) error
	RecordDomainAccess(ctx context.Context, deviceID, domainID, ip, macAddr string, now int64) error
}

// Handler serves the device registration and recording endpoints.
type Handler struct {
	svc    DeviceService
	logger zerolog.Logger
	nowF   func() time.Time
}

// NewHandler returns a device HTTP handler.
func NewHandler(svc DeviceService, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger, nowF: time.Now}
}

// Register mounts the device routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/devices", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/devices/{deviceId}/access/users", h.handleRecordUser).Methods(http.MethodPost)
	r.HandleFunc("/devices/{deviceId}/access/domains", h.handleRecordDomain).Methods(http.MethodPost)
}

type registerRequest struct {
	DeviceID string `json:"deviceId"`
	MACAddr  string `json:"macAddr"`
}

type deviceResponse struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	MACAddr   string    `json:"macAddr"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// handleRegister creates a device.
// POST /api/devices
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		httpx.WriteError(w, "deviceId is required", http.StatusBadRequest)
		return
	}

	d, err := h.svc.Register(r.Context(), req.DeviceID, req.MACAddr)
	if err != nil {
		if errors.Is(err, service.ErrCapacityExceeded) {
			httpx.WriteError(w, "device capacity exceeded", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Str("device_id", req.DeviceID).Msg("failed to register device")
		httpx.WriteError(w, "failed to register device", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, deviceResponse{
		ID:        d.ID,
		DeviceID:  d.DeviceID,
		MACAddr:   d.MACAddr,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	})
}

type recordRequest struct {
	UserID   string `json:"userId,omitempty"`
	DomainID string `json:"domainId,omitempty"`
	IP       string `json:"ip"`
	MACAddr  string `json:"macAddr"`
}

// handleRecordUser records a user access event.
// POST /api/devices/{deviceId}/access/users
func (h *Handler) handleRecordUser(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		httpx.WriteError(w, "userId is required", http.StatusBadRequest)
		return
	}
	h.record(w, r, deviceID, req, func() error {
		return h.svc.RecordUserAccess(r.Context(), deviceID, req.UserID, req.IP, req.MACAddr, h.nowF().Unix())
	})
}

// handleRecordDomain records a domain access event.
// POST /api/devices/{deviceId}/access/domains
func (h *Handler) handleRecordDomain(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["deviceId"]
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DomainID == "" {
		httpx.WriteError(w, "domainId is required", http.StatusBadRequest)
		return
	}
	h.record(w, r, deviceID, req, func() error {
		return h.svc.RecordDomainAccess(r.Context(), deviceID, req.DomainID, req.IP, req.MACAddr, h.nowF().Unix())
	})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request, deviceID string, req recordRequest, fn func() error) {
	if err := fn(); err != nil {
		if errors.Is(err, service.ErrCapacityExceeded) {
			httpx.WriteError(w, "device capacity exceeded", http.StatusConflict)
			return
		}
		if errors.Is(err, service.ErrDeviceUnavailable) {
			httpx.WriteError(w, "device unavailable", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error().Err(err).Str("device_id", deviceID).Msg("failed to record access")
		httpx.WriteError(w, "failed to record access", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
