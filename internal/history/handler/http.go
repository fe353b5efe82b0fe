// Package handler exposes the history read path over HTTP: the paginated list
// view and the single-device detail view.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"devicetrail/internal/history/domain"
	"devicetrail/internal/history/service"
	"devicetrail/internal/scope"
	"devicetrail/internal/server/httpx"
	"devicetrail/internal/server/middleware"
)

// HistoryService is the read-path surface the handler needs.
type HistoryService interface {
	List(ctx context.Context, q domain.ListQuery) (domain.Page[domain.DeviceSummary], error)
	Detail(ctx context.Context, deviceID string, scope domain.VisibilityScope) (*domain.DeviceSummary, error)
}

// Handler serves the device history endpoints.
type Handler struct {
	svc    HistoryService
	scopes scope.Provider
	logger zerolog.Logger
}

// NewHandler returns a history HTTP handler.
func NewHandler(svc HistoryService, scopes scope.Provider, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, scopes: scopes, logger: logger}
}

// Register mounts the history routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/devices/history", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/devices/{deviceId}/history", h.handleDetail).Methods(http.MethodGet)
}

type detailEnvelope struct {
	Details *domain.DeviceSummary `json:"details"`
}

// handleList returns the scope-restricted device summaries, paginated when a
// page is requested.
// GET /api/devices/history?page=&limit=&sort=updatedAt:desc&deviceId=&macAddr=
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	visScope, ok := h.callerScope(w, r)
	if !ok {
		return
	}

	q := domain.ListQuery{Scope: visScope}
	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			httpx.WriteError(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		q.Page = page

		limit, err := strconv.Atoi(query.Get("limit"))
		if err != nil || limit < 1 {
			httpx.WriteError(w, "limit must be a positive integer when page is set", http.StatusBadRequest)
			return
		}
		q.Limit = limit
	}

	sortClauses, err := parseSort(query.Get("sort"))
	if err != nil {
		httpx.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	q.Sort = sortClauses
	q.Filter = domain.ListFilter{
		DeviceID: query.Get("deviceId"),
		MACAddr:  query.Get("macAddr"),
	}

	page, err := h.svc.List(r.Context(), q)
	if err != nil {
		if errors.Is(err, service.ErrBadSort) || errors.Is(err, service.ErrBadPage) {
			httpx.WriteError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("failed to list device history")
		httpx.WriteError(w, "failed to list device history", http.StatusInternalServerError)
		return
	}

	if !page.Paginated {
		httpx.WriteJSON(w, http.StatusOK, page.Docs)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// handleDetail returns the merged summary for one device.
// GET /api/devices/{deviceId}/history
func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	visScope, ok := h.callerScope(w, r)
	if !ok {
		return
	}
	deviceID := mux.Vars(r)["deviceId"]

	summary, err := h.svc.Detail(r.Context(), deviceID, visScope)
	if err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			httpx.WriteError(w, "device not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("device_id", deviceID).Msg("failed to resolve device history")
		httpx.WriteError(w, "failed to resolve device history", http.StatusInternalServerError)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, detailEnvelope{Details: summary})
}

func (h *Handler) callerScope(w http.ResponseWriter, r *http.Request) (domain.VisibilityScope, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		httpx.WriteError(w, "caller identity required", http.StatusUnauthorized)
		return domain.VisibilityScope{}, false
	}
	visScope, err := h.scopes.ScopeFor(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", id.UserID).Msg("failed to resolve visibility scope")
		httpx.WriteError(w, "failed to resolve visibility scope", http.StatusInternalServerError)
		return domain.VisibilityScope{}, false
	}
	return visScope, true
}

// parseSort parses "field:dir,field:dir" into sort clauses. Direction defaults
// to ascending; "desc" selects descending.
func parseSort(raw string) ([]domain.SortClause, error) {
	if raw == "" {
		return nil, nil
	}
	var clauses []domain.SortClause
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		switch strings.ToLower(dir) {
		case "", "asc":
			clauses = append(clauses, domain.SortClause{Field: field})
		case "desc":
			clauses = append(clauses, domain.SortClause{Field: field, Desc: true})
		default:
			return nil, errors.New("sort direction must be asc or desc")
		}
	}
	return clauses, nil
}
