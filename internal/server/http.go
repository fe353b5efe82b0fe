// Package server wires the HTTP surface: router, middleware, and handler registration.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	devicehandler "devicetrail/internal/device/handler"
	historyhandler "devicetrail/internal/history/handler"
	"devicetrail/internal/security"
	"devicetrail/internal/server/httpx"
	"devicetrail/internal/server/middleware"
)

// Pinger reports storage readiness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the handlers and collaborators the router mounts.
type Deps struct {
	Device  *devicehandler.Handler
	History *historyhandler.Handler
	Tokens  *security.TokenReader
	DB      Pinger
	Logger  zerolog.Logger
}

// NewRouter builds the router: /healthz is open; everything under /api
// requires a valid bearer identity.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogging(deps.Logger))

	r.HandleFunc("/healthz", healthz(deps.DB)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Authenticate(deps.Tokens))
	deps.Device.Register(api)
	deps.History.Register(api)

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				httpx.WriteError(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
