package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/healthz", h.handleHealthz)

	// LINE webhook (signature-verified inside the handler)
	r.Post("/webhook/line", h.handleLineWebhook)

	// WebSocket for the live dashboard
	r.Get("/ws", h.Hub.ServeWs)

	// Auth routes (public)
	r.Post("/api/admin/login", h.handleLogin)
	r.Post("/api/admin/logout", h.handleLogout)

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Venues
		r.Get("/api/admin/venues", h.handleGetVenues)
		r.Post("/api/admin/venues", h.handleCreateVenue)
		r.Get("/api/admin/venues/{id}", h.handleGetVenue)
		r.Put("/api/admin/venues/{id}", h.handleUpdateVenue)
		r.Delete("/api/admin/venues/{id}", h.handleDeactivateVenue)
		r.Get("/api/admin/venues/{id}/payment-qr", h.handleVenuePaymentQR)

		// Rounds
		r.Get("/api/admin/rounds", h.handleGetRounds)
		r.Post("/api/admin/rounds", h.handleOpenRound)
		r.Get("/api/admin/rounds/{id}", h.handleGetRound)
		r.Get("/api/admin/rounds/{id}/report", h.handleRoundReport)
		r.Post("/api/admin/rounds/{id}/close", h.handleCloseRound)
		r.Post("/api/admin/rounds/{id}/settle", h.handleSettleRound)

		// Bets
		r.Get("/api/admin/rounds/{id}/bets", h.handleGetRoundBets)
		r.Post("/api/admin/bets", h.handleRecordBet)

		// Settings
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Get("/api/admin/operators", h.handleGetOperators)
		r.Put("/api/admin/operators", h.handleSetOperators)

		// Logging control
		r.Get("/api/admin/log-level", h.handleGetLogLevel)
		r.Post("/api/admin/log-level", h.handleSetLogLevel)
		r.Post("/api/admin/http-logging", h.handleSetHTTPLogging)
	})

	return r
}

// handleHealthz reports liveness
func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}
