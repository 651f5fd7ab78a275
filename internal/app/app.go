package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ekkaluck/bangfai-ledger/internal/auth"
	"github.com/ekkaluck/bangfai-ledger/internal/handlers"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
	"github.com/ekkaluck/bangfai-ledger/internal/services"
	"github.com/ekkaluck/bangfai-ledger/internal/websocket"
	"github.com/ekkaluck/bangfai-ledger/pkg/linechat"
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
}

// New creates and initializes a new application instance
func New(log logger.Logger, dbPath string, lineClient linechat.Client, adminAuth *auth.Auth, payoutRate float64) (*App, error) {
	repo, err := repository.New(dbPath)
	if err != nil {
		return nil, err
	}

	// Round close/settle and bet recording share one lock per round
	locks := services.NewRoundLocks()

	venueService := services.NewVenueService(log, repo)
	roundService := services.NewRoundService(log, repo, locks, services.MultiplierPolicy(payoutRate))
	ledgerService := services.NewLedgerService(log, repo, locks)
	settingsService := services.NewSettingsService(log, repo)
	chatService := services.NewChatService(log, venueService, roundService, ledgerService, settingsService, lineClient)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, roundService)
	hub.Start()
	roundService.SetBroadcaster(hub)
	ledgerService.SetBroadcaster(hub)

	h := handlers.New(
		venueService,
		roundService,
		ledgerService,
		chatService,
		settingsService,
		lineClient,
		adminAuth,
		hub,
		log,
	)

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close releases app resources
func (a *App) Close() error {
	return a.repo.Close()
}

// Run starts the HTTP server
func (a *App) Run(addr string) error {
	a.log.Info("Server starting", "addr", addr)
	return http.ListenAndServe(addr, a.Router())
}
