package handlers

import (
	"github.com/ekkaluck/bangfai-ledger/internal/auth"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/services"
	"github.com/ekkaluck/bangfai-ledger/internal/websocket"
	"github.com/ekkaluck/bangfai-ledger/pkg/linechat"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Venue    services.VenueServicer
	Round    services.RoundServicer
	Ledger   services.LedgerServicer
	Chat     services.ChatServicer
	Settings services.SettingsServicer
	Line     linechat.Client
	Auth     *auth.Auth
	Hub      *websocket.Hub
	Log      logger.Logger
}

// New creates a new Handlers instance with all dependencies
func New(
	venue services.VenueServicer,
	round services.RoundServicer,
	ledger services.LedgerServicer,
	chat services.ChatServicer,
	settings services.SettingsServicer,
	line linechat.Client,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Venue:    venue,
		Round:    round,
		Ledger:   ledger,
		Chat:     chat,
		Settings: settings,
		Line:     line,
		Auth:     adminAuth,
		Hub:      hub,
		Log:      log,
	}
}
