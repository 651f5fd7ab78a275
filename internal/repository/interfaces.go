package repository

import (
	"context"
	"time"

	"github.com/ekkaluck/bangfai-ledger/internal/models"
)

// VenueRepository defines venue registry operations
type VenueRepository interface {
	ListVenues(ctx context.Context) ([]models.Venue, error)
	GetVenue(ctx context.Context, id int) (*models.Venue, error)
	FindVenueByName(ctx context.Context, nameOrAlias string) (*models.Venue, error)
	FindVenueByGroup(ctx context.Context, groupID string) (*models.Venue, error)
	CreateVenue(ctx context.Context, v models.Venue) (int64, error)
	UpdateVenue(ctx context.Context, id int, name string, aliases []string, groupID, roomLink, paymentLink string) error
	SetVenueActive(ctx context.Context, id int, active bool) error
}

// RoundRepository defines round lifecycle persistence
type RoundRepository interface {
	GetRound(ctx context.Context, id int) (*models.Round, error)
	ListRounds(ctx context.Context, venueID int, status models.RoundStatus) ([]models.Round, error)
	FindOpenRound(ctx context.Context, venueID int) (*models.Round, error)
	CreateRound(ctx context.Context, venueID, fireworkNumber int) (int64, error)
	MarkRoundClosed(ctx context.Context, id int, closedAt time.Time) error
	// ApplySettlement writes every bet result and the round's frozen
	// aggregates in a single transaction, so an interrupted settlement
	// leaves the round recoverable as not yet settled.
	ApplySettlement(ctx context.Context, roundID int, winners []string, s models.Settlement) error
}

// BetRepository defines the append-only bet ledger persistence
type BetRepository interface {
	SaveBet(ctx context.Context, bet models.Bet) (*models.Bet, error)
	ListBetsByRound(ctx context.Context, roundID int) ([]models.Bet, error)
	AggregatesForRound(ctx context.Context, roundID int) (*models.RoundAggregates, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)
}

// FullRepository combines all repository interfaces.
// Use this when a service needs access to multiple domains.
type FullRepository interface {
	VenueRepository
	RoundRepository
	BetRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
