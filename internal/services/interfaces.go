package services

import (
	"context"

	"github.com/ekkaluck/bangfai-ledger/internal/models"
)

// VenueServicer defines the interface for venue operations
type VenueServicer interface {
	List(ctx context.Context) ([]models.Venue, error)
	Get(ctx context.Context, id int) (*models.Venue, error)
	Create(ctx context.Context, in VenueInput) (*models.Venue, error)
	Update(ctx context.Context, id int, in VenueInput) (*models.Venue, error)
	Deactivate(ctx context.Context, id int) error
	Resolve(ctx context.Context, nameOrAlias string) (*models.Venue, error)
	ResolveGroup(ctx context.Context, groupID string) (*models.Venue, error)
	PaymentQR(ctx context.Context, id int) ([]byte, error)
}

// RoundServicer defines the interface for round lifecycle operations
type RoundServicer interface {
	Open(ctx context.Context, venueID, fireworkNumber int) (*models.Round, error)
	Get(ctx context.Context, id int) (*models.Round, error)
	List(ctx context.Context, venueID int, status models.RoundStatus) ([]models.Round, error)
	OpenForVenue(ctx context.Context, venueID int) (*models.Round, error)
	Close(ctx context.Context, id int) (*models.Round, error)
	Settle(ctx context.Context, id int, winnerIDs []string) (*models.Settlement, error)
	Report(ctx context.Context, id int) (*RoundReport, error)
}

// LedgerServicer defines the interface for bet recording and queries
type LedgerServicer interface {
	Record(ctx context.Context, bet models.Bet) (*models.Bet, error)
	AggregatesFor(ctx context.Context, roundID int) (*models.RoundAggregates, error)
	BetsByRound(ctx context.Context, roundID int) ([]models.Bet, error)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)
	HouseName(ctx context.Context) (string, error)
	Operators(ctx context.Context) ([]string, error)
	SetOperators(ctx context.Context, ids []string) error
	IsOperator(ctx context.Context, id string) (bool, error)
}

// ChatServicer defines the interface for inbound chat handling
type ChatServicer interface {
	HandleMessage(ctx context.Context, ev models.InboundEvent) error
}

var _ VenueServicer = (*VenueService)(nil)
var _ RoundServicer = (*RoundService)(nil)
var _ LedgerServicer = (*LedgerService)(nil)
var _ SettingsServicer = (*SettingsService)(nil)
var _ ChatServicer = (*ChatService)(nil)
