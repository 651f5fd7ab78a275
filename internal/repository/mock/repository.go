package mock

import (
	"context"
	"time"

	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database
// manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveBetError = errors.New("database error")
//	svc := services.NewLedgerService(log, mockRepo, locks)
//	_, err := svc.Record(ctx, bet)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Venue Errors =====
	ListVenuesError       error
	GetVenueError         error
	FindVenueByNameError  error
	FindVenueByGroupError error
	CreateVenueError      error
	UpdateVenueError      error
	SetVenueActiveError   error

	// ===== Round Errors =====
	GetRoundError        error
	ListRoundsError      error
	FindOpenRoundError   error
	CreateRoundError     error
	MarkRoundClosedError error
	ApplySettlementError error

	// ===== Bet Errors =====
	SaveBetError            error
	ListBetsByRoundError    error
	AggregatesForRoundError error

	// ===== Settings Errors =====
	GetSettingError  error
	SetSettingError  error
	AllSettingsError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

func (m *Repository) ListVenues(ctx context.Context) ([]models.Venue, error) {
	if m.ListVenuesError != nil {
		return nil, m.ListVenuesError
	}
	return m.FullRepository.ListVenues(ctx)
}

func (m *Repository) GetVenue(ctx context.Context, id int) (*models.Venue, error) {
	if m.GetVenueError != nil {
		return nil, m.GetVenueError
	}
	return m.FullRepository.GetVenue(ctx, id)
}

func (m *Repository) FindVenueByName(ctx context.Context, nameOrAlias string) (*models.Venue, error) {
	if m.FindVenueByNameError != nil {
		return nil, m.FindVenueByNameError
	}
	return m.FullRepository.FindVenueByName(ctx, nameOrAlias)
}

func (m *Repository) FindVenueByGroup(ctx context.Context, groupID string) (*models.Venue, error) {
	if m.FindVenueByGroupError != nil {
		return nil, m.FindVenueByGroupError
	}
	return m.FullRepository.FindVenueByGroup(ctx, groupID)
}

func (m *Repository) CreateVenue(ctx context.Context, v models.Venue) (int64, error) {
	if m.CreateVenueError != nil {
		return 0, m.CreateVenueError
	}
	return m.FullRepository.CreateVenue(ctx, v)
}

func (m *Repository) UpdateVenue(ctx context.Context, id int, name string, aliases []string, groupID, roomLink, paymentLink string) error {
	if m.UpdateVenueError != nil {
		return m.UpdateVenueError
	}
	return m.FullRepository.UpdateVenue(ctx, id, name, aliases, groupID, roomLink, paymentLink)
}

func (m *Repository) SetVenueActive(ctx context.Context, id int, active bool) error {
	if m.SetVenueActiveError != nil {
		return m.SetVenueActiveError
	}
	return m.FullRepository.SetVenueActive(ctx, id, active)
}

func (m *Repository) GetRound(ctx context.Context, id int) (*models.Round, error) {
	if m.GetRoundError != nil {
		return nil, m.GetRoundError
	}
	return m.FullRepository.GetRound(ctx, id)
}

func (m *Repository) ListRounds(ctx context.Context, venueID int, status models.RoundStatus) ([]models.Round, error) {
	if m.ListRoundsError != nil {
		return nil, m.ListRoundsError
	}
	return m.FullRepository.ListRounds(ctx, venueID, status)
}

func (m *Repository) FindOpenRound(ctx context.Context, venueID int) (*models.Round, error) {
	if m.FindOpenRoundError != nil {
		return nil, m.FindOpenRoundError
	}
	return m.FullRepository.FindOpenRound(ctx, venueID)
}

func (m *Repository) CreateRound(ctx context.Context, venueID, fireworkNumber int) (int64, error) {
	if m.CreateRoundError != nil {
		return 0, m.CreateRoundError
	}
	return m.FullRepository.CreateRound(ctx, venueID, fireworkNumber)
}

func (m *Repository) MarkRoundClosed(ctx context.Context, id int, closedAt time.Time) error {
	if m.MarkRoundClosedError != nil {
		return m.MarkRoundClosedError
	}
	return m.FullRepository.MarkRoundClosed(ctx, id, closedAt)
}

func (m *Repository) ApplySettlement(ctx context.Context, roundID int, winners []string, s models.Settlement) error {
	if m.ApplySettlementError != nil {
		return m.ApplySettlementError
	}
	return m.FullRepository.ApplySettlement(ctx, roundID, winners, s)
}

func (m *Repository) SaveBet(ctx context.Context, bet models.Bet) (*models.Bet, error) {
	if m.SaveBetError != nil {
		return nil, m.SaveBetError
	}
	return m.FullRepository.SaveBet(ctx, bet)
}

func (m *Repository) ListBetsByRound(ctx context.Context, roundID int) ([]models.Bet, error) {
	if m.ListBetsByRoundError != nil {
		return nil, m.ListBetsByRoundError
	}
	return m.FullRepository.ListBetsByRound(ctx, roundID)
}

func (m *Repository) AggregatesForRound(ctx context.Context, roundID int) (*models.RoundAggregates, error) {
	if m.AggregatesForRoundError != nil {
		return nil, m.AggregatesForRoundError
	}
	return m.FullRepository.AggregatesForRound(ctx, roundID)
}

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) AllSettings(ctx context.Context) (map[string]string, error) {
	if m.AllSettingsError != nil {
		return nil, m.AllSettingsError
	}
	return m.FullRepository.AllSettings(ctx)
}
