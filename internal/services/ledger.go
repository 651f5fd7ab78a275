package services

import (
	"context"

	"github.com/ekkaluck/bangfai-ledger/internal/errors"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
)

// LedgerServiceRepository defines the repository methods needed by LedgerService
type LedgerServiceRepository interface {
	repository.BetRepository
	repository.RoundRepository
}

// LedgerService owns the append-only bet ledger. Recording takes the same
// per-round lock as close/settle, so a bet either lands while the round is
// still open or is rejected; it can never be recorded and then excluded
// from settlement totals.
type LedgerService struct {
	log         logger.Logger
	repo        LedgerServiceRepository
	locks       *RoundLocks
	broadcaster Broadcaster
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(log logger.Logger, repo LedgerServiceRepository, locks *RoundLocks) *LedgerService {
	return &LedgerService{log: log, repo: repo, locks: locks}
}

// SetBroadcaster sets the broadcaster for live dashboard updates
func (s *LedgerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Record validates and appends a bet. The bet's RoundID may be zero, in
// which case the venue's currently open round is resolved; either way the
// target round must be open at insert time.
func (s *LedgerService) Record(ctx context.Context, bet models.Bet) (*models.Bet, error) {
	if bet.Amount <= 0 {
		return nil, errors.Validation("bet amount must be positive")
	}
	if bet.Bettor == "" {
		return nil, errors.Validation("bettor is required")
	}
	if bet.BetType == "" {
		return nil, errors.Validation("bet type is required")
	}

	roundID := bet.RoundID
	if roundID == 0 {
		open, err := s.repo.FindOpenRound(ctx, bet.VenueID)
		if err == repository.ErrNotFound {
			return nil, errors.NotFoundf("venue %d has no open round", bet.VenueID)
		}
		if err != nil {
			return nil, err
		}
		roundID = open.ID
	}

	unlock := s.locks.Lock(roundID)
	defer unlock()

	// Re-read under the lock: a close may have won the race.
	round, err := s.repo.GetRound(ctx, roundID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("round %d not found", roundID)
	}
	if err != nil {
		return nil, err
	}
	if round.Status != models.RoundOpen {
		return nil, errors.InvalidStatef("round %d is %s, not accepting bets", roundID, round.Status)
	}

	bet.RoundID = roundID
	bet.VenueID = round.VenueID
	stored, err := s.repo.SaveBet(ctx, bet)
	if err != nil {
		return nil, err
	}

	s.log.Info("Bet recorded", "bet_id", stored.ID, "round_id", roundID,
		"bettor", stored.Bettor, "bet_type", stored.BetType, "amount", stored.Amount)
	if s.broadcaster != nil {
		s.broadcaster.Broadcast("bet_recorded", stored)
	}
	return stored, nil
}

// AggregatesFor returns the count and amount sum for a round
func (s *LedgerService) AggregatesFor(ctx context.Context, roundID int) (*models.RoundAggregates, error) {
	return s.repo.AggregatesForRound(ctx, roundID)
}

// BetsByRound returns every bet recorded against a round
func (s *LedgerService) BetsByRound(ctx context.Context, roundID int) ([]models.Bet, error) {
	return s.repo.ListBetsByRound(ctx, roundID)
}
