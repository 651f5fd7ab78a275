package services

import (
	"context"
	"time"

	"github.com/ekkaluck/bangfai-ledger/internal/errors"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
)

// RoundServiceRepository defines the repository methods needed by RoundService
type RoundServiceRepository interface {
	repository.RoundRepository
	repository.BetRepository
	repository.VenueRepository
}

// RoundService owns the round state machine: open -> closed -> settled,
// strictly forward, and the one-shot settlement computation.
type RoundService struct {
	log         logger.Logger
	repo        RoundServiceRepository
	locks       *RoundLocks
	payout      PayoutPolicy
	broadcaster Broadcaster
}

// NewRoundService creates a new RoundService
func NewRoundService(log logger.Logger, repo RoundServiceRepository, locks *RoundLocks, payout PayoutPolicy) *RoundService {
	return &RoundService{log: log, repo: repo, locks: locks, payout: payout}
}

// SetBroadcaster sets the broadcaster for live dashboard updates
func (s *RoundService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *RoundService) broadcast(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(event, payload)
	}
}

// Open creates a new round for a venue. A venue holds at most one open
// round at a time.
func (s *RoundService) Open(ctx context.Context, venueID, fireworkNumber int) (*models.Round, error) {
	venue, err := s.repo.GetVenue(ctx, venueID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("venue %d not found", venueID)
	}
	if err != nil {
		return nil, err
	}
	if !venue.Active {
		return nil, errors.InvalidStatef("venue %q is not active", venue.Name)
	}
	if fireworkNumber <= 0 {
		return nil, errors.Validation("firework number must be positive")
	}

	if open, err := s.repo.FindOpenRound(ctx, venueID); err == nil {
		return nil, errors.InvalidStatef("venue %q already has round %d open", venue.Name, open.FireworkNumber)
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	id, err := s.repo.CreateRound(ctx, venueID, fireworkNumber)
	if err != nil {
		return nil, err
	}
	round, err := s.repo.GetRound(ctx, int(id))
	if err != nil {
		return nil, err
	}

	s.log.Info("Round opened", "round_id", round.ID, "venue", venue.Name, "firework_number", fireworkNumber)
	s.broadcast("round_opened", round)
	return round, nil
}

// Get retrieves a round by id
func (s *RoundService) Get(ctx context.Context, id int) (*models.Round, error) {
	round, err := s.repo.GetRound(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("round %d not found", id)
	}
	return round, err
}

// List returns rounds filtered by venue and/or status (zero values mean
// no filter)
func (s *RoundService) List(ctx context.Context, venueID int, status models.RoundStatus) ([]models.Round, error) {
	return s.repo.ListRounds(ctx, venueID, status)
}

// OpenForVenue returns the venue's currently open round
func (s *RoundService) OpenForVenue(ctx context.Context, venueID int) (*models.Round, error) {
	round, err := s.repo.FindOpenRound(ctx, venueID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("venue %d has no open round", venueID)
	}
	return round, err
}

// Close flips an open round to closed. After this the ledger rejects new
// bets for the round. Closing twice is an error, not a no-op.
func (s *RoundService) Close(ctx context.Context, id int) (*models.Round, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	round, err := s.repo.GetRound(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("round %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	switch round.Status {
	case models.RoundClosed:
		return nil, errors.InvalidStatef("round %d is already closed", id)
	case models.RoundSettled:
		return nil, errors.InvalidStatef("round %d is already settled", id)
	}

	if err := s.repo.MarkRoundClosed(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	round, err = s.repo.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("Round closed", "round_id", id)
	s.broadcast("round_closed", round)
	return round, nil
}

// Settle partitions the round's bets by the winner set, computes the
// frozen aggregates, and applies everything in one shot. The round must
// already be closed; a settled round is never recomputed, a retry gets an
// invalid-state error so a changed winner set can never double-count.
func (s *RoundService) Settle(ctx context.Context, id int, winnerIDs []string) (*models.Settlement, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	round, err := s.repo.GetRound(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("round %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	switch round.Status {
	case models.RoundOpen:
		return nil, errors.InvalidStatef("round %d must be closed before settlement", id)
	case models.RoundSettled:
		return nil, errors.InvalidStatef("round %d is already settled", id)
	}

	bets, err := s.repo.ListBetsByRound(ctx, id)
	if err != nil {
		return nil, err
	}

	winners := make(map[string]bool, len(winnerIDs))
	for _, w := range winnerIDs {
		winners[w] = true
	}

	settlement := models.Settlement{
		RoundID:   id,
		Winners:   winnerIDs,
		TotalBets: len(bets),
	}
	if settlement.Winners == nil {
		settlement.Winners = []string{}
	}
	for _, bet := range bets {
		settlement.TotalRevenue += bet.Amount
		if winners[bet.Bettor] {
			settlement.TotalPayout += s.payout(bet.Amount)
		}
	}
	// Profit may be negative; the house losing a round is a valid outcome.
	settlement.Profit = settlement.TotalRevenue - settlement.TotalPayout

	if err := s.repo.ApplySettlement(ctx, id, settlement.Winners, settlement); err != nil {
		return nil, err
	}

	s.log.Info("Round settled", "round_id", id,
		"total_bets", settlement.TotalBets,
		"revenue", settlement.TotalRevenue,
		"payout", settlement.TotalPayout,
		"profit", settlement.Profit)
	s.broadcast("round_settled", settlement)
	return &settlement, nil
}

// RoundReport is a settled or in-progress round with its bets
type RoundReport struct {
	Round models.Round `json:"round"`
	Bets  []models.Bet `json:"bets"`
}

// Report returns a round together with every bet recorded against it
func (s *RoundService) Report(ctx context.Context, id int) (*RoundReport, error) {
	round, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	bets, err := s.repo.ListBetsByRound(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoundReport{Round: *round, Bets: bets}, nil
}
