package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/repository/mock"
	"github.com/ekkaluck/bangfai-ledger/internal/services"
	"github.com/ekkaluck/bangfai-ledger/internal/testutil"
)

// setupMockServices wraps the in-memory repository in an error-injecting
// mock so storage failures can be simulated per method
func setupMockServices(t *testing.T) (*services.RoundService, *services.LedgerService, *mock.Repository, *models.Venue) {
	t.Helper()
	repo := mock.NewRepository(testutil.NewTestRepository(t))
	log := logger.New()
	locks := services.NewRoundLocks()
	roundSvc := services.NewRoundService(log, repo, locks, services.MultiplierPolicy(2.0))
	ledgerSvc := services.NewLedgerService(log, repo, locks)

	ctx := context.Background()
	id, err := repo.CreateVenue(ctx, models.Venue{Name: "มะปราง", GroupID: "G-test", Active: true})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}
	venue, err := repo.GetVenue(ctx, int(id))
	if err != nil {
		t.Fatalf("GetVenue failed: %v", err)
	}
	return roundSvc, ledgerSvc, repo, venue
}

func TestOpenRound_CreateFailure(t *testing.T) {
	roundSvc, _, repo, venue := setupMockServices(t)
	repo.CreateRoundError = stderrors.New("database locked")

	_, err := roundSvc.Open(context.Background(), venue.ID, 1)
	if err == nil {
		t.Error("expected storage error to surface")
	}
}

func TestRecord_SaveFailure(t *testing.T) {
	roundSvc, ledgerSvc, repo, venue := setupMockServices(t)
	if _, err := roundSvc.Open(context.Background(), venue.ID, 1); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	repo.SaveBetError = stderrors.New("database locked")

	_, err := ledgerSvc.Record(context.Background(), models.Bet{
		VenueID: venue.ID, Bettor: "U1", BetType: models.BetUpper, Amount: 100,
	})
	if err == nil {
		t.Error("expected storage error to surface")
	}
}

func TestCloseRound_StorageFailure(t *testing.T) {
	roundSvc, _, repo, venue := setupMockServices(t)
	ctx := context.Background()
	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	repo.MarkRoundClosedError = stderrors.New("database locked")

	if _, err := roundSvc.Close(ctx, round.ID); err == nil {
		t.Error("expected storage error to surface")
	}

	// Round stays open for a retry
	repo.MarkRoundClosedError = nil
	got, err := roundSvc.Get(ctx, round.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.RoundOpen {
		t.Errorf("expected round still open, got %q", got.Status)
	}
}

func TestSettleRound_StorageFailureLeavesRoundClosed(t *testing.T) {
	roundSvc, ledgerSvc, repo, venue := setupMockServices(t)
	ctx := context.Background()
	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := ledgerSvc.Record(ctx, models.Bet{
		VenueID: venue.ID, Bettor: "U1", BetType: models.BetUpper, Amount: 100,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	repo.ApplySettlementError = stderrors.New("database locked")

	if _, err := roundSvc.Settle(ctx, round.ID, []string{"U1"}); err == nil {
		t.Error("expected storage error to surface")
	}

	repo.ApplySettlementError = nil
	got, err := roundSvc.Get(ctx, round.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.RoundClosed {
		t.Errorf("expected round still closed after failed settle, got %q", got.Status)
	}

	// Retry succeeds
	if _, err := roundSvc.Settle(ctx, round.ID, []string{"U1"}); err != nil {
		t.Errorf("expected settle retry to succeed, got %v", err)
	}
}

func TestAggregatesFor_StorageFailure(t *testing.T) {
	roundSvc, ledgerSvc, repo, venue := setupMockServices(t)
	ctx := context.Background()
	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	repo.AggregatesForRoundError = stderrors.New("database locked")

	if _, err := ledgerSvc.AggregatesFor(ctx, round.ID); err == nil {
		t.Error("expected storage error to surface")
	}
}
