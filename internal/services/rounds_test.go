package services_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ekkaluck/bangfai-ledger/internal/errors"
	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/models"
	"github.com/ekkaluck/bangfai-ledger/internal/repository"
	"github.com/ekkaluck/bangfai-ledger/internal/services"
	"github.com/ekkaluck/bangfai-ledger/internal/testutil"
)

// setupRoundServices creates round and ledger services sharing one lock
// table, plus a registered venue, for testing
func setupRoundServices(t *testing.T) (*services.RoundService, *services.LedgerService, *repository.Repository, *models.Venue) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	log := logger.New()
	locks := services.NewRoundLocks()
	roundSvc := services.NewRoundService(log, repo, locks, services.MultiplierPolicy(2.0))
	ledgerSvc := services.NewLedgerService(log, repo, locks)

	ctx := context.Background()
	id, err := repo.CreateVenue(ctx, models.Venue{
		Name:    "มะปราง",
		Aliases: []string{"ชล"},
		GroupID: "G-test",
		Active:  true,
	})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}
	venue, err := repo.GetVenue(ctx, int(id))
	if err != nil {
		t.Fatalf("GetVenue failed: %v", err)
	}
	return roundSvc, ledgerSvc, repo, venue
}

// assertKind fails unless err is an application error of the given kind
func assertKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	if appErr.Kind != kind {
		t.Errorf("expected kind %d, got %d (%v)", kind, appErr.Kind, err)
	}
}

func recordBet(t *testing.T, ledgerSvc *services.LedgerService, venueID int, bettor string, amount int64) *models.Bet {
	t.Helper()
	bet, err := ledgerSvc.Record(context.Background(), models.Bet{
		VenueID:    venueID,
		Bettor:     bettor,
		FireworkID: "295-108-1",
		BetType:    models.BetUpper,
		Amount:     amount,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	return bet
}

func TestOpenRound_CreatesOpenRound(t *testing.T) {
	roundSvc, _, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 3)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if round.Status != models.RoundOpen {
		t.Errorf("expected status %q, got %q", models.RoundOpen, round.Status)
	}
	if round.FireworkNumber != 3 {
		t.Errorf("expected firework number 3, got %d", round.FireworkNumber)
	}
}

func TestOpenRound_SecondOpenRoundRejected(t *testing.T) {
	roundSvc, _, _, venue := setupRoundServices(t)
	ctx := context.Background()

	if _, err := roundSvc.Open(ctx, venue.ID, 1); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, err := roundSvc.Open(ctx, venue.ID, 2)
	assertKind(t, err, errors.ErrInvalidState)
}

func TestOpenRound_InactiveVenueRejected(t *testing.T) {
	roundSvc, _, repo, venue := setupRoundServices(t)
	ctx := context.Background()

	if err := repo.SetVenueActive(ctx, venue.ID, false); err != nil {
		t.Fatalf("SetVenueActive failed: %v", err)
	}
	_, err := roundSvc.Open(ctx, venue.ID, 1)
	assertKind(t, err, errors.ErrInvalidState)
}

func TestCloseRound_ClosesOpenRound(t *testing.T) {
	roundSvc, _, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	closed, err := roundSvc.Close(ctx, round.ID)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if closed.Status != models.RoundClosed {
		t.Errorf("expected status %q, got %q", models.RoundClosed, closed.Status)
	}
	if closed.ClosedAt == nil {
		t.Error("expected ClosedAt to be set")
	}
}

func TestCloseRound_CloseTwiceRejected(t *testing.T) {
	roundSvc, _, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = roundSvc.Close(ctx, round.ID)
	assertKind(t, err, errors.ErrInvalidState)
}

func TestSettle_OpenRoundRejected(t *testing.T) {
	roundSvc, _, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, err = roundSvc.Settle(ctx, round.ID, []string{"U1"})
	assertKind(t, err, errors.ErrInvalidState)
}

func TestSettle_ComputesAggregates(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 100)
	recordBet(t, ledgerSvc, venue.ID, "U2", 200)
	recordBet(t, ledgerSvc, venue.ID, "U3", 300)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	settlement, err := roundSvc.Settle(ctx, round.ID, []string{"U2"})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	if settlement.TotalBets != 3 {
		t.Errorf("expected 3 bets, got %d", settlement.TotalBets)
	}
	if settlement.TotalRevenue != 600 {
		t.Errorf("expected revenue 600, got %d", settlement.TotalRevenue)
	}
	// MultiplierPolicy(2.0) pays 400 for U2's 200 stake
	if settlement.TotalPayout != 400 {
		t.Errorf("expected payout 400, got %d", settlement.TotalPayout)
	}
	if settlement.Profit != 200 {
		t.Errorf("expected profit 200, got %d", settlement.Profit)
	}

	settled, err := roundSvc.Get(ctx, round.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if settled.Status != models.RoundSettled {
		t.Errorf("expected status %q, got %q", models.RoundSettled, settled.Status)
	}
}

func TestSettle_MarksBetResults(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 100)
	recordBet(t, ledgerSvc, venue.ID, "U2", 200)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := roundSvc.Settle(ctx, round.ID, []string{"U1"}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	bets, err := ledgerSvc.BetsByRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("BetsByRound failed: %v", err)
	}
	for _, bet := range bets {
		want := models.BetLose
		if bet.Bettor == "U1" {
			want = models.BetWin
		}
		if bet.Result != want {
			t.Errorf("bettor %s: expected result %q, got %q", bet.Bettor, want, bet.Result)
		}
	}
}

func TestSettle_WinnerWithMultipleBetsPaidOnEach(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 100)
	recordBet(t, ledgerSvc, venue.ID, "U1", 50)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	settlement, err := roundSvc.Settle(ctx, round.ID, []string{"U1"})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if settlement.TotalPayout != 300 {
		t.Errorf("expected payout 300, got %d", settlement.TotalPayout)
	}
}

func TestSettle_EmptyWinnerSetKeepsRevenue(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 500)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	settlement, err := roundSvc.Settle(ctx, round.ID, nil)
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if settlement.TotalPayout != 0 {
		t.Errorf("expected payout 0, got %d", settlement.TotalPayout)
	}
	if settlement.Profit != 500 {
		t.Errorf("expected profit 500, got %d", settlement.Profit)
	}
}

func TestSettle_ProfitMayBeNegative(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 400)
	recordBet(t, ledgerSvc, venue.ID, "U2", 100)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	settlement, err := roundSvc.Settle(ctx, round.ID, []string{"U1"})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if settlement.Profit != -300 {
		t.Errorf("expected profit -300, got %d", settlement.Profit)
	}
}

func TestSettle_SettleTwiceRejected(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 100)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := roundSvc.Settle(ctx, round.ID, []string{"U1"}); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	// Retrying with a different winner set must not recompute anything.
	_, err = roundSvc.Settle(ctx, round.ID, []string{"U2"})
	assertKind(t, err, errors.ErrInvalidState)
}

func TestSettle_WinnerWithoutBetsIsValid(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 100)
	if _, err := roundSvc.Close(ctx, round.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	settlement, err := roundSvc.Settle(ctx, round.ID, []string{"nobody"})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if settlement.TotalPayout != 0 {
		t.Errorf("expected payout 0, got %d", settlement.TotalPayout)
	}
}

func TestReport_ReturnsRoundWithBets(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	recordBet(t, ledgerSvc, venue.ID, "U1", 100)
	recordBet(t, ledgerSvc, venue.ID, "U2", 200)

	report, err := roundSvc.Report(ctx, round.ID)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.Round.ID != round.ID {
		t.Errorf("expected round %d, got %d", round.ID, report.Round.ID)
	}
	if len(report.Bets) != 2 {
		t.Errorf("expected 2 bets, got %d", len(report.Bets))
	}
}

func TestCloseRound_ConcurrentRecordsStayConsistent(t *testing.T) {
	roundSvc, ledgerSvc, _, venue := setupRoundServices(t)
	ctx := context.Background()

	round, err := roundSvc.Open(ctx, venue.ID, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// Race many records against one close on the same round. Every record
	// either lands while the round is still open or is rejected; a bet must
	// never be stored without showing up in the round's aggregates.
	const bettors = 50
	var recorded int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	unexpected := make(chan error, bettors)

	for i := 0; i < bettors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := ledgerSvc.Record(ctx, models.Bet{
				VenueID: venue.ID,
				Bettor:  fmt.Sprintf("U%d", i),
				BetType: models.BetUpper,
				Amount:  100,
			})
			if err == nil {
				atomic.AddInt64(&recorded, 1)
				return
			}
			// Losing the race surfaces as closed-round rejection or, when
			// the close committed first, as no open round to resolve
			var appErr *errors.Error
			if !stderrors.As(err, &appErr) ||
				(appErr.Kind != errors.ErrInvalidState && appErr.Kind != errors.ErrNotFound) {
				unexpected <- err
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		if _, err := roundSvc.Close(ctx, round.ID); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	close(start)
	wg.Wait()
	close(unexpected)
	for err := range unexpected {
		t.Errorf("unexpected record error during race: %v", err)
	}

	got, err := roundSvc.Get(ctx, round.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.RoundClosed {
		t.Fatalf("expected round closed after race, got %q", got.Status)
	}

	agg, err := ledgerSvc.AggregatesFor(ctx, round.ID)
	if err != nil {
		t.Fatalf("AggregatesFor failed: %v", err)
	}
	if int64(agg.Count) != recorded {
		t.Errorf("expected %d bets in aggregates, got %d", recorded, agg.Count)
	}
	if agg.Sum != recorded*100 {
		t.Errorf("expected sum %d, got %d", recorded*100, agg.Sum)
	}

	bets, err := ledgerSvc.BetsByRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("BetsByRound failed: %v", err)
	}
	if int64(len(bets)) != recorded {
		t.Errorf("expected %d stored bets, got %d", recorded, len(bets))
	}

	// The close froze the ledger; late records are rejected
	_, err = ledgerSvc.Record(ctx, models.Bet{
		VenueID: venue.ID, Bettor: "late", BetType: models.BetUpper, Amount: 100,
	})
	assertKind(t, err, errors.ErrNotFound)
}
