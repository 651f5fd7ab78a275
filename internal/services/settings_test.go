package services_test

import (
	"context"
	"testing"

	"github.com/ekkaluck/bangfai-ledger/internal/logger"
	"github.com/ekkaluck/bangfai-ledger/internal/services"
	"github.com/ekkaluck/bangfai-ledger/internal/testutil"
)

func setupSettingsService(t *testing.T) *services.SettingsService {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	return services.NewSettingsService(logger.New(), repo)
}

func TestGetSetting_MissingKeyReturnsEmpty(t *testing.T) {
	svc := setupSettingsService(t)

	value, err := svc.GetSetting(context.Background(), "no_such_key")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value, got %q", value)
	}
}

func TestSetSetting_RoundTrip(t *testing.T) {
	svc := setupSettingsService(t)
	ctx := context.Background()

	if err := svc.SetSetting(ctx, "house_name", "บ้านมะปราง"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	name, err := svc.HouseName(ctx)
	if err != nil {
		t.Fatalf("HouseName failed: %v", err)
	}
	if name != "บ้านมะปราง" {
		t.Errorf("expected house name, got %q", name)
	}
}

func TestOperators_RoundTrip(t *testing.T) {
	svc := setupSettingsService(t)
	ctx := context.Background()

	if err := svc.SetOperators(ctx, []string{"U1", "U2"}); err != nil {
		t.Fatalf("SetOperators failed: %v", err)
	}

	ops, err := svc.Operators(ctx)
	if err != nil {
		t.Fatalf("Operators failed: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operators, got %d", len(ops))
	}

	isOp, err := svc.IsOperator(ctx, "U1")
	if err != nil {
		t.Fatalf("IsOperator failed: %v", err)
	}
	if !isOp {
		t.Error("expected U1 to be an operator")
	}

	isOp, err = svc.IsOperator(ctx, "U9")
	if err != nil {
		t.Fatalf("IsOperator failed: %v", err)
	}
	if isOp {
		t.Error("expected U9 to not be an operator")
	}
}

func TestOperators_MalformedSettingTreatedAsEmpty(t *testing.T) {
	svc := setupSettingsService(t)
	ctx := context.Background()

	if err := svc.SetSetting(ctx, "operators", "not json"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	ops, err := svc.Operators(ctx)
	if err != nil {
		t.Fatalf("Operators failed: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("expected no operators, got %v", ops)
	}
}
