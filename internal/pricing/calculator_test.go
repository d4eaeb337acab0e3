package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/JillVernus/claude-relay-service/internal/cache"
	"github.com/JillVernus/claude-relay-service/internal/config"
	"github.com/JillVernus/claude-relay-service/internal/models"
)

func testTable() *Table {
	return NewTable(map[string]ModelPrice{
		"model-a": {
			Input:      decimal.NewFromFloat(3.0),
			Output:     decimal.NewFromFloat(15.0),
			CacheWrite: decimal.NewFromFloat(3.75),
			CacheRead:  decimal.NewFromFloat(0.3),
		},
	})
}

func newTestCalculator(t *testing.T) (*Calculator, *Store) {
	t.Helper()
	store, _ := newTestPricingStore(t)
	return NewCalculator(testTable(), store), store
}

func TestCalculateBaseBreakdown(t *testing.T) {
	calc, _ := newTestCalculator(t)

	usage := models.TokenUsage{
		InputTokens:              1_000_000,
		OutputTokens:             2_000_000,
		CacheCreationInputTokens: 400_000,
		CacheReadInputTokens:     100_000,
	}
	info, ok := calc.Calculate(usage, "model-a")
	if !ok {
		t.Fatal("Calculate returned !ok for known model")
	}

	costs := info.Costs
	if costs.Input != 3.0 || costs.Output != 30.0 || costs.CacheWrite != 1.5 || costs.CacheRead != 0.03 {
		t.Errorf("breakdown = %+v", costs)
	}
	if costs.Total != costs.Input+costs.Output+costs.CacheWrite+costs.CacheRead {
		t.Errorf("total %v is not the exact sum of components", costs.Total)
	}
	if info.Multipliers != nil || info.OriginalCosts != nil {
		t.Error("base calculation must not carry multiplier provenance")
	}
}

func TestCalculateUnknownModel(t *testing.T) {
	calc, _ := newTestCalculator(t)

	if _, ok := calc.Calculate(models.TokenUsage{InputTokens: 100}, "mystery-model"); ok {
		t.Error("expected !ok for model without a price table entry")
	}
}

func TestCalculateZeroUsage(t *testing.T) {
	calc, _ := newTestCalculator(t)

	info, ok := calc.Calculate(models.TokenUsage{}, "model-a")
	if !ok {
		t.Fatal("Calculate returned !ok")
	}
	if info.Costs.Total != 0 {
		t.Errorf("zero usage total = %v, want 0", info.Costs.Total)
	}
}

func TestCalculateWithAccountUnsupportedType(t *testing.T) {
	calc, store := newTestCalculator(t)
	ctx := context.Background()

	// Overrides exist, but the account type does not participate.
	if err := store.SetPricing(ctx, "acct-1", models.AccountPricing{"model-a": {"input": 2.0}}); err != nil {
		t.Fatalf("SetPricing failed: %v", err)
	}

	usage := models.TokenUsage{InputTokens: 1_000_000}
	base, _ := calc.Calculate(usage, "model-a")

	info, ok := calc.CalculateWithAccount(ctx, usage, "model-a", "claude", "acct-1")
	if !ok {
		t.Fatal("CalculateWithAccount returned !ok")
	}
	if info.Costs != base.Costs || info.Multipliers != nil {
		t.Errorf("unsupported account type altered the breakdown: %+v", info)
	}
}

func TestCalculateWithAccountDefaultMultipliers(t *testing.T) {
	calc, store := newTestCalculator(t)
	ctx := context.Background()

	// All-1.0 overrides are indistinguishable from no overrides.
	if err := store.SetPricing(ctx, "acct-1", models.AccountPricing{"model-a": {"input": 1.0, "output": 1.0}}); err != nil {
		t.Fatalf("SetPricing failed: %v", err)
	}

	usage := models.TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	base, _ := calc.Calculate(usage, "model-a")

	info, _ := calc.CalculateWithAccount(ctx, usage, "model-a", "claude-console", "acct-1")
	if info.Costs != base.Costs {
		t.Errorf("default multipliers changed the breakdown: %+v vs %+v", info.Costs, base.Costs)
	}
	if info.Multipliers != nil {
		t.Error("default multipliers must not attach provenance")
	}
}

func TestCalculateWithAccountAppliesMultipliers(t *testing.T) {
	calc, store := newTestCalculator(t)
	ctx := context.Background()

	if err := store.SetPricing(ctx, "acct-1", models.AccountPricing{
		"model-a": {"input": 2.0, "output": 0.5, "cacheCreate": 3.0, "cacheRead": 0},
	}); err != nil {
		t.Fatalf("SetPricing failed: %v", err)
	}

	usage := models.TokenUsage{
		InputTokens:              1_000_000,
		OutputTokens:             1_000_000,
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}
	base, _ := calc.Calculate(usage, "model-a")

	info, ok := calc.CalculateWithAccount(ctx, usage, "model-a", "claude-console", "acct-1")
	if !ok {
		t.Fatal("CalculateWithAccount returned !ok")
	}

	costs := info.Costs
	if costs.Input != base.Costs.Input*2.0 {
		t.Errorf("input = %v, want %v", costs.Input, base.Costs.Input*2.0)
	}
	if costs.Output != base.Costs.Output*0.5 {
		t.Errorf("output = %v, want %v", costs.Output, base.Costs.Output*0.5)
	}
	if costs.CacheWrite != base.Costs.CacheWrite*3.0 {
		t.Errorf("cacheWrite = %v, want %v", costs.CacheWrite, base.Costs.CacheWrite*3.0)
	}
	if costs.CacheRead != 0 {
		t.Errorf("cacheRead = %v, want 0", costs.CacheRead)
	}
	if costs.Total != costs.Input+costs.Output+costs.CacheWrite+costs.CacheRead {
		t.Errorf("adjusted total %v is not the exact sum", costs.Total)
	}

	if info.Multipliers == nil || !info.Multipliers.Applied {
		t.Fatal("expected multiplier provenance")
	}
	if info.Multipliers.AccountID != "acct-1" || info.Multipliers.AccountType != "claude-console" {
		t.Errorf("provenance = %+v", info.Multipliers)
	}
	if info.OriginalCosts == nil || *info.OriginalCosts != base.Costs {
		t.Errorf("original costs = %+v, want base %+v", info.OriginalCosts, base.Costs)
	}
}

func TestCalculateWithAccountStoreDownDegradesToBase(t *testing.T) {
	store := NewStore(&cache.Redis{}, &config.PricingConfig{KeyPrefix: "account_pricing:"})
	calc := NewCalculator(testTable(), store)

	usage := models.TokenUsage{InputTokens: 1_000_000}
	base, _ := calc.Calculate(usage, "model-a")

	info, ok := calc.CalculateWithAccount(context.Background(), usage, "model-a", "claude-console", "acct-1")
	if !ok || info.Costs != base.Costs {
		t.Errorf("store outage must degrade to base breakdown: %+v", info)
	}
}

func TestFormatCost(t *testing.T) {
	if got := FormatCost(12.3456); got != "$12.35" {
		t.Errorf("FormatCost(12.3456) = %q", got)
	}
	if got := FormatCost(0.000123); got != "$0.000123" {
		t.Errorf("FormatCost(0.000123) = %q", got)
	}
}
