package pricing

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/JillVernus/claude-relay-service/internal/models"
)

var multiplierKeys = []string{"input", "output", "cacheCreate", "cacheRead"}

// TestProperty_Validation_AcceptsInRangeRejectsOutOfRange checks that
// every multiplier value in [0,10] under a recognized key is accepted,
// and any value outside the range is rejected without persisting.
func TestProperty_Validation_AcceptsInRangeRejectsOutOfRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		key := multiplierKeys[rapid.IntRange(0, len(multiplierKeys)-1).Draw(rt, "keyIdx")]

		valid := rapid.Float64Range(0, 10).Draw(rt, "valid")
		if err := ValidateMultipliers(models.ModelMultipliers{key: valid}); err != nil {
			rt.Fatalf("value %v under key %s rejected: %v", valid, key, err)
		}

		tooHigh := rapid.Float64Range(10.000001, 1e6).Draw(rt, "tooHigh")
		if err := ValidateMultipliers(models.ModelMultipliers{key: tooHigh}); err == nil {
			rt.Fatalf("value %v accepted, want rejection", tooHigh)
		}

		negative := rapid.Float64Range(-1e6, -0.000001).Draw(rt, "negative")
		if err := ValidateMultipliers(models.ModelMultipliers{key: negative}); err == nil {
			rt.Fatalf("value %v accepted, want rejection", negative)
		}
	})
}

// TestProperty_GetMultipliers_ResolutionPriority checks the
// model-specific -> _default -> system-default resolution chain for
// arbitrary stored values.
func TestProperty_GetMultipliers_ResolutionPriority(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store, _ := newTestPricingStore(t)
		ctx := context.Background()

		modelValue := rapid.Float64Range(0, 10).Draw(rt, "modelValue")
		defaultValue := rapid.Float64Range(0, 10).Draw(rt, "defaultValue")

		err := store.SetPricing(ctx, "acct", models.AccountPricing{
			"model-a":  {"input": modelValue},
			"_default": {"input": defaultValue},
		})
		if err != nil {
			rt.Fatalf("SetPricing failed: %v", err)
		}

		if got := store.GetMultipliers(ctx, "acct", "model-a"); got.Input != modelValue {
			rt.Fatalf("model-a input = %v, want model-specific %v", got.Input, modelValue)
		}
		if got := store.GetMultipliers(ctx, "acct", "model-b"); got.Input != defaultValue {
			rt.Fatalf("model-b input = %v, want _default %v", got.Input, defaultValue)
		}
		if got := store.GetMultipliers(ctx, "other", "model-a"); !got.IsDefault() {
			rt.Fatalf("unknown account multipliers = %+v, want system default", got)
		}
	})
}

// TestProperty_CostBreakdown_TotalIsExactSum checks that for any usage
// and any applied multipliers, the breakdown total equals the exact sum
// of its components.
func TestProperty_CostBreakdown_TotalIsExactSum(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store, _ := newTestPricingStore(t)
		calc := NewCalculator(testTable(), store)
		ctx := context.Background()

		usage := models.TokenUsage{
			InputTokens:              rapid.Int64Range(0, 10_000_000).Draw(rt, "in"),
			OutputTokens:             rapid.Int64Range(0, 10_000_000).Draw(rt, "out"),
			CacheCreationInputTokens: rapid.Int64Range(0, 10_000_000).Draw(rt, "cacheCreate"),
			CacheReadInputTokens:     rapid.Int64Range(0, 10_000_000).Draw(rt, "cacheRead"),
		}

		err := store.SetPricing(ctx, "acct", models.AccountPricing{
			"model-a": {
				"input":       rapid.Float64Range(0, 10).Draw(rt, "mIn"),
				"output":      rapid.Float64Range(0, 10).Draw(rt, "mOut"),
				"cacheCreate": rapid.Float64Range(0, 10).Draw(rt, "mCacheCreate"),
				"cacheRead":   rapid.Float64Range(0, 10).Draw(rt, "mCacheRead"),
			},
		})
		if err != nil {
			rt.Fatalf("SetPricing failed: %v", err)
		}

		info, ok := calc.CalculateWithAccount(ctx, usage, "model-a", "claude-console", "acct")
		if !ok {
			rt.Fatal("CalculateWithAccount returned !ok")
		}
		costs := info.Costs
		if costs.Total != costs.Input+costs.Output+costs.CacheWrite+costs.CacheRead {
			rt.Fatalf("total %v is not the exact component sum", costs.Total)
		}
		if costs.Input < 0 || costs.Output < 0 || costs.CacheWrite < 0 || costs.CacheRead < 0 {
			rt.Fatalf("negative component in %+v", costs)
		}
	})
}
