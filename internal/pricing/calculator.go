package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/JillVernus/claude-relay-service/internal/models"
)

// Account types whose costs may carry per-account multipliers
var supportedAccountTypes = map[string]bool{
	"claude-console":   true,
	"openai-responses": true,
}

var million = decimal.NewFromInt(1_000_000)

// Calculator computes per-request cost breakdowns from the base price
// table, optionally adjusted by account-specific multipliers.
type Calculator struct {
	table *Table
	store *Store
}

// NewCalculator creates a cost calculator
func NewCalculator(table *Table, store *Store) *Calculator {
	return &Calculator{table: table, store: store}
}

// Calculate computes the base cost breakdown for the given usage.
// Returns false when the model has no price table entry.
func (c *Calculator) Calculate(usage models.TokenUsage, model string) (*models.CostInfo, bool) {
	price, exists := c.table.Lookup(model)
	if !exists {
		return nil, false
	}

	breakdown := models.CostBreakdown{
		Input:      tokenCost(price.Input, usage.InputTokens),
		Output:     tokenCost(price.Output, usage.OutputTokens),
		CacheWrite: tokenCost(price.CacheWrite, usage.CacheCreationInputTokens),
		CacheRead:  tokenCost(price.CacheRead, usage.CacheReadInputTokens),
	}
	// Total is the exact sum of the serialized components; rounding for
	// display happens in FormatCost only.
	breakdown.Total = breakdown.Input + breakdown.Output + breakdown.CacheWrite + breakdown.CacheRead

	return &models.CostInfo{
		Model:     model,
		Costs:     breakdown,
		Formatted: FormatCost(breakdown.Total),
	}, true
}

// CalculateWithAccount computes the cost breakdown with the account's
// pricing multipliers applied. Unsupported account types, a missing
// account id, default multipliers, or any multiplier-fetch failure all
// leave the base breakdown unchanged.
func (c *Calculator) CalculateWithAccount(ctx context.Context, usage models.TokenUsage, model, accountType, accountID string) (*models.CostInfo, bool) {
	base, exists := c.Calculate(usage, model)
	if !exists {
		return nil, false
	}
	if !supportedAccountTypes[accountType] || accountID == "" {
		return base, true
	}

	multipliers := c.store.GetMultipliers(ctx, accountID, model)
	if multipliers.IsDefault() {
		return base, true
	}

	adjusted := models.CostBreakdown{
		Input:      base.Costs.Input * multipliers.Input,
		Output:     base.Costs.Output * multipliers.Output,
		CacheWrite: base.Costs.CacheWrite * multipliers.CacheCreate,
		CacheRead:  base.Costs.CacheRead * multipliers.CacheRead,
	}
	adjusted.Total = adjusted.Input + adjusted.Output + adjusted.CacheWrite + adjusted.CacheRead

	original := base.Costs
	return &models.CostInfo{
		Model:     model,
		Costs:     adjusted,
		Formatted: FormatCost(adjusted.Total),
		Multipliers: &models.MultiplierInfo{
			Applied:     true,
			AccountID:   accountID,
			AccountType: accountType,
			Values:      multipliers,
		},
		OriginalCosts: &original,
	}, true
}

// SupportsAccountType reports whether the account type participates in
// multiplier-adjusted pricing
func SupportsAccountType(accountType string) bool {
	return supportedAccountTypes[accountType]
}

// FormatCost renders a cost for display
func FormatCost(cost float64) string {
	if cost >= 1 {
		return fmt.Sprintf("$%.2f", cost)
	}
	return fmt.Sprintf("$%.6f", cost)
}

func tokenCost(ratePerMillion decimal.Decimal, tokens int64) float64 {
	if tokens <= 0 {
		return 0
	}
	cost, _ := ratePerMillion.Mul(decimal.NewFromInt(tokens)).Div(million).Float64()
	return cost
}
