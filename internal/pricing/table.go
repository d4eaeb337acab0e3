package pricing

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/JillVernus/claude-relay-service/internal/config"
)

//go:embed model_prices.json
var embeddedPrices embed.FS

// ModelPrice holds USD rates per million tokens for one model
type ModelPrice struct {
	Input      decimal.Decimal `json:"input"`
	Output     decimal.Decimal `json:"output"`
	CacheWrite decimal.Decimal `json:"cacheWrite"`
	CacheRead  decimal.Decimal `json:"cacheRead"`
}

// Table is the base per-model price table consulted before any
// account-specific adjustment
type Table struct {
	prices map[string]ModelPrice
}

// LoadTable loads the price table, preferring the configured file over
// the embedded defaults
func LoadTable(cfg *config.PricingConfig) (*Table, error) {
	var data []byte
	var err error
	if cfg != nil && cfg.TableFile != "" {
		data, err = os.ReadFile(cfg.TableFile)
		if err != nil {
			return nil, fmt.Errorf("read model price table: %w", err)
		}
	} else {
		data, err = embeddedPrices.ReadFile("model_prices.json")
		if err != nil {
			return nil, fmt.Errorf("read embedded model price table: %w", err)
		}
	}

	prices := make(map[string]ModelPrice)
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, fmt.Errorf("parse model price table: %w", err)
	}
	return &Table{prices: prices}, nil
}

// NewTable builds a table from an in-memory price map
func NewTable(prices map[string]ModelPrice) *Table {
	return &Table{prices: prices}
}

// Lookup returns the price entry for a model
func (t *Table) Lookup(model string) (ModelPrice, bool) {
	price, exists := t.prices[model]
	return price, exists
}
