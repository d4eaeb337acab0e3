package models

// Recognized multiplier keys. Anything else is rejected on write.
const (
	MultiplierInput       = "input"
	MultiplierOutput      = "output"
	MultiplierCacheCreate = "cacheCreate"
	MultiplierCacheRead   = "cacheRead"
)

// DefaultModelKey is the per-account fallback entry consulted when no
// model-specific multipliers exist.
const DefaultModelKey = "_default"

// ModelMultipliers is one model's stored multiplier entry. Keys are
// sparse; unspecified components default to 1.0 on read.
type ModelMultipliers map[string]float64

// AccountPricing maps model name to multipliers for one account
type AccountPricing map[string]ModelMultipliers

// Multipliers is a fully resolved multiplier set
type Multipliers struct {
	Input       float64 `json:"input"`
	Output      float64 `json:"output"`
	CacheCreate float64 `json:"cacheCreate"`
	CacheRead   float64 `json:"cacheRead"`
}

// DefaultMultipliers returns the system default (no adjustment)
func DefaultMultipliers() Multipliers {
	return Multipliers{Input: 1.0, Output: 1.0, CacheCreate: 1.0, CacheRead: 1.0}
}

// IsDefault reports whether every component equals 1.0
func (m Multipliers) IsDefault() bool {
	return m.Input == 1.0 && m.Output == 1.0 && m.CacheCreate == 1.0 && m.CacheRead == 1.0
}

// TokenUsage holds the token counts a cost calculation is based on
type TokenUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// CostBreakdown is a derived per-request cost split, never persisted.
// Total is always the exact sum of the four components.
type CostBreakdown struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	CacheWrite float64 `json:"cacheWrite"`
	CacheRead  float64 `json:"cacheRead"`
	Total      float64 `json:"total"`
}

// MultiplierInfo records which multipliers were applied to a cost result
type MultiplierInfo struct {
	Applied     bool        `json:"applied"`
	AccountID   string      `json:"accountId,omitempty"`
	AccountType string      `json:"accountType,omitempty"`
	Values      Multipliers `json:"values"`
}

// CostInfo is the full result of a cost calculation
type CostInfo struct {
	Model         string          `json:"model"`
	Costs         CostBreakdown   `json:"costs"`
	Formatted     string          `json:"formatted"`
	Multipliers   *MultiplierInfo `json:"multipliers,omitempty"`
	OriginalCosts *CostBreakdown  `json:"originalCosts,omitempty"`
}
