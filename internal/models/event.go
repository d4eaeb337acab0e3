package models

// Phase tags a request lifecycle event
type Phase string

const (
	PhaseStart   Phase = "start"
	PhaseFinish  Phase = "finish"
	PhaseUnknown Phase = "unknown"
)

// RequestLogEvent is the enriched event shape served to the admin view.
// Every field except ID and Phase is optional; absent fields render as null.
type RequestLogEvent struct {
	ID                string         `json:"id"`
	Phase             Phase          `json:"phase"`
	RequestID         *string        `json:"requestId"`
	Timestamp         *string        `json:"timestamp"`
	Method            *string        `json:"method"`
	Endpoint          *string        `json:"endpoint"`
	APIKeyID          *string        `json:"apiKeyId"`
	APIKeyName        *string        `json:"apiKeyName"`
	UserID            *string        `json:"userId"`
	AccountID         *string        `json:"accountId"`
	AccountName       *string        `json:"accountName"`
	AccountType       *string        `json:"accountType"`
	AccountTypeName   *string        `json:"accountTypeName"`
	Model             *string        `json:"model"`
	TokensIn          *float64       `json:"tokensIn"`
	TokensOut         *float64       `json:"tokensOut"`
	CacheCreateTokens *float64       `json:"cacheCreateTokens"`
	CacheReadTokens   *float64       `json:"cacheReadTokens"`
	TokensTotal       *float64       `json:"tokensTotal"`
	Price             *float64       `json:"price"`
	CostFormatted     *string        `json:"costFormatted"`
	CostBreakdown     *CostBreakdown `json:"costBreakdown"`
	ErrorMessage      *string        `json:"errorMessage"`
	// Status is the numeric HTTP status when parseable, otherwise the
	// raw stored string (provider error codes are not always numeric).
	Status     any      `json:"status"`
	DurationMs *float64 `json:"durationMs"`
}

// LogPage is one page of enriched events plus the pagination cursor
type LogPage struct {
	Events []RequestLogEvent `json:"events"`
	LastID string            `json:"lastId"`
}
