package logquery

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/JillVernus/claude-relay-service/internal/accounts"
	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/models"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
	"github.com/JillVernus/claude-relay-service/internal/pricing"
	"github.com/JillVernus/claude-relay-service/internal/requestlog"
)

// Service assembles enriched request-log pages: raw events from the
// log store, account identity from the resolver, and costs from the
// calculator. Pages are independent, stateless computations; the only
// state shared within a page is the resolver session.
type Service struct {
	store      *requestlog.Store
	resolver   *accounts.Resolver
	calculator *pricing.Calculator
	logger     zerolog.Logger
}

// NewService creates a log query service
func NewService(store *requestlog.Store, resolver *accounts.Resolver, calculator *pricing.Calculator) *Service {
	return &Service{
		store:      store,
		resolver:   resolver,
		calculator: calculator,
		logger:     logging.NewLogger("logquery"),
	}
}

// GetPage returns one enriched page of events starting after cursor.
// Enrichment runs concurrently, one goroutine per event; a failure on
// one event degrades that event only, never the page.
func (s *Service) GetPage(ctx context.Context, cursor string, limit int) *models.LogPage {
	entries, lastID := s.store.Query(ctx, cursor, limit)

	events := make([]models.RequestLogEvent, len(entries))
	session := s.resolver.NewSession()

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry requestlog.Entry) {
			defer wg.Done()
			events[i] = s.enrich(ctx, session, entry)
		}(i, entry)
	}
	wg.Wait()

	return &models.LogPage{Events: events, LastID: lastID}
}

// enrich maps one stored entry to its enriched admin-view shape
func (s *Service) enrich(ctx context.Context, session *accounts.Session, entry requestlog.Entry) models.RequestLogEvent {
	event := baseEvent(entry)

	s.fillCost(ctx, &event, entry)
	s.fillAccount(ctx, session, &event)

	return event
}

// baseEvent performs the tolerant field normalization that needs no
// backend: strings stay pointers-or-nil, numerics parse or collapse to
// null, status keeps its raw string when not numeric.
func baseEvent(entry requestlog.Entry) models.RequestLogEvent {
	fields := entry.Fields

	phase := models.Phase(fields["phase"])
	if phase == "" {
		phase = models.PhaseUnknown
	}

	event := models.RequestLogEvent{
		ID:                entry.ID,
		Phase:             phase,
		RequestID:         strField(fields, "requestId"),
		Timestamp:         strField(fields, "timestamp"),
		Method:            strField(fields, "method"),
		Endpoint:          strField(fields, "endpoint"),
		APIKeyID:          strField(fields, "apiKeyId"),
		APIKeyName:        strField(fields, "apiKeyName"),
		UserID:            strField(fields, "userId"),
		AccountID:         strField(fields, "accountId"),
		AccountName:       strField(fields, "accountName"),
		AccountType:       strField(fields, "accountType"),
		Model:             strField(fields, "model"),
		TokensIn:          toNumber(fields["tokensIn"]),
		TokensOut:         toNumber(fields["tokensOut"]),
		CacheCreateTokens: toNumber(fields["cacheCreateTokens"]),
		CacheReadTokens:   toNumber(fields["cacheReadTokens"]),
		TokensTotal:       toNumber(fields["tokensTotal"]),
		Price:             toNumber(fields["price"]),
		ErrorMessage:      strField(fields, "errorMessage"),
		DurationMs:        toNumber(fields["durationMs"]),
	}

	if raw, exists := fields["status"]; exists && raw != "" {
		if n := toNumber(raw); n != nil {
			event.Status = *n
		} else {
			event.Status = raw
		}
	}

	return event
}

// fillCost computes price and breakdown when the event carries usage, a
// model, and no caller-supplied price. A supplied price of 0 counts as
// present.
func (s *Service) fillCost(ctx context.Context, event *models.RequestLogEvent, entry requestlog.Entry) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.RecordEnrichmentFailure("cost")
			s.logger.Warn().Str("event_id", entry.ID).Interface("panic", r).Msg("Cost enrichment failed")
		}
	}()

	hasTokens := numberOrZero(event.TokensIn) > 0 || numberOrZero(event.TokensOut) > 0
	if !hasTokens || event.Model == nil {
		return
	}

	usage := models.TokenUsage{
		InputTokens:              int64(numberOrZero(event.TokensIn)),
		OutputTokens:             int64(numberOrZero(event.TokensOut)),
		CacheCreationInputTokens: int64(numberOrZero(event.CacheCreateTokens)),
		CacheReadInputTokens:     int64(numberOrZero(event.CacheReadTokens)),
	}

	accountType := ""
	if event.AccountType != nil {
		accountType = *event.AccountType
	}
	accountID := ""
	if event.AccountID != nil {
		accountID = *event.AccountID
	}

	costInfo, exists := s.calculator.CalculateWithAccount(ctx, usage, *event.Model, accountType, accountID)
	if !exists {
		return
	}

	if event.Price == nil {
		total := costInfo.Costs.Total
		event.Price = &total
	}
	breakdown := costInfo.Costs
	event.CostBreakdown = &breakdown
	formatted := costInfo.Formatted
	event.CostFormatted = &formatted
}

// fillAccount resolves a missing account name and maps the account type
// to its display label
func (s *Service) fillAccount(ctx context.Context, session *accounts.Session, event *models.RequestLogEvent) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.RecordEnrichmentFailure("account")
			s.logger.Warn().Str("event_id", event.ID).Interface("panic", r).Msg("Account enrichment failed")
		}
	}()

	if event.AccountID != nil && event.AccountName == nil {
		typeHint := ""
		if event.AccountType != nil {
			typeHint = *event.AccountType
		}
		if account := session.Resolve(ctx, *event.AccountID, typeHint); account != nil {
			event.AccountName = &account.Name
			event.AccountType = &account.Type
		}
	}

	if event.AccountType != nil {
		label := accounts.TypeName(*event.AccountType)
		event.AccountTypeName = &label
	}
}

func strField(fields map[string]string, key string) *string {
	if value, exists := fields[key]; exists && value != "" {
		return &value
	}
	return nil
}

// toNumber is the tolerant numeric parse: empty or non-finite values
// become nil
func toNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func numberOrZero(n *float64) float64 {
	if n == nil {
		return 0
	}
	return *n
}
