package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/models"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
)

// Resolver fans account lookups out across the configured backends.
// Each backend call runs under a bounded timeout and a per-backend
// circuit breaker; every backend failure is swallowed as "not found
// there" so resolution degrades instead of propagating errors.
type Resolver struct {
	lookups  []Lookup
	timeout  time.Duration
	breakers map[string]*gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// NewResolver creates a resolver over an ordered list of backends
func NewResolver(lookups []Lookup, timeout time.Duration) *Resolver {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(lookups))
	for _, lookup := range lookups {
		providerType := lookup.Type()
		breakers[providerType] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "account-lookup-" + providerType,
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				monitoring.SetResolverBreakerState(name, breakerStateValue(to))
			},
		})
	}
	return &Resolver{
		lookups:  lookups,
		timeout:  timeout,
		breakers: breakers,
		logger:   logging.NewLogger("accounts"),
	}
}

// NewSession starts a per-enrichment-call resolution session. The
// session memoizes results, including explicit not-found, for the
// lifetime of one page and is safe for concurrent use within it.
func (r *Resolver) NewSession() *Session {
	return &Session{
		resolver: r,
		cache:    make(map[string]*models.Account),
	}
}

// resolve tries the backends in priority order. With a type hint only
// the matching backend is consulted.
func (r *Resolver) resolve(ctx context.Context, id, typeHint string) *models.Account {
	for _, lookup := range r.lookups {
		if typeHint != "" && lookup.Type() != typeHint {
			continue
		}

		account, err := r.tryLookup(ctx, lookup, id)
		if err != nil {
			monitoring.RecordAccountResolution("backend_error")
			r.logger.Debug().
				Err(err).
				Str("account_id", id).
				Str("provider_type", lookup.Type()).
				Msg("Account backend lookup failed")
			continue
		}
		if account != nil {
			monitoring.RecordAccountResolution("hit")
			return account
		}
	}

	monitoring.RecordAccountResolution("miss")
	return nil
}

func (r *Resolver) tryLookup(ctx context.Context, lookup Lookup, id string) (*models.Account, error) {
	breaker := r.breakers[lookup.Type()]

	result, err := breaker.Execute(func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return lookup.GetAccount(lookupCtx, id)
	})
	if err != nil {
		return nil, err
	}
	account, _ := result.(*models.Account)
	return account, nil
}

// Session is an arena-scoped resolution cache keyed type:id. It lives
// for one page enrichment and is never promoted to process-wide state.
type Session struct {
	resolver *Resolver
	mu       sync.Mutex
	cache    map[string]*models.Account
}

// Resolve returns the account for id, or nil when no backend knows it.
// Results are memoized per session.
func (s *Session) Resolve(ctx context.Context, id, typeHint string) *models.Account {
	if id == "" {
		return nil
	}

	key := typeHint
	if key == "" {
		key = "any"
	}
	key += ":" + id

	s.mu.Lock()
	if account, seen := s.cache[key]; seen {
		s.mu.Unlock()
		monitoring.RecordAccountResolution("cache_hit")
		return account
	}
	s.mu.Unlock()

	account := s.resolver.resolve(ctx, id, typeHint)

	s.mu.Lock()
	s.cache[key] = account
	s.mu.Unlock()
	return account
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}
