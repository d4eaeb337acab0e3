package accounts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JillVernus/claude-relay-service/internal/models"
)

func staticLookup(providerType string, known map[string]*models.Account) LookupFunc {
	return LookupFunc{
		ProviderType: providerType,
		Fn: func(_ context.Context, id string) (*models.Account, error) {
			return known[id], nil
		},
	}
}

func failingLookup(providerType string, calls *atomic.Int64) LookupFunc {
	return LookupFunc{
		ProviderType: providerType,
		Fn: func(_ context.Context, _ string) (*models.Account, error) {
			if calls != nil {
				calls.Add(1)
			}
			return nil, errors.New("backend unreachable")
		},
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	resolver := NewResolver([]Lookup{
		staticLookup("claude", map[string]*models.Account{
			"acct-1": {ID: "acct-1", Name: "From Claude", Type: "claude"},
		}),
		staticLookup("claude-console", map[string]*models.Account{
			"acct-1": {ID: "acct-1", Name: "From Console", Type: "claude-console"},
		}),
	}, time.Second)

	account := resolver.NewSession().Resolve(context.Background(), "acct-1", "")
	if account == nil {
		t.Fatal("expected a hit")
	}
	if account.Name != "From Claude" {
		t.Errorf("resolved %q, want the first backend in priority order", account.Name)
	}
}

func TestResolveFallsThroughFailingBackend(t *testing.T) {
	resolver := NewResolver([]Lookup{
		failingLookup("claude", nil),
		staticLookup("claude-console", map[string]*models.Account{
			"acct-1": {ID: "acct-1", Name: "Console Account", Type: "claude-console"},
		}),
	}, time.Second)

	account := resolver.NewSession().Resolve(context.Background(), "acct-1", "")
	if account == nil {
		t.Fatal("expected resolution to continue past the failing backend")
	}
	if account.Type != "claude-console" {
		t.Errorf("resolved via %q, want claude-console", account.Type)
	}
}

func TestResolveTypeHintScopesLookup(t *testing.T) {
	var claudeCalls atomic.Int64
	resolver := NewResolver([]Lookup{
		LookupFunc{
			ProviderType: "claude",
			Fn: func(_ context.Context, id string) (*models.Account, error) {
				claudeCalls.Add(1)
				return &models.Account{ID: id, Name: "Claude Account", Type: "claude"}, nil
			},
		},
		staticLookup("gemini", map[string]*models.Account{
			"acct-1": {ID: "acct-1", Name: "Gemini Account", Type: "gemini"},
		}),
	}, time.Second)

	account := resolver.NewSession().Resolve(context.Background(), "acct-1", "gemini")
	if account == nil || account.Type != "gemini" {
		t.Fatalf("resolved %+v, want the hinted gemini backend", account)
	}
	if claudeCalls.Load() != 0 {
		t.Errorf("claude backend consulted %d times despite the hint", claudeCalls.Load())
	}
}

func TestResolveHintedTypeMissReturnsNil(t *testing.T) {
	resolver := NewResolver([]Lookup{
		staticLookup("claude", map[string]*models.Account{
			"acct-1": {ID: "acct-1", Name: "Claude Account", Type: "claude"},
		}),
	}, time.Second)

	if account := resolver.NewSession().Resolve(context.Background(), "acct-1", "gemini"); account != nil {
		t.Errorf("resolved %+v for an unknown hinted type, want nil", account)
	}
}

func TestSessionMemoizesResults(t *testing.T) {
	var calls atomic.Int64
	resolver := NewResolver([]Lookup{
		LookupFunc{
			ProviderType: "claude",
			Fn: func(_ context.Context, id string) (*models.Account, error) {
				calls.Add(1)
				return &models.Account{ID: id, Name: "Claude Account", Type: "claude"}, nil
			},
		},
	}, time.Second)

	session := resolver.NewSession()
	for i := 0; i < 5; i++ {
		if account := session.Resolve(context.Background(), "acct-1", ""); account == nil {
			t.Fatal("expected a hit")
		}
	}
	if calls.Load() != 1 {
		t.Errorf("backend consulted %d times, want 1", calls.Load())
	}
}

func TestSessionMemoizesNotFound(t *testing.T) {
	var calls atomic.Int64
	resolver := NewResolver([]Lookup{
		failingLookup("claude", &calls),
	}, time.Second)

	session := resolver.NewSession()
	for i := 0; i < 3; i++ {
		if account := session.Resolve(context.Background(), "acct-missing", ""); account != nil {
			t.Fatalf("resolved %+v, want nil", account)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("backend consulted %d times, want the miss memoized after 1", calls.Load())
	}
}

func TestSessionEmptyID(t *testing.T) {
	resolver := NewResolver(nil, time.Second)
	if account := resolver.NewSession().Resolve(context.Background(), "", ""); account != nil {
		t.Errorf("resolved %+v for an empty id, want nil", account)
	}
}

func TestSessionConcurrentResolve(t *testing.T) {
	var calls atomic.Int64
	resolver := NewResolver([]Lookup{
		LookupFunc{
			ProviderType: "claude",
			Fn: func(_ context.Context, id string) (*models.Account, error) {
				calls.Add(1)
				time.Sleep(time.Millisecond)
				return &models.Account{ID: id, Name: "Shared", Type: "claude"}, nil
			},
		},
	}, time.Second)

	session := resolver.NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if account := session.Resolve(context.Background(), "acct-1", ""); account == nil {
				t.Error("expected a hit")
			}
		}()
	}
	wg.Wait()

	// Concurrent first resolutions may race past the memo check, but the
	// session must stay well under one backend call per caller.
	if calls.Load() > 32 {
		t.Errorf("backend consulted %d times for 32 concurrent resolves", calls.Load())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int64
	resolver := NewResolver([]Lookup{
		failingLookup("claude", &calls),
	}, time.Second)

	for i := 0; i < 10; i++ {
		resolver.resolve(context.Background(), "acct-1", "")
	}
	if calls.Load() >= 10 {
		t.Errorf("backend consulted %d times, want the breaker to open after 5 consecutive failures", calls.Load())
	}
}

func TestTypeNameFallback(t *testing.T) {
	if got := TypeName("claude-console"); got != "Claude Console" {
		t.Errorf("TypeName(claude-console) = %q", got)
	}
	if got := TypeName("mystery"); got != "Unknown" {
		t.Errorf("TypeName(mystery) = %q, want Unknown", got)
	}
}
