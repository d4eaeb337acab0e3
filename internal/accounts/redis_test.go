package accounts

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/JillVernus/claude-relay-service/internal/cache"
)

func newTestRedisLookup(t *testing.T, providerType string) (*RedisLookup, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLookup(&cache.Redis{Client: client}, providerType), mr
}

func TestRedisLookupHit(t *testing.T) {
	lookup, mr := newTestRedisLookup(t, "claude-console")
	mr.HSet("account:claude-console:acct-1", "name", "Prod Console", "status", "active")

	account, err := lookup.GetAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account == nil || account.Name != "Prod Console" || account.Type != "claude-console" {
		t.Errorf("account = %+v", account)
	}
	if account.Status != "active" {
		t.Errorf("status = %q", account.Status)
	}
}

func TestRedisLookupNameFallsBackToEmailThenID(t *testing.T) {
	lookup, mr := newTestRedisLookup(t, "claude")
	mr.HSet("account:claude:acct-1", "email", "ops@example.com")
	mr.HSet("account:claude:acct-2", "status", "active")

	account, err := lookup.GetAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Name != "ops@example.com" {
		t.Errorf("name = %q, want the email fallback", account.Name)
	}

	account, err = lookup.GetAccount(context.Background(), "acct-2")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account.Name != "acct-2" {
		t.Errorf("name = %q, want the id fallback", account.Name)
	}
}

func TestRedisLookupMiss(t *testing.T) {
	lookup, _ := newTestRedisLookup(t, "claude")

	account, err := lookup.GetAccount(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if account != nil {
		t.Errorf("account = %+v, want nil for a missing hash", account)
	}
}

func TestRedisLookupUnavailable(t *testing.T) {
	lookup := NewRedisLookup(&cache.Redis{}, "claude")

	if _, err := lookup.GetAccount(context.Background(), "acct-1"); err == nil {
		t.Error("expected an error from a nil client")
	}
}
