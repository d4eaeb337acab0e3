package accounts

import (
	"context"
	"fmt"

	"github.com/JillVernus/claude-relay-service/internal/cache"
	"github.com/JillVernus/claude-relay-service/internal/models"
)

// RedisLookup resolves accounts from per-provider Redis hashes at
// account:{type}:{id}. Used by deployments that keep provider accounts
// in Redis instead of the Postgres directory.
type RedisLookup struct {
	rdb          *cache.Redis
	providerType string
}

// NewRedisLookup creates a Redis-hash account backend for one provider type
func NewRedisLookup(rdb *cache.Redis, providerType string) *RedisLookup {
	return &RedisLookup{rdb: rdb, providerType: providerType}
}

func (l *RedisLookup) Type() string {
	return l.providerType
}

func (l *RedisLookup) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	if l.rdb == nil || l.rdb.Client == nil {
		return nil, cache.ErrUnavailable
	}

	fields, err := l.rdb.Client.HGetAll(ctx, fmt.Sprintf("account:%s:%s", l.providerType, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read account hash: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	name := fields["name"]
	if name == "" {
		name = fields["email"]
	}
	if name == "" {
		name = id
	}

	return &models.Account{
		ID:     id,
		Name:   name,
		Type:   l.providerType,
		Status: fields["status"],
	}, nil
}

// RedisLookups builds one Redis-hash lookup per provider type, in
// resolution priority order
func RedisLookups(rdb *cache.Redis) []Lookup {
	lookups := make([]Lookup, 0, len(ProviderTypes))
	for _, providerType := range ProviderTypes {
		lookups = append(lookups, NewRedisLookup(rdb, providerType))
	}
	return lookups
}
