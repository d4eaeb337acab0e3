package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JillVernus/claude-relay-service/internal/cache"
	"github.com/JillVernus/claude-relay-service/internal/config"
	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/models"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
)

// ValidationError reports malformed multiplier input. Rejected input is
// never persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var recognizedMultiplierKeys = map[string]bool{
	models.MultiplierInput:       true,
	models.MultiplierOutput:      true,
	models.MultiplierCacheCreate: true,
	models.MultiplierCacheRead:   true,
}

// Store is the durable per-account, per-model pricing override table.
// Each account is one Redis key holding a serialized model -> multipliers
// mapping. Writes surface errors; reads degrade to nil / defaults.
type Store struct {
	rdb    *cache.Redis
	prefix string
	logger zerolog.Logger
}

// NewStore creates a pricing multiplier store
func NewStore(rdb *cache.Redis, cfg *config.PricingConfig) *Store {
	return &Store{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		logger: logging.NewLogger("pricing"),
	}
}

func (s *Store) key(accountID string) string {
	return s.prefix + accountID
}

// GetPricing returns the full override mapping for an account, or nil
// when there is no entry, the backend is unavailable, or the stored
// value does not parse. The read path never hard-fails.
func (s *Store) GetPricing(ctx context.Context, accountID string) models.AccountPricing {
	if accountID == "" {
		return nil
	}
	if s.rdb == nil || s.rdb.Client == nil {
		s.logger.Warn().Msg("Redis client not available for account pricing")
		return nil
	}

	data, err := s.rdb.Client.Get(ctx, s.key(accountID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to get account pricing")
		}
		return nil
	}

	var pricing models.AccountPricing
	if err := json.Unmarshal([]byte(data), &pricing); err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to parse account pricing")
		return nil
	}
	return pricing
}

// SetPricing validates and stores the full override mapping for an
// account. Concurrent writers are last-write-wins.
func (s *Store) SetPricing(ctx context.Context, accountID string, pricing models.AccountPricing) error {
	if accountID == "" {
		return validationErrorf("account id is required")
	}
	if err := ValidatePricing(pricing); err != nil {
		return err
	}
	if s.rdb == nil || s.rdb.Client == nil {
		return cache.ErrUnavailable
	}

	data, err := json.Marshal(pricing)
	if err != nil {
		return fmt.Errorf("serialize account pricing: %w", err)
	}
	if err := s.rdb.Client.Set(ctx, s.key(accountID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}

	monitoring.RecordPricingOp("set")
	s.logger.Info().Str("account_id", accountID).Msg("Set pricing multipliers for account")
	return nil
}

// SetModelPricing merges one model's multipliers into the account's
// mapping, defaulting unspecified components to 1.0.
func (s *Store) SetModelPricing(ctx context.Context, accountID, model string, multipliers models.ModelMultipliers) error {
	if accountID == "" || model == "" {
		return validationErrorf("account id and model name are required")
	}
	if err := ValidateMultipliers(multipliers); err != nil {
		return err
	}

	current := s.GetPricing(ctx, accountID)
	if current == nil {
		current = models.AccountPricing{}
	}
	current[model] = models.ModelMultipliers{
		models.MultiplierInput:       valueOrDefault(multipliers, models.MultiplierInput),
		models.MultiplierOutput:      valueOrDefault(multipliers, models.MultiplierOutput),
		models.MultiplierCacheCreate: valueOrDefault(multipliers, models.MultiplierCacheCreate),
		models.MultiplierCacheRead:   valueOrDefault(multipliers, models.MultiplierCacheRead),
	}

	if err := s.SetPricing(ctx, accountID, current); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", accountID).Str("model", model).Msg("Set pricing multipliers for model")
	return nil
}

// DeleteModelPricing removes one model's entry and reports whether
// anything was removed. Removing the last entry deletes the whole
// account key rather than leaving an empty mapping behind.
func (s *Store) DeleteModelPricing(ctx context.Context, accountID, model string) (bool, error) {
	if accountID == "" || model == "" {
		return false, validationErrorf("account id and model name are required")
	}

	current := s.GetPricing(ctx, accountID)
	if current == nil {
		return false, nil
	}
	if _, exists := current[model]; !exists {
		return false, nil
	}

	delete(current, model)

	if len(current) == 0 {
		if err := s.DeletePricing(ctx, accountID); err != nil {
			return false, err
		}
	} else {
		if err := s.SetPricing(ctx, accountID, current); err != nil {
			return false, err
		}
	}

	monitoring.RecordPricingOp("delete_model")
	s.logger.Info().Str("account_id", accountID).Str("model", model).Msg("Deleted pricing multipliers for model")
	return true, nil
}

// DeletePricing removes all overrides for an account
func (s *Store) DeletePricing(ctx context.Context, accountID string) error {
	if accountID == "" {
		return validationErrorf("account id is required")
	}
	if s.rdb == nil || s.rdb.Client == nil {
		return cache.ErrUnavailable
	}

	if err := s.rdb.Client.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}

	monitoring.RecordPricingOp("delete")
	s.logger.Info().Str("account_id", accountID).Msg("Deleted all pricing multipliers for account")
	return nil
}

// GetMultipliers resolves the effective multipliers for an account and
// model. Priority: model-specific entry, then the account's _default
// entry, then the system default. Never fails; any error collapses to
// the system default.
func (s *Store) GetMultipliers(ctx context.Context, accountID, model string) models.Multipliers {
	defaults := models.DefaultMultipliers()
	if accountID == "" || model == "" {
		return defaults
	}

	pricing := s.GetPricing(ctx, accountID)
	if pricing == nil {
		return defaults
	}

	entry, exists := pricing[model]
	if !exists {
		entry, exists = pricing[models.DefaultModelKey]
	}
	if !exists {
		return defaults
	}

	return models.Multipliers{
		Input:       valueOrDefault(entry, models.MultiplierInput),
		Output:      valueOrDefault(entry, models.MultiplierOutput),
		CacheCreate: valueOrDefault(entry, models.MultiplierCacheCreate),
		CacheRead:   valueOrDefault(entry, models.MultiplierCacheRead),
	}
}

// ValidatePricing checks a full override mapping
func ValidatePricing(pricing models.AccountPricing) error {
	if pricing == nil {
		return validationErrorf("pricing must be an object")
	}
	for model, multipliers := range pricing {
		if strings.TrimSpace(model) == "" {
			return validationErrorf("model name must be a non-empty string")
		}
		if err := ValidateMultipliers(multipliers); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMultipliers checks one model's multiplier entry
func ValidateMultipliers(multipliers models.ModelMultipliers) error {
	if multipliers == nil {
		return validationErrorf("multipliers must be an object")
	}
	for key, value := range multipliers {
		if !recognizedMultiplierKeys[key] {
			return validationErrorf("invalid multiplier key: %s", key)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > 10 {
			return validationErrorf("multiplier %s must be a number between 0 and 10", key)
		}
	}
	return nil
}

func valueOrDefault(entry models.ModelMultipliers, key string) float64 {
	if value, exists := entry[key]; exists {
		return value
	}
	return 1.0
}
