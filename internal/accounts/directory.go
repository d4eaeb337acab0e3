package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JillVernus/claude-relay-service/internal/models"
)

// DirectoryStore reads provider accounts from the Postgres directory
type DirectoryStore struct {
	db *pgxpool.Pool
}

// NewDirectoryStore creates a directory store
func NewDirectoryStore(db *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{db: db}
}

// GetAccount looks up one account by provider type and external id
func (s *DirectoryStore) GetAccount(ctx context.Context, providerType, externalID string) (*models.Account, error) {
	var name, status string
	var email *string
	err := s.db.QueryRow(ctx, `
		SELECT name, email, status
		FROM provider_accounts
		WHERE provider_type = $1 AND external_id = $2
	`, providerType, externalID).Scan(&name, &email, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query provider account: %w", err)
	}

	if name == "" && email != nil {
		name = *email
	}
	if name == "" {
		name = externalID
	}

	return &models.Account{
		ID:     externalID,
		Name:   name,
		Type:   providerType,
		Status: status,
	}, nil
}

// UpsertAccount inserts or updates a directory entry
func (s *DirectoryStore) UpsertAccount(ctx context.Context, account *models.ProviderAccount) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO provider_accounts (id, external_id, provider_type, name, email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_type, external_id)
		DO UPDATE SET name = $4, email = $5, status = $6, updated_at = NOW()
	`, account.ID, account.ExternalID, account.ProviderType, account.Name, account.Email, account.Status)
	if err != nil {
		return fmt.Errorf("upsert provider account: %w", err)
	}
	return nil
}

// DirectoryLookup exposes one provider type of the directory as a
// resolver backend
type DirectoryLookup struct {
	store        *DirectoryStore
	providerType string
}

// NewDirectoryLookup creates a typed lookup over the directory
func NewDirectoryLookup(store *DirectoryStore, providerType string) *DirectoryLookup {
	return &DirectoryLookup{store: store, providerType: providerType}
}

func (l *DirectoryLookup) Type() string {
	return l.providerType
}

func (l *DirectoryLookup) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return l.store.GetAccount(ctx, l.providerType, id)
}

// DirectoryLookups builds one lookup per provider type, in resolution
// priority order
func DirectoryLookups(store *DirectoryStore) []Lookup {
	lookups := make([]Lookup, 0, len(ProviderTypes))
	for _, providerType := range ProviderTypes {
		lookups = append(lookups, NewDirectoryLookup(store, providerType))
	}
	return lookups
}
