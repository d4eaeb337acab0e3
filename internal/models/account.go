package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a resolved provider account identity
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// ProviderAccount is a row in the provider-account directory
type ProviderAccount struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ExternalID   string    `json:"external_id" db:"external_id"`
	ProviderType string    `json:"provider_type" db:"provider_type"`
	Name         string    `json:"name" db:"name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
