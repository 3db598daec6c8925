// Package store persists email records and their generated responses.
// Two implementations exist: a SQL store over sqlx (MySQL or PostgreSQL)
// and an in-memory fallback used when no database is reachable.
package store

import (
	"context"
	"errors"

	"maildesk/internal/models"
)

var (
	// ErrEmailNotFound is returned when no email exists for the given id
	ErrEmailNotFound = errors.New("email not found")
	// ErrResponseNotFound is returned when no response exists for the given id
	ErrResponseNotFound = errors.New("response not found")
	// ErrResponseExists is returned when a response already exists for the
	// email. Responses are at-most-one per email, enforced at the store.
	ErrResponseExists = errors.New("response already exists for email")
)

// Store is the persistence contract the triage pipeline depends on.
// ListEmails returns emails ordered urgent-before-normal, then newest first;
// this ordering is part of the contract and must match across implementations.
type Store interface {
	CreateEmail(ctx context.Context, email *models.Email) error
	GetEmail(ctx context.Context, id string) (*models.Email, error)
	ListEmails(ctx context.Context, limit, offset int) ([]models.Email, error)

	CreateResponse(ctx context.Context, response *models.EmailResponse) error
	GetResponsesByEmail(ctx context.Context, emailID string) ([]models.EmailResponse, error)
	UpdateResponse(ctx context.Context, response *models.EmailResponse) error

	Stats(ctx context.Context) (*models.Stats, error)

	Ping(ctx context.Context) error
	Close() error
}
