package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"maildesk/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used when no database is available.
// It keeps the service usable for development and demos; records do not
// survive a restart.
type MemoryStore struct {
	mu        sync.RWMutex
	emails    map[string]models.Email
	responses map[string]models.EmailResponse // keyed by response id
	byEmail   map[string]string               // email id -> response id
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		emails:    make(map[string]models.Email),
		responses: make(map[string]models.EmailResponse),
		byEmail:   make(map[string]string),
	}
}

// CreateEmail assigns an id and persists the email record
func (m *MemoryStore) CreateEmail(_ context.Context, email *models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now().UTC()
	}
	m.emails[email.ID] = *email
	return nil
}

// GetEmail fetches an email by id
func (m *MemoryStore) GetEmail(_ context.Context, id string) (*models.Email, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email, ok := m.emails[id]
	if !ok {
		return nil, ErrEmailNotFound
	}
	return &email, nil
}

// ListEmails returns a page of emails, urgent before normal, newest first
func (m *MemoryStore) ListEmails(_ context.Context, limit, offset int) ([]models.Email, error) {
	m.mu.RLock()
	all := make([]models.Email, 0, len(m.emails))
	for _, email := range m.emails {
		all = append(all, email)
	}
	m.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority == models.PriorityUrgent
		}
		return all[i].ReceivedAt.After(all[j].ReceivedAt)
	})

	if offset >= len(all) {
		return []models.Email{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// CreateResponse persists a response record, enforcing at most one per email
func (m *MemoryStore) CreateResponse(_ context.Context, response *models.EmailResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[response.EmailID]; exists {
		return ErrResponseExists
	}

	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	m.responses[response.ID] = *response
	m.byEmail[response.EmailID] = response.ID
	return nil
}

// GetResponsesByEmail fetches the responses for an email. The result has at
// most one element given the creation constraint.
func (m *MemoryStore) GetResponsesByEmail(_ context.Context, emailID string) ([]models.EmailResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	responseID, ok := m.byEmail[emailID]
	if !ok {
		return []models.EmailResponse{}, nil
	}
	return []models.EmailResponse{m.responses[responseID]}, nil
}

// UpdateResponse replaces the stored response with the given record
func (m *MemoryStore) UpdateResponse(_ context.Context, response *models.EmailResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.responses[response.ID]; !ok {
		return ErrResponseNotFound
	}
	m.responses[response.ID] = *response
	return nil
}

// Stats aggregates counts for the dashboard
func (m *MemoryStore) Stats(_ context.Context) (*models.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &models.Stats{
		TotalEmails:        len(m.emails),
		ResponsesGenerated: len(m.responses),
	}

	for _, email := range m.emails {
		if email.Priority == models.PriorityUrgent {
			stats.UrgentEmails++
		}
	}

	confidenceSum := 0
	for _, response := range m.responses {
		confidenceSum += response.Confidence
		if response.SentAt != nil {
			stats.ResponsesSent++
		}
	}
	if len(m.responses) > 0 {
		stats.AverageConfidence = float64(confidenceSum) / float64(len(m.responses))
	}

	return stats, nil
}

// Ping always succeeds for the in-memory store
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (m *MemoryStore) Close() error {
	return nil
}
