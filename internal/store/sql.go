package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"maildesk/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLStore persists emails and responses in MySQL or PostgreSQL via sqlx
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens a database connection (driver auto-detected from the URL)
// and bootstraps the schema
func NewSQLStore(databaseURL string) (*SQLStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	// Auto-detect driver from URL
	driver := "mysql"
	if strings.HasPrefix(databaseURL, "postgres") {
		driver = "postgres"
	}

	db, err := sqlx.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLStore{db: db}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// NewSQLStoreWithDB wraps an existing connection, used by tests
func NewSQLStoreWithDB(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// createTables creates the email tables if they do not exist. The UNIQUE
// constraint on email_responses.email_id enforces at most one response per
// email even under concurrent generation requests.
func (s *SQLStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS emails (
			id VARCHAR(36) PRIMARY KEY,
			sender VARCHAR(320) NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL,
			received_at TIMESTAMP NOT NULL,
			priority VARCHAR(10) NOT NULL DEFAULT 'normal',
			sentiment VARCHAR(10) NOT NULL DEFAULT 'neutral',
			category VARCHAR(100) NOT NULL DEFAULT 'General Inquiry',
			extracted_info TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails(received_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_priority ON emails(priority)`,
		`CREATE TABLE IF NOT EXISTS email_responses (
			id VARCHAR(36) PRIMARY KEY,
			email_id VARCHAR(36) NOT NULL UNIQUE,
			generated_response TEXT NOT NULL,
			confidence INT NOT NULL DEFAULT 0,
			is_edited BOOLEAN NOT NULL DEFAULT FALSE,
			final_response TEXT,
			sent_at TIMESTAMP NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (email_id) REFERENCES emails(id)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			// Ignore "already exists" errors from engines without IF NOT EXISTS
			// support on indexes
			continue
		}
	}

	return nil
}

// emailRow maps an email row with its serialized extracted info column
type emailRow struct {
	models.Email
	ExtractedInfoJSON sql.NullString `db:"extracted_info"`
}

func (r *emailRow) toEmail() models.Email {
	email := r.Email
	if r.ExtractedInfoJSON.Valid && r.ExtractedInfoJSON.String != "" {
		// Ignore decode errors: a corrupt audit blob should not hide the email
		_ = json.Unmarshal([]byte(r.ExtractedInfoJSON.String), &email.ExtractedInfo)
	}
	return email
}

// CreateEmail assigns an id and inserts the email record
func (s *SQLStore) CreateEmail(ctx context.Context, email *models.Email) error {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now().UTC()
	}

	infoJSON, err := json.Marshal(email.ExtractedInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted info: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO emails (id, sender, subject, body, received_at, priority, sentiment, category, extracted_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		email.ID, email.Sender, email.Subject, email.Body, email.ReceivedAt,
		email.Priority, email.Sentiment, email.Category, string(infoJSON), email.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}

	return nil
}

// GetEmail fetches an email by id
func (s *SQLStore) GetEmail(ctx context.Context, id string) (*models.Email, error) {
	var row emailRow
	query := s.db.Rebind(`
		SELECT id, sender, subject, body, received_at, priority, sentiment, category, extracted_info, created_at
		FROM emails WHERE id = ?
	`)
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmailNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch email: %w", err)
	}

	email := row.toEmail()
	return &email, nil
}

// ListEmails returns a page of emails, urgent before normal, newest first
func (s *SQLStore) ListEmails(ctx context.Context, limit, offset int) ([]models.Email, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []emailRow
	query := s.db.Rebind(`
		SELECT id, sender, subject, body, received_at, priority, sentiment, category, extracted_info, created_at
		FROM emails
		ORDER BY CASE WHEN priority = 'urgent' THEN 0 ELSE 1 END, received_at DESC
		LIMIT ? OFFSET ?
	`)
	if err := s.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}

	emails := make([]models.Email, 0, len(rows))
	for i := range rows {
		emails = append(emails, rows[i].toEmail())
	}
	return emails, nil
}

// CreateResponse inserts a response record. The unique constraint on email_id
// turns a concurrent double-generate into ErrResponseExists.
func (s *SQLStore) CreateResponse(ctx context.Context, response *models.EmailResponse) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}

	query := s.db.Rebind(`
		INSERT INTO email_responses (id, email_id, generated_response, confidence, is_edited, final_response, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		response.ID, response.EmailID, response.GeneratedResponse, response.Confidence,
		response.IsEdited, response.FinalResponse, response.SentAt, response.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrResponseExists
		}
		return fmt.Errorf("failed to insert response: %w", err)
	}

	return nil
}

// GetResponsesByEmail fetches the responses for an email (at most one given
// the unique constraint)
func (s *SQLStore) GetResponsesByEmail(ctx context.Context, emailID string) ([]models.EmailResponse, error) {
	var responses []models.EmailResponse
	query := s.db.Rebind(`
		SELECT id, email_id, generated_response, confidence, is_edited, final_response, sent_at, created_at
		FROM email_responses WHERE email_id = ?
	`)
	if err := s.db.SelectContext(ctx, &responses, query, emailID); err != nil {
		return nil, fmt.Errorf("failed to fetch responses: %w", err)
	}
	if responses == nil {
		responses = []models.EmailResponse{}
	}
	return responses, nil
}

// UpdateResponse writes the mutable response fields (final text, edited flag,
// sent timestamp) by response id
func (s *SQLStore) UpdateResponse(ctx context.Context, response *models.EmailResponse) error {
	query := s.db.Rebind(`
		UPDATE email_responses
		SET final_response = ?, is_edited = ?, sent_at = ?
		WHERE id = ?
	`)
	result, err := s.db.ExecContext(ctx, query,
		response.FinalResponse, response.IsEdited, response.SentAt, response.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrResponseNotFound
	}

	return nil
}

// Stats aggregates counts for the dashboard
func (s *SQLStore) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	if err := s.db.GetContext(ctx, &stats.TotalEmails, `SELECT COUNT(*) FROM emails`); err != nil {
		return nil, fmt.Errorf("failed to count emails: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.UrgentEmails, `SELECT COUNT(*) FROM emails WHERE priority = 'urgent'`); err != nil {
		return nil, fmt.Errorf("failed to count urgent emails: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.ResponsesGenerated, `SELECT COUNT(*) FROM email_responses`); err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.ResponsesSent, `SELECT COUNT(*) FROM email_responses WHERE sent_at IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("failed to count sent responses: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.AverageConfidence, `SELECT COALESCE(AVG(confidence), 0) FROM email_responses`); err != nil {
		return nil, fmt.Errorf("failed to average confidence: %w", err)
	}

	return stats, nil
}

// Ping checks database connectivity
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for health checks
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// isUniqueViolation reports whether err is a unique-constraint violation from
// either supported driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
