// Package auth issues and validates bearer tokens for the admin endpoints.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Manager handles authentication for admin routes
type Manager struct {
	username    string
	password    string
	mu          sync.RWMutex
	tokens      map[string]time.Time
	tokenExpiry time.Duration
}

// NewManager creates a new authentication manager. An empty password disables
// admin login entirely.
func NewManager(username, password string) *Manager {
	return &Manager{
		username:    username,
		password:    password,
		tokens:      make(map[string]time.Time),
		tokenExpiry: 24 * time.Hour,
	}
}

// Authenticate validates credentials and returns a bearer token
func (m *Manager) Authenticate(username, password string) (string, error) {
	if m.password == "" {
		return "", fmt.Errorf("admin login disabled: no password configured")
	}
	if username != m.username || password != m.password {
		return "", fmt.Errorf("invalid credentials")
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	m.mu.Lock()
	m.tokens[token] = time.Now().Add(m.tokenExpiry)
	m.cleanupLocked()
	m.mu.Unlock()

	return token, nil
}

// ValidateToken checks if a token is valid and unexpired
func (m *Manager) ValidateToken(token string) bool {
	m.mu.RLock()
	expiry, exists := m.tokens[token]
	m.mu.RUnlock()

	if !exists {
		return false
	}
	if time.Now().After(expiry) {
		m.mu.Lock()
		delete(m.tokens, token)
		m.mu.Unlock()
		return false
	}
	return true
}

// cleanupLocked drops expired tokens; callers must hold the write lock
func (m *Manager) cleanupLocked() {
	now := time.Now()
	for token, expiry := range m.tokens {
		if now.After(expiry) {
			delete(m.tokens, token)
		}
	}
}

// Middleware returns an echo middleware that requires a valid bearer token
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == "" || token == header || !m.ValidateToken(token) {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid or missing token",
				})
			}
			return next(c)
		}
	}
}
