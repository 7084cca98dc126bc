package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/ratelimit"
)

// Issuer is the token issuer claim
const Issuer = "funnel"

// Session is an authenticated admin session
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config holds the admin credentials and token settings
type Config struct {
	AdminEmail string
	AdminPIN   string
	Secret     string
	TTL        time.Duration
}

// Manager issues, validates and revokes admin sessions.
// The token is an HS256 JWT whose id claim names the stored session,
// so a session can be revoked before the token expires.
type Manager struct {
	config  Config
	store   Store
	limiter ratelimit.Limiter
	clock   adapter.Clock
}

// NewManager creates a session manager
func NewManager(cfg Config, store Store, limiter ratelimit.Limiter, clock adapter.Clock) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.AdminEmail == "" || cfg.AdminPIN == "" {
		return nil, errors.New("admin credentials are required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("invalid session ttl: %s", cfg.TTL)
	}
	return &Manager{config: cfg, store: store, limiter: limiter, clock: clock}, nil
}

// Login checks the credentials and opens a session. clientKey identifies
// the caller for throttling, usually the client IP.
func (m *Manager) Login(ctx context.Context, clientKey, email, pin string) (*Session, string, error) {
	if err := m.limiter.Allow(ctx, clientKey); err != nil {
		logger.WarnCtx(ctx, "Login throttled", zap.String("client", clientKey), zap.Error(err))
		return nil, "", err
	}

	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(m.config.AdminEmail)))
	pinOK := subtle.ConstantTimeCompare([]byte(pin), []byte(m.config.AdminPIN))
	if emailOK&pinOK != 1 {
		logger.WarnCtx(ctx, "Login rejected", zap.String("client", clientKey))
		return nil, "", domain.ErrInvalidCredentials
	}

	now := m.clock.Now()
	s := &Session{
		ID:        uuid.New().String(),
		Email:     m.config.AdminEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.TTL),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, "", err
	}

	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Subject:   s.Email,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	logger.InfoCtx(ctx, "Admin logged in", zap.String("session_id", s.ID))
	return s, token, nil
}

// Validate returns the live session for token.
// Any invalid, expired or revoked token yields domain.ErrSessionNotFound.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		logger.DebugCtx(ctx, "Rejected session token", zap.Error(err))
		return nil, domain.ErrSessionNotFound
	}
	return m.store.Get(ctx, claims.ID)
}

// Logout revokes the session behind token. Unknown tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "Admin logged out", zap.String("session_id", claims.ID))
	return nil
}

// TTL returns the session lifetime
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, errors.New("token is empty")
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
