package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

// CreateSession persists a new session for userID and returns the raw token.
// Only the keyed hash of the token is stored.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID) (IssuedSession, error) {
	token, err := s.tokens.Generate()
	if err != nil {
		return IssuedSession{}, fmt.Errorf("generate session token: %w", err)
	}

	now := s.nowFn()
	expiresAt := now.Add(s.cfg.Session.MaxAge)
	if _, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		UserID:    userID,
		TokenHash: s.tokens.Hash(token),
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return IssuedSession{}, fmt.Errorf("create session: %w", err)
	}

	return IssuedSession{Token: token, ExpiresAt: expiresAt}, nil
}

// GetSessionUser resolves a raw token to the owning identity. A nil identity
// means anonymous: empty token, unknown token or expired session. Storage
// failures are returned as errors.
func (s *Service) GetSessionUser(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	session, identity, err := s.sessions.GetByTokenHash(ctx, s.tokens.Hash(token))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(s.nowFn()) {
		if err := s.sessions.DeleteByID(ctx, session.SessionID); err != nil {
			warnBestEffort(ctx, "delete_expired_session", err, "session_id", session.SessionID.String())
		}
		return nil, nil
	}

	return &identity, nil
}

// InvalidateSession deletes the session behind token, if any. It never fails.
func (s *Service) InvalidateSession(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	if err := s.sessions.DeleteByTokenHash(ctx, s.tokens.Hash(token)); err != nil {
		warnBestEffort(ctx, "invalidate_session", err)
	}
}

// SweepExpiredSessions removes up to limit sessions whose lifetime has elapsed.
func (s *Service) SweepExpiredSessions(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.sessions.DeleteExpired(ctx, s.nowFn(), limit)
}
