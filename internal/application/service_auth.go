package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
)

func (s *Service) Register(ctx context.Context, req RegisterRequest) (AccountResponse, error) {
	email, err := domain.NormalizeEmail(req.Email)
	if err != nil {
		return AccountResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return AccountResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AccountResponse{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return AccountResponse{}, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	event, err := newOutboxEvent(eventTypeUserRegistered, email, map[string]any{
		"email":         email,
		"role":          domain.RoleCustomer,
		"registered_at": now,
	}, now)
	if err != nil {
		return AccountResponse{}, err
	}

	user, err := s.users.Create(ctx, ports.CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleCustomer,
		CreatedAt:    now,
	}, event)
	if err != nil {
		return AccountResponse{}, err
	}

	return AccountResponse{UserID: user.UserID, Email: user.Email}, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller and both count toward the
// throttle.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	lockKey := "login:" + email
	if s.lockouts != nil {
		state, err := s.lockouts.Get(ctx, lockKey)
		if err != nil {
			warnBestEffort(ctx, "login_throttle_get", err)
		} else if state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
			return LoginResult{}, fmt.Errorf("%w: too many failed attempts, try again later", domain.ErrRateLimited)
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.compareDecoy(req.Password)
		s.recordLoginFailure(ctx, lockKey)
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordLoginFailure(ctx, lockKey)
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	if s.lockouts != nil {
		if err := s.lockouts.Clear(ctx, lockKey); err != nil {
			warnBestEffort(ctx, "login_throttle_clear", err)
		}
	}

	issued, err := s.CreateSession(ctx, user.UserID)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Account: AccountResponse{UserID: user.UserID, Email: user.Email},
		Session: issued,
	}, nil
}

func (s *Service) Logout(ctx context.Context, token string) {
	s.InvalidateSession(ctx, token)
}

// CurrentUser returns the identity behind token, or a nil user when anonymous.
func (s *Service) CurrentUser(ctx context.Context, token string) (SessionResponse, error) {
	identity, err := s.GetSessionUser(ctx, token)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{User: identity}, nil
}

// compareDecoy spends the same bcrypt work as a real password check.
func (s *Service) compareDecoy(password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("storefront-decoy-password")
		if err == nil {
			s.decoyHash = hash
		}
	})
	if s.decoyHash != "" {
		_ = s.hasher.Compare(s.decoyHash, password)
	}
}

func (s *Service) recordLoginFailure(ctx context.Context, lockKey string) {
	if s.lockouts == nil {
		return
	}
	if _, err := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); err != nil {
		warnBestEffort(ctx, "login_throttle_record", err)
	}
}
