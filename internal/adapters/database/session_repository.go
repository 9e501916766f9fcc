package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/storefront/internal/domain"
	"github.com/viralforge/storefront/internal/ports"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func (r *sessionRepository) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	rec := sessionModel{
		SessionID: uuid.New(),
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		ExpiresAt: params.ExpiresAt,
		CreatedAt: params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domain.Session{}, err
	}
	return toDomainSession(rec), nil
}

func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (domain.Session, domain.Identity, error) {
	var rows []sessionWithUser
	err := r.db.WithContext(ctx).
		Table("sessions").
		Select("sessions.session_id, sessions.user_id, sessions.token_hash, sessions.expires_at, sessions.created_at, users.email, users.role").
		Joins("JOIN users ON users.user_id = sessions.user_id").
		Where("sessions.token_hash = ?", tokenHash).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return domain.Session{}, domain.Identity{}, err
	}
	if len(rows) == 0 {
		return domain.Session{}, domain.Identity{}, domain.ErrNotFound
	}
	row := rows[0]
	session := domain.Session{
		SessionID: row.SessionID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}
	identity := domain.Identity{
		UserID: row.UserID,
		Email:  row.Email,
		Role:   domain.Role(row.Role),
	}
	return session, identity, nil
}

func (r *sessionRepository) DeleteByID(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&sessionModel{}).Error
}

func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&sessionModel{}).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time, limit int) (int64, error) {
	db := r.db.WithContext(ctx)
	expired := db.Model(&sessionModel{}).
		Select("session_id").
		Where("expires_at < ?", before).
		Order("expires_at ASC").
		Limit(limit)
	res := db.Where("session_id IN (?)", expired).Delete(&sessionModel{})
	return res.RowsAffected, res.Error
}
