package http

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/viralforge/storefront/internal/domain"
)

func TestLevelForStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelInfo, levelForStatus(201))
	assert.Equal(t, slog.LevelWarn, levelForStatus(404))
	assert.Equal(t, slog.LevelError, levelForStatus(500))
}

func TestRequestAttrsIncludeGateIdentity(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKeyRequestID, "req-1")
	assert.Equal(t, []slog.Attr{slog.String("request_id", "req-1")}, requestAttrs(ctx))

	userID := uuid.New()
	ctx = context.WithValue(ctx, ctxKeyIdentity, domain.Identity{UserID: userID, Role: domain.RoleAdmin})
	assert.Equal(t, []slog.Attr{
		slog.String("request_id", "req-1"),
		slog.String("user_id", userID.String()),
		slog.String("role", "ADMIN"),
	}, requestAttrs(ctx))
}
