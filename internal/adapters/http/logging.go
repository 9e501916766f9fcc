package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/viralforge/storefront/internal/domain"
)

// httpLogger scopes the process logger to the HTTP adapter. Bootstrap installs
// the configured JSON logger as the slog default.
func httpLogger() *slog.Logger {
	return slog.Default().With("module", "http", "layer", "adapter")
}

// levelForStatus logs server faults as errors and client mistakes as warnings.
func levelForStatus(statusCode int) slog.Level {
	switch {
	case statusCode >= 500:
		return slog.LevelError
	case statusCode >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// requestAttrs carries the request id and, past the gate, the caller.
func requestAttrs(ctx context.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("request_id", requestIDFromContext(ctx))}
	if identity, ok := identityFromContext(ctx); ok {
		attrs = append(attrs,
			slog.String("user_id", identity.UserID.String()),
			slog.String("role", string(identity.Role)),
		)
	}
	return attrs
}

func logHTTPOperationError(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	attrs := append(requestAttrs(ctx),
		slog.String("operation", operation),
		slog.String("outcome", "failure"),
		slog.Int("status_code", statusCode),
		slog.String("error_code", code),
		slog.String("message", message),
	)
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		attrs = append(attrs,
			slog.String("product_id", stockErr.ProductID.String()),
			slog.String("stock_reason", string(stockErr.Reason)),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	httpLogger().LogAttrs(ctx, levelForStatus(statusCode), "http operation failed", attrs...)
}
