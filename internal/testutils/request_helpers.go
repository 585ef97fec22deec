package testutils

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/google/uuid"
	"github.com/servicehubhq/cart-service/internal/api/middleware"
	"github.com/servicehubhq/cart-service/internal/models"
)

// CreateAuthenticatedRequest builds a request carrying a verified identity
// and a quiet request-scoped logger, the way the middleware chain would.
func CreateAuthenticatedRequest(method, target string, body io.Reader, deviceID string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, body)

	if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}

	claims := &models.Claims{UserID: userID, Email: "test@example.com"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.ContextWithIdentity(req.Context(), claims, "test-token")
	ctx = context.WithValue(ctx, middleware.LoggerKey, logger)

	return req.WithContext(ctx)
}

// CreateAnonymousRequest builds a request with no identity attached.
func CreateAnonymousRequest(method, target string, body io.Reader, deviceID string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.WithValue(req.Context(), middleware.LoggerKey, logger)

	return req.WithContext(ctx)
}
