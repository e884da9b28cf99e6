package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/models"
	"github.com/akozlov/webstore/internal/utils/response"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return req.WithContext(middleware.ContextWithLogger(req.Context(), logger))
}

func withClaims(req *http.Request, claims *models.Claims) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)

	return req.WithContext(ctx)
}

func userClaims(userID uuid.UUID) *models.Claims {
	return &models.Claims{UserID: userID, Email: "shopper@example.com", Role: models.RoleUser}
}

func adminClaims() *models.Claims {
	return &models.Claims{UserID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

// decodeData re-marshals the envelope's data into the caller's type.
func decodeData(t *testing.T, resp response.APIResponse, dest any) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}
