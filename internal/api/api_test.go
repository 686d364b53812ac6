package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuanvm/fashionstore-backend/internal/apperr"
	"github.com/tuanvm/fashionstore-backend/internal/auth"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
)

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.BadRequest("bad"), http.StatusBadRequest},
		{apperr.NotFound("missing"), http.StatusNotFound},
		{apperr.Conflict("dup"), http.StatusConflict},
		{apperr.Unauthorized("who"), http.StatusUnauthorized},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, logger.NewNop(), tc.err)
		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, logger.NewNop(), errors.New("pq: password authentication failed"))
	require.NotContains(t, rec.Body.String(), "password")
}

func TestIdentityMiddleware(t *testing.T) {
	var gotUser int64
	var gotAdmin bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser = auth.UserID(r.Context())
		gotAdmin = auth.IsAdmin(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "42")
	req.Header.Set("X-User-Role", "admin")
	Identity(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, int64(42), gotUser)
	require.True(t, gotAdmin)

	// Garbage ids stay anonymous.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "not-a-number")
	Identity(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Zero(t, gotUser)
}

func TestRequireGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	// Anonymous request.
	rec := httptest.NewRecorder()
	RequireUser(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authenticated but not admin.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), 42, "customer"))
	rec = httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin passes.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), 42, auth.RoleAdmin))
	rec = httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
