package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func gateProbe(t *testing.T) (*Gate, http.Handler, *bool, *int64) {
	t.Helper()

	var reached bool
	var seenUserID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if id, ok := UserID(r.Context()); ok {
			seenUserID = id
		}
		w.WriteHeader(http.StatusOK)
	})

	gate := NewGate(newTestTokenService())
	return gate, gate.Middleware(next), &reached, &seenUserID
}

func unauthorizedMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "error", body["status"])
	return body["message"]
}

func TestGateAllowsExemptPaths(t *testing.T) {
	t.Parallel()

	for _, path := range []string{
		"/api/login", "/api/register", "/api/token/refresh",
		"/api/send-otp", "/api/reset-password", "/health", "/media/logo.png",
	} {
		t.Run(path, func(t *testing.T) {
			_, handler, reached, _ := gateProbe(t)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))

			require.True(t, *reached, "exempt path must bypass the gate")
			require.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestGateMissingToken(t *testing.T) {
	t.Parallel()

	t.Run("no header", func(t *testing.T) {
		t.Parallel()
		_, handler, reached, _ := gateProbe(t)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

		require.False(t, *reached)
		require.Equal(t, "Unauthorized: Access token is missing or invalid.", unauthorizedMessage(t, rec))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		t.Parallel()
		_, handler, reached, _ := gateProbe(t)

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.False(t, *reached)
		require.Equal(t, "Unauthorized: Access token is missing or invalid.", unauthorizedMessage(t, rec))
	})
}

func TestGateExpiredToken(t *testing.T) {
	t.Parallel()

	_, handler, reached, _ := gateProbe(t)

	now := time.Now().UTC()
	expired := signAt(t, []byte("test-secret"), 42, "user", now.Add(-2*time.Hour), now.Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, *reached)
	require.Equal(t, "Token has expired.", unauthorizedMessage(t, rec))
}

func TestGateInvalidToken(t *testing.T) {
	t.Parallel()

	_, handler, reached, _ := gateProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.False(t, *reached)
	require.Equal(t, "Invalid token.", unauthorizedMessage(t, rec))
}

func TestGateAttachesIdentity(t *testing.T) {
	t.Parallel()

	gate, handler, reached, seenUserID := gateProbe(t)

	access, _, err := gate.tokens.Issue(42, "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, *reached)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(42), *seenUserID)
}
