package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/proconnect/prowallet/internal/handlers/userctx"
	"github.com/proconnect/prowallet/internal/models"
)

// Allow to use a function as token verifier
type verifierFunc func(token string) (models.User, error)

func (f verifierFunc) Verify(token string) (models.User, error) {
	return f(token)
}

func TestAuth(t *testing.T) {
	userID := uuid.New()

	// Handler that echoes the role of the user the middleware injected
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok, "middleware has to set user before handler runs")

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Role))
		require.NoError(t, err, "should write role to response")
	})

	t.Run("auth ok", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(token string) (models.User, error) {
			require.Equal(t, "valid-token", token, "middleware should pass the bearer token as is")
			return models.User{ID: userID, Role: models.RoleProfessional}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer valid-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", string(body))
		require.Equal(t, models.RoleProfessional, string(body), "should return role in response")
	})

	t.Run("no token", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(token string) (models.User, error) {
			t.Fatal("verifier must not be called without a bearer token")
			return models.User{}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bad token", func(t *testing.T) {
		middleware := Auth(verifierFunc(func(token string) (models.User, error) {
			return models.User{}, errors.New("expired")
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer expired-token")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequireRole(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(t *testing.T, user *models.User) *http.Response {
		t.Helper()

		h := RequireRole(models.RoleAdmin)(handler)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if user != nil {
			req = req.WithContext(userctx.New(req.Context(), *user))
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Result()
	}

	t.Run("admin passes", func(t *testing.T) {
		resp := do(t, &models.User{ID: uuid.New(), Role: models.RoleAdmin})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong role rejected", func(t *testing.T) {
		resp := do(t, &models.User{ID: uuid.New(), Role: models.RoleProfessional})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("no user rejected", func(t *testing.T) {
		resp := do(t, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
