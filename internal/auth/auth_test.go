package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-tryon/internal/logger"
)

const testSecret = "test-secret"

func TestExtractTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"bearer", "Bearer abc.def", "abc.def", false},
		{"lowercase scheme", "bearer abc.def", "abc.def", false},
		{"missing", "", "", true},
		{"basic", "Basic Zm9v", "", true},
		{"no token", "Bearer", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractTokenFromRequest(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := NewHMACVerifier(testSecret, "admin")
	token, err := v.Sign(Identity{UserID: "u1", Email: "a@b.c", Name: "Linh", Role: "admin"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(t.Context(), token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Email: "a@b.c", Name: "Linh", Role: "admin"}, id)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v := NewHMACVerifier(testSecret, "admin")

	other, err := NewHMACVerifier("other-secret", "admin").Sign(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(t.Context(), other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.Sign(Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(t.Context(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := v.Sign(Identity{}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(t.Context(), noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(t.Context(), none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_RealmRoles(t *testing.T) {
	var c Claims
	c.Subject = "u1"
	c.Role = "customer"
	c.RealmAccess.Roles = []string{"offline_access", "admin"}

	assert.Equal(t, "admin", c.identity("admin").Role)
	assert.Equal(t, "customer", c.identity("staff").Role)
}

func newRouter(v Verifier) http.Handler {
	log := logger.Discard()
	r := chi.NewRouter()
	r.Use(Middleware(v, log))
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
	r.With(RequireRole(log, "admin")).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	v := NewHMACVerifier(testSecret, "admin")
	customer, err := v.Sign(Identity{UserID: "cust-1", Role: "customer"}, time.Hour)
	require.NoError(t, err)
	admin, err := v.Sign(Identity{UserID: "adm-1", Role: "admin"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		body   string
	}{
		{"no token", "/me", "", http.StatusUnauthorized, ""},
		{"garbage token", "/me", "nope", http.StatusUnauthorized, ""},
		{"customer me", "/me", customer, http.StatusOK, "cust-1"},
		{"customer admin route", "/admin", customer, http.StatusForbidden, ""},
		{"admin route", "/admin", admin, http.StatusNoContent, ""},
	}
	h := newRouter(v)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}
