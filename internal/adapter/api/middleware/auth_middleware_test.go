package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hajzi/internal/infrastructure/firebase"
	"hajzi/internal/infrastructure/ratelimit"
)

func whoAmI(c echo.Context) error {
	return c.String(http.StatusOK, Identity(c))
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware(firebase.DevTokenVerifier{})
	e := echo.New()

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"valid token", "Bearer dev:Alice@X.com", http.StatusOK, "alice@x.com"},
		{"missing header", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic dev:alice@x.com", http.StatusUnauthorized, "Invalid authorization format"},
		{"rejected token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, auth.Authenticate(whoAmI)(c))
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestRateLimitByIdentity(t *testing.T) {
	limited := RateLimit(ratelimit.NewRateLimiter(0.001, 1))(whoAmI)
	e := echo.New()

	call := func(identity string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.Set(IdentityKey, identity)
		require.NoError(t, limited(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, call("alice@x.com").Code)

	rec := call("alice@x.com")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call("bob@x.com").Code)
}
