package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"hajzi/pkg/errors"
	"hajzi/pkg/response"
)

// IdentityKey is the echo context key holding the caller's email.
const IdentityKey = "email"

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		email, err := m.Identify(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(IdentityKey, email)
		return next(c)
	}
}

// Identify verifies a raw token, for callers that cannot send headers.
func (m *AuthMiddleware) Identify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}

	email, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		if errors.Is(err, errors.CodeUnauthorized) {
			return "", err
		}
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return email, nil
}

// Identity returns the authenticated email, or "" on public routes.
func Identity(c echo.Context) string {
	email, _ := c.Get(IdentityKey).(string)
	return email
}
