package firebase

import (
	"context"
	"strings"

	"hajzi/internal/domain/entity"
	"hajzi/pkg/errors"
)

// DevTokenPrefix marks development tokens of the form "dev:<email>".
const DevTokenPrefix = "dev:"

// DevTokenVerifier accepts development tokens without calling Firebase. It is
// only wired when the in-memory store runs outside production.
type DevTokenVerifier struct{}

func (DevTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if !strings.HasPrefix(token, DevTokenPrefix) {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}

	email := entity.NormalizeIdentity(strings.TrimPrefix(token, DevTokenPrefix))
	if email == "" || !strings.Contains(email, "@") {
		return "", errors.Unauthorized("Token has no email claim", nil)
	}
	return email, nil
}
