package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"hajzi/internal/domain/entity"
	"hajzi/pkg/errors"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks a Firebase ID token and returns the caller's identity,
// the normalised email claim.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	return EmailClaim(result.Claims)
}

func EmailClaim(claims map[string]interface{}) (string, error) {
	email, _ := claims["email"].(string)
	email = entity.NormalizeIdentity(email)
	if email == "" {
		return "", errors.Unauthorized("Token has no email claim", nil)
	}
	return email, nil
}
