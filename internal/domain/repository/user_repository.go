package repository

import (
	"context"

	"hajzi/internal/domain/entity"
)

// UserRepository is the read side of the identity directory. Profile writes
// belong to the profile service.
type UserRepository interface {
	// GetByEmails returns the users found, keyed by email. Missing emails are absent.
	GetByEmails(ctx context.Context, emails []string) (map[string]*entity.User, error)
}
