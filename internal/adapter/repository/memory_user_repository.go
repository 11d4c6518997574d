package repository

import (
	"context"
	"sync"
	"time"

	"hajzi/internal/domain/entity"
)

// MemoryUserRepository is the identity directory used with the in-memory
// store. Unlike the Firestore directory it accepts writes, so development
// users can be registered at runtime.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

// NewMemoryUserRepository returns a directory seeded with users.
func NewMemoryUserRepository(users ...*entity.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]*entity.User)}
	for _, u := range users {
		copied := *u
		r.users[entity.NormalizeIdentity(u.Email)] = &copied
	}
	return r
}

func (r *MemoryUserRepository) GetByEmails(ctx context.Context, emails []string) (map[string]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make(map[string]*entity.User, len(emails))
	for _, email := range emails {
		if u, ok := r.users[entity.NormalizeIdentity(email)]; ok {
			copied := *u
			found[email] = &copied
		}
	}
	return found, nil
}

// Register inserts or replaces the user keyed by its normalised email.
func (r *MemoryUserRepository) Register(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *user
	stored.Email = entity.NormalizeIdentity(user.Email)
	if stored.ID == "" {
		stored.ID = stored.Email
	}
	now := time.Now()
	if existing, ok := r.users[stored.Email]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.users[stored.Email] = &stored
	return nil
}
