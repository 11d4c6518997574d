package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
)

// Firestore caps the number of values in an "in" filter.
const maxInQueryValues = 30

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByEmails(ctx context.Context, emails []string) (map[string]*entity.User, error) {
	// Requested spellings keyed by canonical form, so results are returned
	// under the caller's keys.
	requested := make(map[string][]string, len(emails))
	canonical := make([]string, 0, len(emails))
	for _, email := range emails {
		key := entity.NormalizeIdentity(email)
		if _, seen := requested[key]; !seen {
			canonical = append(canonical, key)
		}
		requested[key] = append(requested[key], email)
	}

	found := make(map[string]*entity.User, len(emails))
	for start := 0; start < len(canonical); start += maxInQueryValues {
		end := start + maxInQueryValues
		if end > len(canonical) {
			end = len(canonical)
		}

		docs, err := r.client.Collection(usersCollection).
			Where("email", "in", canonical[start:end]).
			Documents(ctx).GetAll()
		if err != nil {
			logger.Error("Firestore error while resolving %d identities: %v", end-start, err)
			return nil, errors.Dependency("Failed to query identity directory", err)
		}

		for _, doc := range docs {
			var user entity.User
			if err := doc.DataTo(&user); err != nil {
				logger.Warn("Skipping malformed user %s: %v", doc.Ref.ID, err)
				continue
			}
			if user.ID == "" {
				user.ID = doc.Ref.ID
			}
			for _, email := range requested[entity.NormalizeIdentity(user.Email)] {
				u := user
				found[email] = &u
			}
		}
	}

	return found, nil
}
