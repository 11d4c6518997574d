package identity

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sony/gobreaker"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
)

// Directory resolves display names from the user store. Lookups go through a
// circuit breaker so an unhealthy store fails fast instead of stalling every
// chat request.
type Directory struct {
	users   repository.UserRepository
	breaker *gobreaker.CircuitBreaker
}

type Settings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

func NewDirectory(users repository.UserRepository, settings Settings) *Directory {
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "identity-directory",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return &Directory{
		users:   users,
		breaker: breaker,
	}
}

// ResolveDisplayNames maps every identity to its username, or to
// entity.UnknownUsername when the directory has no usable record.
func (d *Directory) ResolveDisplayNames(ctx context.Context, identities []string) (map[string]string, error) {
	names := make(map[string]string, len(identities))
	unique := make([]string, 0, len(identities))
	for _, id := range identities {
		if _, seen := names[id]; seen {
			continue
		}
		names[id] = entity.UnknownUsername
		if id != "" {
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return names, nil
	}

	result, err := d.breaker.Execute(func() (interface{}, error) {
		return d.users.GetByEmails(ctx, unique)
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Dependency("Identity directory is unavailable", err)
		}
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, errors.Dependency("Failed to resolve display names", err)
	}

	users := result.(map[string]*entity.User)
	for _, id := range unique {
		if u, ok := users[id]; ok && u.Username != "" {
			names[id] = u.Username
		}
	}
	return names, nil
}

func (d *Directory) State() gobreaker.State {
	return d.breaker.State()
}
