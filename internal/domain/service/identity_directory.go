package service

import "context"

// IdentityDirectory resolves identities (emails) to display names. Every
// requested identity is present in the result; unresolvable ones map to
// entity.UnknownUsername.
type IdentityDirectory interface {
	ResolveDisplayNames(ctx context.Context, identities []string) (map[string]string, error)
}
