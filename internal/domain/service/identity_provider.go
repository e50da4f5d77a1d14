package service

import "context"

// IdentityProvider is the session collaborator. The sync engine depends
// only on a stable user identifier and a signed-in boolean; token
// issuance and refresh live entirely in the provider's SDK.
type IdentityProvider interface {
	// CurrentUserID returns the signed-in user's stable identifier, or an
	// UNAUTHORIZED AppError when no session is active.
	CurrentUserID() (string, error)
	SignedIn() bool
	SignOut(ctx context.Context) error
}
