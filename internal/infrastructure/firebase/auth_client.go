package firebase

import (
	"context"
	"sync"

	"firebase.google.com/go/v4/auth"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/errors"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// AuthClient adapts the Firebase Auth SDK to the IdentityProvider
// contract. A session is established by verifying the provider-issued
// ID token; afterwards the sync engine only ever reads the cached UID.
type AuthClient struct {
	client *auth.Client
	apiKey string

	mu  sync.RWMutex
	uid string
}

func NewAuthClient(client *auth.Client, apiKey string) *AuthClient {
	return &AuthClient{
		client: client,
		apiKey: apiKey,
	}
}

// SignIn verifies the ID token and caches the resulting UID as the
// active session. Token refresh stays inside the Firebase SDK.
func (a *AuthClient) SignIn(ctx context.Context, idToken string) (string, error) {
	token, err := a.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired session token", err)
	}

	a.mu.Lock()
	a.uid = token.UID
	a.mu.Unlock()

	logger.Info("Session established for user %s", token.UID)
	return token.UID, nil
}

func (a *AuthClient) CurrentUserID() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.uid == "" {
		return "", errors.Unauthorized("No active session", nil)
	}
	return a.uid, nil
}

func (a *AuthClient) SignedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.uid != ""
}

func (a *AuthClient) SignOut(ctx context.Context) error {
	a.mu.Lock()
	uid := a.uid
	a.uid = ""
	a.mu.Unlock()

	if uid == "" {
		return nil
	}

	// Revoking refresh tokens invalidates the session on every device;
	// local teardown already happened above, so a revocation failure is
	// logged and not surfaced.
	if err := a.client.RevokeRefreshTokens(ctx, uid); err != nil {
		logger.Warn("Failed to revoke refresh tokens for user %s: %v", uid, err)
	}

	logger.Info("Session cleared for user %s", uid)
	return nil
}
