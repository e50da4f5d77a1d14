package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/errors"
)

// GenerateDevToken mints an ID token for the given UID, for local
// development against a real project without a mobile sign-in flow.
// Requires the web API key; without it only the raw custom token is
// returned, which VerifyIDToken will not accept.
func (a *AuthClient) GenerateDevToken(ctx context.Context, uid string) (string, error) {
	customToken, err := a.client.CustomToken(ctx, uid)
	if err != nil {
		return "", errors.Internal("Failed to mint custom token", err)
	}

	if a.apiKey == "" {
		return customToken, nil
	}

	return a.exchangeCustomTokenForIDToken(ctx, customToken)
}

func (a *AuthClient) exchangeCustomTokenForIDToken(ctx context.Context, customToken string) (string, error) {
	url := fmt.Sprintf("https://identitytoolkit.googleapis.com/v1/accounts:signInWithCustomToken?key=%s", a.apiKey)

	body, err := json.Marshal(map[string]interface{}{
		"token":             customToken,
		"returnSecureToken": true,
	})
	if err != nil {
		return "", errors.Internal("Failed to encode token exchange request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Internal("Failed to build token exchange request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Unavailable("Token exchange request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Unauthorized(fmt.Sprintf("Token exchange rejected with status %d", resp.StatusCode), nil)
	}

	var result struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Internal("Failed to decode token exchange response", err)
	}

	return result.IDToken, nil
}
