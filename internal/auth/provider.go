// Package auth fronts the external identity provider and the stored user
// profiles. Credentials never live in this system; the provider owns them.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hydrozap/internal/common"
)

// Identity is the provider's view of an authenticated user.
type Identity struct {
	UID     string
	Email   string
	Name    string
	IDToken string
}

// IdentityProvider is the narrow surface this system needs from the
// external identity service.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	VerifyIDToken(token string) (string, error)
	UpdatePassword(ctx context.Context, idToken, newPassword string) error
}

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// GoogleIdentityProvider talks to the Identity Toolkit REST API with a
// plain web API key.
type GoogleIdentityProvider struct {
	apiKey string
	client *http.Client
}

func NewGoogleIdentityProvider(apiKey string) *GoogleIdentityProvider {
	return &GoogleIdentityProvider{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *GoogleIdentityProvider) post(ctx context.Context, endpoint string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s?key=%s", identityToolkitURL, endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return common.Upstreamf("identity provider unreachable: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var parsed struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
			return common.Validationf("%s", parsed.Error.Message)
		}
		return common.Upstreamf("identity provider returned %d", resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}

func (p *GoogleIdentityProvider) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	var resp struct {
		LocalID string `json:"localId"`
		IDToken string `json:"idToken"`
	}
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"displayName":       displayName,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Identity{UID: resp.LocalID, Email: email, Name: displayName, IDToken: resp.IDToken}, nil
}

func (p *GoogleIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	var resp struct {
		LocalID string `json:"localId"`
		IDToken string `json:"idToken"`
	}
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Identity{UID: resp.LocalID, Email: email, IDToken: resp.IDToken}, nil
}

func (p *GoogleIdentityProvider) SendPasswordReset(ctx context.Context, email string) error {
	return p.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

// VerifyIDToken resolves a token to its UID via the provider's lookup
// endpoint.
func (p *GoogleIdentityProvider) VerifyIDToken(token string) (string, error) {
	var resp struct {
		Users []struct {
			LocalID string `json:"localId"`
		} `json:"users"`
	}
	err := p.post(context.Background(), "accounts:lookup", map[string]any{"idToken": token}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Users) == 0 {
		return "", common.AccessDeniedf("invalid token")
	}
	return resp.Users[0].LocalID, nil
}

func (p *GoogleIdentityProvider) UpdatePassword(ctx context.Context, idToken, newPassword string) error {
	return p.post(ctx, "accounts:update", map[string]any{
		"idToken":           idToken,
		"password":          newPassword,
		"returnSecureToken": false,
	}, nil)
}
