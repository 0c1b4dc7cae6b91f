package store

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const googleTokenURL = "https://oauth2.googleapis.com/token"

// ServiceAccount holds the fields of a Google service-account key file that
// token minting needs.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadServiceAccount reads a service-account JSON key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("failed to parse service account file: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("service account file missing client_email or private_key")
	}
	return &sa, nil
}

// TokenSource mints OAuth2 access tokens for Google APIs from a service
// account: it signs an RS256 assertion and exchanges it at the token
// endpoint. Tokens are cached until shortly before expiry. The same source
// serves both the realtime database and the push gateway, just with
// different scopes.
type TokenSource struct {
	account *ServiceAccount
	scopes  []string
	client  *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(account *ServiceAccount, scopes ...string) *TokenSource {
	return &TokenSource{
		account: account,
		scopes:  scopes,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns a valid access token, refreshing if the cached one is within
// a minute of expiry.
func (ts *TokenSource) Token() (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Until(ts.expires) > time.Minute {
		return ts.token, nil
	}

	assertion, err := ts.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	resp, err := ts.client.Post(googleTokenURL, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	ts.token = parsed.AccessToken
	ts.expires = time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return ts.token, nil
}

func (ts *TokenSource) signAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(ts.account.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse service account private key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   ts.account.ClientEmail,
		"scope": strings.Join(ts.scopes, " "),
		"aud":   googleTokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token assertion: %w", err)
	}
	return signed, nil
}
