package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hydrozap/internal/common"
)

// Scopes the realtime database REST surface requires.
var databaseScopes = []string{
	"https://www.googleapis.com/auth/firebase.database",
	"https://www.googleapis.com/auth/userinfo.email",
}

// FirebaseStore talks to the hosted realtime database over its REST surface:
// GET/PUT/PATCH/DELETE/POST on {base}/{path}.json, equality queries via
// orderBy/equalTo. Any transport or non-2xx failure surfaces as
// common.ErrUpstream.
type FirebaseStore struct {
	baseURL string
	tokens  *TokenSource
	client  *http.Client
}

func NewFirebaseStore(databaseURL string, account *ServiceAccount) *FirebaseStore {
	return &FirebaseStore{
		baseURL: strings.TrimRight(databaseURL, "/"),
		tokens:  NewTokenSource(account, databaseScopes...),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (f *FirebaseStore) Get(ctx context.Context, path string) (any, error) {
	var out any
	if err := f.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *FirebaseStore) Set(ctx context.Context, path string, value any) error {
	return f.do(ctx, http.MethodPut, path, "", value, nil)
}

func (f *FirebaseStore) Update(ctx context.Context, path string, fields map[string]any) error {
	// PATCH with a null field value deletes the key server-side.
	return f.do(ctx, http.MethodPatch, path, "", fields, nil)
}

func (f *FirebaseStore) Delete(ctx context.Context, path string) error {
	return f.do(ctx, http.MethodDelete, path, "", nil, nil)
}

func (f *FirebaseStore) Push(ctx context.Context, path string, value any) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := f.do(ctx, http.MethodPost, path, "", value, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

func (f *FirebaseStore) QueryEqual(ctx context.Context, path, child string, value any) (map[string]any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("query value not serializable: %w", err)
	}
	query := url.Values{}
	query.Set("orderBy", fmt.Sprintf("%q", child))
	query.Set("equalTo", string(encoded))

	var out any
	if err := f.do(ctx, http.MethodGet, path, query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return Children(out), nil
}

func (f *FirebaseStore) do(ctx context.Context, method, path, query string, body, out any) error {
	token, err := f.tokens.Token()
	if err != nil {
		return common.Upstreamf("database auth failed: %v", err)
	}

	endpoint := fmt.Sprintf("%s/%s.json", f.baseURL, strings.Trim(path, "/"))
	if query != "" {
		endpoint += "?" + query
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("store value not serializable: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build database request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return common.Upstreamf("database request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return common.Upstreamf("database returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return common.Upstreamf("database response not parseable: %v", err)
		}
	}
	return nil
}
