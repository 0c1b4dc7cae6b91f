// Package notify delivers push notifications to a user's registered devices
// and enforces the per-user notification preference policy.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hydrozap/internal/store"
)

// SendResult is the per-token delivery outcome.
type SendResult struct {
	Token     string `json:"token,omitempty"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Gateway is the push provider surface. Implementations report failures in
// the result, not as errors, so a dead token can never abort a harvest or
// alert write.
type Gateway interface {
	SendToToken(ctx context.Context, token, title, body string, data map[string]string) SendResult
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) []SendResult
}

// NopGateway accepts every send without delivering anything. Used when no
// push credentials are configured.
type NopGateway struct{}

func (NopGateway) SendToToken(_ context.Context, token, _, _ string, _ map[string]string) SendResult {
	return SendResult{Token: token, Success: true, MessageID: "nop"}
}

func (NopGateway) SendMulticast(_ context.Context, tokens []string, _, _ string, _ map[string]string) []SendResult {
	results := make([]SendResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, SendResult{Token: token, Success: true, MessageID: "nop"})
	}
	return results
}

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// FCMGateway sends through the FCM HTTP v1 API. The admin SDK's batch
// endpoint is unreliable, so multicast is a per-token loop over the plain
// send endpoint.
type FCMGateway struct {
	projectID string
	tokens    *store.TokenSource
	client    *http.Client
}

func NewFCMGateway(account *store.ServiceAccount) *FCMGateway {
	return &FCMGateway{
		projectID: account.ProjectID,
		tokens:    store.NewTokenSource(account, messagingScope),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *FCMGateway) SendToToken(ctx context.Context, token, title, body string, data map[string]string) SendResult {
	accessToken, err := g.tokens.Token()
	if err != nil {
		return SendResult{Token: token, Error: fmt.Sprintf("failed to get access token: %v", err)}
	}

	if data == nil {
		data = map[string]string{}
	}
	payload := map[string]any{
		"message": map[string]any{
			"token": token,
			"notification": map[string]any{
				"title": title,
				"body":  body,
			},
			"data": data,
			"android": map[string]any{
				"priority": "high",
				"notification": map[string]any{
					"sound": "default",
				},
			},
			"apns": map[string]any{
				"payload": map[string]any{
					"aps": map[string]any{
						"sound":             "default",
						"badge":             1,
						"content-available": 1,
					},
				},
			},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return SendResult{Token: token, Error: err.Error()}
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", g.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return SendResult{Token: token, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return SendResult{Token: token, Error: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return SendResult{
			Token: token,
			Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var parsed struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return SendResult{Token: token, Error: err.Error()}
	}
	return SendResult{Token: token, Success: true, MessageID: parsed.Name}
}

func (g *FCMGateway) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) []SendResult {
	results := make([]SendResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, g.SendToToken(ctx, token, title, body, data))
	}
	return results
}
