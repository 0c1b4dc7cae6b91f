package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

// TokenRecord is one registered push target, keyed by a hash of the token.
type TokenRecord struct {
	Token     string `json:"token"`
	CreatedAt string `json:"created_at"`
	LastUsed  string `json:"last_used"`
	IsActive  bool   `json:"is_active"`
	Error     string `json:"error,omitempty"`
}

// DeliveryReport summarizes one SendToUser call.
type DeliveryReport struct {
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
	Message      string `json:"message,omitempty"`
}

// Dispatcher resolves a user's tokens, applies preference policy, sends
// through the gateway and reconciles token liveness from the results.
type Dispatcher struct {
	db      store.DocumentStore
	gateway Gateway
}

func NewDispatcher(db store.DocumentStore, gateway Gateway) *Dispatcher {
	return &Dispatcher{db: db, gateway: gateway}
}

// TokenHash is the content-addressed key a token is stored under.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokensPath(userID string) string {
	return "users/" + userID + "/fcm_tokens"
}

// RegisterToken stores a push token for the user. Re-registering the same
// token overwrites the existing record, reactivating it.
func (d *Dispatcher) RegisterToken(ctx context.Context, userID, token string) error {
	record := TokenRecord{
		Token:     token,
		CreatedAt: common.Now(),
		LastUsed:  common.Now(),
		IsActive:  true,
	}
	encoded, err := store.Encode(record)
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}
	if err := d.db.Set(ctx, tokensPath(userID)+"/"+TokenHash(token), encoded); err != nil {
		return fmt.Errorf("failed to register FCM token: %w", err)
	}
	return nil
}

// UnregisterToken removes a push token.
func (d *Dispatcher) UnregisterToken(ctx context.Context, userID, token string) error {
	path := tokensPath(userID) + "/" + TokenHash(token)
	raw, err := d.db.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to check FCM token: %w", err)
	}
	if raw == nil {
		return common.NotFoundf("Token not found")
	}
	if err := d.db.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to unregister FCM token: %w", err)
	}
	return nil
}

// SendToUser delivers a notification to every active token the user has.
// Gateway failures never surface as errors; a token that fails delivery is
// deactivated so it is skipped next time.
func (d *Dispatcher) SendToUser(ctx context.Context, userID, title, body string, data map[string]string) DeliveryReport {
	raw, err := d.db.Get(ctx, tokensPath(userID))
	if err != nil {
		log.Printf("❌ Failed to load FCM tokens for user %s: %v", userID, err)
		return DeliveryReport{Message: "Failed to load tokens"}
	}

	var tokens []string
	for _, doc := range store.Children(raw) {
		switch record := doc.(type) {
		case map[string]any:
			token, _ := record["token"].(string)
			if token == "" {
				continue
			}
			if active, present := record["is_active"].(bool); present && !active {
				continue
			}
			tokens = append(tokens, token)
		case string:
			// Legacy records stored the bare token string.
			if record != "" {
				tokens = append(tokens, record)
			}
		}
	}

	if len(tokens) == 0 {
		log.Printf("⚠️ No FCM tokens found for user %s", userID)
		return DeliveryReport{Message: "No FCM tokens found for user"}
	}

	var results []SendResult
	if len(tokens) == 1 {
		results = []SendResult{d.gateway.SendToToken(ctx, tokens[0], title, body, data)}
	} else {
		results = d.gateway.SendMulticast(ctx, tokens, title, body, data)
	}

	report := DeliveryReport{}
	for i, result := range results {
		token := tokens[i]
		if result.Token != "" {
			token = result.Token
		}
		tokenPath := tokensPath(userID) + "/" + TokenHash(token)
		if result.Success {
			report.SuccessCount++
			if err := d.db.Update(ctx, tokenPath, map[string]any{"last_used": common.Now()}); err != nil {
				log.Printf("⚠️ Failed to stamp last_used on token for user %s: %v", userID, err)
			}
		} else {
			report.FailureCount++
			err := d.db.Update(ctx, tokenPath, map[string]any{
				"is_active": false,
				"error":     result.Error,
			})
			if err != nil {
				log.Printf("⚠️ Failed to deactivate token for user %s: %v", userID, err)
			}
		}
	}

	if report.FailureCount > 0 {
		log.Printf("⚠️ %d of %d notifications failed for user %s", report.FailureCount, len(results), userID)
	}
	return report
}

// alert type to preference key. Types missing here always notify.
var preferenceKeys = map[string]string{
	"ph":          "ph_level_alerts_enabled",
	"ec":          "ec_alerts_enabled",
	"temperature": "temperature_alerts_enabled",
	"humidity":    "humidity_alerts_enabled",
	"water_level": "water_level_alerts_enabled",
}

// ShouldNotify applies the preference policy. High priority always notifies,
// and every failure mode falls open so a safety alert is never silently
// dropped by a preference lookup problem.
func (d *Dispatcher) ShouldNotify(ctx context.Context, userID, alertType, priority string) bool {
	if priority == "high" {
		return true
	}

	key, known := preferenceKeys[alertType]
	if !known {
		return true
	}

	raw, err := d.db.Get(ctx, "users/"+userID+"/notification_preferences")
	if err != nil {
		log.Printf("⚠️ Failed to load notification preferences for user %s: %v", userID, err)
		return true
	}
	prefs, ok := raw.(map[string]any)
	if !ok {
		return true
	}
	if enabled, present := prefs[key].(bool); present {
		return enabled
	}
	return true
}

// Preferences returns the stored preference map, which may be nil.
func (d *Dispatcher) Preferences(ctx context.Context, userID string) (map[string]any, error) {
	raw, err := d.db.Get(ctx, "users/"+userID+"/notification_preferences")
	if err != nil {
		return nil, fmt.Errorf("failed to load notification preferences: %w", err)
	}
	return store.Children(raw), nil
}

// UpdatePreferences merges the given preference keys.
func (d *Dispatcher) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) error {
	err := d.db.Update(ctx, "users/"+userID+"/notification_preferences", prefs)
	if err != nil {
		return fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return nil
}
