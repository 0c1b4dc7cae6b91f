package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

// outcomeGateway fails delivery for the tokens listed in failing.
type outcomeGateway struct {
	failing map[string]bool
	sent    []string
}

func (g *outcomeGateway) SendToToken(_ context.Context, token, _, _ string, _ map[string]string) SendResult {
	g.sent = append(g.sent, token)
	if g.failing[token] {
		return SendResult{Token: token, Error: "registration-token-not-registered"}
	}
	return SendResult{Token: token, Success: true, MessageID: "m1"}
}

func (g *outcomeGateway) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) []SendResult {
	results := make([]SendResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, g.SendToToken(ctx, token, title, body, data))
	}
	return results
}

func TestRegisterAndUnregisterToken(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := NewDispatcher(db, NopGateway{})

	require.NoError(t, d.RegisterToken(ctx, "u1", "tok1"))

	raw, err := db.Get(ctx, "users/u1/fcm_tokens/"+TokenHash("tok1"))
	require.NoError(t, err)
	record := raw.(map[string]any)
	assert.Equal(t, "tok1", record["token"])
	assert.Equal(t, true, record["is_active"])

	require.NoError(t, d.UnregisterToken(ctx, "u1", "tok1"))
	err = d.UnregisterToken(ctx, "u1", "tok1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRegisterTokenReactivates(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := NewDispatcher(db, NopGateway{})

	require.NoError(t, d.RegisterToken(ctx, "u1", "tok1"))
	require.NoError(t, db.Update(ctx, "users/u1/fcm_tokens/"+TokenHash("tok1"), map[string]any{
		"is_active": false,
		"error":     "registration-token-not-registered",
	}))

	require.NoError(t, d.RegisterToken(ctx, "u1", "tok1"))

	raw, err := db.Get(ctx, "users/u1/fcm_tokens/"+TokenHash("tok1"))
	require.NoError(t, err)
	record := raw.(map[string]any)
	assert.Equal(t, true, record["is_active"])
	assert.NotContains(t, record, "error")
}

func TestSendToUserNoTokens(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(store.NewMemoryStore(), NopGateway{})

	report := d.SendToUser(ctx, "u1", "Title", "Body", nil)
	assert.Equal(t, 0, report.SuccessCount)
	assert.Equal(t, "No FCM tokens found for user", report.Message)
}

func TestSendToUserReconcilesTokenLiveness(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	gateway := &outcomeGateway{failing: map[string]bool{"tok3": true}}
	d := NewDispatcher(db, gateway)

	require.NoError(t, d.RegisterToken(ctx, "u1", "tok1"))
	require.NoError(t, d.RegisterToken(ctx, "u1", "tok2"))
	require.NoError(t, d.RegisterToken(ctx, "u1", "tok3"))

	report := d.SendToUser(ctx, "u1", "Title", "Body", nil)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Len(t, gateway.sent, 3)

	for _, tt := range []struct {
		token  string
		active bool
	}{
		{"tok1", true},
		{"tok2", true},
		{"tok3", false},
	} {
		raw, err := db.Get(ctx, "users/u1/fcm_tokens/"+TokenHash(tt.token))
		require.NoError(t, err)
		record := raw.(map[string]any)
		assert.Equal(t, tt.active, record["is_active"], "token %s", tt.token)
		if !tt.active {
			assert.Equal(t, "registration-token-not-registered", record["error"])
		}
	}
}

func TestSendToUserSkipsInactiveTokens(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	gateway := &outcomeGateway{}
	d := NewDispatcher(db, gateway)

	require.NoError(t, d.RegisterToken(ctx, "u1", "tok1"))
	require.NoError(t, d.RegisterToken(ctx, "u1", "tok2"))
	require.NoError(t, db.Update(ctx, "users/u1/fcm_tokens/"+TokenHash("tok2"), map[string]any{
		"is_active": false,
	}))

	report := d.SendToUser(ctx, "u1", "Title", "Body", nil)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, []string{"tok1"}, gateway.sent)
}

func TestSendToUserAcceptsLegacyBareTokens(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	gateway := &outcomeGateway{}
	d := NewDispatcher(db, gateway)

	require.NoError(t, db.Set(ctx, "users/u1/fcm_tokens/legacykey", "tok-legacy"))

	report := d.SendToUser(ctx, "u1", "Title", "Body", nil)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, []string{"tok-legacy"}, gateway.sent)
}

func TestShouldNotify(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := NewDispatcher(db, NopGateway{})

	// No stored preferences: everything notifies.
	assert.True(t, d.ShouldNotify(ctx, "u1", "ph", "normal"))

	require.NoError(t, db.Set(ctx, "users/u1/notification_preferences", map[string]any{
		"ph_level_alerts_enabled": false,
		"ec_alerts_enabled":       true,
	}))

	assert.False(t, d.ShouldNotify(ctx, "u1", "ph", "normal"))
	assert.True(t, d.ShouldNotify(ctx, "u1", "ec", "normal"))

	// High priority overrides a disabled preference.
	assert.True(t, d.ShouldNotify(ctx, "u1", "ph", "high"))

	// Unknown alert types fall open.
	assert.True(t, d.ShouldNotify(ctx, "u1", "harvest_reminder", "normal"))

	// A preference key the user never set falls open.
	assert.True(t, d.ShouldNotify(ctx, "u1", "temperature", "normal"))
}

func TestUpdatePreferencesMerges(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := NewDispatcher(db, NopGateway{})

	require.NoError(t, d.UpdatePreferences(ctx, "u1", map[string]any{
		"ph_level_alerts_enabled": false,
	}))
	require.NoError(t, d.UpdatePreferences(ctx, "u1", map[string]any{
		"ec_alerts_enabled": false,
	}))

	prefs, err := d.Preferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, false, prefs["ph_level_alerts_enabled"])
	assert.Equal(t, false, prefs["ec_alerts_enabled"])
}

func TestTokenHashIsStable(t *testing.T) {
	assert.Equal(t, TokenHash("tok1"), TokenHash("tok1"))
	assert.NotEqual(t, TokenHash("tok1"), TokenHash("tok2"))
	assert.Len(t, TokenHash("tok1"), 64)
}
