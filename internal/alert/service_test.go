package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
	"hydrozap/internal/notify"
	"hydrozap/internal/realtime"
	"hydrozap/internal/store"
)

// recordingGateway captures every send and can simulate delivery failures.
type recordingGateway struct {
	fail   bool
	titles []string
	bodies []string
	data   []map[string]string
}

func (g *recordingGateway) SendToToken(_ context.Context, token, title, body string, data map[string]string) notify.SendResult {
	g.titles = append(g.titles, title)
	g.bodies = append(g.bodies, body)
	g.data = append(g.data, data)
	if g.fail {
		return notify.SendResult{Token: token, Error: "registration-token-not-registered"}
	}
	return notify.SendResult{Token: token, Success: true, MessageID: "m1"}
}

func (g *recordingGateway) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) []notify.SendResult {
	results := make([]notify.SendResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, g.SendToToken(ctx, token, title, body, data))
	}
	return results
}

func newTestService(t *testing.T, gateway notify.Gateway) (*Service, *notify.Dispatcher, store.DocumentStore) {
	t.Helper()
	db := store.NewMemoryStore()
	dispatcher := notify.NewDispatcher(db, gateway)
	notifier := realtime.NewNotifier(realtime.NopPublisher{}, db)
	return NewService(db, dispatcher, notifier), dispatcher, db
}

func TestDeriveType(t *testing.T) {
	tests := []struct {
		sensor   string
		operator string
		want     string
	}{
		{"pH", "<", "ph_low"},
		{"pH", ">", "ph_high"},
		{"pH", "==", "ph"},
		{"EC", "<", "ec_low"},
		{"EC", ">", "ec_high"},
		{"EC", "==", "ec"},
		{"temperature", "<", "sensor"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveType(tt.sensor, tt.operator),
			"DeriveType(%q, %q)", tt.sensor, tt.operator)
	}
}

func TestEvaluate(t *testing.T) {
	assert.True(t, Evaluate(5.0, "<", 5.5))
	assert.False(t, Evaluate(5.5, "<", 5.5))
	assert.True(t, Evaluate(2.1, ">", 2.0))
	assert.True(t, Evaluate(6.0, "==", 6.0))
	assert.False(t, Evaluate(6.0, "!=", 5.0))
}

func TestSuggestedAction(t *testing.T) {
	assert.Contains(t, SuggestedAction("ph_low"), "pH Up")
	assert.Contains(t, SuggestedAction("ec_high"), "Dilute")
	assert.Contains(t, SuggestedAction("unknown_type"), "Check your system")
}

func TestCheckConditionsFiresMatchingRule(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{}
	service, dispatcher, db := newTestService(t, gateway)

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{
		"device_id": "dev1",
		"user_id":   "u1",
		"status":    "active",
		"controls": map[string]any{
			"condition": []any{
				map[string]any{
					"sensor":   "pH",
					"operator": "<",
					"value":    5.5,
					"action":   "dose",
					"actuator": "phUpper_pump",
				},
				map[string]any{
					"sensor":   "EC",
					"operator": ">",
					"value":    2.0,
					"action":   "dilute",
					"actuator": "flush",
				},
			},
		},
	}))
	require.NoError(t, dispatcher.RegisterToken(ctx, "u1", "tok1"))

	triggered, err := service.CheckConditions(ctx, "dev1", 5.0, 1.5)
	require.NoError(t, err)
	require.Len(t, triggered, 1)

	assert.Equal(t, "g1", triggered[0].GrowID)
	assert.Equal(t, "ph_low", triggered[0].AlertData.AlertType)
	assert.Equal(t, "unread", triggered[0].AlertData.Status)
	assert.Equal(t, "pH < 5.5: dose phUpper_pump", triggered[0].AlertData.Message)

	// Alert is persisted under the grow owner's tree.
	stored, err := service.Get(ctx, "u1", triggered[0].AlertID)
	require.NoError(t, err)
	assert.Equal(t, "ph_low", stored["alert_type"])
	assert.Contains(t, stored["suggested_action"], "pH Up")

	require.Len(t, gateway.titles, 1)
	assert.Equal(t, "⚠️ pH Alert", gateway.titles[0])
	assert.Equal(t, "OPEN_ALERTS_SCREEN", gateway.data[0]["click_action"])
}

func TestCheckConditionsNoMatch(t *testing.T) {
	ctx := context.Background()
	service, _, db := newTestService(t, &recordingGateway{})

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{
		"device_id": "dev1",
		"user_id":   "u1",
		"controls": map[string]any{
			"condition": []any{
				map[string]any{"sensor": "pH", "operator": "<", "value": 5.5},
			},
		},
	}))

	triggered, err := service.CheckConditions(ctx, "dev1", 6.0, 1.5)
	require.NoError(t, err)
	assert.Empty(t, triggered)
}

func TestAlertPersistsWhenPushFails(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{fail: true}
	service, dispatcher, db := newTestService(t, gateway)

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{
		"device_id": "dev1",
		"user_id":   "u1",
		"controls": map[string]any{
			"condition": []any{
				map[string]any{"sensor": "EC", "operator": ">", "value": 2.0},
			},
		},
	}))
	require.NoError(t, dispatcher.RegisterToken(ctx, "u1", "tok1"))

	triggered, err := service.CheckConditions(ctx, "dev1", 6.0, 2.4)
	require.NoError(t, err)
	require.Len(t, triggered, 1)

	count, err := service.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTriggerValidation(t *testing.T) {
	service, _, _ := newTestService(t, &recordingGateway{})

	_, _, _, err := service.Trigger(context.Background(), TriggerRequest{UserID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestTriggerAttachesLatestReading(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{}
	service, dispatcher, db := newTestService(t, gateway)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
		"sensors": map[string]any{
			"r1": map[string]any{"ph": 5.2, "timestamp": "2026-08-30T10:00:00Z"},
			"r2": map[string]any{"ph": 5.0, "timestamp": "2026-08-31T10:00:00Z"},
		},
	}))
	require.NoError(t, dispatcher.RegisterToken(ctx, "u1", "tok1"))

	alertID, alertData, report, err := service.Trigger(ctx, TriggerRequest{
		UserID:   "u1",
		DeviceID: "dev1",
		Message:  "pH dropped below safe range",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, alertID)
	assert.Equal(t, "ph", alertData.AlertType)
	assert.Equal(t, "normal", alertData.Priority)
	assert.Equal(t, 1, report.SuccessCount)

	reading, ok := alertData.SensorData.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-08-31T10:00:00Z", reading["timestamp"])

	require.Len(t, gateway.data, 1)
	assert.Equal(t, "Balcony Kit", gateway.data[0]["device_name"])
}

func TestTriggerKeepsSpecificAlertType(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{}
	service, dispatcher, _ := newTestService(t, gateway)
	require.NoError(t, dispatcher.RegisterToken(ctx, "u1", "tok1"))

	alertID, alertData, _, err := service.Trigger(ctx, TriggerRequest{
		UserID:    "u1",
		DeviceID:  "dev1",
		Message:   "pH dropped below safe range",
		AlertType: "ph_low",
	})
	require.NoError(t, err)
	assert.Equal(t, "ph_low", alertData.AlertType)

	// The specific type keys the suggested action; the sensor class only
	// picks the notification title and the preference gate.
	stored, err := service.Get(ctx, "u1", alertID)
	require.NoError(t, err)
	assert.Equal(t, "ph_low", stored["alert_type"])
	assert.Contains(t, stored["suggested_action"], "pH Up")

	require.Len(t, gateway.titles, 1)
	assert.Equal(t, "⚠️ pH Alert", gateway.titles[0])
	assert.Equal(t, "ph_low", gateway.data[0]["type"])
}

func TestTriggerBlockedByPreferences(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{}
	service, dispatcher, db := newTestService(t, gateway)

	require.NoError(t, db.Set(ctx, "users/u1/notification_preferences", map[string]any{
		"ph_level_alerts_enabled": false,
	}))
	require.NoError(t, dispatcher.RegisterToken(ctx, "u1", "tok1"))

	alertID, _, report, err := service.Trigger(ctx, TriggerRequest{
		UserID:   "u1",
		DeviceID: "dev1",
		Message:  "pH dropped below safe range",
	})
	require.NoError(t, err)
	assert.Empty(t, gateway.titles)
	assert.Contains(t, report.Message, "blocked by user preferences")

	// Blocked delivery still persists the alert.
	_, err = service.Get(ctx, "u1", alertID)
	require.NoError(t, err)
}

func TestTriggerHighPriorityBypassesPreferences(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{}
	service, dispatcher, db := newTestService(t, gateway)

	require.NoError(t, db.Set(ctx, "users/u1/notification_preferences", map[string]any{
		"ph_level_alerts_enabled": false,
	}))
	require.NoError(t, dispatcher.RegisterToken(ctx, "u1", "tok1"))

	_, _, report, err := service.Trigger(ctx, TriggerRequest{
		UserID:   "u1",
		DeviceID: "dev1",
		Message:  "pH critically low",
		Priority: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	require.Len(t, gateway.titles, 1)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	service, dispatcher, db := newTestService(t, &recordingGateway{})
	_ = dispatcher
	require.NoError(t, db.Set(ctx, "alerts/u1/a1", map[string]any{
		"device_id":  "dev1",
		"alert_type": "ph_low",
		"status":     "unread",
	}))

	updated, err := service.UpdateStatus(ctx, "u1", "a1", "read")
	require.NoError(t, err)
	assert.Equal(t, "read", updated["status"])

	_, err = service.UpdateStatus(ctx, "u1", "a1", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	require.NoError(t, service.Delete(ctx, "u1", "a1"))
	err = service.Delete(ctx, "u1", "a1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
