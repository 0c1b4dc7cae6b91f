package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/alert"
	"hydrozap/internal/common"
	"hydrozap/internal/notify"
	"hydrozap/internal/realtime"
	"hydrozap/internal/store"
)

func newTestService(t *testing.T) (*Service, store.DocumentStore) {
	t.Helper()
	db := store.NewMemoryStore()
	dispatcher := notify.NewDispatcher(db, notify.NopGateway{})
	notifier := realtime.NewNotifier(realtime.NopPublisher{}, db)
	alerts := alert.NewService(db, dispatcher, notifier)
	return NewService(db, alerts), db
}

func TestIngestUnknownDevice(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, err := service.Ingest(ctx, "ghost", Reading{PH: 6.0})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "Add the device first before the sensor sends data.")
}

func TestIngestHistorizesAndSnapshots(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
	}))

	triggered, err := service.Ingest(ctx, "dev1", Reading{
		Temperature: 21.5,
		Humidity:    60,
		PH:          6.2,
		EC:          1.4,
		TDS:         980,
		WaterLevel:  80,
	})
	require.NoError(t, err)
	assert.Empty(t, triggered)

	raw, err := db.Get(ctx, "devices/dev1/sensors")
	require.NoError(t, err)
	sensors, ok := raw.(map[string]any)
	require.True(t, ok)

	// Flat snapshot keys sit alongside the historized child.
	assert.Equal(t, 6.2, sensors["ph"])
	assert.Equal(t, 1.4, sensors["ec"])
	assert.NotEmpty(t, sensors["timestamp"])

	nested := 0
	for _, doc := range sensors {
		if reading, isMap := doc.(map[string]any); isMap {
			nested++
			assert.Equal(t, 6.2, reading["ph"])
			assert.NotEmpty(t, reading["timestamp"])
		}
	}
	assert.Equal(t, 1, nested)
}

func TestIngestFiresGrowRules(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
	}))
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
			},
		},
	}))

	triggered, err := service.Ingest(ctx, "dev1", Reading{PH: 5.0, EC: 1.5})
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, "ph_low", triggered[0].AlertData.AlertType)
	assert.Equal(t, "g1", triggered[0].GrowID)
}

func TestHistoricalFiltersWindowAndType(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
		"sensors": map[string]any{
			"r1": map[string]any{
				"timestamp":   "2026-08-01T10:00:00Z",
				"ph":          6.1,
				"ec":          1.3,
				"temperature": 21.0,
			},
			"r2": map[string]any{
				"timestamp": "2026-08-02T10:00:00Z",
				"ph":        6.4,
				"ec":        1.5,
			},
			"r3": map[string]any{
				"timestamp": "2026-08-10T10:00:00Z",
				"ph":        6.9,
			},
		},
	}))

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	points, err := service.Historical(ctx, "dev1", start, end, "ph")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 6.1, points["2026-08-01T10:00:00Z"]["ph"])
	assert.Equal(t, 6.4, points["2026-08-02T10:00:00Z"]["ph"])
	assert.NotContains(t, points["2026-08-01T10:00:00Z"], "ec")
	assert.NotContains(t, points, "2026-08-10T10:00:00Z")

	all, err := service.Historical(ctx, "dev1", start, end, "all")
	require.NoError(t, err)
	assert.Equal(t, 1.3, all["2026-08-01T10:00:00Z"]["ec"])
	assert.Equal(t, 21.0, all["2026-08-01T10:00:00Z"]["temperature"])
}

func TestHistoricalNoData(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
	}))

	_, err := service.Historical(ctx, "dev1", time.Time{}, time.Now(), "ph")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "No sensor data available for this device")
}

func TestDosingLogs(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
		"dosing_logs": map[string]any{
			"l1": map[string]any{
				"timestamp": "2026-08-01T08:00:00Z",
				"mode":      "auto",
				"type":      "ph_up",
				"volume_ml": 12.5,
			},
			"l2": map[string]any{
				"timestamp": "2026-08-05T08:00:00Z",
				"mode":      "manual",
				"type":      "nutrient_a",
				"volume_ml": 30.0,
			},
		},
	}))

	logs, err := service.DosingLogs(ctx, "dev1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	start := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	logs, err = service.DosingLogs(ctx, "dev1", &start, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "l2", logs[0].LogID)
	assert.Equal(t, "manual", logs[0].Mode)
	assert.Equal(t, 30.0, logs[0].VolumeML)
}

func TestDosingLogsEmpty(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Balcony Kit",
	}))

	_, err := service.DosingLogs(ctx, "dev1", nil, nil)
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "No dosing logs available for this device")
}

func TestRecordActuatorState(t *testing.T) {
	ctx := context.Background()
	service, db := newTestService(t)

	require.NoError(t, service.RecordActuatorState(ctx, "dev1", "on", "off"))

	raw, err := db.Get(ctx, "devices/dev1/actuator_logs")
	require.NoError(t, err)
	samples := store.Children(raw)
	require.Len(t, samples, 1)
	for _, doc := range samples {
		sample, isMap := doc.(map[string]any)
		require.True(t, isMap)
		assert.Equal(t, "on", sample["pump_status"])
		assert.Equal(t, "off", sample["light_status"])
		assert.NotEmpty(t, sample["timestamp"])
	}
}
