package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	err := db.Set(ctx, "devices/dev1", map[string]any{
		"device_name": "Kitchen Kit",
		"user_id":     "u1",
	})
	require.NoError(t, err)

	raw, err := db.Get(ctx, "devices/dev1")
	require.NoError(t, err)
	doc, ok := raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Kitchen Kit", doc["device_name"])

	name, err := db.Get(ctx, "devices/dev1/device_name")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen Kit", name)
}

func TestMemoryStoreGetMissingIsNil(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	raw, err := db.Get(ctx, "devices/nope")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestMemoryStoreUpdateMerges(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{
		"status":    "active",
		"grow_name": "Basil",
	}))
	require.NoError(t, db.Update(ctx, "grows/g1", map[string]any{
		"status": "harvested",
	}))

	raw, err := db.Get(ctx, "grows/g1")
	require.NoError(t, err)
	doc := raw.(map[string]any)
	assert.Equal(t, "harvested", doc["status"])
	assert.Equal(t, "Basil", doc["grow_name"])
}

func TestMemoryStoreUpdateNilDeletesKey(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{
		"status":         "in_use",
		"active_grow_id": "g1",
	}))
	require.NoError(t, db.Update(ctx, "devices/dev1", map[string]any{
		"status":         "available",
		"active_grow_id": nil,
	}))

	raw, err := db.Get(ctx, "devices/dev1")
	require.NoError(t, err)
	doc := raw.(map[string]any)
	assert.Equal(t, "available", doc["status"])
	assert.NotContains(t, doc, "active_grow_id")
}

func TestMemoryStoreUpdateCreatesMissingNode(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	require.NoError(t, db.Update(ctx, "users/u1/preferences", map[string]any{
		"ph_level_alerts_enabled": false,
	}))

	raw, err := db.Get(ctx, "users/u1/preferences")
	require.NoError(t, err)
	doc := raw.(map[string]any)
	assert.Equal(t, false, doc["ph_level_alerts_enabled"])
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{"status": "on"}))
	require.NoError(t, db.Delete(ctx, "devices/dev1"))

	raw, err := db.Get(ctx, "devices/dev1")
	require.NoError(t, err)
	assert.Nil(t, raw)

	// Deleting a missing path is a no-op.
	require.NoError(t, db.Delete(ctx, "devices/dev1"))
}

func TestMemoryStorePushGeneratesDistinctKeys(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	k1, err := db.Push(ctx, "sensors/dev1", map[string]any{"ph": 6.0})
	require.NoError(t, err)
	k2, err := db.Push(ctx, "sensors/dev1", map[string]any{"ph": 6.1})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	raw, err := db.Get(ctx, "sensors/dev1")
	require.NoError(t, err)
	assert.Len(t, Children(raw), 2)
}

func TestMemoryStoreQueryEqual(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{"user_id": "u1"}))
	require.NoError(t, db.Set(ctx, "devices/dev2", map[string]any{"user_id": "u2"}))
	require.NoError(t, db.Set(ctx, "devices/dev3", map[string]any{"user_id": "u1"}))

	matches, err := db.QueryEqual(ctx, "devices", "user_id", "u1")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Contains(t, matches, "dev1")
	assert.Contains(t, matches, "dev3")

	none, err := db.QueryEqual(ctx, "devices", "user_id", "u9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryStore()

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{"status": "on"}))

	raw, err := db.Get(ctx, "devices/dev1")
	require.NoError(t, err)
	raw.(map[string]any)["status"] = "tampered"

	again, err := db.Get(ctx, "devices/dev1")
	require.NoError(t, err)
	assert.Equal(t, "on", again.(map[string]any)["status"])
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	type sample struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	encoded, err := Encode(sample{Name: "ph", Value: 6.2})
	require.NoError(t, err)
	assert.Equal(t, "ph", encoded["name"])

	var out sample
	require.NoError(t, Decode(encoded, &out))
	assert.Equal(t, 6.2, out.Value)
}
