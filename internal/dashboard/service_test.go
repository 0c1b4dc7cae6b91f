package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/store"
)

func TestCountsEmptyUser(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	counts, err := service.Counts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestCountsOnlyActiveGrows(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	service := NewService(db)

	require.NoError(t, db.Set(ctx, "devices/dev1", map[string]any{"user_id": "u1"}))
	require.NoError(t, db.Set(ctx, "devices/dev2", map[string]any{"user_id": "u1"}))
	require.NoError(t, db.Set(ctx, "devices/dev3", map[string]any{"user_id": "u2"}))

	require.NoError(t, db.Set(ctx, "alerts/u1/a1", map[string]any{"status": "unread"}))
	require.NoError(t, db.Set(ctx, "alerts/u1/a2", map[string]any{"status": "read"}))

	require.NoError(t, db.Set(ctx, "grows/g1", map[string]any{"user_id": "u1", "status": "active"}))
	require.NoError(t, db.Set(ctx, "grows/g2", map[string]any{"user_id": "u1", "status": "harvested"}))
	require.NoError(t, db.Set(ctx, "grows/g3", map[string]any{"user_id": "u2", "status": "active"}))

	counts, err := service.Counts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Counts{DeviceCount: 2, AlertCount: 2, GrowCount: 1}, counts)
}
