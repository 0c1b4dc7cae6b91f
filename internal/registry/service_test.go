package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

func TestProvisionAndList(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	device, err := service.Provision(ctx, ProvisionRequest{DeviceID: "dev1", Model: "hydro-mini"})
	require.NoError(t, err)
	assert.Equal(t, "available", device.Status)
	assert.True(t, device.Registered)
	assert.NotEmpty(t, device.CreatedAt)

	_, err = service.Provision(ctx, ProvisionRequest{DeviceID: "dev1", Model: "hydro-mini"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "Device already registered")

	devices, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
	assert.Contains(t, devices, "dev1")
}

func TestValidateLifecycle(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	ok, reason, err := service.Validate(ctx, "dev1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Device not registered", reason)

	_, err = service.Provision(ctx, ProvisionRequest{DeviceID: "dev1", Model: "hydro-mini"})
	require.NoError(t, err)

	ok, _, err = service.Validate(ctx, "dev1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, service.MarkInUse(ctx, "dev1", "u1"))
	ok, reason, err = service.Validate(ctx, "dev1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Device is already in use", reason)

	entry, err := service.Get(ctx, "dev1")
	require.NoError(t, err)
	assert.Equal(t, "u1", entry.UserID)
	assert.NotEmpty(t, entry.LastUpdated)

	require.NoError(t, service.Release(ctx, "dev1"))
	entry, err = service.Get(ctx, "dev1")
	require.NoError(t, err)
	assert.Equal(t, "available", entry.Status)
	assert.Empty(t, entry.UserID)
}

func TestGetUnknownDevice(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	_, err := service.Get(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)
}
