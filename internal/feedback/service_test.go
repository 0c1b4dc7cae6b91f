package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

func TestSubmitRequiresMessage(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	_, err := service.Submit(ctx, SubmitRequest{Email: "a@b.com"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "Message is required")
}

func TestSubmitDefaults(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	feedbackID, err := service.Submit(ctx, SubmitRequest{Message: "Love the app"})
	require.NoError(t, err)
	assert.NotEmpty(t, feedbackID)

	entries, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[feedbackID]
	assert.Equal(t, "Not provided", entry.Email)
	assert.Equal(t, "Not provided", entry.Phone)
	assert.Equal(t, "General Feedback", entry.Type)
	assert.Equal(t, "new", entry.Status)
	assert.Empty(t, entry.UserID)
	assert.NotEmpty(t, entry.Timestamp)
}

func TestSubmitResolvesUserByEmail(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	service := NewService(db)

	require.NoError(t, db.Set(ctx, "users/u1", map[string]any{
		"email": "grower@example.com",
		"name":  "Grower",
	}))

	feedbackID, err := service.Submit(ctx, SubmitRequest{
		Email:   "grower@example.com",
		Type:    "Bug Report",
		Message: "Sensor chart is blank",
	})
	require.NoError(t, err)

	entries, err := service.List(ctx)
	require.NoError(t, err)
	entry := entries[feedbackID]
	assert.Equal(t, "u1", entry.UserID)
	assert.Equal(t, "Bug Report", entry.Type)
	assert.Equal(t, "grower@example.com", entry.Email)
}
