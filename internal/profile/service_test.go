package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

func TestCreatePlantDefaultsAndDuplicate(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	plant, err := service.CreatePlant(ctx, CreatePlantRequest{
		Identifier: "lettuce",
		UserID:     "u1",
		Name:       "Lettuce",
	})
	require.NoError(t, err)
	assert.Equal(t, "simple", plant.Mode)
	assert.NotEmpty(t, plant.CreatedAt)

	_, err = service.CreatePlant(ctx, CreatePlantRequest{Identifier: "lettuce", UserID: "u1"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGetPlantOwnership(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	_, err := service.CreatePlant(ctx, CreatePlantRequest{Identifier: "lettuce", UserID: "u1", Name: "Lettuce"})
	require.NoError(t, err)

	_, err = service.GetPlant(ctx, "lettuce", "u2")
	require.ErrorIs(t, err, common.ErrAccessDenied)

	plant, err := service.GetPlant(ctx, "lettuce", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Lettuce", plant.Name)
}

func TestListPlantsIncludesPublicProfiles(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	service := NewService(db)

	_, err := service.CreatePlant(ctx, CreatePlantRequest{Identifier: "mine", UserID: "u1", Name: "Mine"})
	require.NoError(t, err)
	_, err = service.CreatePlant(ctx, CreatePlantRequest{Identifier: "theirs", UserID: "u2", Name: "Theirs"})
	require.NoError(t, err)
	// A profile without an owner is visible to everyone.
	require.NoError(t, db.Set(ctx, "plant_profiles/public", map[string]any{"name": "Public"}))

	plants, err := service.ListPlants(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, plants, 2)
	assert.Contains(t, plants, "mine")
	assert.Contains(t, plants, "public")
}

func TestCreateGrowProfileValidation(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	_, _, err := service.CreateGrowProfile(ctx, CreateGrowProfileRequest{UserID: "u1"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "plant_profile_id")
}

func TestCreateGrowProfileDefaults(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	profileID, profile, err := service.CreateGrowProfile(ctx, CreateGrowProfileRequest{
		UserID:         "u1",
		Name:           "Spring Lettuce",
		PlantProfileID: "lettuce",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profileID)
	assert.Equal(t, 60, profile.GrowDurationDays)
	assert.Equal(t, "simple", profile.Mode)
	for _, stage := range Stages {
		assert.Contains(t, profile.OptimalConditions, stage)
	}
}

func TestUpdateGrowProfileMergesConditions(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	profileID, _, err := service.CreateGrowProfile(ctx, CreateGrowProfileRequest{
		UserID:         "u1",
		Name:           "Spring Lettuce",
		PlantProfileID: "lettuce",
		OptimalConditions: map[string]map[string]common.Range{
			"vegetative": {
				"ph_range": {Min: 5.5, Max: 6.5},
				"ec_range": {Min: 1.0, Max: 1.6},
			},
		},
	})
	require.NoError(t, err)

	updated, err := service.UpdateGrowProfile(ctx, profileID, map[string]any{
		"name": "Summer Lettuce",
		"optimal_conditions": map[string]any{
			"vegetative": map[string]any{
				"ph_range": map[string]any{"min": 6.0, "max": 6.8},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer Lettuce", updated.Name)

	vegetative := updated.OptimalConditions["vegetative"]
	assert.Equal(t, common.Range{Min: 6.0, Max: 6.8}, vegetative["ph_range"])
	// The untouched range survives the update.
	assert.Equal(t, common.Range{Min: 1.0, Max: 1.6}, vegetative["ec_range"])
}

func TestDeleteGrowProfileBlockedWhileActive(t *testing.T) {
	ctx := context.Background()
	service := NewService(store.NewMemoryStore())

	profileID, _, err := service.CreateGrowProfile(ctx, CreateGrowProfileRequest{
		UserID:         "u1",
		Name:           "Spring Lettuce",
		PlantProfileID: "lettuce",
		IsActive:       true,
	})
	require.NoError(t, err)

	err = service.DeleteGrowProfile(ctx, profileID)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "Cannot delete an active grow profile")

	require.NoError(t, service.SetActive(ctx, profileID, false))
	require.NoError(t, service.DeleteGrowProfile(ctx, profileID))

	_, err = service.GetGrowProfile(ctx, profileID)
	require.ErrorIs(t, err, common.ErrNotFound)
}
