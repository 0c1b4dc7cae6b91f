package profile

import (
	"context"
	"fmt"
	"strings"

	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

type Service struct {
	db store.DocumentStore
}

func NewService(db store.DocumentStore) *Service {
	return &Service{db: db}
}

func plantPath(identifier string) string {
	return "plant_profiles/" + identifier
}

func growProfilePath(profileID string) string {
	return "grow_profiles/" + profileID
}

// CreatePlant stores a plant profile under a caller-chosen identifier.
func (s *Service) CreatePlant(ctx context.Context, req CreatePlantRequest) (*PlantProfile, error) {
	if req.Identifier == "" {
		return nil, common.Validationf("Identifier is required")
	}
	if req.UserID == "" {
		return nil, common.Validationf("User ID is required")
	}

	raw, err := s.db.Get(ctx, plantPath(req.Identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to check plant profile: %w", err)
	}
	if raw != nil {
		return nil, common.Validationf("Plant profile with this identifier already exists")
	}

	mode := req.Mode
	if mode == "" {
		mode = "simple"
	}
	plant := &PlantProfile{
		UserID:            req.UserID,
		Name:              req.Name,
		Description:       req.Description,
		Mode:              mode,
		OptimalConditions: req.OptimalConditions,
		CreatedAt:         common.Now(),
	}

	encoded, err := store.Encode(plant)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plant profile: %w", err)
	}
	if err := s.db.Set(ctx, plantPath(req.Identifier), encoded); err != nil {
		return nil, fmt.Errorf("failed to save plant profile: %w", err)
	}
	return plant, nil
}

// GetPlant returns one plant profile, enforcing ownership for private ones.
func (s *Service) GetPlant(ctx context.Context, identifier, userID string) (*PlantProfile, error) {
	raw, err := s.db.Get(ctx, plantPath(identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to load plant profile: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Plant profile not found")
	}
	var plant PlantProfile
	if err := store.Decode(raw, &plant); err != nil {
		return nil, fmt.Errorf("failed to decode plant profile: %w", err)
	}
	if plant.UserID != "" && plant.UserID != userID {
		return nil, common.AccessDeniedf("Access denied")
	}
	return &plant, nil
}

// ListPlants returns the user's own profiles plus public ones.
func (s *Service) ListPlants(ctx context.Context, userID string) (map[string]any, error) {
	raw, err := s.db.Get(ctx, "plant_profiles")
	if err != nil {
		return nil, fmt.Errorf("failed to list plant profiles: %w", err)
	}

	filtered := map[string]any{}
	for id, doc := range store.Children(raw) {
		fields, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		owner, _ := fields["user_id"].(string)
		if owner == "" || owner == userID {
			filtered[id] = doc
		}
	}
	return filtered, nil
}

var plantPatchFields = []string{"name", "description", "optimal_conditions", "mode", "user_id"}

// PatchPlant updates the editable plant profile fields.
func (s *Service) PatchPlant(ctx context.Context, identifier, userID string, fields map[string]any) (*PlantProfile, error) {
	if _, err := s.GetPlant(ctx, identifier, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	for _, field := range plantPatchFields {
		if value, present := fields[field]; present {
			updates[field] = value
		}
	}
	updates["updated_at"] = common.Now()

	if err := s.db.Update(ctx, plantPath(identifier), updates); err != nil {
		return nil, fmt.Errorf("failed to update plant profile: %w", err)
	}
	return s.GetPlant(ctx, identifier, userID)
}

func (s *Service) DeletePlant(ctx context.Context, identifier string) error {
	raw, err := s.db.Get(ctx, plantPath(identifier))
	if err != nil {
		return fmt.Errorf("failed to load plant profile: %w", err)
	}
	if raw == nil {
		return common.NotFoundf("Plant profile not found")
	}
	if err := s.db.Delete(ctx, plantPath(identifier)); err != nil {
		return fmt.Errorf("failed to delete plant profile: %w", err)
	}
	return nil
}

// CreateGrowProfile stores a new grow profile under a generated key.
func (s *Service) CreateGrowProfile(ctx context.Context, req CreateGrowProfileRequest) (string, *GrowProfile, error) {
	var missing []string
	if req.UserID == "" {
		missing = append(missing, "user_id")
	}
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.PlantProfileID == "" {
		missing = append(missing, "plant_profile_id")
	}
	if len(missing) > 0 {
		return "", nil, common.Validationf("Missing required fields: %s", strings.Join(missing, ", "))
	}

	duration := req.GrowDurationDays
	if duration == 0 {
		duration = 60
	}
	mode := req.Mode
	if mode == "" {
		mode = "simple"
	}
	conditions := req.OptimalConditions
	if conditions == nil {
		conditions = map[string]map[string]common.Range{}
		for _, stage := range Stages {
			conditions[stage] = map[string]common.Range{}
		}
	}

	profile := &GrowProfile{
		UserID:            req.UserID,
		Name:              req.Name,
		PlantProfileID:    req.PlantProfileID,
		GrowDurationDays:  duration,
		IsActive:          req.IsActive,
		Mode:              mode,
		OptimalConditions: conditions,
		CreatedAt:         common.Now(),
	}

	encoded, err := store.Encode(profile)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode grow profile: %w", err)
	}
	profileID, err := s.db.Push(ctx, "grow_profiles", encoded)
	if err != nil {
		return "", nil, fmt.Errorf("failed to save grow profile: %w", err)
	}
	return profileID, profile, nil
}

func (s *Service) GetGrowProfile(ctx context.Context, profileID string) (*GrowProfile, error) {
	raw, err := s.db.Get(ctx, growProfilePath(profileID))
	if err != nil {
		return nil, fmt.Errorf("failed to load grow profile: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Grow profile not found")
	}
	var profile GrowProfile
	if err := store.Decode(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode grow profile: %w", err)
	}
	return &profile, nil
}

// ListGrowProfiles returns the user's grow profiles keyed by profile ID.
func (s *Service) ListGrowProfiles(ctx context.Context, userID string) (map[string]any, error) {
	raw, err := s.db.Get(ctx, "grow_profiles")
	if err != nil {
		return nil, fmt.Errorf("failed to list grow profiles: %w", err)
	}

	filtered := map[string]any{}
	for id, doc := range store.Children(raw) {
		fields, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if fields["user_id"] == userID {
			filtered[id] = doc
		}
	}
	return filtered, nil
}

// UpdateGrowProfile replaces the basic fields and merges optimal conditions
// per stage and per range parameter, so an update touching one range never
// wipes the others.
func (s *Service) UpdateGrowProfile(ctx context.Context, profileID string, fields map[string]any) (*GrowProfile, error) {
	existing, err := s.rawGrowProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	for _, field := range []string{"name", "plant_profile_id", "grow_duration_days"} {
		if value, present := fields[field]; present {
			updates[field] = value
		}
	}

	if newConditions, present := fields["optimal_conditions"].(map[string]any); present {
		merged := existingConditions(existing)
		for _, stage := range Stages {
			stageData, found := newConditions[stage].(map[string]any)
			if !found {
				continue
			}
			if merged[stage] == nil {
				merged[stage] = map[string]any{}
			}
			for _, param := range RangeParams {
				if value, has := stageData[param]; has {
					merged[stage][param] = value
				}
			}
		}
		updates["optimal_conditions"] = merged
	}

	updates["updated_at"] = common.Now()
	if err := s.db.Update(ctx, growProfilePath(profileID), updates); err != nil {
		return nil, fmt.Errorf("failed to update grow profile: %w", err)
	}
	return s.GetGrowProfile(ctx, profileID)
}

// PatchGrowProfile merges arbitrary stage parameters and basic fields.
func (s *Service) PatchGrowProfile(ctx context.Context, profileID string, fields map[string]any) (*GrowProfile, error) {
	existing, err := s.rawGrowProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	for _, field := range []string{"name", "plant_profile_id", "grow_duration_days", "is_active"} {
		if value, present := fields[field]; present {
			updates[field] = value
		}
	}

	if newConditions, present := fields["optimal_conditions"].(map[string]any); present {
		merged := existingConditions(existing)
		for stage, raw := range newConditions {
			stageData, found := raw.(map[string]any)
			if !found {
				continue
			}
			if merged[stage] == nil {
				merged[stage] = map[string]any{}
			}
			for param, value := range stageData {
				merged[stage][param] = value
			}
		}
		updates["optimal_conditions"] = merged
	}

	updates["updated_at"] = common.Now()
	if err := s.db.Update(ctx, growProfilePath(profileID), updates); err != nil {
		return nil, fmt.Errorf("failed to update grow profile: %w", err)
	}
	return s.GetGrowProfile(ctx, profileID)
}

// DeleteGrowProfile refuses to delete a profile still referenced by an
// unharvested grow.
func (s *Service) DeleteGrowProfile(ctx context.Context, profileID string) error {
	profile, err := s.GetGrowProfile(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.IsActive {
		return common.Validationf("Cannot delete an active grow profile")
	}
	if err := s.db.Delete(ctx, growProfilePath(profileID)); err != nil {
		return fmt.Errorf("failed to delete grow profile: %w", err)
	}
	return nil
}

// SetActive recomputes a profile's is_active flag from the count of active
// grows referencing it. Called by the grow lifecycle on harvest.
func (s *Service) SetActive(ctx context.Context, profileID string, active bool) error {
	err := s.db.Update(ctx, growProfilePath(profileID), map[string]any{"is_active": active})
	if err != nil {
		return fmt.Errorf("failed to update grow profile: %w", err)
	}
	return nil
}

func (s *Service) rawGrowProfile(ctx context.Context, profileID string) (map[string]any, error) {
	raw, err := s.db.Get(ctx, growProfilePath(profileID))
	if err != nil {
		return nil, fmt.Errorf("failed to load grow profile: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Grow profile not found")
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, common.Upstreamf("grow profile %s has unexpected shape", profileID)
	}
	return fields, nil
}

func existingConditions(profile map[string]any) map[string]map[string]any {
	merged := map[string]map[string]any{}
	raw, _ := profile["optimal_conditions"].(map[string]any)
	for stage, stageRaw := range raw {
		stageData, ok := stageRaw.(map[string]any)
		if !ok {
			continue
		}
		merged[stage] = map[string]any{}
		for param, value := range stageData {
			merged[stage][param] = value
		}
	}
	return merged
}
