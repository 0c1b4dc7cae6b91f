package profile

import "hydrozap/internal/common"

// Grow stages a profile configures target ranges for.
var Stages = []string{"transplanting", "vegetative", "maturation"}

// Range parameters accepted inside a stage's optimal conditions.
var RangeParams = []string{"temperature_range", "humidity_range", "ec_range", "ph_range", "tds_range"}

// PlantProfile describes a plant species. Profiles without a user_id are
// public and readable by everyone.
type PlantProfile struct {
	UserID            string         `json:"user_id,omitempty"`
	Name              string         `json:"name,omitempty"`
	Description       string         `json:"description,omitempty"`
	Mode              string         `json:"mode"`
	OptimalConditions map[string]any `json:"optimal_conditions,omitempty"`
	CreatedAt         string         `json:"created_at,omitempty"`
	UpdatedAt         string         `json:"updated_at,omitempty"`
}

// GrowProfile is a reusable recipe: per-stage target ranges plus a total
// duration. is_active mirrors whether any unharvested grow references it.
type GrowProfile struct {
	UserID            string                             `json:"user_id"`
	Name              string                             `json:"name"`
	PlantProfileID    string                             `json:"plant_profile_id"`
	GrowDurationDays  int                                `json:"grow_duration_days"`
	IsActive          bool                               `json:"is_active"`
	Mode              string                             `json:"mode"`
	OptimalConditions map[string]map[string]common.Range `json:"optimal_conditions"`
	CreatedAt         string                             `json:"created_at,omitempty"`
	UpdatedAt         string                             `json:"updated_at,omitempty"`
}

type CreatePlantRequest struct {
	Identifier        string         `json:"identifier"`
	UserID            string         `json:"user_id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Mode              string         `json:"mode"`
	OptimalConditions map[string]any `json:"optimal_conditions"`
}

type CreateGrowProfileRequest struct {
	UserID            string                             `json:"user_id"`
	Name              string                             `json:"name"`
	PlantProfileID    string                             `json:"plant_profile_id"`
	GrowDurationDays  int                                `json:"grow_duration_days"`
	IsActive          bool                               `json:"is_active"`
	Mode              string                             `json:"mode"`
	OptimalConditions map[string]map[string]common.Range `json:"optimal_conditions"`
}
