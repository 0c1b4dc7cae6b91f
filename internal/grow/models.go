package grow

import "encoding/json"

// Grow is one cultivation run. It binds exactly one device and one grow
// profile from start_date until harvest; harvested is terminal.
type Grow struct {
	UserID      string `json:"user_id"`
	GrowName    string `json:"grow_name"`
	DeviceID    string `json:"device_id"`
	ProfileID   string `json:"profile_id"`
	StartDate   string `json:"start_date,omitempty"`
	Status      string `json:"status"`
	HarvestDate string `json:"harvest_date,omitempty"`
}

// HarvestLog is the immutable record of one harvest event.
type HarvestLog struct {
	UserID             string             `json:"user_id,omitempty"`
	DeviceID           string             `json:"device_id"`
	GrowID             string             `json:"grow_id"`
	CropName           string             `json:"crop_name"`
	HarvestDate        string             `json:"harvest_date"`
	YieldAmount        float64            `json:"yield_amount"`
	Rating             int                `json:"rating"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
	Remarks            string             `json:"remarks,omitempty"`
}

type CreateRequest struct {
	GrowID    string `json:"grow_id"`
	UserID    string `json:"user_id"`
	GrowName  string `json:"grow_name"`
	DeviceID  string `json:"device_id"`
	ProfileID string `json:"profile_id"`
	StartDate string `json:"start_date"`
}

// UpdateRequest carries the PUT payload; absent fields keep current values.
type UpdateRequest struct {
	UserID      *string `json:"user_id"`
	GrowName    *string `json:"grow_name"`
	DeviceID    *string `json:"device_id"`
	ProfileID   *string `json:"profile_id"`
	StartDate   *string `json:"start_date"`
	Status      *string `json:"status"`
	HarvestDate *string `json:"harvest_date"`
}

// HarvestRequest accepts the client's camelCase field names. Older app
// builds send snake_case; UnmarshalJSON takes either spelling.
type HarvestRequest struct {
	GrowID             string             `json:"growId"`
	CropName           string             `json:"cropName"`
	HarvestDate        string             `json:"harvestDate"`
	YieldAmount        float64            `json:"yieldAmount"`
	Rating             int                `json:"rating"`
	PerformanceMetrics map[string]float64 `json:"performanceMetrics"`
	Remarks            string             `json:"remarks"`
}

func (r *HarvestRequest) UnmarshalJSON(data []byte) error {
	type camelRequest HarvestRequest
	var camel camelRequest
	if err := json.Unmarshal(data, &camel); err != nil {
		return err
	}
	var snake struct {
		GrowID             string             `json:"grow_id"`
		CropName           string             `json:"crop_name"`
		HarvestDate        string             `json:"harvest_date"`
		YieldAmount        float64            `json:"yield_amount"`
		PerformanceMetrics map[string]float64 `json:"performance_metrics"`
	}
	if err := json.Unmarshal(data, &snake); err != nil {
		return err
	}

	*r = HarvestRequest(camel)
	if r.GrowID == "" {
		r.GrowID = snake.GrowID
	}
	if r.CropName == "" {
		r.CropName = snake.CropName
	}
	if r.HarvestDate == "" {
		r.HarvestDate = snake.HarvestDate
	}
	if r.YieldAmount == 0 {
		r.YieldAmount = snake.YieldAmount
	}
	if r.PerformanceMetrics == nil {
		r.PerformanceMetrics = snake.PerformanceMetrics
	}
	return nil
}

// HarvestLogResponse mirrors the client-side model's camelCase shape.
type HarvestLogResponse struct {
	LogID              string             `json:"logId"`
	DeviceID           string             `json:"deviceId"`
	GrowID             string             `json:"growId"`
	CropName           string             `json:"cropName"`
	HarvestDate        string             `json:"harvestDate"`
	YieldAmount        float64            `json:"yieldAmount"`
	Rating             int                `json:"rating"`
	PerformanceMetrics map[string]float64 `json:"performanceMetrics"`
}

// Readiness is the harvest-progress report for one grow.
type Readiness struct {
	Ready          bool    `json:"ready"`
	Progress       float64 `json:"progress"`
	DaysSinceStart int     `json:"days_since_start"`
	TotalDuration  int     `json:"total_duration"`
	Message        string  `json:"message"`
	HarvestDate    string  `json:"harvest_date,omitempty"`
}

// LeaderboardEntry is one user's aggregate harvest score. The score is
// recomputed from the harvest logs on every read.
type LeaderboardEntry struct {
	UserID       string  `json:"user_id"`
	TotalScore   float64 `json:"total_score"`
	HarvestCount int     `json:"harvest_count"`
}
