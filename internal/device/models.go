package device

import "hydrozap/internal/common"

// Device is a claimed grow kit and its mutable runtime state. The actuator
// map is heterogeneous on purpose: pumps carry {status, duration}, the flush
// channel carries {active, type, duration}, and firmware may ship extra keys.
type Device struct {
	DeviceName        string                    `json:"device_name"`
	Kit               string                    `json:"kit"`
	Type              string                    `json:"type"`
	UserID            string                    `json:"user_id"`
	EmergencyStop     bool                      `json:"emergency_stop"`
	Status            string                    `json:"status"`
	WaterVolumeLiters float64                   `json:"water_volume_liters"`
	AutoDoseEnabled   bool                      `json:"auto_dose_enabled"`
	Actuators         map[string]map[string]any `json:"actuators"`
	Sensors           SensorSnapshot            `json:"sensors"`
	Thresholds        *Thresholds               `json:"thresholds,omitempty"`
	ActiveGrowID      string                    `json:"active_grow_id,omitempty"`
	LastUpdated       string                    `json:"last_updated,omitempty"`
}

// SensorSnapshot is the latest reading kept directly on the device record.
type SensorSnapshot struct {
	EC          float64 `json:"ec"`
	TDS         float64 `json:"tds"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Temperature float64 `json:"temperature"`
	WaterLevel  float64 `json:"waterLevel"`
	Timestamp   string  `json:"timestamp"`
}

// Thresholds is the stage-resolved set of target ranges cached on the device.
type Thresholds struct {
	PHRange          common.Range `json:"ph_range"`
	ECRange          common.Range `json:"ec_range"`
	TDSRange         common.Range `json:"tds_range"`
	TemperatureRange common.Range `json:"temperature_range"`
	HumidityRange    common.Range `json:"humidity_range"`
	Stage            string       `json:"stage"`
	DaysPassed       int          `json:"days_passed"`
	TotalDuration    int          `json:"total_duration"`
}

type RegisterRequest struct {
	DeviceID          string                    `json:"device_id" binding:"required"`
	UserID            string                    `json:"user_id" binding:"required"`
	DeviceName        string                    `json:"device_name"`
	Kit               string                    `json:"kit"`
	Type              string                    `json:"type"`
	EmergencyStop     bool                      `json:"emergency_stop"`
	WaterVolumeLiters float64                   `json:"water_volume_liters"`
	AutoDoseEnabled   bool                      `json:"auto_dose_enabled"`
	Sensors           *SensorSnapshot           `json:"sensors"`
	Actuators         map[string]map[string]any `json:"actuators"`
}

type ActuatorFlush struct {
	ActuatorID string  `json:"actuator_id"`
	Duration   float64 `json:"duration"`
	Type       string  `json:"type"`
}

// RuntimeUpdateRequest carries the PUT payload. Pointer fields distinguish
// "absent" from a zero value.
type RuntimeUpdateRequest struct {
	EmergencyStop   *bool          `json:"emergency_stop"`
	AutoDoseEnabled *bool          `json:"auto_dose_enabled"`
	ActuatorFlush   *ActuatorFlush `json:"actuator_flush"`
}

// PatchRequest carries the PATCH payload restricted to user-editable fields.
type PatchRequest struct {
	DeviceName        *string  `json:"device_name"`
	WaterVolumeLiters *float64 `json:"water_volume_liters"`
	EmergencyStop     *bool    `json:"emergency_stop"`
	AutoDoseEnabled   *bool    `json:"auto_dose_enabled"`
}

// GrowRef identifies a grow blocking device deletion.
type GrowRef struct {
	GrowID   string `json:"grow_id"`
	GrowName string `json:"grow_name"`
}

func defaultActuators() map[string]map[string]any {
	return map[string]map[string]any{
		"nutrient_pump1": {"status": "off", "duration": 0},
		"nutrient_pump2": {"status": "off", "duration": 0},
		"phDowner_pump":  {"status": "off", "duration": 0},
		"phUpper_pump":   {"status": "off", "duration": 0},
		"flush":          {"active": false, "type": "full", "duration": 0},
	}
}
