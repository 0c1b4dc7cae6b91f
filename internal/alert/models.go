package alert

// Alert is one raised condition, stored per user. Mutated only to flip the
// read status; deleted explicitly by the user.
type Alert struct {
	DeviceID   string `json:"device_id"`
	Message    string `json:"message"`
	AlertType  string `json:"alert_type"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Timestamp  string `json:"timestamp"`
	SensorData any    `json:"sensor_data,omitempty"`
}

// Triggered pairs a persisted alert with the grow whose condition fired.
type Triggered struct {
	AlertID   string `json:"alert_id"`
	AlertData *Alert `json:"alert_data"`
	GrowID    string `json:"grow_id"`
}

// Condition is one rule configured on a grow's controls.
type Condition struct {
	Sensor   string  `json:"sensor"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
	Action   string  `json:"action"`
	Actuator string  `json:"actuator"`
}

type TriggerRequest struct {
	UserID    string `json:"user_id"`
	DeviceID  string `json:"device_id"`
	Message   string `json:"message"`
	AlertType string `json:"alert_type"`
	Priority  string `json:"priority"`
}

// SuggestedAction returns the remediation hint attached to alert responses.
func SuggestedAction(alertType string) string {
	switch alertType {
	case "ph_low":
		return "Add pH Up solution to your reservoir. Check system for pH Down overdosing."
	case "ph_high":
		return "Add pH Down solution to your reservoir. Check system for pH Up overdosing."
	case "ec_low":
		return "Add nutrients to your reservoir according to your feeding schedule."
	case "ec_high":
		return "Dilute your reservoir with fresh water. Consider replacing with fresh nutrient solution if extremely high."
	case "temp_low":
		return "Increase environmental temperature or add a water heater to your reservoir."
	case "temp_high":
		return "Decrease environmental temperature or add cooling to your reservoir. Consider adding shade if outdoors."
	case "water_low":
		return "Refill your reservoir with water and nutrients as needed."
	case "device_offline":
		return "Check your device power and internet connection. Ensure the device is plugged in and properly connected."
	default:
		return "Check your system and address the issue according to the alert message."
	}
}

// DeriveType maps a sensor and comparison operator to the specific alert
// type used for titles, suggested actions and preference lookups.
func DeriveType(sensor, operator string) string {
	switch sensor {
	case "pH":
		switch operator {
		case "<":
			return "ph_low"
		case ">":
			return "ph_high"
		default:
			return "ph"
		}
	case "EC":
		switch operator {
		case "<":
			return "ec_low"
		case ">":
			return "ec_high"
		default:
			return "ec"
		}
	default:
		return "sensor"
	}
}

// Evaluate applies a rule operator to a sensor reading. Unknown operators
// never fire.
func Evaluate(value float64, operator string, threshold float64) bool {
	switch operator {
	case "<":
		return value < threshold
	case ">":
		return value > threshold
	case "==":
		return value == threshold
	default:
		return false
	}
}
