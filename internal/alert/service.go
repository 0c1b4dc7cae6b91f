package alert

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"hydrozap/internal/common"
	"hydrozap/internal/notify"
	"hydrozap/internal/realtime"
	"hydrozap/internal/store"
)

type Service struct {
	db         store.DocumentStore
	dispatcher *notify.Dispatcher
	notifier   *realtime.Notifier
}

func NewService(db store.DocumentStore, dispatcher *notify.Dispatcher, notifier *realtime.Notifier) *Service {
	return &Service{db: db, dispatcher: dispatcher, notifier: notifier}
}

func alertPath(userID, alertID string) string {
	return "alerts/" + userID + "/" + alertID
}

// growControls is the slice of rule conditions configured on a grow.
type growControls struct {
	UserID   string `json:"user_id"`
	Controls struct {
		Condition []Condition `json:"condition"`
	} `json:"controls"`
}

// CheckConditions evaluates every rule on every grow referencing the device
// against the incoming pH and EC readings. Alerts are always persisted;
// notification delivery is a separate, best-effort step.
func (s *Service) CheckConditions(ctx context.Context, deviceID string, ph, ec float64) ([]Triggered, error) {
	grows, err := s.db.QueryEqual(ctx, "grows", "device_id", deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grows: %w", err)
	}

	triggered := []Triggered{}
	for growID, doc := range grows {
		var grow growControls
		if err := store.Decode(doc, &grow); err != nil {
			continue
		}

		for _, condition := range grow.Controls.Condition {
			var reading float64
			switch condition.Sensor {
			case "pH":
				reading = ph
			case "EC":
				reading = ec
			default:
				continue
			}
			if !Evaluate(reading, condition.Operator, condition.Value) {
				continue
			}

			alertType := DeriveType(condition.Sensor, condition.Operator)
			message := fmt.Sprintf("%s %s %v: %s %s",
				condition.Sensor, condition.Operator, condition.Value,
				condition.Action, condition.Actuator)

			alertID, alertData, err := s.createAlert(ctx, grow.UserID, deviceID, message, alertType, map[string]any{
				"ph": ph,
				"ec": ec,
			})
			if err != nil {
				return triggered, err
			}
			triggered = append(triggered, Triggered{
				AlertID:   alertID,
				AlertData: alertData,
				GrowID:    growID,
			})
		}
	}
	return triggered, nil
}

// createAlert persists an alert and then attempts the push notification.
// The alert write is the guarantee; a failed push only logs.
func (s *Service) createAlert(ctx context.Context, userID, deviceID, message, alertType string, sensorData any) (string, *Alert, error) {
	alertID := uuid.NewString()
	alertData := &Alert{
		DeviceID:   deviceID,
		Message:    message,
		AlertType:  alertType,
		Status:     "unread",
		Priority:   "normal",
		Timestamp:  common.Now(),
		SensorData: sensorData,
	}

	encoded, err := store.Encode(alertData)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode alert: %w", err)
	}
	if err := s.db.Set(ctx, alertPath(userID, alertID), encoded); err != nil {
		return "", nil, fmt.Errorf("failed to save alert: %w", err)
	}

	title, preferenceType := classify(message, alertType)
	if s.dispatcher.ShouldNotify(ctx, userID, preferenceType, alertData.Priority) {
		s.dispatcher.SendToUser(ctx, userID, title, message, map[string]string{
			"alert_id":     alertID,
			"device_id":    deviceID,
			"type":         alertType,
			"click_action": "OPEN_ALERTS_SCREEN",
		})
	} else {
		log.Printf("🔕 Notification blocked by user preferences for alert type: %s", preferenceType)
	}

	s.notifier.AlertChanged(ctx, userID)
	return alertID, alertData, nil
}

// classify picks the notification title and the preference-lookup type from
// the alert message and declared type.
func classify(message, alertType string) (title, preferenceType string) {
	upper := strings.ToUpper(message)
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(upper, "PH") || strings.HasPrefix(alertType, "ph"):
		return "⚠️ pH Alert", "ph"
	case strings.Contains(upper, "EC") || alertType == "ec" || strings.HasPrefix(alertType, "ec_"):
		return "⚠️ EC/TDS Alert", "ec"
	case strings.Contains(lower, "temperature") || alertType == "temperature":
		return "🌡️ Temperature Alert", "temperature"
	case strings.Contains(lower, "humidity") || alertType == "humidity":
		return "💧 Humidity Alert", "humidity"
	case strings.Contains(lower, "water") || alertType == "water_level":
		return "🚰 Water Level Alert", "water_level"
	case alertType == "critical":
		return "🚨 CRITICAL ALERT", "critical"
	default:
		return "🌱 HydroZap Alert", alertType
	}
}

// Trigger raises an alert through the manual/administrative path. It
// records the latest sensor reading and attaches the device name to the
// push payload.
func (s *Service) Trigger(ctx context.Context, req TriggerRequest) (string, *Alert, *notify.DeliveryReport, error) {
	if req.UserID == "" || req.DeviceID == "" || req.Message == "" {
		return "", nil, nil, common.Validationf("user_id, device_id, and message are required")
	}
	// A caller-supplied specific type (ph_low, ph_high) is kept as-is;
	// without one the message's sensor class stands in.
	alertType := req.AlertType
	if alertType == "" {
		_, alertType = classify(req.Message, "")
		if alertType == "" {
			alertType = "sensor"
		}
	}
	priority := req.Priority
	if priority == "" {
		priority = "normal"
	}

	title, preferenceType := classify(req.Message, alertType)

	alertID := uuid.NewString()
	alertData := &Alert{
		DeviceID:   req.DeviceID,
		Message:    req.Message,
		AlertType:  alertType,
		Status:     "unread",
		Priority:   priority,
		Timestamp:  common.Now(),
		SensorData: s.latestSensorData(ctx, req.DeviceID),
	}

	encoded, err := store.Encode(alertData)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to encode alert: %w", err)
	}
	if err := s.db.Set(ctx, alertPath(req.UserID, alertID), encoded); err != nil {
		return "", nil, nil, fmt.Errorf("failed to save alert: %w", err)
	}

	deviceName := s.deviceName(ctx, req.DeviceID)
	notificationData := map[string]string{
		"alert_id":     alertID,
		"device_id":    req.DeviceID,
		"device_name":  deviceName,
		"type":         alertType,
		"priority":     priority,
		"click_action": "OPEN_ALERTS_SCREEN",
	}

	var report notify.DeliveryReport
	if priority == "high" || s.dispatcher.ShouldNotify(ctx, req.UserID, preferenceType, priority) {
		report = s.dispatcher.SendToUser(ctx, req.UserID, title, req.Message, notificationData)
	} else {
		report = notify.DeliveryReport{
			Message: "Notification blocked by user preferences for alert type: " + preferenceType,
		}
	}

	s.notifier.AlertChanged(ctx, req.UserID)
	return alertID, alertData, &report, nil
}

// latestSensorData returns the most recent historized reading, by timestamp.
func (s *Service) latestSensorData(ctx context.Context, deviceID string) any {
	raw, err := s.db.Get(ctx, "devices/"+deviceID+"/sensors")
	if err != nil {
		return nil
	}
	var latest map[string]any
	for _, doc := range store.Children(raw) {
		reading, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		timestamp, ok := reading["timestamp"].(string)
		if !ok {
			continue
		}
		if latest == nil || timestamp > latest["timestamp"].(string) {
			latest = reading
		}
	}
	if latest == nil {
		return nil
	}
	return latest
}

func (s *Service) deviceName(ctx context.Context, deviceID string) string {
	raw, err := s.db.Get(ctx, "devices/"+deviceID)
	if err != nil || raw == nil {
		return ""
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	name, _ := fields["device_name"].(string)
	if name == "" {
		return "Device " + deviceID
	}
	return name
}

// Get returns one alert with its suggested action attached.
func (s *Service) Get(ctx context.Context, userID, alertID string) (map[string]any, error) {
	raw, err := s.db.Get(ctx, alertPath(userID, alertID))
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Alert not found")
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, common.Upstreamf("alert %s has unexpected shape", alertID)
	}
	return withSuggestedAction(fields), nil
}

// List returns all of a user's alerts, each with its suggested action.
func (s *Service) List(ctx context.Context, userID string) (map[string]any, error) {
	raw, err := s.db.Get(ctx, "alerts/"+userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := map[string]any{}
	for alertID, doc := range store.Children(raw) {
		if fields, ok := doc.(map[string]any); ok {
			alerts[alertID] = withSuggestedAction(fields)
		}
	}
	return alerts, nil
}

func withSuggestedAction(fields map[string]any) map[string]any {
	alertType, _ := fields["alert_type"].(string)
	if alertType == "" {
		alertType = "sensor"
	}
	fields["suggested_action"] = SuggestedAction(alertType)
	return fields
}

// Count returns how many alerts a user has.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	raw, err := s.db.Get(ctx, "alerts/"+userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return len(store.Children(raw)), nil
}

// UpdateStatus flips an alert's read status.
func (s *Service) UpdateStatus(ctx context.Context, userID, alertID, status string) (map[string]any, error) {
	raw, err := s.db.Get(ctx, alertPath(userID, alertID))
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Alert not found")
	}
	if status == "" {
		return nil, common.Validationf("No valid update fields provided")
	}

	err = s.db.Update(ctx, alertPath(userID, alertID), map[string]any{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to update alert: %w", err)
	}
	s.notifier.AlertChanged(ctx, userID)
	return s.Get(ctx, userID, alertID)
}

// Delete removes one alert.
func (s *Service) Delete(ctx context.Context, userID, alertID string) error {
	raw, err := s.db.Get(ctx, alertPath(userID, alertID))
	if err != nil {
		return fmt.Errorf("failed to load alert: %w", err)
	}
	if raw == nil {
		return common.NotFoundf("Alert not found")
	}
	if err := s.db.Delete(ctx, alertPath(userID, alertID)); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	s.notifier.AlertChanged(ctx, userID)
	return nil
}
