package device

import (
	"context"
	"fmt"
	"time"

	"hydrozap/internal/common"
	"hydrozap/internal/realtime"
	"hydrozap/internal/registry"
	"hydrozap/internal/store"
)

// Growth stages, derived from elapsed fraction of the grow duration.
const (
	StageTransplanting = "transplanting"
	StageVegetative    = "vegetative"
	StageMaturation    = "maturation"
)

// Default target ranges used when a profile stage omits one.
var (
	defaultPHRange          = common.Range{Min: 5.8, Max: 6.5}
	defaultECRange          = common.Range{Min: 1.2, Max: 1.7}
	defaultTDSRange         = common.Range{Min: 840, Max: 1120}
	defaultTemperatureRange = common.Range{Min: 14, Max: 20}
	defaultHumidityRange    = common.Range{Min: 55, Max: 65}
)

type Service struct {
	db       store.DocumentStore
	registry *registry.Service
	notifier *realtime.Notifier
}

func NewService(db store.DocumentStore, reg *registry.Service, notifier *realtime.Notifier) *Service {
	return &Service{db: db, registry: reg, notifier: notifier}
}

func devicePath(deviceID string) string {
	return "devices/" + deviceID
}

// Register claims a provisioned device for a user and writes its initial
// runtime state.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Device, error) {
	ok, reason, err := s.registry.Validate(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Validationf("%s", reason)
	}

	existing, err := s.db.Get(ctx, devicePath(req.DeviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to check device: %w", err)
	}
	if existing != nil {
		return nil, common.Validationf("Device already registered to a user")
	}

	deviceName := req.DeviceName
	if deviceName == "" {
		deviceName = "Device " + req.DeviceID
	}
	kit := req.Kit
	if kit == "" {
		kit = "standard"
	}
	deviceType := req.Type
	if deviceType == "" {
		deviceType = "Arduino"
	}
	actuators := req.Actuators
	if len(actuators) == 0 {
		actuators = defaultActuators()
	}

	status := "on"
	if req.EmergencyStop {
		status = "off"
	}

	sensors := SensorSnapshot{}
	if req.Sensors != nil {
		sensors = *req.Sensors
	}
	sensors.Timestamp = common.Now()

	device := &Device{
		DeviceName:        deviceName,
		Kit:               kit,
		Type:              deviceType,
		UserID:            req.UserID,
		EmergencyStop:     req.EmergencyStop,
		Status:            status,
		WaterVolumeLiters: req.WaterVolumeLiters,
		AutoDoseEnabled:   req.AutoDoseEnabled,
		Actuators:         actuators,
		Sensors:           sensors,
	}

	encoded, err := store.Encode(device)
	if err != nil {
		return nil, fmt.Errorf("failed to encode device: %w", err)
	}
	if err := s.db.Set(ctx, devicePath(req.DeviceID), encoded); err != nil {
		return nil, fmt.Errorf("failed to save device: %w", err)
	}

	if err := s.registry.MarkInUse(ctx, req.DeviceID, req.UserID); err != nil {
		return nil, err
	}

	s.notifier.DeviceChanged(ctx, req.UserID)
	return device, nil
}

func (s *Service) Get(ctx context.Context, deviceID string) (*Device, error) {
	raw, err := s.db.Get(ctx, devicePath(deviceID))
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Device not found")
	}
	var device Device
	if err := store.Decode(raw, &device); err != nil {
		return nil, fmt.Errorf("failed to decode device: %w", err)
	}
	return &device, nil
}

// ListByUser returns the user's devices keyed by device ID.
func (s *Service) ListByUser(ctx context.Context, userID string) (map[string]any, error) {
	devices, err := s.db.QueryEqual(ctx, "devices", "user_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	return devices, nil
}

func (s *Service) ListAll(ctx context.Context) (map[string]any, error) {
	raw, err := s.db.Get(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return store.Children(raw), nil
}

// UpdateRuntime applies an emergency-stop toggle, an auto-dose toggle or an
// actuator flush command. A plain status toggle never overwrites in_use;
// that value is owned by the grow lifecycle.
func (s *Service) UpdateRuntime(ctx context.Context, deviceID string, req RuntimeUpdateRequest) (*Device, error) {
	device, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}

	if req.EmergencyStop != nil {
		updates["emergency_stop"] = *req.EmergencyStop
		if *req.EmergencyStop {
			updates["status"] = "off"
		} else if device.Status != "in_use" {
			updates["status"] = "on"
		}
	}

	if req.AutoDoseEnabled != nil {
		updates["auto_dose_enabled"] = *req.AutoDoseEnabled
	}

	if req.ActuatorFlush != nil && req.ActuatorFlush.ActuatorID != "" && req.ActuatorFlush.Duration > 0 {
		actuatorID := req.ActuatorFlush.ActuatorID
		actuators := device.Actuators
		if actuators == nil {
			actuators = defaultActuators()
		}
		if actuator, found := actuators[actuatorID]; found {
			actuator["status"] = "on"
			actuator["duration"] = req.ActuatorFlush.Duration
			if actuatorID == "flush" {
				flushType := req.ActuatorFlush.Type
				if flushType == "" {
					flushType = "full"
				}
				actuator["active"] = true
				actuator["type"] = flushType
			}
			updates["actuators"] = actuators
		}
	}

	if len(updates) == 0 {
		return nil, common.Validationf("No valid updates provided")
	}
	updates["last_updated"] = common.Now()

	if err := s.db.Update(ctx, devicePath(deviceID), updates); err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	s.notifier.DeviceChanged(ctx, device.UserID)
	return s.Get(ctx, deviceID)
}

// Patch updates the user-editable device fields.
func (s *Service) Patch(ctx context.Context, deviceID string, req PatchRequest) (*Device, error) {
	device, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.DeviceName != nil {
		updates["device_name"] = *req.DeviceName
	}
	if req.WaterVolumeLiters != nil {
		updates["water_volume_liters"] = *req.WaterVolumeLiters
	}
	if req.AutoDoseEnabled != nil {
		updates["auto_dose_enabled"] = *req.AutoDoseEnabled
	}
	if req.EmergencyStop != nil {
		updates["emergency_stop"] = *req.EmergencyStop
		if device.Status != "in_use" {
			if *req.EmergencyStop {
				updates["status"] = "off"
			} else {
				updates["status"] = "on"
			}
		}
	}

	if len(updates) == 0 {
		return nil, common.Validationf("No valid fields to update")
	}
	updates["last_updated"] = common.Now()

	if err := s.db.Update(ctx, devicePath(deviceID), updates); err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	s.notifier.DeviceChanged(ctx, device.UserID)
	return s.Get(ctx, deviceID)
}

// BlockingGrows lists the grows that prevent deleting the device: every grow
// referencing it that has not been harvested.
func (s *Service) BlockingGrows(ctx context.Context, deviceID string) ([]GrowRef, error) {
	grows, err := s.db.QueryEqual(ctx, "grows", "device_id", deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grows: %w", err)
	}

	var blocking []GrowRef
	for growID, doc := range grows {
		fields, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if fields["status"] == "harvested" {
			continue
		}
		if date, present := fields["harvest_date"].(string); present && date != "" {
			continue
		}
		name, _ := fields["grow_name"].(string)
		if name == "" {
			name = "Unnamed Grow"
		}
		blocking = append(blocking, GrowRef{GrowID: growID, GrowName: name})
	}
	return blocking, nil
}

// Delete removes a device after verifying no unharvested grow references it,
// and returns its registry entry to the available pool.
func (s *Service) Delete(ctx context.Context, deviceID string) error {
	device, err := s.Get(ctx, deviceID)
	if err != nil {
		return err
	}

	blocking, err := s.BlockingGrows(ctx, deviceID)
	if err != nil {
		return err
	}
	if len(blocking) > 0 {
		return common.Conflictf("Cannot delete device that is assigned to active grows")
	}

	if err := s.db.Delete(ctx, devicePath(deviceID)); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if err := s.registry.Release(ctx, deviceID); err != nil {
		return err
	}

	s.notifier.DeviceChanged(ctx, device.UserID)
	return nil
}

// MarkInUse is called by the grow lifecycle when a grow binds the device.
func (s *Service) MarkInUse(ctx context.Context, deviceID string) error {
	err := s.db.Update(ctx, devicePath(deviceID), map[string]any{
		"status":       "in_use",
		"last_updated": common.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to mark device in use: %w", err)
	}
	return nil
}

// Release is called by the grow lifecycle when a grow is harvested. It
// clears the cached thresholds and active grow binding.
func (s *Service) Release(ctx context.Context, deviceID string) error {
	err := s.db.Update(ctx, devicePath(deviceID), map[string]any{
		"status":         "available",
		"active_grow_id": nil,
		"thresholds":     nil,
		"last_updated":   common.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to release device: %w", err)
	}
	return nil
}

// StageFor maps elapsed days to a growth stage. The first quarter of the
// duration is transplanting, up to three quarters is vegetative, the rest
// is maturation. Day counts at an exact boundary fall into the later stage.
func StageFor(daysPassed, totalDuration int) string {
	limit := float64(totalDuration)
	switch {
	case float64(daysPassed) < limit*0.25:
		return StageTransplanting
	case float64(daysPassed) < limit*0.75:
		return StageVegetative
	default:
		return StageMaturation
	}
}

// stage views of grow and profile documents, decoded from the store.
type growDoc struct {
	DeviceID  string `json:"device_id"`
	ProfileID string `json:"profile_id"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
}

type stageConditions struct {
	PHRange          *common.Range `json:"ph_range"`
	ECRange          *common.Range `json:"ec_range"`
	TDSRange         *common.Range `json:"tds_range"`
	TemperatureRange *common.Range `json:"temperature_range"`
	HumidityRange    *common.Range `json:"humidity_range"`
}

type profileDoc struct {
	GrowDurationDays  int                        `json:"grow_duration_days"`
	OptimalConditions map[string]stageConditions `json:"optimal_conditions"`
}

// resolveThresholds picks the stage-appropriate ranges from a profile's
// optimal conditions, backfilling hardcoded defaults for any missing range.
func resolveThresholds(conditions stageConditions, stage string, daysPassed, totalDuration int) *Thresholds {
	pick := func(r *common.Range, fallback common.Range) common.Range {
		if r != nil {
			return *r
		}
		return fallback
	}
	return &Thresholds{
		PHRange:          pick(conditions.PHRange, defaultPHRange),
		ECRange:          pick(conditions.ECRange, defaultECRange),
		TDSRange:         pick(conditions.TDSRange, defaultTDSRange),
		TemperatureRange: pick(conditions.TemperatureRange, defaultTemperatureRange),
		HumidityRange:    pick(conditions.HumidityRange, defaultHumidityRange),
		Stage:            stage,
		DaysPassed:       daysPassed,
		TotalDuration:    totalDuration,
	}
}

// CurrentThresholds computes the stage-resolved target ranges for the
// device's active grow and caches them on the device record.
func (s *Service) CurrentThresholds(ctx context.Context, deviceID string) (*Thresholds, error) {
	device, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	grows, err := s.db.QueryEqual(ctx, "grows", "device_id", deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grows: %w", err)
	}

	var activeGrowID string
	var activeGrow growDoc
	for growID, doc := range grows {
		var grow growDoc
		if err := store.Decode(doc, &grow); err != nil {
			continue
		}
		if grow.Status == "active" {
			activeGrowID = growID
			activeGrow = grow
			break
		}
	}
	if activeGrowID == "" {
		return nil, common.NotFoundf("No active grow found for this device")
	}
	if activeGrow.ProfileID == "" {
		return nil, common.NotFoundf("No grow profile associated with this grow")
	}

	rawProfile, err := s.db.Get(ctx, "grow_profiles/"+activeGrow.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grow profile: %w", err)
	}
	if rawProfile == nil {
		return nil, common.NotFoundf("Grow profile not found")
	}
	var profile profileDoc
	if err := store.Decode(rawProfile, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode grow profile: %w", err)
	}

	startDate, err := time.Parse(time.RFC3339, activeGrow.StartDate)
	if err != nil {
		startDate = time.Now()
	}
	daysPassed := int(time.Since(startDate).Hours() / 24)
	totalDuration := profile.GrowDurationDays
	if totalDuration == 0 {
		totalDuration = 60
	}

	stage := StageFor(daysPassed, totalDuration)
	thresholds := resolveThresholds(profile.OptimalConditions[stage], stage, daysPassed, totalDuration)

	encoded, err := store.Encode(thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thresholds: %w", err)
	}
	err = s.db.Update(ctx, devicePath(deviceID), map[string]any{
		"thresholds":     encoded,
		"active_grow_id": activeGrowID,
		"last_updated":   common.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save thresholds: %w", err)
	}

	s.notifier.DeviceChanged(ctx, device.UserID)
	return thresholds, nil
}
