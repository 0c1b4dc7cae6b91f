// Package sensor ingests device telemetry, historizes readings and feeds
// the alert evaluation engine.
package sensor

import (
	"context"
	"fmt"
	"time"

	"hydrozap/internal/alert"
	"hydrozap/internal/common"
	"hydrozap/internal/store"
)

// Reading is one telemetry sample from a device.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	EC          float64 `json:"ec"`
	TDS         float64 `json:"tds"`
	WaterLevel  float64 `json:"waterLevel"`
	Timestamp   string  `json:"timestamp"`
}

type Service struct {
	db     store.DocumentStore
	alerts *alert.Service
}

func NewService(db store.DocumentStore, alerts *alert.Service) *Service {
	return &Service{db: db, alerts: alerts}
}

// Ingest historizes a reading, refreshes the device's latest snapshot and
// runs the rule conditions of every grow on the device.
func (s *Service) Ingest(ctx context.Context, deviceID string, reading Reading) ([]alert.Triggered, error) {
	raw, err := s.db.Get(ctx, "devices/"+deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check device: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Add the device first before the sensor sends data.")
	}

	reading.Timestamp = common.Now()
	encoded, err := store.Encode(reading)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reading: %w", err)
	}

	sensorsPath := "devices/" + deviceID + "/sensors"
	if _, err := s.db.Push(ctx, sensorsPath, encoded); err != nil {
		return nil, fmt.Errorf("failed to historize reading: %w", err)
	}
	// Latest values also live directly under sensors for cheap access.
	if err := s.db.Update(ctx, sensorsPath, encoded); err != nil {
		return nil, fmt.Errorf("failed to update sensor snapshot: %w", err)
	}

	triggered, err := s.alerts.CheckConditions(ctx, deviceID, reading.PH, reading.EC)
	if err != nil {
		return nil, err
	}
	return triggered, nil
}

func parseTime(value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Historical returns readings between start and end, narrowed to one sensor
// type unless "all" is requested, keyed by timestamp.
func (s *Service) Historical(ctx context.Context, deviceID string, start, end time.Time, sensorType string) (map[string]map[string]any, error) {
	raw, err := s.db.Get(ctx, "devices/"+deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Device with ID %s not found", deviceID)
	}

	fields, _ := raw.(map[string]any)
	sensors, ok := fields["sensors"].(map[string]any)
	if !ok || len(sensors) == 0 {
		return nil, common.NotFoundf("No sensor data available for this device")
	}

	sensorTypes := []string{sensorType}
	if sensorType == "all" {
		sensorTypes = []string{"temperature", "humidity", "ph", "ec", "tds", "waterLevel"}
	}

	filtered := map[string]map[string]any{}
	collect := func(reading map[string]any) {
		timestamp, _ := reading["timestamp"].(string)
		readingTime, parsed := parseTime(timestamp)
		if !parsed {
			return
		}
		if readingTime.Before(start) || readingTime.After(end) {
			return
		}
		point, present := filtered[timestamp]
		if !present {
			point = map[string]any{"timestamp": timestamp}
			filtered[timestamp] = point
		}
		for _, name := range sensorTypes {
			if value, has := reading[name]; has {
				point[name] = value
			}
		}
	}

	// Historized readings are nested children; the flat snapshot keys sit
	// alongside them.
	hasNested := false
	for _, doc := range sensors {
		if reading, isMap := doc.(map[string]any); isMap {
			hasNested = true
			collect(reading)
		}
	}
	if !hasNested {
		collect(sensors)
	}
	return filtered, nil
}

// DosingLog is one pump dosing event recorded by the device firmware.
type DosingLog struct {
	LogID     string  `json:"log_id"`
	Timestamp string  `json:"timestamp"`
	Mode      string  `json:"mode"`
	Type      string  `json:"type"`
	VolumeML  float64 `json:"volume_ml"`
}

// DosingLogs lists a device's dosing events, optionally bounded by time.
func (s *Service) DosingLogs(ctx context.Context, deviceID string, start, end *time.Time) ([]DosingLog, error) {
	raw, err := s.db.Get(ctx, "devices/"+deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Device with ID %s not found", deviceID)
	}

	fields, _ := raw.(map[string]any)
	logs, ok := fields["dosing_logs"].(map[string]any)
	if !ok || len(logs) == 0 {
		return nil, common.NotFoundf("No dosing logs available for this device")
	}

	entries := []DosingLog{}
	for logID, doc := range logs {
		entry, isMap := doc.(map[string]any)
		if !isMap {
			continue
		}
		timestamp, _ := entry["timestamp"].(string)
		logTime, parsed := parseTime(timestamp)
		if !parsed {
			continue
		}
		if start != nil && logTime.Before(*start) {
			continue
		}
		if end != nil && logTime.After(*end) {
			continue
		}
		var log DosingLog
		if err := store.Decode(entry, &log); err != nil {
			continue
		}
		log.LogID = logID
		log.Timestamp = timestamp
		entries = append(entries, log)
	}
	return entries, nil
}

// RecordActuatorState appends a firmware-reported actuator state sample.
func (s *Service) RecordActuatorState(ctx context.Context, deviceID string, pumpStatus, lightStatus any) error {
	_, err := s.db.Push(ctx, "devices/"+deviceID+"/actuator_logs", map[string]any{
		"pump_status":  pumpStatus,
		"light_status": lightStatus,
		"timestamp":    common.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record actuator data: %w", err)
	}
	return nil
}
