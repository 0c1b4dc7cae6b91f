package grow

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hydrozap/internal/common"
	"hydrozap/internal/device"
	"hydrozap/internal/notify"
	"hydrozap/internal/profile"
	"hydrozap/internal/realtime"
	"hydrozap/internal/store"
)

// DeviceConflictError reports which grow already holds the device.
type DeviceConflictError struct {
	DeviceID string
	GrowID   string
}

func (e *DeviceConflictError) Error() string {
	return "Device is already assigned to an active grow"
}

func (e *DeviceConflictError) Unwrap() error { return common.ErrConflict }

type Service struct {
	db         store.DocumentStore
	devices    *device.Service
	profiles   *profile.Service
	dispatcher *notify.Dispatcher
	notifier   *realtime.Notifier
}

func NewService(db store.DocumentStore, devices *device.Service, profiles *profile.Service, dispatcher *notify.Dispatcher, notifier *realtime.Notifier) *Service {
	return &Service{
		db:         db,
		devices:    devices,
		profiles:   profiles,
		dispatcher: dispatcher,
		notifier:   notifier,
	}
}

func growPath(growID string) string {
	return "grows/" + growID
}

// activeGrowOn returns the ID of the active grow holding the device, if any.
// A grow may be excluded from the scan (the grow being updated).
func (s *Service) activeGrowOn(ctx context.Context, deviceID, excludeGrowID string) (string, error) {
	grows, err := s.db.QueryEqual(ctx, "grows", "device_id", deviceID)
	if err != nil {
		return "", fmt.Errorf("failed to query grows: %w", err)
	}
	for growID, doc := range grows {
		if growID == excludeGrowID {
			continue
		}
		fields, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if fields["status"] == "active" {
			return growID, nil
		}
	}
	return "", nil
}

// Create starts a new grow, binding the device. Fails when the device is
// already held by another active grow.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Grow, error) {
	if req.GrowID == "" {
		return nil, common.Validationf("Grow ID is required")
	}
	if req.DeviceID == "" {
		return nil, common.Validationf("Device ID is required")
	}

	holder, err := s.activeGrowOn(ctx, req.DeviceID, "")
	if err != nil {
		return nil, err
	}
	if holder != "" {
		return nil, &DeviceConflictError{DeviceID: req.DeviceID, GrowID: holder}
	}

	grow := &Grow{
		UserID:    req.UserID,
		GrowName:  req.GrowName,
		DeviceID:  req.DeviceID,
		ProfileID: req.ProfileID,
		StartDate: req.StartDate,
		Status:    "active",
	}
	encoded, err := store.Encode(grow)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grow: %w", err)
	}
	if err := s.db.Set(ctx, growPath(req.GrowID), encoded); err != nil {
		return nil, fmt.Errorf("failed to save grow: %w", err)
	}

	if err := s.devices.MarkInUse(ctx, req.DeviceID); err != nil {
		log.Printf("⚠️ Failed to mark device %s in use for grow %s: %v", req.DeviceID, req.GrowID, err)
	}
	if req.ProfileID != "" {
		if err := s.profiles.SetActive(ctx, req.ProfileID, true); err != nil {
			log.Printf("⚠️ Failed to activate profile %s: %v", req.ProfileID, err)
		}
	}

	s.notifier.DeviceChanged(ctx, req.UserID)
	return grow, nil
}

func (s *Service) Get(ctx context.Context, growID string) (*Grow, error) {
	raw, err := s.db.Get(ctx, growPath(growID))
	if err != nil {
		return nil, fmt.Errorf("failed to load grow: %w", err)
	}
	if raw == nil {
		return nil, common.NotFoundf("Grow record not found")
	}
	var grow Grow
	if err := store.Decode(raw, &grow); err != nil {
		return nil, fmt.Errorf("failed to decode grow: %w", err)
	}
	return &grow, nil
}

func (s *Service) List(ctx context.Context) (map[string]any, error) {
	raw, err := s.db.Get(ctx, "grows")
	if err != nil {
		return nil, fmt.Errorf("failed to list grows: %w", err)
	}
	return store.Children(raw), nil
}

// ActiveCount counts the user's active grows.
func (s *Service) ActiveCount(ctx context.Context, userID string) (int, error) {
	grows, err := s.db.QueryEqual(ctx, "grows", "user_id", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to query grows: %w", err)
	}
	count := 0
	for _, doc := range grows {
		if fields, ok := doc.(map[string]any); ok && fields["status"] == "active" {
			count++
		}
	}
	return count, nil
}

// Update patches a grow. Moving it to a new device re-runs the conflict
// check; marking it harvested releases the device.
func (s *Service) Update(ctx context.Context, growID string, req UpdateRequest) (*Grow, error) {
	existing, err := s.Get(ctx, growID)
	if err != nil {
		return nil, err
	}

	if req.DeviceID != nil && *req.DeviceID != existing.DeviceID {
		holder, err := s.activeGrowOn(ctx, *req.DeviceID, growID)
		if err != nil {
			return nil, err
		}
		if holder != "" {
			return nil, &DeviceConflictError{DeviceID: *req.DeviceID, GrowID: holder}
		}
	}

	updated := *existing
	if req.UserID != nil {
		updated.UserID = *req.UserID
	}
	if req.GrowName != nil {
		updated.GrowName = *req.GrowName
	}
	if req.DeviceID != nil {
		updated.DeviceID = *req.DeviceID
	}
	if req.ProfileID != nil {
		updated.ProfileID = *req.ProfileID
	}
	if req.StartDate != nil {
		updated.StartDate = *req.StartDate
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.HarvestDate != nil {
		updated.HarvestDate = *req.HarvestDate
	}

	encoded, err := store.Encode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode grow: %w", err)
	}
	if err := s.db.Update(ctx, growPath(growID), encoded); err != nil {
		return nil, fmt.Errorf("failed to update grow: %w", err)
	}

	// Harvest transition releases the device the grow was bound to.
	if updated.Status == "harvested" && existing.Status != "harvested" {
		deviceID := existing.DeviceID
		if req.DeviceID != nil {
			deviceID = *req.DeviceID
		}
		if deviceID != "" {
			if err := s.devices.Release(ctx, deviceID); err != nil {
				log.Printf("⚠️ Failed to release device %s after harvest of %s: %v", deviceID, growID, err)
			}
		}
		if err := s.reevaluateProfile(ctx, updated.ProfileID, growID); err != nil {
			log.Printf("⚠️ Failed to re-evaluate profile %s: %v", updated.ProfileID, err)
		}
	}

	s.notifier.DeviceChanged(ctx, updated.UserID)
	return &updated, nil
}

// Delete removes a harvested grow. Active grows must be harvested first.
func (s *Service) Delete(ctx context.Context, growID string) error {
	existing, err := s.Get(ctx, growID)
	if err != nil {
		return err
	}
	if existing.Status == "active" && existing.HarvestDate == "" {
		return common.Conflictf("Cannot delete an active grow")
	}

	if err := s.db.Delete(ctx, growPath(growID)); err != nil {
		return fmt.Errorf("failed to delete grow: %w", err)
	}
	s.notifier.DeviceChanged(ctx, existing.UserID)
	return nil
}

// progressFor computes harvest progress, clamped at 100.
func progressFor(startDate string, durationDays int, now time.Time) (progress float64, days int, err error) {
	start, err := time.Parse(time.RFC3339, startDate)
	if err != nil {
		return 0, 0, common.Validationf("invalid start_date %q", startDate)
	}
	days = int(now.Sub(start).Hours() / 24)
	if durationDays <= 0 {
		durationDays = 60
	}
	progress = float64(days) / float64(durationDays) * 100
	if progress > 100 {
		progress = 100
	}
	return progress, days, nil
}

// Readiness reports harvest progress for one grow and, when the grow is
// ready, sends the harvest reminder. Repeated polls re-send the reminder;
// readiness is not deduplicated.
func (s *Service) Readiness(ctx context.Context, growID string) (*Readiness, error) {
	grow, err := s.Get(ctx, growID)
	if err != nil {
		return nil, err
	}

	if grow.Status == "harvested" {
		return &Readiness{
			Ready:       false,
			Message:     "This grow has already been harvested",
			HarvestDate: grow.HarvestDate,
		}, nil
	}

	prof, err := s.profiles.GetGrowProfile(ctx, grow.ProfileID)
	if err != nil {
		return nil, err
	}

	progress, days, err := progressFor(grow.StartDate, prof.GrowDurationDays, time.Now())
	if err != nil {
		return nil, err
	}

	ready := progress >= 100
	readiness := &Readiness{
		Ready:          ready,
		Progress:       progress,
		DaysSinceStart: days,
		TotalDuration:  prof.GrowDurationDays,
		Message:        "Grow is not yet ready for harvest",
	}
	if ready {
		readiness.Message = "Grow is ready for harvest"
		s.sendHarvestReminder(ctx, growID, grow)
	}
	return readiness, nil
}

func (s *Service) sendHarvestReminder(ctx context.Context, growID string, grow *Grow) {
	growName := grow.GrowName
	if growName == "" {
		growName = "Your grow"
	}
	report := s.dispatcher.SendToUser(ctx, grow.UserID,
		"Harvest Ready! 🌱",
		growName+" is ready for harvest!",
		map[string]string{
			"type":       "harvest",
			"grow_id":    growID,
			"device_id":  grow.DeviceID,
			"alert_type": "harvest_reminder",
			"priority":   "high",
		})
	if report.SuccessCount > 0 {
		log.Printf("✅ Harvest ready notification sent to user %s for grow %s", grow.UserID, growID)
	} else {
		log.Printf("⚠️ Failed to send harvest ready notification to user %s for grow %s", grow.UserID, growID)
	}
}

// RecordHarvest writes a harvest log, marks the grow harvested and releases
// its device. Each call issues a fresh log ID; calling twice for the same
// grow produces two logs, but the release converges idempotently.
func (s *Service) RecordHarvest(ctx context.Context, deviceID string, req HarvestRequest) (*HarvestLogResponse, error) {
	var missing []string
	if req.CropName == "" {
		missing = append(missing, "crop_name")
	}
	if req.HarvestDate == "" {
		missing = append(missing, "harvest_date")
	}
	if req.YieldAmount == 0 {
		missing = append(missing, "yield_amount")
	}
	if req.Rating == 0 {
		missing = append(missing, "rating")
	}
	if len(missing) > 0 {
		return nil, common.Validationf("Missing required fields: %s", strings.Join(missing, ", "))
	}

	var grow *Grow
	if req.GrowID != "" {
		loaded, err := s.Get(ctx, req.GrowID)
		if err == nil {
			grow = loaded
		}
	}

	logID := uuid.NewString()
	metrics := req.PerformanceMetrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	entry := &HarvestLog{
		DeviceID:           deviceID,
		GrowID:             req.GrowID,
		CropName:           req.CropName,
		HarvestDate:        req.HarvestDate,
		YieldAmount:        req.YieldAmount,
		Rating:             req.Rating,
		PerformanceMetrics: metrics,
		Remarks:            req.Remarks,
	}
	if grow != nil {
		entry.UserID = grow.UserID
	}

	encoded, err := store.Encode(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode harvest log: %w", err)
	}
	if err := s.db.Set(ctx, "harvest_logs/"+logID, encoded); err != nil {
		return nil, fmt.Errorf("failed to save harvest log: %w", err)
	}

	if grow != nil {
		err := s.db.Update(ctx, growPath(req.GrowID), map[string]any{
			"status":       "harvested",
			"harvest_date": req.HarvestDate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mark grow harvested: %w", err)
		}
		if err := s.reevaluateProfile(ctx, grow.ProfileID, req.GrowID); err != nil {
			log.Printf("⚠️ Failed to re-evaluate profile %s: %v", grow.ProfileID, err)
		}
		if err := s.devices.Release(ctx, deviceID); err != nil {
			return nil, fmt.Errorf("failed to release device: %w", err)
		}
		s.notifier.DeviceChanged(ctx, grow.UserID)
	}

	return &HarvestLogResponse{
		LogID:              logID,
		DeviceID:           deviceID,
		GrowID:             req.GrowID,
		CropName:           req.CropName,
		HarvestDate:        req.HarvestDate,
		YieldAmount:        req.YieldAmount,
		Rating:             req.Rating,
		PerformanceMetrics: metrics,
	}, nil
}

// reevaluateProfile recomputes is_active from the active grows still
// referencing the profile, excluding the grow being harvested.
func (s *Service) reevaluateProfile(ctx context.Context, profileID, excludeGrowID string) error {
	if profileID == "" {
		return nil
	}
	grows, err := s.db.QueryEqual(ctx, "grows", "profile_id", profileID)
	if err != nil {
		return err
	}
	active := 0
	for growID, doc := range grows {
		if growID == excludeGrowID {
			continue
		}
		if fields, ok := doc.(map[string]any); ok && fields["status"] == "active" {
			active++
		}
	}
	return s.profiles.SetActive(ctx, profileID, active > 0)
}

// HarvestLogs lists the logs for a device, optionally narrowed to one grow.
func (s *Service) HarvestLogs(ctx context.Context, deviceID, growID string) ([]HarvestLogResponse, error) {
	raw, err := s.db.Get(ctx, "harvest_logs")
	if err != nil {
		return nil, fmt.Errorf("failed to list harvest logs: %w", err)
	}

	logs := []HarvestLogResponse{}
	for logID, doc := range store.Children(raw) {
		var entry HarvestLog
		if err := store.Decode(doc, &entry); err != nil {
			continue
		}
		if entry.DeviceID != deviceID {
			continue
		}
		if growID != "" && entry.GrowID != growID {
			continue
		}
		logs = append(logs, HarvestLogResponse{
			LogID:              logID,
			DeviceID:           entry.DeviceID,
			GrowID:             entry.GrowID,
			CropName:           entry.CropName,
			HarvestDate:        entry.HarvestDate,
			YieldAmount:        entry.YieldAmount,
			Rating:             entry.Rating,
			PerformanceMetrics: entry.PerformanceMetrics,
		})
	}
	return logs, nil
}

// Leaderboard aggregates every harvest log into per-user scores, highest
// first. A log's score is its yield multiplied by its rating.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	raw, err := s.db.Get(ctx, "harvest_logs")
	if err != nil {
		return nil, fmt.Errorf("failed to list harvest logs: %w", err)
	}

	totals := map[string]*LeaderboardEntry{}
	for _, doc := range store.Children(raw) {
		var entry HarvestLog
		if err := store.Decode(doc, &entry); err != nil {
			continue
		}
		userID := entry.UserID
		if userID == "" && entry.GrowID != "" {
			if grow, err := s.Get(ctx, entry.GrowID); err == nil {
				userID = grow.UserID
			}
		}
		if userID == "" {
			continue
		}
		total, present := totals[userID]
		if !present {
			total = &LeaderboardEntry{UserID: userID}
			totals[userID] = total
		}
		total.TotalScore += entry.YieldAmount * float64(entry.Rating)
		total.HarvestCount++
	}

	entries := make([]LeaderboardEntry, 0, len(totals))
	for _, total := range totals {
		entries = append(entries, *total)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalScore > entries[j].TotalScore
	})
	return entries, nil
}
