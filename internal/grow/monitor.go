package grow

import (
	"context"
	"log"
	"sync"
	"time"

	"hydrozap/internal/store"
)

// Monitor sweeps all grows once an hour and sends harvest reminders for the
// ones that became ready. The ticker keeps at most one sweep in flight and
// naturally coalesces missed runs.
type Monitor struct {
	service *Service
	ticker  *time.Ticker
	ctx     context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	isRunning bool
}

func NewMonitor(service *Service) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		service: service,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isRunning {
		log.Printf("⚠️ Grow monitor already running")
		return
	}
	m.isRunning = true
	m.ticker = time.NewTicker(1 * time.Hour)

	log.Printf("🕐 Grow monitor started (1h interval)")
	go m.run()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		log.Printf("⚠️ Grow monitor not running")
		return
	}
	m.cancel()
	m.ticker.Stop()
	m.isRunning = false

	log.Printf("🛑 Grow monitor stopped")
}

func (m *Monitor) run() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.ticker.C:
			m.Sweep(m.ctx)
		}
	}
}

// Sweep checks every unharvested grow for readiness. Profiles are loaded
// once up front rather than per grow.
func (m *Monitor) Sweep(ctx context.Context) {
	rawGrows, err := m.service.db.Get(ctx, "grows")
	if err != nil {
		log.Printf("❌ Grow monitor failed to load grows: %v", err)
		return
	}
	rawProfiles, err := m.service.db.Get(ctx, "grow_profiles")
	if err != nil {
		log.Printf("❌ Grow monitor failed to load grow profiles: %v", err)
		return
	}
	profiles := store.Children(rawProfiles)

	checked, ready := 0, 0
	for growID, doc := range store.Children(rawGrows) {
		var grow Grow
		if err := store.Decode(doc, &grow); err != nil {
			log.Printf("⚠️ Grow monitor skipping %s: %v", growID, err)
			continue
		}
		if grow.Status == "harvested" {
			continue
		}

		profileDoc, found := profiles[grow.ProfileID]
		if !found {
			continue
		}
		var duration struct {
			GrowDurationDays int `json:"grow_duration_days"`
		}
		if err := store.Decode(profileDoc, &duration); err != nil {
			continue
		}

		checked++
		progress, _, err := progressFor(grow.StartDate, duration.GrowDurationDays, time.Now())
		if err != nil {
			log.Printf("⚠️ Grow monitor skipping %s: %v", growID, err)
			continue
		}
		if progress >= 100 {
			ready++
			m.service.sendHarvestReminder(ctx, growID, &grow)
		}
	}

	log.Printf("🌱 Grow monitor sweep complete: %d checked, %d ready", checked, ready)
}
