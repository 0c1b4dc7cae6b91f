package dashboard

import (
	"context"
	"fmt"

	"hydrozap/internal/store"
)

// Counts aggregates the per-user totals shown on the app home screen.
type Counts struct {
	DeviceCount int `json:"device_count"`
	AlertCount  int `json:"alert_count"`
	GrowCount   int `json:"grow_count"`
}

type Service struct {
	db store.DocumentStore
}

func NewService(db store.DocumentStore) *Service {
	return &Service{db: db}
}

func (s *Service) Counts(ctx context.Context, userID string) (Counts, error) {
	var counts Counts

	devices, err := s.db.QueryEqual(ctx, "devices", "user_id", userID)
	if err != nil {
		return counts, fmt.Errorf("count devices: %w", err)
	}
	counts.DeviceCount = len(devices)

	alerts, err := s.db.Get(ctx, "alerts/"+userID)
	if err != nil {
		return counts, fmt.Errorf("count alerts: %w", err)
	}
	counts.AlertCount = len(store.Children(alerts))

	grows, err := s.db.QueryEqual(ctx, "grows", "user_id", userID)
	if err != nil {
		return counts, fmt.Errorf("count grows: %w", err)
	}
	for _, raw := range grows {
		var grow struct {
			Status string `json:"status"`
		}
		if err := store.Decode(raw, &grow); err != nil {
			continue
		}
		if grow.Status == "active" {
			counts.GrowCount++
		}
	}

	return counts, nil
}
