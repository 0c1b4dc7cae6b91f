package realtime

import (
	"context"
	"log"
	"time"

	"hydrozap/internal/store"
)

// Notifier is what the write paths call after mutating state. Every method
// is best effort: failures are logged and swallowed so a broken fan-out can
// never fail the originating write.
type Notifier struct {
	pub Publisher
	db  store.DocumentStore
}

func NewNotifier(pub Publisher, db store.DocumentStore) *Notifier {
	return &Notifier{pub: pub, db: db}
}

// DeviceChanged pushes fresh device and dashboard snapshots to the user's
// live connections.
func (n *Notifier) DeviceChanged(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if event, err := devicesSnapshot(ctx, n.db, userID); err != nil {
		log.Printf("⚠️ Failed to build devices snapshot for %s: %v", userID, err)
	} else {
		n.pub.Publish(DevicesTopic(userID), event)
	}
	n.DashboardChanged(ctx, userID)
}

// AlertChanged pushes fresh alert and dashboard snapshots.
func (n *Notifier) AlertChanged(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if event, err := alertsSnapshot(ctx, n.db, userID); err != nil {
		log.Printf("⚠️ Failed to build alerts snapshot for %s: %v", userID, err)
	} else {
		n.pub.Publish(AlertsTopic(userID), event)
	}
	n.DashboardChanged(ctx, userID)
}

func (n *Notifier) DashboardChanged(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	event, err := dashboardSnapshot(ctx, n.db, userID)
	if err != nil {
		log.Printf("⚠️ Failed to build dashboard snapshot for %s: %v", userID, err)
		return
	}
	n.pub.Publish(DashboardTopic(userID), event)
}

func devicesSnapshot(ctx context.Context, db store.DocumentStore, userID string) (map[string]any, error) {
	devices, err := db.QueryEqual(ctx, "devices", "user_id", userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":      "devices_update",
		"timestamp": time.Now().Format(time.RFC3339),
		"devices":   devices,
	}, nil
}

func alertsSnapshot(ctx context.Context, db store.DocumentStore, userID string) (map[string]any, error) {
	raw, err := db.Get(ctx, "alerts/"+userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":      "alerts_update",
		"timestamp": time.Now().Format(time.RFC3339),
		"alerts":    store.Children(raw),
	}, nil
}

func dashboardSnapshot(ctx context.Context, db store.DocumentStore, userID string) (map[string]any, error) {
	devices, err := db.QueryEqual(ctx, "devices", "user_id", userID)
	if err != nil {
		return nil, err
	}
	alertsRaw, err := db.Get(ctx, "alerts/"+userID)
	if err != nil {
		return nil, err
	}
	grows, err := db.QueryEqual(ctx, "grows", "user_id", userID)
	if err != nil {
		return nil, err
	}
	growCount := 0
	for _, doc := range grows {
		if fields, ok := doc.(map[string]any); ok && fields["status"] == "active" {
			growCount++
		}
	}
	return map[string]any{
		"type":         "dashboard_update",
		"timestamp":    time.Now().Format(time.RFC3339),
		"device_count": len(devices),
		"alert_count":  len(store.Children(alertsRaw)),
		"grow_count":   growCount,
	}, nil
}
