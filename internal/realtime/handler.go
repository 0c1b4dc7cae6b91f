package realtime

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hydrozap/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer for the REST surface; the
	// socket carries only the caller's own data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades websocket sessions for the live device, dashboard and
// alert channels.
type Handler struct {
	hub *Hub
	db  store.DocumentStore
}

func NewHandler(hub *Hub, db store.DocumentStore) *Handler {
	return &Handler{hub: hub, db: db}
}

// Devices streams the user's device list
// GET /ws/devices/:user_id
func (h *Handler) Devices(c *gin.Context) {
	userID := c.Param("user_id")
	h.serve(c, DevicesTopic(userID), "fetch_devices", func(ctx context.Context) (map[string]any, error) {
		return devicesSnapshot(ctx, h.db, userID)
	})
}

// Dashboard streams aggregated counts
// GET /ws/dashboard/:user_id
func (h *Handler) Dashboard(c *gin.Context) {
	userID := c.Param("user_id")
	h.serve(c, DashboardTopic(userID), "fetch_dashboard", func(ctx context.Context) (map[string]any, error) {
		return dashboardSnapshot(ctx, h.db, userID)
	})
}

// Alerts streams the user's alert feed
// GET /ws/alerts/:user_id
func (h *Handler) Alerts(c *gin.Context) {
	userID := c.Param("user_id")
	h.serve(c, AlertsTopic(userID), "fetch_alerts", func(ctx context.Context) (map[string]any, error) {
		return alertsSnapshot(ctx, h.db, userID)
	})
}

func (h *Handler) serve(c *gin.Context, topic, refresh string, snapshot SnapshotFunc) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Websocket upgrade failed for %s: %v", topic, err)
		return
	}
	newClient(h.hub, topic, conn, refresh, snapshot).run()
}
