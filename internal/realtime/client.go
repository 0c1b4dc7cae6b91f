package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pollInterval = 10 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 8
)

// SnapshotFunc builds the payload a connection pushes on each poll tick.
type SnapshotFunc func(ctx context.Context) (map[string]any, error)

// Client is one websocket connection. A single writer goroutine owns the
// socket; the poller and the hub both hand events to it through the send
// channel, so nothing can write after the connection is torn down.
type Client struct {
	hub      *Hub
	topic    string
	conn     *websocket.Conn
	snapshot SnapshotFunc
	refresh  string // message type that triggers an immediate fetch

	send   chan map[string]any
	done   chan struct{}
	cancel context.CancelFunc
}

func newClient(hub *Hub, topic string, conn *websocket.Conn, refresh string, snapshot SnapshotFunc) *Client {
	return &Client{
		hub:      hub,
		topic:    topic,
		conn:     conn,
		snapshot: snapshot,
		refresh:  refresh,
		send:     make(chan map[string]any, sendBuffer),
		done:     make(chan struct{}),
	}
}

// run services the connection until the peer goes away. It blocks the HTTP
// handler goroutine as the read pump.
func (c *Client) run() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.hub.subscribe(c.topic, c)
	defer func() {
		c.hub.unsubscribe(c.topic, c)
		cancel()
		close(c.done)
		c.conn.Close()
	}()

	go c.writePump()
	go c.pollLoop(ctx)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == c.refresh {
			// One extra fetch, outside the timer cadence.
			c.fetchAndSend(ctx)
		}
	}
}

// pollLoop re-sends a fresh snapshot every pollInterval until cancelled.
func (c *Client) pollLoop(ctx context.Context) {
	c.fetchAndSend(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.fetchAndSend(ctx)
		}
	}
}

func (c *Client) fetchAndSend(ctx context.Context) {
	payload, err := c.snapshot(ctx)
	if err != nil {
		log.Printf("❌ Error building %s snapshot: %v", c.topic, err)
		c.enqueue(map[string]any{
			"type":    "error",
			"message": "Failed to fetch data: " + err.Error(),
		})
		return
	}
	c.enqueue(payload)
}

// enqueue hands an event to the writer; drops it when the client is gone or
// backlogged. Reports whether the event was queued.
func (c *Client) enqueue(event map[string]any) bool {
	select {
	case <-c.done:
		return false
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(event); err != nil {
				c.cancel()
				return
			}
		}
	}
}
