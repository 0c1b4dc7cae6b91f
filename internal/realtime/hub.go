// Package realtime pushes live snapshots to connected app clients. Fan-out is
// a latency optimization only: every connection also re-polls on a fixed
// 10-second cadence, so a missed publish costs at most one poll interval.
package realtime

import (
	"log"
	"sync"
)

// Publisher is the fan-out surface the write paths use. Publish never
// blocks the caller on delivery and never returns an error.
type Publisher interface {
	Publish(topic string, event map[string]any)
}

// NopPublisher discards events; used by tests and the seed CLI.
type NopPublisher struct{}

func (NopPublisher) Publish(string, map[string]any) {}

// Topic names, one channel space per user.
func DevicesTopic(userID string) string   { return "devices_" + userID }
func DashboardTopic(userID string) string { return "dashboard_" + userID }
func AlertsTopic(userID string) string    { return "user_" + userID }

// Hub tracks which client connections subscribe to which topic.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Client]struct{})}
}

// Publish forwards the event to every subscriber of the topic. A slow or
// gone client just drops the event; its poller will catch it up.
func (h *Hub) Publish(topic string, event map[string]any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.subs[topic]))
	for c := range h.subs[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(event) {
			log.Printf("⚠️ Dropped realtime event on %s (client backlogged)", topic)
		}
	}
}

func (h *Hub) subscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Client]struct{})
	}
	h.subs[topic][c] = struct{}{}
}

func (h *Hub) unsubscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[topic], c)
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
}
