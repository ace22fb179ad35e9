// Package ws streams call events to websocket subscribers, typically a
// monitoring dashboard.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/akillionvoice/callcore/internal/service"
)

// subscriber is one websocket client on the event feed. An empty callID
// subscribes to every call.
type subscriber struct {
	id     string
	callID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans call events out to all subscribers. One goroutine (Run) owns the
// subscriber set; Publish never blocks on a slow client.
type Hub struct {
	subscribers map[string]*subscriber

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan service.Event

	mu sync.RWMutex
}

var _ service.EventPublisher = (*Hub)(nil)

// NewHub creates an event hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan service.Event, 256),
	}
}

// Run owns the subscriber set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, sub := range h.subscribers {
				close(sub.send)
				delete(h.subscribers, id)
			}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub.id] = sub
			h.mu.Unlock()
			log.Printf("Event feed subscriber connected: %s", sub.id)

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub.id]; ok {
				delete(h.subscribers, sub.id)
				close(sub.send)
			}
			h.mu.Unlock()
			log.Printf("Event feed subscriber disconnected: %s", sub.id)

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("WARN: failed to encode event: %v", err)
				continue
			}
			h.mu.RLock()
			for id, sub := range h.subscribers {
				if sub.callID != "" && sub.callID != event.CallID {
					continue
				}
				select {
				case sub.send <- data:
				default:
					log.Printf("Subscriber %s buffer full, dropping", id)
					go h.drop(sub)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues an event for broadcast. Drops the event when the feed is
// saturated; the feed is observability, not a system of record.
func (h *Hub) Publish(event service.Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("WARN: event feed saturated, dropping %s for call %s", event.Type, event.CallID)
	}
}

// SubscriberCount reports connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) newSubscriber(conn *websocket.Conn, callID string) *subscriber {
	return &subscriber{
		id:     uuid.New().String(),
		callID: callID,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
}

func (h *Hub) drop(sub *subscriber) {
	h.unregister <- sub
}
