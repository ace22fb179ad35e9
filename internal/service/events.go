package service

import "time"

// Event types published on the call-event feed.
const (
	EventCallStarted   = "call_started"
	EventCallRouted    = "call_routed"
	EventTurnProcessed = "turn_processed"
	EventCallEnded     = "call_ended"
)

// Event is one entry on the call-event feed.
type Event struct {
	Type      string                 `json:"type"`
	CallID    string                 `json:"call_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventPublisher fans events out to feed subscribers. Implementations must
// not block: a slow subscriber is the publisher's problem, not the call's.
type EventPublisher interface {
	Publish(event Event)
}

func (s *Service) publish(eventType, callID string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{
		Type:      eventType,
		CallID:    callID,
		Timestamp: time.Now(),
		Data:      data,
	})
}
