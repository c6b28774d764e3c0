// Package messaging defines interfaces for real-time communication with the
// dashboard.
package messaging

import "time"

// Event is one observable thing that happened inside the engine: an
// exchange handled, a purchase settled, a snapshot written.
type Event struct {
	Time   time.Time      `json:"time"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(kind string, fields map[string]any) Event {
	return Event{Time: time.Now().UTC(), Kind: kind, Fields: fields}
}

// EventSink receives engine events. Publish must never block the caller.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards every event. Used when no dashboard is attached.
type NopSink struct{}

func (NopSink) Publish(Event) {}
