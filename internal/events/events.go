// Package events publishes domain events for other services. Publishing is
// best effort: a failure is logged and never fails the request that caused it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"jobmate/brain-service/internal/logger"
)

// ApplicationLogged is the type and Redis channel of the event sent after a
// job and its application are recorded.
const ApplicationLogged = "EVENT_APPLICATION_LOGGED"

// Event is the JSON payload on the wire.
type Event struct {
	Type          string    `json:"type"`
	ApplicationID int64     `json:"applicationId"`
	JobID         int64     `json:"jobId"`
	ResumeID      int64     `json:"resumeId"`
	Company       string    `json:"company"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

func (e Event) encode() ([]byte, error) { return json.Marshal(e) }

// Publisher sends an event to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Notify publishes ev and logs a warning on failure.
func Notify(ctx context.Context, p Publisher, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("component", "events").Str("type", ev.Type).Msg("publish failed")
	}
}
