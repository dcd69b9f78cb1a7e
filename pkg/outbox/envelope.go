package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies the staff member who produced the event.
type ActorRef struct {
	Username string `json:"username"`
}

// Actor builds an ActorRef, or nil when no actor is known.
func Actor(username string) *ActorRef {
	if username == "" {
		return nil
	}
	return &ActorRef{Username: username}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
