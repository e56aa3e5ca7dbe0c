package authz

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable audit record describing one authorization outcome.
// The emitter only builds the value; the caller persists it.
type Event struct {
	ID       string
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Allowed  bool
	Reason   DenyReason
	Meta     map[string]string
	At       time.Time
}

// EventInput carries the decision context an event is built from.
type EventInput struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Decision Decision
	Meta     map[string]string
}

// Emitter turns decision contexts into audit events. It performs no I/O;
// time and id sources are injectable for deterministic tests.
type Emitter struct {
	now   func() time.Time
	newID func() string
}

// EmitterOption customizes an Emitter.
type EmitterOption func(*Emitter)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) { e.now = now }
}

// WithIDSource overrides the event id source.
func WithIDSource(newID func() string) EmitterOption {
	return func(e *Emitter) { e.newID = newID }
}

// NewEmitter constructs an Emitter with wall-clock and uuid defaults.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit builds the audit event for a decision. The Meta map is copied so the
// returned record cannot be mutated through the input.
func (e *Emitter) Emit(input EventInput) Event {
	event := Event{
		ID:       e.newID(),
		Actor:    input.Actor,
		Action:   input.Action,
		Entity:   input.Entity,
		EntityID: input.EntityID,
		Allowed:  input.Decision.Allowed,
		Reason:   input.Decision.Reason,
		At:       e.now(),
	}
	if len(input.Meta) > 0 {
		event.Meta = make(map[string]string, len(input.Meta))
		for k, v := range input.Meta {
			event.Meta[k] = v
		}
	}
	return event
}
