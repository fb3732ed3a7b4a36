// Package realtime pushes live events to connected clients.
package realtime

import (
	"context"
	"errors"
)

// Event names.
const (
	EventNotification = "notification"
)

// Message is one live event addressed to a room. Every user listens on the
// room named after their ID.
type Message struct {
	Room  string `json:"room"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Emitter delivers events on a best-effort basis. An error means the event was
// not handed to the transport; success does not mean a client received it.
type Emitter interface {
	Emit(ctx context.Context, room, event string, data any) error
}

// Noop drops every event. Used when no live transport is configured and in tests.
type Noop struct{}

func (Noop) Emit(context.Context, string, string, any) error { return nil }

// Multi emits on every transport and joins their errors.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, room, event string, data any) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, room, event, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
