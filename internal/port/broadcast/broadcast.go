// Package broadcast defines the port for fanning real-time events out to
// connected viewers.
package broadcast

import "context"

// Broadcaster sends a typed event to every currently connected viewer.
// Delivery is best-effort and at-most-once: a viewer that cannot accept the
// write is dropped, never queued against the producer, and a disconnected
// viewer simply misses events sent during the gap.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Nop discards all events. Useful in tests and offline tools.
type Nop struct{}

// BroadcastEvent implements Broadcaster.
func (Nop) BroadcastEvent(context.Context, string, any) {}
