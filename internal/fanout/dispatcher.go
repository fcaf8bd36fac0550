// Package fanout pushes one realtime event to a resolved set of recipients.
//
// Delivery is best-effort and at-most-once: offline users are skipped and a failed push
// is logged and counted, never retried. The persisted record stays the source of truth.
package fanout

import (
	"context"
	"log/slog"
	"time"

	"chat-backend/internal/models"
)

// Resolver maps a user to its live connection
type Resolver interface {
	Lookup(userID string) (connID string, ok bool)
}

// Pusher writes one event to one live connection
type Pusher interface {
	Push(connID string, event models.EventType, payload any) error
}

// Result counts what happened to each target of one dispatch
type Result struct {
	Delivered int
	Skipped   int // offline, not an error
	Failed    int
}

type Dispatcher struct {
	resolver Resolver
	pusher   Pusher
	metrics  *Metrics
}

func NewDispatcher(resolver Resolver, pusher Pusher) *Dispatcher {
	return &Dispatcher{resolver: resolver, pusher: pusher, metrics: NewMetrics()}
}

// Metrics returns the aggregated dispatch counters
func (d *Dispatcher) Metrics() MetricsSnapshot {
	return d.metrics.Snapshot()
}

// Dispatch pushes event to every target except excluding, in target order.
// Duplicate targets receive the event once.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.EventType, payload any, targets []string, excluding string) Result {
	var res Result
	start := time.Now()
	seen := make(map[string]struct{}, len(targets))

	for _, userID := range targets {
		if userID == "" || userID == excluding {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		connID, ok := d.resolver.Lookup(userID)
		if !ok {
			res.Skipped++
			slog.DebugContext(ctx, "Recipient offline, skipping push", "event", event, "userID", userID)
			continue
		}

		if err := d.pusher.Push(connID, event, payload); err != nil {
			res.Failed++
			slog.WarnContext(ctx, "Failed to push event", "event", event, "userID", userID, "connID", connID, "error", err)
			continue
		}
		res.Delivered++
	}

	d.metrics.Record(event, res, time.Since(start))
	slog.DebugContext(ctx, "Event dispatched", "event", event, "delivered", res.Delivered, "skipped", res.Skipped, "failed", res.Failed)
	return res
}

// ToUser pushes event to a single recipient (direct chat mode)
func (d *Dispatcher) ToUser(ctx context.Context, event models.EventType, payload any, userID string) Result {
	return d.Dispatch(ctx, event, payload, []string{userID}, "")
}

// ToChat pushes event to every member of chat except the sender (group chat mode).
// Pass an empty sender to include every member.
func (d *Dispatcher) ToChat(ctx context.Context, event models.EventType, payload any, chat *models.Chat, senderID string) Result {
	return d.Dispatch(ctx, event, payload, chat.ParticipantIDs(), senderID)
}
