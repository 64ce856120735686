// Package audit defines the cross-cutting audit recording contract.
//
// The recorder is an injected sink: services call it explicitly after a
// committed mutation instead of registering global flush-time listeners.
// Audit writes are best-effort secondary writes - a failed audit record is
// surfaced to operational logging but never rolls back the ledger mutation
// it describes.
package audit

import (
	"context"

	"grootboek/internal/core/id"
)

// Action is the kind of audited mutation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionPost     Action = "post"
	ActionReverse  Action = "reverse"
	ActionFinalize Action = "finalize"
	ActionLock     Action = "lock"
	ActionReview   Action = "review"
)

// Event describes one durable mutation across the ledger core.
type Event struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Actor      string
	Changes    map[string]any
}

// Recorder durably records mutation events.
// The postgres implementation lives in infrastructure/storage/postgres.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// NopRecorder discards all events. Used in tests and tooling.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, event Event) error { return nil }

var _ Recorder = NopRecorder{}
