// Package audit records authentication and authorization events to an
// external sink. Writers are best-effort and must not block request handling.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one audit record. ID, identity fields, and OccurredAt are filled
// in by the request's audit capability; callers supply Action and Metadata.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Action     string            `json:"action"`
	UserID     uuid.UUID         `json:"user_id"`
	UserEmail  string            `json:"user_email"`
	OrgID      *uuid.UUID        `json:"org_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Writer persists audit events. Implementations should be non-blocking and
// best-effort; a failed write never fails the request that produced it.
type Writer interface {
	Write(ctx context.Context, e Event) error
}

// Discard is a Writer that drops every event. Useful in tests and for
// deployments without an audit sink.
var Discard Writer = discard{}

type discard struct{}

func (discard) Write(context.Context, Event) error { return nil }
