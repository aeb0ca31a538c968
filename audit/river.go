package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/sirupsen/logrus"
)

// EventArgs is the river job payload carrying one audit event.
type EventArgs struct {
	Event Event `json:"event"`
}

// Kind identifies the job type in the river jobs table.
func (EventArgs) Kind() string { return "auth_audit_event" }

// RiverWriter queues audit events as river jobs. The enqueue is the only
// request-path work; a worker drains the queue into the configured sink.
type RiverWriter struct {
	client *river.Client[pgx.Tx]
}

// NewRiverWriter wraps an existing river client.
func NewRiverWriter(client *river.Client[pgx.Tx]) *RiverWriter {
	return &RiverWriter{client: client}
}

// Write enqueues the event.
func (w *RiverWriter) Write(ctx context.Context, e Event) error {
	if _, err := w.client.Insert(ctx, EventArgs{Event: e}, nil); err != nil {
		return fmt.Errorf("audit: enqueue event %s: %w", e.ID, err)
	}
	return nil
}

// EventWorker drains queued audit events into a sink writer.
type EventWorker struct {
	river.WorkerDefaults[EventArgs]

	sink Writer
	log  logrus.FieldLogger
}

// NewEventWorker creates a worker that forwards events to sink.
func NewEventWorker(sink Writer, log logrus.FieldLogger) *EventWorker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EventWorker{sink: sink, log: log}
}

// Work delivers one queued event.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventArgs]) error {
	if err := w.sink.Write(ctx, job.Args.Event); err != nil {
		w.log.WithError(err).WithField("event_id", job.Args.Event.ID).Warn("audit: sink write failed")
		return err
	}
	return nil
}

// NewRiverClient builds a river client with the audit worker registered,
// draining into sink. Callers own starting and stopping the client.
func NewRiverClient(pool *pgxpool.Pool, sink Writer, log logrus.FieldLogger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, NewEventWorker(sink, log)); err != nil {
		return nil, fmt.Errorf("audit: register worker: %w", err)
	}
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
}
