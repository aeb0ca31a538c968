package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	defaultStream = "auth:audit"
	defaultMaxLen = 100_000
)

// RedisWriter appends audit events to a Redis stream. Consumers read the
// stream independently; ScheduleTrim keeps it bounded.
type RedisWriter struct {
	rdb    *redis.Client
	stream string
	maxLen int64
	cron   *cron.Cron
	log    logrus.FieldLogger
}

// RedisWriterOpt configures a RedisWriter.
type RedisWriterOpt func(*RedisWriter)

// WithStream overrides the stream key.
func WithStream(stream string) RedisWriterOpt {
	return func(w *RedisWriter) { w.stream = stream }
}

// WithMaxLen overrides the trim target.
func WithMaxLen(n int64) RedisWriterOpt {
	return func(w *RedisWriter) { w.maxLen = n }
}

// WithRedisLogger sets the diagnostic logger.
func WithRedisLogger(log logrus.FieldLogger) RedisWriterOpt {
	return func(w *RedisWriter) { w.log = log }
}

// NewRedisWriter creates a stream-backed audit writer.
func NewRedisWriter(rdb *redis.Client, opts ...RedisWriterOpt) *RedisWriter {
	w := &RedisWriter{
		rdb:    rdb,
		stream: defaultStream,
		maxLen: defaultMaxLen,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write appends one event to the stream.
func (w *RedisWriter) Write(ctx context.Context, e Event) error {
	values := map[string]any{
		"id":          e.ID.String(),
		"action":      e.Action,
		"user_id":     e.UserID.String(),
		"user_email":  e.UserEmail,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.OrgID != nil {
		values["org_id"] = e.OrgID.String()
	}
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("audit: encode metadata: %w", err)
		}
		values["metadata"] = string(b)
	}
	return w.rdb.XAdd(ctx, &redis.XAddArgs{Stream: w.stream, Values: values}).Err()
}

// ScheduleTrim starts a cron job trimming the stream to the configured max
// length. spec is a cron expression, e.g. "@hourly".
func (w *RedisWriter) ScheduleTrim(spec string) error {
	if w.cron != nil {
		return fmt.Errorf("audit: trim already scheduled")
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := w.rdb.XTrimMaxLen(context.Background(), w.stream, w.maxLen).Err(); err != nil {
			w.log.WithError(err).WithField("stream", w.stream).Warn("audit: stream trim failed")
		}
	})
	if err != nil {
		return fmt.Errorf("audit: schedule trim: %w", err)
	}
	w.cron = c
	c.Start()
	return nil
}

// Close stops the trim scheduler if running.
func (w *RedisWriter) Close() {
	if w.cron != nil {
		w.cron.Stop()
		w.cron = nil
	}
}
