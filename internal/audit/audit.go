package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result classifies the outcome recorded for an audited operation.
type Result string

const (
	ResultSuccess Result = "SUCCESS"
	ResultFailure Result = "FAILURE"
	ResultPartial Result = "PARTIAL"
)

// Event is a single audit record.
type Event struct {
	ID           string
	Kind         string
	ActorID      string
	ResourceType string
	ResourceID   string
	Result       Result
	Metadata     map[string]string
	OccurredAt   time.Time
}

// Recorder is the append-only audit sink. Implementations must be
// fire-and-forget: recording never blocks or fails the primary operation.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LogRecorder emits audit events to the structured log.
type LogRecorder struct {
	logger *zap.Logger
}

// NewLogRecorder builds a zap-backed recorder.
func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

// Record writes the event as a structured log entry.
func (r *LogRecorder) Record(_ context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	fields := []zap.Field{
		zap.String("audit_id", event.ID),
		zap.String("kind", event.Kind),
		zap.String("actor_id", event.ActorID),
		zap.String("resource_type", event.ResourceType),
		zap.String("resource_id", event.ResourceID),
		zap.String("result", string(event.Result)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}
	r.logger.Info("audit", fields...)
}

// NopRecorder discards all events.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Event) {}
