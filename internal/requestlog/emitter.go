package requestlog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Emitter is the ingestion interface consumed from the relay's request
// lifecycle. Emission is best-effort: a failed append is logged and
// counted, never surfaced into the request cycle.
type Emitter struct {
	store  *Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewEmitter creates an emitter writing into the given store
func NewEmitter(store *Store) *Emitter {
	return &Emitter{
		store:  store,
		logger: logging.NewLogger("requestlog"),
		now:    time.Now,
	}
}

// EmitStart records the start of a request lifecycle
func (e *Emitter) EmitStart(ctx context.Context, event Fields) string {
	return e.emit(ctx, "start", event)
}

// EmitFinish records the completion of a request lifecycle
func (e *Emitter) EmitFinish(ctx context.Context, event Fields) string {
	return e.emit(ctx, "finish", event)
}

func (e *Emitter) emit(ctx context.Context, phase string, event Fields) string {
	payload := Fields{
		"phase":     phase,
		"timestamp": e.now().UTC().Format(timestampLayout),
	}
	for key, value := range event {
		payload[key] = value
	}

	id, err := e.store.Append(ctx, payload)
	if err != nil {
		e.logger.Error().Err(err).Str("phase", phase).Msg("Failed to append request log event")
		return ""
	}

	monitoring.RecordEventAppended(phase)
	return id
}
