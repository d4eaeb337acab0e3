package requestlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JillVernus/claude-relay-service/internal/cache"
	"github.com/JillVernus/claude-relay-service/internal/config"
	"github.com/JillVernus/claude-relay-service/internal/logging"
	"github.com/JillVernus/claude-relay-service/internal/monitoring"
)

// SentinelCursor marks "beginning of time". Queries from it return the
// most recent window of the log instead of the oldest.
const SentinelCursor = "0-0"

// Fields is a schemaless set of event attributes supplied by call sites.
// Values are normalized to scalar strings before storage.
type Fields map[string]any

// Entry is one stored event: a stream id plus the scalar-string fields
// as they sit at rest.
type Entry struct {
	ID     string
	Fields map[string]string
}

// Store is the append-only, approximately bounded request event log,
// backed by a single Redis stream. Ids are broker-assigned and strictly
// increasing; the oldest entries are trimmed once the stream exceeds
// its nominal maximum length.
type Store struct {
	rdb    *cache.Redis
	stream string
	maxLen int64
	logger zerolog.Logger
}

// NewStore creates an event log store on the configured stream
func NewStore(rdb *cache.Redis, cfg *config.RequestLogConfig) *Store {
	return &Store{
		rdb:    rdb,
		stream: cfg.StreamKey,
		maxLen: cfg.MaxLen,
		logger: logging.NewLogger("requestlog"),
	}
}

// Append normalizes the event fields and appends them to the log.
// The returned id is strictly greater than every previously assigned id.
func (s *Store) Append(ctx context.Context, event Fields) (string, error) {
	if s.rdb == nil || s.rdb.Client == nil {
		return "", cache.ErrUnavailable
	}

	values := make(map[string]any, len(event))
	for key, value := range event {
		values[key] = normalizeValue(value)
	}

	id, err := s.rdb.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		monitoring.RecordEventAppendError()
		return "", fmt.Errorf("%w: %v", cache.ErrUnavailable, err)
	}

	return id, nil
}

// Query reads a page of events from the log.
//
// The sentinel cursor returns the most recent limit events in
// chronological order; any other cursor returns up to limit events with
// id strictly greater than the cursor, ascending. lastID is the id of
// the last returned event, or the input cursor when the batch is empty.
// Backend unavailability degrades to an empty batch rather than an error.
func (s *Store) Query(ctx context.Context, cursor string, limit int) ([]Entry, string) {
	if cursor == "" {
		cursor = SentinelCursor
	}
	if s.rdb == nil || s.rdb.Client == nil {
		return []Entry{}, cursor
	}

	start := time.Now()

	var messages []redis.XMessage
	var err error
	if cursor == SentinelCursor {
		// Newest window first, then flipped back to old -> new. Anything
		// older than this window is unreachable by forward pagination.
		messages, err = s.rdb.Client.XRevRangeN(ctx, s.stream, "+", "-", int64(limit)).Result()
		if err == nil {
			reverse(messages)
		}
	} else {
		messages, err = s.rdb.Client.XRangeN(ctx, s.stream, exclusiveStart(cursor), "+", int64(limit)).Result()
	}
	if err != nil {
		s.logger.Error().Err(err).Str("cursor", cursor).Msg("Failed to read request log events")
		return []Entry{}, cursor
	}

	entries := make([]Entry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, parseMessage(msg))
	}

	lastID := cursor
	if len(entries) > 0 {
		lastID = entries[len(entries)-1].ID
	}

	monitoring.ObserveLogQuery(time.Since(start), len(entries))
	return entries, lastID
}

// Health reports whether the backing stream store is reachable
func (s *Store) Health(ctx context.Context) error {
	return s.rdb.Health(ctx)
}

// normalizeValue flattens any value to its scalar-string at-rest form:
// nil becomes the empty string, non-scalars are JSON-serialized.
func normalizeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.UTC().Format(timestampLayout)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// exclusiveStart turns a cursor into an XRANGE start that excludes the
// cursor itself. Well-formed <ms>-<seq> ids are incremented so the call
// works against any server version; anything else relies on the
// server-side exclusive-range syntax.
func exclusiveStart(cursor string) string {
	ms, seq, ok := splitID(cursor)
	if !ok {
		return "(" + cursor
	}
	if seq == ^uint64(0) {
		return strconv.FormatUint(ms+1, 10) + "-0"
	}
	return strconv.FormatUint(ms, 10) + "-" + strconv.FormatUint(seq+1, 10)
}

func splitID(id string) (ms, seq uint64, ok bool) {
	dash := strings.IndexByte(id, '-')
	if dash < 0 {
		return 0, 0, false
	}
	ms, err := strconv.ParseUint(id[:dash], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.ParseUint(id[dash+1:], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return ms, seq, true
}

func parseMessage(msg redis.XMessage) Entry {
	fields := make(map[string]string, len(msg.Values))
	for key, value := range msg.Values {
		if s, isString := value.(string); isString {
			fields[key] = s
		} else {
			fields[key] = fmt.Sprint(value)
		}
	}
	return Entry{ID: msg.ID, Fields: fields}
}

func reverse(messages []redis.XMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
