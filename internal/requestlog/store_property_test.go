package requestlog

import (
	"context"
	"testing"

	"pgregory.net/rapid"
)

// TestProperty_SentinelQuery_ReturnsNewestWindow checks that for any
// sequence of appends and any limit, the sentinel query returns exactly
// the most recent min(limit, count) events in ascending id order, with
// lastId equal to the greatest returned id.
func TestProperty_SentinelQuery_ReturnsNewestWindow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store, _ := newTestStore(t, 5000)

		count := rapid.IntRange(0, 60).Draw(rt, "count")
		limit := rapid.IntRange(1, 80).Draw(rt, "limit")

		var ids []string
		for i := 0; i < count; i++ {
			id, err := store.Append(context.Background(), Fields{"seq": i})
			if err != nil {
				rt.Fatalf("Append failed: %v", err)
			}
			ids = append(ids, id)
		}

		entries, lastID := store.Query(context.Background(), SentinelCursor, limit)

		want := count
		if limit < want {
			want = limit
		}
		if len(entries) != want {
			rt.Fatalf("got %d entries, want %d", len(entries), want)
		}
		for i, entry := range entries {
			if entry.ID != ids[count-want+i] {
				rt.Fatalf("entry %d = %q, want %q", i, entry.ID, ids[count-want+i])
			}
		}
		if want == 0 {
			if lastID != SentinelCursor {
				rt.Fatalf("empty log lastID = %q, want sentinel echoed", lastID)
			}
		} else if lastID != ids[count-1] {
			rt.Fatalf("lastID = %q, want %q", lastID, ids[count-1])
		}
	})
}

// TestProperty_ForwardPagination_NoDuplicatesNoGaps checks that walking
// the log from any starting point with any page size visits every later
// event exactly once, in order.
func TestProperty_ForwardPagination_NoDuplicatesNoGaps(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store, _ := newTestStore(t, 5000)

		count := rapid.IntRange(1, 50).Draw(rt, "count")
		pageSize := rapid.IntRange(1, 12).Draw(rt, "pageSize")

		var ids []string
		for i := 0; i < count; i++ {
			id, err := store.Append(context.Background(), Fields{"seq": i})
			if err != nil {
				rt.Fatalf("Append failed: %v", err)
			}
			ids = append(ids, id)
		}

		startIdx := rapid.IntRange(0, count-1).Draw(rt, "startIdx")
		cursor := ids[startIdx]

		var walked []string
		for {
			entries, lastID := store.Query(context.Background(), cursor, pageSize)
			if len(entries) == 0 {
				if lastID != cursor {
					rt.Fatalf("empty batch lastID = %q, want cursor %q", lastID, cursor)
				}
				break
			}
			prev := cursor
			for _, entry := range entries {
				if !idLess(prev, entry.ID) {
					rt.Fatalf("id %q not strictly greater than %q", entry.ID, prev)
				}
				prev = entry.ID
				walked = append(walked, entry.ID)
			}
			cursor = lastID
		}

		expected := ids[startIdx+1:]
		if len(walked) != len(expected) {
			rt.Fatalf("walked %d events, want %d", len(walked), len(expected))
		}
		for i := range walked {
			if walked[i] != expected[i] {
				rt.Fatalf("walk[%d] = %q, want %q", i, walked[i], expected[i])
			}
		}
	})
}
