package translation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory KeyValueStore with injectable failures.
type fakeKV struct {
	values map[string][]byte
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string][]byte)}
}

func (f *fakeKV) GetValue(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.values[key], nil
}

func (f *fakeKV) SetValue(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHistoryAppendAndGet(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	h := NewHistory(kv, testLogger())
	ctx := context.Background()

	h.Append(ctx, "user-1", HistoryEntry{Message: "first", Language: English, CapturedAt: time.Now().UTC()})
	h.Append(ctx, "user-1", HistoryEntry{Message: "second", Language: English, CapturedAt: time.Now().UTC()})

	entries := h.Get(ctx, "user-1")
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
}

func TestHistoryEvictsOldest(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	h := NewHistory(kv, testLogger())
	ctx := context.Background()

	h.Append(ctx, "user-1", HistoryEntry{Message: "one"})
	h.Append(ctx, "user-1", HistoryEntry{Message: "two"})
	h.Append(ctx, "user-1", HistoryEntry{Message: "three"})

	entries := h.Get(ctx, "user-1")
	require.Len(t, entries, MaxHistoryEntries)
	assert.Equal(t, "two", entries[0].Message)
	assert.Equal(t, "three", entries[1].Message)
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	h := NewHistory(kv, testLogger())
	ctx := context.Background()

	h.Append(ctx, "user-1", HistoryEntry{Message: "from one"})
	h.Append(ctx, "user-2", HistoryEntry{Message: "from two"})

	require.Len(t, h.Get(ctx, "user-1"), 1)
	require.Len(t, h.Get(ctx, "user-2"), 1)
	assert.Equal(t, "from one", h.Get(ctx, "user-1")[0].Message)
}

func TestHistoryGetSwallowsFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.getErr = errors.New("disk on fire")
		h := NewHistory(kv, testLogger())

		assert.Empty(t, h.Get(ctx, "user-1"))
	})

	t.Run("corrupt payload", func(t *testing.T) {
		t.Parallel()
		kv := newFakeKV()
		kv.values["user-1"] = []byte("{not json")
		h := NewHistory(kv, testLogger())

		assert.Empty(t, h.Get(ctx, "user-1"))
	})

	t.Run("absent key", func(t *testing.T) {
		t.Parallel()
		h := NewHistory(newFakeKV(), testLogger())

		assert.Empty(t, h.Get(ctx, "missing"))
	})
}

func TestHistoryAppendSwallowsWriteFailure(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.setErr = errors.New("readonly database")
	h := NewHistory(kv, testLogger())
	ctx := context.Background()

	// Must not panic or surface the error.
	h.Append(ctx, "user-1", HistoryEntry{Message: "lost"})
	assert.Empty(t, h.Get(ctx, "user-1"))
}
