package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/akini/internal/isolate"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGet(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	now := time.UnixMilli(time.Now().UnixMilli())

	require.NoError(t, store.Append(ctx, Entry{BuildID: "b1", Kind: "start", Page: "/about/", ModulePath: "/s/pages/about/page.yaml", Time: now}))
	require.NoError(t, store.Append(ctx, Entry{BuildID: "b1", Kind: "exit", Page: "/about/", Time: now.Add(time.Second), Duration: time.Second}))
	require.NoError(t, store.Append(ctx, Entry{BuildID: "b2", Kind: "start", Page: "/"}))

	entries, err := store.GetByBuildID(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "start", entries[0].Kind)
	assert.Equal(t, "/s/pages/about/page.yaml", entries[0].ModulePath)
	assert.True(t, now.Equal(entries[0].Time))
	assert.Equal(t, time.Second, entries[1].Duration)
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Entry{BuildID: "b", Kind: "start", Page: "/", Time: base.Add(time.Duration(i) * time.Hour)}))
	}

	entries, err := store.GetRange(ctx, base.Add(30*time.Minute), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), Entry{BuildID: "x", Kind: "start", Page: "/"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	entries, err := reopened.GetByBuildID(t.Context(), "x")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{BuildID: "ok", Kind: "start", Page: "/a/", Time: base},
		{BuildID: "bad", Kind: "start", Page: "/b/", Time: base.Add(time.Second)},
		{BuildID: "ok", Kind: "exit", Page: "/a/", Time: base.Add(2 * time.Second), Duration: 2 * time.Second},
		{BuildID: "bad", Kind: "failure", Page: "/b/", ExitCode: 11, Error: "minify", Time: base.Add(3 * time.Second)},
		{BuildID: "bad", Kind: "exit", Page: "/b/", ExitCode: 11, Time: base.Add(3 * time.Second)},
		{BuildID: "run", Kind: "start", Page: "/c/", Time: base.Add(4 * time.Second)},
	}

	got := Summarize(entries)
	require.Len(t, got, 3)

	assert.Equal(t, "run", got[0].BuildID)
	assert.Equal(t, StatusRunning, got[0].Status)
	assert.Nil(t, got[0].FinishedAt)

	assert.Equal(t, "bad", got[1].BuildID)
	assert.Equal(t, StatusFailed, got[1].Status)
	assert.Equal(t, 11, got[1].ExitCode)
	assert.Equal(t, "minify", got[1].Error)

	assert.Equal(t, "ok", got[2].BuildID)
	assert.Equal(t, StatusSucceeded, got[2].Status)
	assert.Equal(t, 2*time.Second, got[2].Duration)
}

func TestObserver_RecordsEvents(t *testing.T) {
	store := newStore(t)
	obs := NewObserver(store, nil)

	obs.Observe(isolate.Event{Kind: isolate.EventStart, BuildID: "id", Page: "/x/", Time: time.Now()})
	obs.Observe(isolate.Event{Kind: isolate.EventFailure, BuildID: "id", Page: "/x/", ExitCode: 1, Err: errors.New("boom"), Time: time.Now()})

	entries, err := store.GetByBuildID(t.Context(), "id")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "failure", entries[1].Kind)
	assert.Equal(t, "boom", entries[1].Error)
}
