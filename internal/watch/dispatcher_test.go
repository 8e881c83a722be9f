package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/akini/internal/home"
)

type spawnLog struct {
	mu    sync.Mutex
	paths []string
}

func (s *spawnLog) spawn(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	return nil
}

func (s *spawnLog) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *spawnLog) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = nil
}

func writeSite(t *testing.T, files ...string) home.Home {
	t.Helper()
	root := t.TempDir()
	for _, rel := range append(files, "akini.yaml") {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o750))
	return home.Home(root)
}

func TestDispatch_PageDefinitionDirect(t *testing.T) {
	h := writeSite(t, "pages/blog/page.yaml")
	log := &spawnLog{}
	d := New(h, log.spawn)

	got, ok := d.Dispatch(context.Background(), "blog/page.yaml")
	require.True(t, ok)
	assert.Equal(t, h.Path("pages", "blog", "page.yaml"), got)
	assert.Equal(t, []string{got}, log.snapshot())
	assert.Equal(t, StateWatching, d.State())
}

func TestDispatch_SearchesUpward(t *testing.T) {
	h := writeSite(t,
		"pages/blog/page.yaml",
		"pages/blog/components/card/styles.css",
	)
	log := &spawnLog{}

	got, ok := New(h, log.spawn).Dispatch(context.Background(), "blog/components/card/styles.css")
	require.True(t, ok)
	assert.Equal(t, h.Path("pages", "blog", "page.yaml"), got)
}

func TestDispatch_NearestDefinitionWins(t *testing.T) {
	h := writeSite(t,
		"pages/page.yaml",
		"pages/blog/post/page.yaml",
		"pages/blog/post/dynamic.js",
	)
	got, ok := New(h, (&spawnLog{}).spawn).Dispatch(context.Background(), "blog/post/dynamic.js")
	require.True(t, ok)
	assert.Equal(t, h.Path("pages", "blog", "post", "page.yaml"), got)
}

func TestDispatch_BoundedSearch(t *testing.T) {
	h := writeSite(t,
		"pages/a/page.yaml",
		"pages/a/b/c/styles.css",
	)

	// Directories inspected from the change upward: a/b/c, a/b, a.
	log := &spawnLog{}
	_, ok := New(h, log.spawn, WithSearchDepth(2)).Dispatch(context.Background(), "a/b/c/styles.css")
	assert.False(t, ok)
	assert.Empty(t, log.snapshot())

	got, ok := New(h, log.spawn, WithSearchDepth(3)).Dispatch(context.Background(), "a/b/c/styles.css")
	require.True(t, ok)
	assert.Equal(t, h.Path("pages", "a", "page.yaml"), got)
}

func TestDispatch_NeverAbovePages(t *testing.T) {
	h := writeSite(t,
		"page.yaml",
		"pages/orphan/dynamic.js",
	)
	log := &spawnLog{}

	_, ok := New(h, log.spawn, WithSearchDepth(50)).Dispatch(context.Background(), "orphan/dynamic.js")
	assert.False(t, ok)
	assert.Empty(t, log.snapshot())
}

func TestDispatch_OutsidePagesDropped(t *testing.T) {
	h := writeSite(t, "components/x/styles.css", "components/x/page.yaml")
	_, ok := New(h, (&spawnLog{}).spawn).Dispatch(context.Background(), "../components/x/styles.css")
	assert.False(t, ok)
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, name := range []string{".page.yaml.swp", "styles.css~", "#dynamic.js#", ".DS_Store", "x.swx", "4913"} {
		assert.True(t, shouldIgnoreEvent(filepath.Join("pages", name)), name)
	}
	for _, name := range []string{"page.yaml", "styles.css", "dynamic.js", "intro.md"} {
		assert.False(t, shouldIgnoreEvent(filepath.Join("pages", name)), name)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "watching", StateWatching.String())
	assert.Equal(t, "dispatching", StateDispatching.String())
	assert.Equal(t, "exit", StateExit.String())
}

func startRun(t *testing.T, d *Dispatcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()
	require.Eventually(t, func() bool { return d.State() == StateWatching }, 5*time.Second, 10*time.Millisecond)
	return cancel, errc
}

func TestRun_FullBuildThenDispatch(t *testing.T) {
	h := writeSite(t,
		"pages/page.yaml",
		"pages/about/page.yaml",
	)
	log := &spawnLog{}
	d := New(h, log.spawn)

	cancel, errc := startRun(t, d)
	assert.ElementsMatch(t, []string{
		h.Path("pages", "page.yaml"),
		h.Path("pages", "about", "page.yaml"),
	}, log.snapshot())
	log.reset()

	require.NoError(t, os.WriteFile(h.Path("pages", "about", "styles.css"), []byte("p{}"), 0o600))
	require.Eventually(t, func() bool {
		for _, p := range log.snapshot() {
			if p == h.Path("pages", "about", "page.yaml") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	h := writeSite(t, "pages/page.yaml")
	log := &spawnLog{}
	d := New(h, log.spawn)
	cancel, errc := startRun(t, d)
	defer func() { cancel(); <-errc }()
	log.reset()

	require.NoError(t, os.MkdirAll(h.Path("pages", "news"), 0o750))
	// Give the watcher time to pick up the new directory before writing into it.
	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	log.reset()

	require.NoError(t, os.WriteFile(h.Path("pages", "news", "page.yaml"), nil, 0o600))
	require.Eventually(t, func() bool {
		for _, p := range log.snapshot() {
			if p == h.Path("pages", "news", "page.yaml") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRun_ServerChangeExits(t *testing.T) {
	h := writeSite(t, "pages/page.yaml", "server/main.go")
	d := New(h, (&spawnLog{}).spawn, WithServerDir(h.Path("server")))
	cancel, errc := startRun(t, d)
	defer cancel()

	require.NoError(t, os.WriteFile(h.Path("server", "main.go"), []byte("package main"), 0o600))
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrServerChanged)
		assert.Equal(t, StateExit, d.State())
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not exit on server change")
	}
}

func TestRun_MissingServerDir(t *testing.T) {
	h := writeSite(t, "pages/page.yaml")
	d := New(h, (&spawnLog{}).spawn, WithServerDir(h.Path("server")))
	err := d.Run(context.Background())
	require.Error(t, err)
}

func TestRun_ChangeDuringInitialBuildDispatched(t *testing.T) {
	h := writeSite(t,
		"pages/page.yaml",
		"pages/about/page.yaml",
	)
	log := &spawnLog{}
	var once sync.Once
	spawn := func(ctx context.Context, path string) error {
		once.Do(func() {
			assert.NoError(t, os.WriteFile(h.Path("pages", "about", "styles.css"), []byte("p{}"), 0o600))
		})
		return log.spawn(ctx, path)
	}
	d := New(h, spawn)

	cancel, errc := startRun(t, d)
	defer func() { cancel(); <-errc }()

	// Once from the full build and once from the write made during it.
	require.Eventually(t, func() bool {
		n := 0
		for _, p := range log.snapshot() {
			if p == h.Path("pages", "about", "page.yaml") {
				n++
			}
		}
		return n >= 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRun_InitialBuildFailureStaysIdle(t *testing.T) {
	h := writeSite(t, "pages/page.yaml")
	// A directory where a style asset is expected cannot be read.
	require.NoError(t, os.MkdirAll(h.Path("pages", "styles.css"), 0o750))
	log := &spawnLog{}
	d := New(h, log.spawn)

	err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial full build")
	assert.Equal(t, StateIdle, d.State())
}
