package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsCreate(t *testing.T) {
	dir := t.TempDir()

	w, err := New(nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	events := make(chan Event, 8)
	w.OnChange(func(e Event) { events <- e })
	require.NoError(t, w.Watch(dir))
	w.Start()

	target := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, EventCreate, e.Type)
		assert.Equal(t, target, e.Path)
		assert.Equal(t, dir, e.Dir)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestWatcher_RefCounting(t *testing.T) {
	dir := t.TempDir()

	w, err := New(nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.NoError(t, w.Watch(dir))
	require.NoError(t, w.Watch(dir+string(filepath.Separator)))
	assert.True(t, w.Watched(dir))

	w.Unwatch(dir)
	assert.True(t, w.Watched(dir))
	w.Unwatch(dir)
	assert.False(t, w.Watched(dir))

	// Extra unwatch is harmless.
	w.Unwatch(dir)
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	w.Start()
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "create", EventCreate.String())
	assert.Equal(t, "update", EventWrite.String())
	assert.Equal(t, "unknown", EventType(9).String())
}
