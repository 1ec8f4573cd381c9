package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, fw *FileWatcher) FileEvent {
	t.Helper()
	select {
	case ev := <-fw.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a file event")
		return FileEvent{}
	}
}

func TestFileWatcherFiltersByPattern(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher([]string{dir}, []string{"*_statistics.txt"})
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644))
	target := filepath.Join(dir, "4-filtered_events_statistics.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	ev := waitEvent(t, fw)
	assert.Equal(t, target, ev.Path)
}

func TestFileWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher([]string{dir}, nil)
	require.NoError(t, err)
	defer fw.Close()

	sub := filepath.Join(dir, "opc_1")
	require.NoError(t, os.Mkdir(sub, 0755))
	// give the watcher a moment to register the new directory
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(sub, "report.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-fw.Events():
			if ev.Path == target {
				return
			}
		case <-deadline:
			t.Fatal("no event from the new directory")
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	fw, err := NewFileWatcher([]string{t.TempDir()}, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	assert.NoError(t, fw.Close())

	_, ok := <-fw.Events()
	assert.False(t, ok)
}

func TestRunDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWatcher([]string{dir}, nil)
	require.NoError(t, err)
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 10)
	errc := make(chan error, 1)
	go func() {
		errc <- Run(ctx, fw, 100*time.Millisecond, func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		})
	}()

	select {
	case first := <-calls:
		assert.Empty(t, first)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	target := filepath.Join(dir, "a.txt")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte{byte('a' + i)}, 0644))
	}

	select {
	case changed := <-calls:
		assert.Equal(t, []string{target}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("changes did not trigger a run")
	}

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
