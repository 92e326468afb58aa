package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scratch.rb")
	other := filepath.Join(dir, "other.rb")
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o644))

	w, err := newFileWatcher(path, 100*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var changes atomic.Int32
	go func() {
		defer close(done)
		w.Run(ctx, func() { changes.Add(1) }, nil)
	}()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("User.count"), 0o644))
	}
	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	first := changes.Load()
	assert.Less(t, first, int32(5))

	require.NoError(t, os.WriteFile(path, []byte("User.first"), 0o644))
	assert.Eventually(t, func() bool { return changes.Load() > first }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFileWatcherMissingDirectory(t *testing.T) {
	_, err := newFileWatcher(filepath.Join(t.TempDir(), "nope", "scratch.rb"), time.Millisecond)
	assert.Error(t, err)
}
