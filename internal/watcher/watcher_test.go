package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncedBatch(t *testing.T) {
	dir := t.TempDir()

	w, err := New(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	var mutex sync.Mutex
	var batches [][]string
	w.OnChange(func(paths []string) {
		mutex.Lock()
		defer mutex.Unlock()
		batches = append(batches, paths)
	})

	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// A burst of writes inside the debounce window.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.css"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.css"), []byte("b"), 0o644))

	assert.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(batches) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	assert.GreaterOrEqual(t, total, 2, "both changed files should be reported")
}

func TestWatcher_AddRecursive(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "css", "vendor")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	w, err := New(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	changed := make(chan struct{}, 1)
	w.OnChange(func([]string) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	require.NoError(t, w.AddRecursive(dir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(nested, "deep.css"), []byte("x"), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("change in nested directory was not observed")
	}
}

func TestWatcher_AddRecursiveMissingRoot(t *testing.T) {
	w, err := New(time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.AddRecursive(filepath.Join(t.TempDir(), "missing")))
}
