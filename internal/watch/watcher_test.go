package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) rebuild(_ context.Context, changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, changed)
}

func (r *recorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if slices.Contains(c, path) {
			return true
		}
	}
	return false
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// watchGraph starts Watch on a fresh graph with pages/ and journals/.
func watchGraph(t *testing.T) (string, *recorder) {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"pages", "journals"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	go Watch(ctx, root, nil, 50*time.Millisecond, logger, rec.rebuild)
	time.Sleep(100 * time.Millisecond)
	return root, rec
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_PageChangeRebuilds(t *testing.T) {
	root, rec := watchGraph(t)

	_ = os.WriteFile(filepath.Join(root, "pages", "new.md"), []byte("- hi"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("pages/new.md")
	}, "rebuild not called for pages/new.md")
}

func TestWatch_BurstIsDebounced(t *testing.T) {
	root, rec := watchGraph(t)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		_ = os.WriteFile(filepath.Join(root, "pages", name), []byte("- x"), 0o644)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("pages/a.md") && rec.seen("pages/c.md")
	}, "burst not delivered")
	if n := rec.count(); n > 2 {
		t.Errorf("rebuild called %d times for one burst", n)
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	root, rec := watchGraph(t)

	_ = os.WriteFile(filepath.Join(root, "pages", "notes.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("rebuild called for a non-markdown file")
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root, rec := watchGraph(t)

	sub := filepath.Join(root, "pages", "nested")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("- deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen("pages/nested/deep.md")
	}, "file in new subdir not seen")
}

func TestWatch_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, root, nil, 0, logger, func(context.Context, []string) {}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
