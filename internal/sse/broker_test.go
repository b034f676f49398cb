package sse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func next(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

func decodeReload(t *testing.T, msg string) Reload {
	t.Helper()
	var data string
	for _, line := range strings.Split(msg, "\n") {
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	var r Reload
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("decode %q: %v", msg, err)
	}
	return r
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestReloadedFirstEventImmediate(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Reloaded(12, []string{"pages/b.md", "pages/a.md"})

	msg := next(t, ch)
	if !strings.HasPrefix(msg, "event: "+TypeReloaded+"\n") {
		t.Fatalf("unexpected event %q", msg)
	}
	r := decodeReload(t, msg)
	if r.Documents != 12 {
		t.Errorf("documents = %d, want 12", r.Documents)
	}
	if strings.Join(r.Changed, ",") != "pages/a.md,pages/b.md" {
		t.Errorf("changed = %v", r.Changed)
	}
}

func TestReloadedCoalescesWithinWindow(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Reloaded(1, []string{"pages/a.md"})
	first := decodeReload(t, next(t, ch))
	if len(first.Changed) != 1 {
		t.Fatalf("first changed = %v", first.Changed)
	}

	b.Reloaded(2, []string{"pages/c.md", "pages/b.md"})
	b.Reloaded(3, []string{"pages/b.md"})

	merged := decodeReload(t, next(t, ch))
	if merged.Documents != 3 {
		t.Errorf("documents = %d, want latest count 3", merged.Documents)
	}
	if strings.Join(merged.Changed, ",") != "pages/b.md,pages/c.md" {
		t.Errorf("changed = %v", merged.Changed)
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected extra event %q", msg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestReloadFailed(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.ReloadFailed(errors.New("graph root has no pages or journals"))

	msg := next(t, ch)
	if !strings.Contains(msg, "event: "+TypeReloadFailed) {
		t.Errorf("missing event type in %q", msg)
	}
	if !strings.Contains(msg, `"error":"graph root has no pages or journals"`) {
		t.Errorf("missing error in %q", msg)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Reloaded(4, []string{"journals/2025_01_15.md"})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: graph.reloaded") {
		t.Errorf("handler output missing event: %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Client buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]int{"i": i}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.Reloaded(1, nil)
	b.ReloadFailed(errors.New("x"))
}
