// Package sse streams graph reload notifications to HTTP clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeReloaded     = "graph.reloaded"
	TypeReloadFailed = "graph.reload_failed"
)

// Event is one message sent to every client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Reload is the payload of a graph.reloaded event. Changed holds every path
// touched since the previous event, sorted.
type Reload struct {
	Documents int      `json:"documents"`
	Changed   []string `json:"changed"`
}

type reloadReq struct {
	documents int
	changed   []string
}

// Broker fans events out to subscribed clients. Reloads arriving closer
// together than the coalesce window are merged into one graph.reloaded event.
//
// A single event loop owns the client set and the pending reload; public
// methods talk to it over channels.
type Broker struct {
	window time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	reloadCh      chan reloadReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker coalescing reloads within window.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = time.Second
	}

	b := &Broker{
		window:        window,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		reloadCh:      make(chan reloadReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	var (
		lastReload time.Time
		pending    *Reload
		seen       map[string]struct{}
		flush      <-chan time.Time
		timer      *time.Timer
	)
	emit := func() {
		sort.Strings(pending.Changed)
		broadcast(Event{Type: TypeReloaded, Data: *pending})
		lastReload = time.Now()
		pending, seen, flush = nil, nil, nil
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.reloadCh:
			if pending == nil {
				pending = &Reload{Changed: []string{}}
				seen = make(map[string]struct{})
			}
			pending.Documents = req.documents
			for _, p := range req.changed {
				if _, dup := seen[p]; !dup {
					seen[p] = struct{}{}
					pending.Changed = append(pending.Changed, p)
				}
			}
			wait := b.window - time.Since(lastReload)
			if wait <= 0 {
				emit()
			} else if flush == nil {
				timer = time.NewTimer(wait)
				flush = timer.C
			}

		case <-flush:
			emit()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients immediately.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Reloaded reports a successful reload of a graph holding documents, caused
// by changes to the given paths.
func (b *Broker) Reloaded(documents int, changed []string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.reloadCh <- reloadReq{documents: documents, changed: changed}:
	case <-b.stopped:
	}
}

// ReloadFailed reports a reload that kept the previous graph.
func (b *Broker) ReloadFailed(err error) {
	b.Publish(Event{Type: TypeReloadFailed, Data: map[string]string{"error": err.Error()}})
}

// ServeHTTP is the event stream handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
