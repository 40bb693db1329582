// Package events fans client-state changes and user notifications out to
// presentation subscribers, with an SSE endpoint for remote UIs.
package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/noteai/internal/apperr"
)

// Event types.
const (
	TypeStateChanged = "state.changed"
	TypeNotesChanged = "notes.changed"
	TypeNotify       = "notify"
)

// Event is one message delivered to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Sink is what the core publishes to. *Broker implements it; Nop discards.
type Sink interface {
	StateChanged(action string, notesChanged bool)
	Notify(n apperr.Notice)
}

// Nop is a Sink that drops everything.
type Nop struct{}

func (Nop) StateChanged(string, bool) {}
func (Nop) Notify(apperr.Notice)      {}

type stateChangeReq struct {
	action       string
	notesChanged bool
}

// Broker manages subscriber channels and broadcasts events.
//
// A single loop goroutine owns the client set and the notes.changed
// throttle timestamp; public methods reach it through channels.
type Broker struct {
	notesMin   time.Duration
	bufferSize int

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	stateCh       chan stateChangeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool

	// Heartbeat is the interval of SSE keep-alive comments. Zero disables
	// them.
	Heartbeat time.Duration
}

// NewBroker creates a broker. notesThrottle bounds how often notes.changed
// is emitted; bufferSize is the per-subscriber queue length.
func NewBroker(notesThrottle time.Duration, bufferSize int) *Broker {
	if notesThrottle <= 0 {
		notesThrottle = 500 * time.Millisecond
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}

	b := &Broker{
		notesMin:      notesThrottle,
		bufferSize:    bufferSize,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		stateCh:       make(chan stateChangeReq, 256),
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
	var lastNotes time.Time
	var seq uint64

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow subscriber; drop rather than stall the loop.
			}
		}
	}

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

		case req := <-b.stateCh:
			broadcast(Event{Type: TypeStateChanged, Data: map[string]string{"action": req.action}})
			if !req.notesChanged {
				continue
			}
			now := time.Now()
			if now.Sub(lastNotes) >= b.notesMin {
				lastNotes = now
				broadcast(Event{Type: TypeNotesChanged, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes all subscriber channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a subscriber and returns its channel of encoded events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, b.bufferSize)
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

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of subscribers.
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

// Publish sends an event to every subscriber.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// StateChanged publishes state.changed for action and, when the note list
// changed, a throttled notes.changed.
func (b *Broker) StateChanged(action string, notesChanged bool) {
	if b.closed.Load() {
		return
	}
	select {
	case b.stateCh <- stateChangeReq{action: action, notesChanged: notesChanged}:
	case <-b.stopped:
	}
}

// Notify publishes a user-facing notice.
func (b *Broker) Notify(n apperr.Notice) {
	b.Publish(Event{Type: TypeNotify, Data: n})
}

// ServeHTTP streams events as Server-Sent Events (GET /events).
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

	var beat <-chan time.Time
	if b.Heartbeat > 0 {
		t := time.NewTicker(b.Heartbeat)
		defer t.Stop()
		beat = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-beat:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

var _ Sink = (*Broker)(nil)
