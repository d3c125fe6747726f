package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// subscriberBuffer is how many events a slow subscriber may lag before
// further events are dropped for it.
const subscriberBuffer = 16

// BroadcastHook fans widget events out to subscribers. Delivery never
// blocks the publisher; events for a full subscriber are dropped.
type BroadcastHook struct {
	mu      sync.RWMutex
	subs    map[int]subscriber
	next    int
	dropped atomic.Uint64
}

type subscriber struct {
	userID string
	ch     chan WidgetEvent
}

func (s subscriber) wants(event WidgetEvent) bool {
	return s.userID == "" || event.UserID == "" || event.UserID == s.userID
}

func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]subscriber)}
}

// WidgetUpdated implements RefreshHook.
func (h *BroadcastHook) WidgetUpdated(_ context.Context, event WidgetEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.wants(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe streams the events visible to viewer: shared events plus the
// viewer's own. A viewer without a user id sees every event.
func (h *BroadcastHook) Subscribe(viewer ViewerContext) (<-chan WidgetEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	sub := subscriber{userID: viewer.UserID, ch: make(chan WidgetEvent, subscriberBuffer)}
	h.subs[id] = sub
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports how many events were discarded for slow subscribers.
func (h *BroadcastHook) Dropped() uint64 { return h.dropped.Load() }

// ViewerFunc resolves the viewer of a streaming request. A nil ViewerFunc
// streams every event.
type ViewerFunc func(*http.Request) (ViewerContext, error)

func (f ViewerFunc) resolve(r *http.Request) (ViewerContext, error) {
	if f == nil {
		return ViewerContext{}, nil
	}
	return f(r)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// WebSocketHandler upgrades the request and writes each visible event as a
// JSON text frame until the client goes away.
func (h *BroadcastHook) WebSocketHandler(viewer ViewerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := viewer.resolve(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		events, cancel := h.Subscribe(v)
		defer cancel()

		// The read loop only notices the client closing.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-gone:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			}
		}
	})
}

// SSEHandler streams visible events as server-sent events.
func (h *BroadcastHook) SSEHandler(viewer ViewerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, err := viewer.resolve(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, _ := w.(http.Flusher)

		events, cancel := h.Subscribe(v)
		defer cancel()
		if flusher != nil {
			flusher.Flush()
		}
		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				if _, err := w.Write([]byte("event: " + event.Reason + "\ndata: " + string(payload) + "\n\n")); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	})
}
