package www

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"fabrica/engine"
)

// SSEEvent is one server-sent event. Its topic is the part of Event before
// the first dash, so "stock-update" and "stock-low" both belong to "stock".
type SSEEvent struct {
	Event string
	Data  string
}

func (e SSEEvent) topic() string {
	if i := strings.IndexByte(e.Event, '-'); i > 0 {
		return e.Event[:i]
	}
	return e.Event
}

type sseClient struct {
	ch     chan SSEEvent
	topics map[string]bool // nil receives everything
}

func (c *sseClient) wants(evt SSEEvent) bool {
	return c.topics == nil || c.topics[evt.topic()]
}

type EventHub struct {
	mu       sync.RWMutex
	clients  map[*sseClient]struct{}
	incoming chan SSEEvent
	done     chan struct{}
	stopOnce sync.Once
	status   func() engine.Status
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:  make(map[*sseClient]struct{}),
		incoming: make(chan SSEEvent, 256),
		done:     make(chan struct{}),
	}
}

func (h *EventHub) Start() {
	go h.run()
}

func (h *EventHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *EventHub) run() {
	for {
		select {
		case <-h.done:
			return
		case evt := <-h.incoming:
			h.fanOut(evt)
		}
	}
}

func (h *EventHub) fanOut(evt SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(evt) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			// dropped for slow clients
		}
	}
}

// Broadcast queues an event for every subscribed client. It never blocks.
func (h *EventHub) Broadcast(event, data string) {
	select {
	case h.incoming <- SSEEvent{Event: event, Data: data}:
	default:
		log.Printf("sse: queue full, dropped %s", event)
	}
}

func (h *EventHub) BroadcastJSON(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("sse: encode %s: %v", event, err)
		return
	}
	h.Broadcast(event, string(data))
}

// addClient registers a listener for the given topics; no topics means all.
func (h *EventHub) addClient(topics ...string) *sseClient {
	c := &sseClient{ch: make(chan SSEEvent, 64)}
	if len(topics) > 0 {
		c.topics = make(map[string]bool, len(topics))
		for _, t := range topics {
			c.topics[t] = true
		}
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *EventHub) removeClient(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SetupEngineListeners turns engine events into browser updates.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	h.status = eng.Status

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.StatusChangedEvent)
		h.BroadcastJSON("order-update", map[string]any{
			"order_id": ev.ID, "old_status": ev.OldStatus, "status": ev.NewStatus, "created": ev.Created,
		})
	}, engine.EventOrderStatusChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.StatusChangedEvent)
		h.BroadcastJSON("production-update", map[string]any{
			"production_order_id": ev.ID, "old_status": ev.OldStatus, "status": ev.NewStatus, "created": ev.Created,
		})
	}, engine.EventProductionStatusChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.StockAdjustedEvent)
		h.BroadcastJSON("stock-update", map[string]any{
			"kind": ev.Kind, "id": ev.ItemID, "name": ev.Name, "delta": ev.Delta,
			"stock": ev.StockAfter, "threshold": ev.Threshold, "reason": ev.Reason,
		})
	}, engine.EventStockAdjusted)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.StockLowEvent)
		h.BroadcastJSON("stock-low", map[string]any{
			"kind": ev.Kind, "id": ev.ItemID, "name": ev.Name, "stock": ev.Stock, "threshold": ev.Threshold,
		})
	}, engine.EventStockLow)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.PeerStockAdjustedEvent)
		h.BroadcastJSON("stock-update", map[string]any{"kind": ev.Kind, "id": ev.ItemID, "source": ev.Source})
	}, engine.EventPeerStockAdjusted)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.EntityChangedEvent)
		h.BroadcastJSON("entity-update", map[string]any{"entity": ev.Entity, "id": ev.ID, "action": ev.Action})
	}, engine.EventEntityChanged)

	eng.Events.SubscribeTypes(func(engine.Event) {
		h.BroadcastJSON("system-status", eng.Status())
	}, engine.EventMessagingConnected, engine.EventMessagingDisconnected,
		engine.EventCacheConnected, engine.EventCacheDisconnected)
}

// SSEHandler streams events. ?topics=stock,order limits the stream; every
// stream opens with a system-status snapshot.
func (h *EventHub) SSEHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var topics []string
	if t := r.URL.Query().Get("topics"); t != "" {
		topics = splitTrim(t, ",")
	}
	c := h.addClient(topics...)
	defer h.removeClient(c)

	if h.status != nil {
		snap, _ := json.Marshal(h.status())
		c.ch <- SSEEvent{Event: "system-status", Data: string(snap)}
	}

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-ping.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
		case evt := <-c.ch:
			_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data)
		}
		if err != nil {
			log.Printf("sse: write error: %v", err)
			return
		}
		flusher.Flush()
	}
}
