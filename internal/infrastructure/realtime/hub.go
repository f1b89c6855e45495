// Package realtime pushes dispatch status changes to connected clients over
// WebSocket. Subscribers only receive events of their own city.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"distribuidora/internal/core/apperror"
	"distribuidora/internal/core/tenant"
	"distribuidora/internal/domain"
	"distribuidora/internal/domain/documents/dispatch"
	"distribuidora/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// Event is one message sent to subscribers.
type Event struct {
	Type       string          `json:"type"`
	DispatchID string          `json:"dispatchId"`
	Folio      string          `json:"folio"`
	Status     dispatch.Status `json:"status"`
	RouteName  string          `json:"routeName"`
	Carrier    string          `json:"carrier"`
	At         time.Time       `json:"at"`
}

type subscriber struct {
	tenant tenant.Key
	send   chan []byte
}

// Hub fans events out to subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	closed bool

	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Subscribe registers a subscriber for city t. The returned cancel must be
// called once; it closes the channel.
func (h *Hub) Subscribe(t tenant.Key) (<-chan []byte, func()) {
	s := &subscriber{tenant: t, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.send)
		return s.send, func() {}
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.send, func() {
		once.Do(func() { h.remove(s) })
	}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
}

// Subscribers returns the number of subscribers of city t.
func (h *Hub) Subscribers(t tenant.Key) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for s := range h.subs {
		if s.tenant == t {
			n++
		}
	}
	return n
}

// Broadcast sends ev to every subscriber of city t. A subscriber whose
// buffer is full misses the event rather than blocking the caller.
func (h *Hub) Broadcast(ctx context.Context, t tenant.Key, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Warn(ctx, "marshal realtime event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.tenant != t {
			continue
		}
		select {
		case s.send <- payload:
		default:
			logger.Warn(ctx, "realtime subscriber lagging, event dropped", "tenant", string(t))
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.send)
	}
}

// ServeWS handles GET /ws/dispatches. The city comes from the authenticated
// request context.
func (h *Hub) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()
	t, err := tenant.Require(ctx)
	if err != nil {
		_ = c.Error(apperror.NewValidation("city is required"))
		c.Abort()
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "websocket upgrade failed", "error", err)
		return
	}

	events, cancel := h.Subscribe(t)
	logger.Info(ctx, "realtime subscriber connected")

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, events)
	cancel()
	logger.Info(ctx, "realtime subscriber disconnected")
}

// readPump discards client messages and cancels the subscription when the
// peer goes away.
func (h *Hub) readPump(conn *websocket.Conn, cancel func()) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, events <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// BroadcastDispatches registers post-commit hooks that publish dispatch
// creation and status changes.
func BroadcastDispatches(hooks *domain.HookRegistry[*dispatch.Dispatch], hub *Hub) {
	publish := func(kind string) domain.Hook[*dispatch.Dispatch] {
		return func(ctx context.Context, d *dispatch.Dispatch) error {
			hub.Broadcast(ctx, d.Tenant, Event{
				Type:       kind,
				DispatchID: d.ID.String(),
				Folio:      d.Folio,
				Status:     d.Status,
				RouteName:  d.RouteName,
				Carrier:    d.CarrierName,
				At:         time.Now().UTC(),
			})
			return nil
		}
	}
	hooks.On(domain.AfterCreate, publish("dispatch.created"))
	hooks.On(domain.AfterStatusChange, publish("dispatch.status_changed"))
}
