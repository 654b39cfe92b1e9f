package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/verdantlabs/esgtrack/pkg/dashboard"
)

const (
	wsChannelBuffer   = 10
	wsBroadcastBuffer = 64
	wsWriteDeadline   = 10 * time.Second
	wsReadDeadline    = 60 * time.Second
	wsPingInterval    = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// No Origin header = non-browser client (curl, tests).
		origin := r.Header.Get("Origin")
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

// SummaryUpdate is the message pushed to live dashboard clients after each
// successful mutation.
type SummaryUpdate struct {
	Summary   dashboard.Summary `json:"summary"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Hub manages the WebSocket connections subscribed to live dashboard
// updates.
type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte

	log *zap.Logger
	mu  sync.RWMutex
}

// NewHub creates a hub. Call Run before registering any client.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn, wsChannelBuffer),
		unregister: make(chan *websocket.Conn, wsChannelBuffer),
		broadcast:  make(chan []byte, wsBroadcastBuffer),
		log:        log,
	}
}

// Run drives the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
			}
			h.mu.Unlock()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("dashboard client connected", zap.Int("total", count))
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("dashboard client disconnected", zap.Int("total", count))
		case message := <-h.broadcast:
			// Failed conns are dropped in place: re-queuing them on the
			// unregister channel from its own consumer can deadlock the hub.
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// HasClients reports whether any dashboard client is connected.
func (h *Hub) HasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) > 0
}

// BroadcastSummary fans the refreshed summary out to every connected client.
// Drops the message rather than blocking when the channel is full.
func (h *Hub) BroadcastSummary(summary dashboard.Summary) {
	message, err := json.Marshal(SummaryUpdate{Summary: summary, UpdatedAt: time.Now().UTC()})
	if err != nil {
		h.log.Error("marshal summary update", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("dashboard broadcast channel full, dropping update")
	}
}

// HandleDashboardWS handles GET /api/dashboard/ws upgrade requests.
func (h *Handler) HandleDashboardWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "live updates disabled", http.StatusNotImplemented)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.register <- conn

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Keepalive pings until the connection goes away.
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// WriteControl is safe concurrently with the hub's broadcast
				// writer; WriteMessage here would race it.
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteDeadline)); err != nil {
					return
				}
			}
		}
	}()

	defer func() {
		cancel()
		h.hub.unregister <- conn
	}()

	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	// Read loop exists to process control frames and notice the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
	}
}
