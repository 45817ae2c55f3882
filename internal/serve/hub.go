// Package serve — WebSocket hub pushing completed report builds to
// dashboard clients.
package serve

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/powerdesk/trade-report/internal/report"
)

// BuildMessage is the JSON payload sent to WebSocket clients when a report
// build for some window completes. Decimal values travel as strings.
type BuildMessage struct {
	Type         string `json:"type"`
	ReportID     string `json:"report_id"`
	DeliveryFrom string `json:"delivery_from"`
	DeliveryTo   string `json:"delivery_to"`
	GrossProfit  string `json:"gross_profit"`
	Revenue      string `json:"revenue"`
	Costs        string `json:"costs"`
	MWSold       string `json:"mw_sold"`
	MWBought     string `json:"mw_bought"`
}

// Hub manages WebSocket connections and fans completed-build summaries out
// to every connected client.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewHub creates a WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			slog.Info("ws client connected", "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			// Writes mutate h.clients on failure, so take the write lock.
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastReport pushes a completed build's key metrics to all clients.
func (h *Hub) BroadcastReport(reportID string, m report.KeyMetrics) {
	msg := BuildMessage{
		Type:         "report_built",
		ReportID:     reportID,
		DeliveryFrom: m.DeliveryFrom.Format(time.RFC3339),
		DeliveryTo:   m.DeliveryTo.Format(time.RFC3339),
		GrossProfit:  m.GrossProfit.String(),
		Revenue:      m.Revenue.String(),
		Costs:        m.Costs.String(),
		MWSold:       m.MWSold.String(),
		MWBought:     m.MWBought.String(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Drop if the buffer is full rather than blocking a build.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // dashboards connect cross-origin
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- conn

	// Read pump: keeps the connection alive and detects disconnects.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker keeps the connection alive through proxies.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
