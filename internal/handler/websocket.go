package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/CageChen/dirscope/internal/watcher"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	// The change feed carries only paths already visible through the REST
	// API, which is served without origin restrictions as well.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// DirChange is the payload of a "dirChange" message.
type DirChange struct {
	Event string `json:"event"`
	Path  string `json:"path"`
	Dir   string `json:"dir"`
}

// wsClient serialises writes to one connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHandler pushes directory change notifications to connected clients.
// Clients only listen; anything they send is discarded.
type WSHandler struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(log *zap.Logger) *WSHandler {
	return &WSHandler{
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// HandleWS upgrades the request and holds the connection until the client
// disconnects.
func (h *WSHandler) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	defer h.drop(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// OnDirChange broadcasts a change inside a watched directory.
func (h *WSHandler) OnDirChange(event watcher.Event) {
	h.broadcast(WSMessage{
		Type: "dirChange",
		Payload: DirChange{
			Event: event.Type.String(),
			Path:  event.Path,
			Dir:   event.Dir,
		},
	})
}

// ClientCount returns the number of connected clients
func (h *WSHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHandler) drop(client *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		_ = client.conn.Close()
	}
}

func (h *WSHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("encode websocket message", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.send(data); err != nil {
			h.log.Debug("dropping websocket client", zap.Error(err))
			h.drop(client)
		}
	}
}
