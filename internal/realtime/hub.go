// Package realtime is the push channel: a websocket hub that authenticates
// handshakes, binds connections into the session directory and delivers
// pipeline events to live clients.
package realtime

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/mindtutor/internal/agent"
	"github.com/mohammad-safakhou/mindtutor/internal/runtime"
	"github.com/mohammad-safakhou/mindtutor/internal/session"
	"github.com/mohammad-safakhou/mindtutor/models"
)

// Event names match the original frontend contract.
const (
	EventMindmapUpdate = "sendAnalysisMap"
	EventSuggestion    = "sendAnalysisSuggestion"
)

// MindmapUpdatePayload carries a freshly generated mindmap to the client.
type MindmapUpdatePayload struct {
	ProblemID  int64          `json:"problem_id"`
	MindmapID  int64          `json:"mindmap_id"`
	NewMindmap models.MindMap `json:"new_mindmap"`
}

// SuggestionPayload carries a gap-analysis result to the client.
type SuggestionPayload struct {
	ProblemID         int64          `json:"problem_id"`
	MindmapID         int64          `json:"mindmap_id"`
	Suggestion        models.MindMap `json:"suggestion"`
	SuggestionSummary string         `json:"suggestion_summary"`
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client wraps one websocket connection. The write mutex serializes pushes
// from concurrent pipeline runs onto the single connection.
type client struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub owns the live connections and their directory bindings.
type Hub struct {
	directory *session.Directory
	logger    *log.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(directory *session.Directory, logger *log.Logger) *Hub {
	return &Hub{directory: directory, logger: logger, clients: make(map[string]*client)}
}

// Handler upgrades the connection, authenticates the handshake via the auth
// cookie or a token query parameter, and holds the read loop until the
// client disconnects. Inbound frames are discarded: this channel is
// push-only.
func (h *Hub) Handler(secret []byte) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		if ck, err := c.Cookie(runtime.AuthCookieName); err == nil {
			token = ck.Value
		}
		if token == "" {
			token = c.QueryParam("token")
		}
		userID, err := runtime.ParseSubject(token, secret)
		if err != nil {
			h.logger.Printf("handshake rejected from %s: %v", c.RealIP(), err)
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
		}

		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			h.logger.Printf("upgrade failed: %v", err)
			return nil
		}

		connID := uuid.NewString()
		h.register(connID, ws)
		h.directory.Bind(connID, userID)
		h.logger.Printf("connected conn=%s user=%s", connID, userID)

		defer func() {
			h.directory.Unbind(connID)
			h.unregister(connID)
			ws.Close()
			h.logger.Printf("disconnected conn=%s user=%s", connID, userID)
		}()

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return nil
			}
		}
	}
}

func (h *Hub) register(connID string, ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = &client{ws: ws}
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connID)
}

func (h *Hub) send(connID, event string, data interface{}) error {
	h.mu.RLock()
	cl, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("connection %s gone", connID)
	}
	if err := cl.writeJSON(envelope{Event: event, Data: data}); err != nil {
		h.logger.Printf("write to %s failed: %v", connID, err)
		return err
	}
	return nil
}

// SendMindmapUpdate pushes an updated mindmap to one connection.
func (h *Hub) SendMindmapUpdate(connID string, problemID, mindmapID int64, m models.MindMap) error {
	return h.send(connID, EventMindmapUpdate, MindmapUpdatePayload{
		ProblemID:  problemID,
		MindmapID:  mindmapID,
		NewMindmap: m,
	})
}

// SendSuggestion pushes a gap-analysis result to one connection.
func (h *Hub) SendSuggestion(connID string, problemID, mindmapID int64, res agent.SuggestionResult) error {
	return h.send(connID, EventSuggestion, SuggestionPayload{
		ProblemID:         problemID,
		MindmapID:         mindmapID,
		Suggestion:        res.Suggestion,
		SuggestionSummary: res.SuggestionSummary,
	})
}
