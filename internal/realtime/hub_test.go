package realtime

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/mindtutor/internal/runtime"
	"github.com/mohammad-safakhou/mindtutor/internal/session"
	"github.com/mohammad-safakhou/mindtutor/models"
)

var testSecret = []byte("test-secret")

func newTestServer(t *testing.T) (*Hub, *session.Directory, *httptest.Server) {
	t.Helper()
	dir := session.NewDirectory()
	hub := NewHub(dir, log.New(io.Discard, "", 0))
	e := echo.New()
	e.GET("/ws", hub.Handler(testSecret))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, dir, srv
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitForConnections(t *testing.T, dir *session.Directory, userID string, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conns := dir.Resolve(userID); len(conns) == n {
			return conns
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("user %s never reached %d connection(s)", userID, n)
	return nil
}

func TestHandshakeBindsAndPushDelivers(t *testing.T) {
	hub, dir, srv := newTestServer(t)

	token, err := runtime.SignJWT("42", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	ws := dialWS(t, srv, token)

	conns := waitForConnections(t, dir, "42", 1)

	m := models.MindMap{
		Nodes: []models.MindMapNode{{NodeID: "N1", NodeContent: "x=5"}},
		Edges: []models.MindMapEdge{},
	}
	if err := hub.SendMindmapUpdate(conns[0], 2, 1, m); err != nil {
		t.Fatalf("SendMindmapUpdate: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var got struct {
		Event string               `json:"event"`
		Data  MindmapUpdatePayload `json:"data"`
	}
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal push: %v", err)
	}
	if got.Event != EventMindmapUpdate {
		t.Fatalf("unexpected event: %s", got.Event)
	}
	if got.Data.ProblemID != 2 || got.Data.MindmapID != 1 || len(got.Data.NewMindmap.Nodes) != 1 {
		t.Fatalf("unexpected payload: %+v", got.Data)
	}
}

func TestDisconnectUnbinds(t *testing.T) {
	_, dir, srv := newTestServer(t)

	token, _ := runtime.SignJWT("7", testSecret, time.Hour)
	ws := dialWS(t, srv, token)
	waitForConnections(t, dir, "7", 1)

	ws.Close()
	waitForConnections(t, dir, "7", 0)
}

func TestHandshakeRejectedWithoutToken(t *testing.T) {
	_, _, srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}
