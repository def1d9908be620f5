package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/guardpost/guardpost/internal/db"
	"github.com/guardpost/guardpost/internal/session"
)

func newTestServer(t *testing.T, visitor string) *httptest.Server {
	t.Helper()
	h := NewHandler(NewService(setupTestStore(t), nil, nil, nil), false, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := session.New(session.Data{ID: visitor})
			next.ServeHTTP(w, req.WithContext(session.WithSession(req.Context(), sess)))
		})
	})
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketChat(t *testing.T) {
	srv := newTestServer(t, "v1")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(chatRequest{Type: "message", Content: "how do I sign in?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "response" || resp.Topic != "signin" || resp.SessionID == "" {
		t.Errorf("response = %+v", resp)
	}

	if err := conn.WriteJSON(chatRequest{Type: "ask", Content: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("unknown type should be an error, got %+v", resp)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" || resp.Content != "invalid message format" {
		t.Errorf("response = %+v", resp)
	}
}

func TestWebSocketHandshakeIssuesSessionCookie(t *testing.T) {
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	mgr := session.NewManager(session.NewSQLStore(d), session.Options{CookieName: "gp", TTL: time.Hour}, nil)

	h := NewHandler(NewService(setupTestStore(t), nil, nil, nil), false, nil)
	r := chi.NewRouter()
	r.Use(mgr.Middleware)
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "gp" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("handshake cookies = %v, want a gp session cookie", resp.Cookies())
	}

	if err := conn.WriteJSON(chatRequest{Type: "message", Content: "how do I sign in?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg chatResponse
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "response" {
		t.Errorf("response = %+v", msg)
	}
}

func TestPostAndTranscript(t *testing.T) {
	srv := newTestServer(t, "v1")

	res, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"content":"any jobs?"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var ex Exchange
	if err := json.NewDecoder(res.Body).Decode(&ex); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ex.Topic != "jobs" {
		t.Errorf("topic = %q", ex.Topic)
	}

	res2, err := http.Get(srv.URL + "/api/chat/" + ex.SessionID + "/messages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res2.Body.Close()
	var body struct {
		Data []Message `json:"data"`
	}
	if err := json.NewDecoder(res2.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 {
		t.Errorf("transcript = %+v", body.Data)
	}

	res3, err := http.Get(srv.URL + "/api/chat/unknown/messages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res3.Body.Close()
	if res3.StatusCode != http.StatusNotFound {
		t.Errorf("unknown transcript status = %d", res3.StatusCode)
	}

	res4, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"content":""}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res4.Body.Close()
	if res4.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("empty message status = %d", res4.StatusCode)
	}
}
