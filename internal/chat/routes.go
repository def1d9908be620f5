package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

// maxFrameBytes bounds one incoming websocket frame.
const maxFrameBytes = 16 << 10

// chatRequest is the incoming message format, over the websocket and
// POST /api/chat alike.
type chatRequest struct {
	Type      string `json:"type"`       // "message"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// chatResponse is the outgoing websocket message format.
type chatResponse struct {
	Type      string `json:"type"` // "response" or "error"
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Topic     string `json:"topic,omitempty"`
}

// Handler serves the chat widget endpoints.
type Handler struct {
	service  *Service
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates the chat handler. Unless allowAllOrigins is set,
// websocket upgrades must come from the site's own origin.
func NewHandler(service *Service, allowAllOrigins bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{service: service, logger: logger}
	if allowAllOrigins {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleWebSocket)
	r.Post("/api/chat", h.handlePost)
	r.Get("/api/chat/{sessionID}/messages", h.handleTranscript)
}

func visitorID(r *http.Request) string {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess.ID()
	}
	return "anonymous"
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// The hijacked connection bypasses w.Header(), so a freshly issued
	// session cookie has to travel with the handshake response.
	var hdr http.Header
	if vals := w.Header().Values("Set-Cookie"); len(vals) > 0 {
		hdr = http.Header{"Set-Cookie": vals}
	}
	conn, err := h.upgrader.Upgrade(w, r, hdr)
	if err != nil {
		h.logger.Info("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.NetConn().SetDeadline(time.Time{})

	visitor := visitorID(r)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket read failed", zap.Error(err))
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			h.sendError(conn, "", "invalid message format")
			continue
		}
		if req.Type != "message" {
			h.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
			continue
		}

		ex, err := h.service.Handle(r.Context(), visitor, req.SessionID, req.Content)
		if err != nil {
			h.sendError(conn, req.SessionID, messageFor(err))
			continue
		}
		h.sendResponse(conn, chatResponse{
			Type:      "response",
			SessionID: ex.SessionID,
			Content:   ex.Content,
			Topic:     ex.Topic,
		})
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	ex, err := h.service.Handle(r.Context(), visitorID(r), req.SessionID, req.Content)
	if err != nil {
		web.Error(w, r, statusFor(err), messageFor(err))
		return
	}
	web.JSON(w, r, http.StatusOK, ex)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.service.Transcript(r.Context(), visitorID(r), chi.URLParam(r, "sessionID"))
	if err != nil {
		web.Error(w, r, statusFor(err), messageFor(err))
		return
	}
	web.JSON(w, r, http.StatusOK, map[string]any{"data": msgs})
}

func (h *Handler) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Info("websocket write failed", zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.sendResponse(conn, chatResponse{Type: "error", SessionID: sessionID, Content: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong), errors.Is(err, ErrSessionNotFound):
		return err.Error()
	default:
		return "Chat is unavailable right now."
	}
}
