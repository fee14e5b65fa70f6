package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/services/auth"
	"github.com/rsheldon/quorum/internal/services/join"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades connections and runs the per-connection event loop
type Handler struct {
	auth        *auth.Service
	join        *join.Service
	hubs        *HubManager
	broadcaster *Broadcaster
	logger      *slog.Logger
	development bool
}

// NewHandler creates the websocket endpoint handler
func NewHandler(
	authService *auth.Service,
	joinService *join.Service,
	hubs *HubManager,
	broadcaster *Broadcaster,
	development bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:        authService,
		join:        joinService,
		hubs:        hubs,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "ws")),
		development: development,
	}
}

// ServeHTTP upgrades the request and blocks until the connection closes.
// Events on one connection are processed strictly in arrival order.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := newClient(conn)
	h.logger.Info("connection opened",
		slog.String("connection_id", client.id),
		slog.String("remote_addr", r.RemoteAddr),
	)

	go client.writePump()
	h.readPump(r.Context(), client)

	// Leaving the room on disconnect does not mutate persisted player state;
	// the player remains joinable by reconnecting with the same credentials.
	if client.hub != nil {
		client.hub.Unregister(client)
	}
	client.closeSend()
	h.logger.Info("connection closed", slog.String("connection_id", client.id))
}

func (h *Handler) readPump(ctx context.Context, c *Client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Type {
		case EventAuthRequest:
			h.handleAuthRequest(ctx, c, env.Data)
		case EventChangeName:
			// Unauthenticated senders have no legitimate channel; ignore.
			if c.authenticated {
				h.handleChangeName(ctx, c, env.Data)
			}
		case EventRemovalRequest:
			if c.authenticated {
				h.handleRemovalRequest(ctx, c, env.Data)
			}
		default:
			h.logger.Warn("unknown event type",
				slog.String("connection_id", c.id),
				slog.String("event", env.Type),
			)
		}
	}
}

func (h *Handler) handleAuthRequest(ctx context.Context, c *Client, data json.RawMessage) {
	var req AuthRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(c, ErrorPayload{Message: "invalid authRequest payload"})
		return
	}

	res, err := h.auth.Authenticate(ctx, c.id, model.Credential{
		Code: model.SessionCode(req.GameCode),
		Name: req.Name,
		Key:  req.Key,
	})
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	// Re-authenticating an already admitted connection moves it between rooms
	if c.hub != nil {
		c.hub.Unregister(c)
	}

	hub := h.hubs.GetOrCreateHub(res.Code)

	// A reconnect supersedes any prior live connection bound to this player;
	// two sockets bound to one player would double-deliver broadcasts.
	hub.KickPlayer(res.Name, nil)

	c.authenticated = true
	c.code = res.Code
	c.playerName = res.Name
	c.hub = hub
	hub.Register(c, res.Name)

	h.broadcaster.BroadcastStatus(ctx, res.Code)
}

func (h *Handler) handleChangeName(ctx context.Context, c *Client, data json.RawMessage) {
	var req ChangeName
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(c, ErrorPayload{Message: "invalid changeName payload"})
		return
	}

	if err := h.join.Rename(ctx, c.code, c.playerName, req.NewName); err != nil {
		h.sendServiceError(c, err)
		return
	}

	c.playerName = req.NewName
	c.hub.Rename(c, req.NewName)

	if msg, err := marshalEvent(EventNameChanged, NameChanged{NewName: req.NewName}); err == nil {
		c.enqueue(msg)
	}
	h.broadcaster.BroadcastStatus(ctx, c.code)
}

func (h *Handler) handleRemovalRequest(ctx context.Context, c *Client, data json.RawMessage) {
	var req RemovalRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(c, ErrorPayload{Message: "invalid removalRequest payload"})
		return
	}

	destroyed, err := h.join.Remove(ctx, c.code, req.Name)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	if msg, merr := marshalEvent(EventKicked, struct{}{}); merr == nil {
		c.hub.KickPlayer(req.Name, msg)
	}

	if destroyed {
		h.hubs.RemoveHub(c.code)
		return
	}

	if msg, merr := marshalEvent(EventRemovedPlayer, RemovedPlayer{Name: req.Name}); merr == nil {
		c.hub.Broadcast(msg)
	}
	h.broadcaster.BroadcastStatus(ctx, c.code)
}

// sendServiceError is the single translation point between service errors and
// the myError event. Domain errors travel verbatim; auth failures carry the
// authError kind; anything else is logged and masked outside development.
func (h *Handler) sendServiceError(c *Client, err error) {
	switch {
	case auth.IsAuthError(err):
		h.sendError(c, ErrorPayload{Message: err.Error(), Type: TypeAuthError})
	case model.IsDomainError(err):
		h.sendError(c, ErrorPayload{Message: err.Error()})
	default:
		h.logger.Error("unexpected error handling event",
			slog.String("connection_id", c.id),
			slog.Any("error", err),
		)
		msg := "internal server error"
		if h.development {
			msg = err.Error()
		}
		h.sendError(c, ErrorPayload{Message: msg})
	}
}

func (h *Handler) sendError(c *Client, payload ErrorPayload) {
	msg, err := marshalEvent(EventError, payload)
	if err != nil {
		return
	}
	c.enqueue(msg)
}
