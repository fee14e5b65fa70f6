package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rsheldon/quorum/internal/api/apierr"
	"github.com/rsheldon/quorum/internal/api/response"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/services/join"
	"github.com/rsheldon/quorum/internal/services/registry"
)

// JoinRequest is the join endpoint's request body. A nil GameCode means
// create a fresh session and join it.
type JoinRequest struct {
	PlayerName string `json:"playerName"`
	GameCode   *int   `json:"gameCode,omitempty"`
}

// JoinHandler serves the session entry point
type JoinHandler struct {
	registry *registry.Service
	join     *join.Service
	errors   *apierr.Translator
	logger   *slog.Logger
}

// NewJoinHandler creates a JoinHandler
func NewJoinHandler(
	reg *registry.Service,
	joinService *join.Service,
	errors *apierr.Translator,
	logger *slog.Logger,
) *JoinHandler {
	return &JoinHandler{
		registry: reg,
		join:     joinService,
		errors:   errors,
		logger:   logger.With(slog.String("component", "join_handler")),
	}
}

func (h *JoinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewBadRequest("invalid request body"))
		return
	}

	if err := join.ValidateName(req.PlayerName); err != nil {
		apierr.WriteError(w, h.errors.Translate(err))
		return
	}

	ctx := r.Context()

	if req.GameCode == nil {
		code, err := h.registry.CreateSession(ctx)
		if err != nil {
			apierr.WriteError(w, h.errors.Translate(err))
			return
		}

		res, err := h.join.Join(ctx, code, req.PlayerName)
		if err != nil {
			// The creator never entered their own session; drop it rather
			// than leave an empty one to the reaper.
			if derr := h.registry.DestroySession(ctx, code); derr != nil {
				h.logger.Error("failed to clean up unjoined session",
					slog.Int("code", int(code)),
					slog.Any("error", derr),
				)
			}
			apierr.WriteError(w, h.errors.Translate(err))
			return
		}

		response.JSON(w, http.StatusOK, res)
		return
	}

	code := model.SessionCode(*req.GameCode)
	if !code.Valid() {
		apierr.WriteError(w, apierr.NewBadRequest("game code out of range"))
		return
	}

	res, err := h.join.Join(ctx, code, req.PlayerName)
	if err != nil {
		apierr.WriteError(w, h.errors.Translate(err))
		return
	}
	response.JSON(w, http.StatusOK, res)
}
