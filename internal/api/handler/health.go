package handler

import (
	"log/slog"
	"net/http"

	"github.com/rsheldon/quorum/internal/api/response"
	"github.com/rsheldon/quorum/internal/storage"
)

// HealthResponse reports server liveness and store reachability
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// HealthHandler serves the health endpoint
type HealthHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(store storage.Storage, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: store,
		logger:  logger.With(slog.String("component", "health_handler")),
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// A session count doubles as a store round trip
	count, err := h.storage.CountSessions(r.Context())
	if err != nil {
		h.logger.Error("health check failed", slog.Any("error", err))
		response.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy"})
		return
	}
	response.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Sessions: count})
}
