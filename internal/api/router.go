package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rsheldon/quorum/internal/api/handler"
	apimiddleware "github.com/rsheldon/quorum/internal/api/middleware"
	"github.com/rsheldon/quorum/internal/middleware"
	"github.com/rsheldon/quorum/internal/ws"
)

// RouterDeps holds the handlers the router wires up
type RouterDeps struct {
	Join   *handler.JoinHandler
	Health *handler.HealthHandler
	WS     *ws.Handler
	Logger *slog.Logger
}

// NewRouter builds the HTTP routing table
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Logging(deps.Logger))
	r.Use(apimiddleware.Recovery(deps.Logger))

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Handle("/join", deps.Join).Methods(http.MethodPost)
	apiRouter.Handle("/health", deps.Health).Methods(http.MethodGet)

	// The upgrade request is a GET; everything after lives on the socket
	r.Handle("/ws", deps.WS).Methods(http.MethodGet)

	return r
}
