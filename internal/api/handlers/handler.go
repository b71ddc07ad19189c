package handlers

import (
	"encoding/json"
	"net/http"

	"lan-stream/internal/broadcast"
	apperror "lan-stream/internal/error"
	"lan-stream/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	relay          service.RelayService
	hub            *broadcast.Hub
	logger         *zap.Logger
	upgrader       websocket.Upgrader
	maxUploadBytes int64
}

// ------------------------------------------------------------------------------------------------------
func NewHandler(relay service.RelayService, hub *broadcast.Hub, maxUploadBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		relay:          relay,
		hub:            hub,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// LAN clients reach the relay by IP, so any origin is accepted.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, "OK")
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) sendErrorResponse(w http.ResponseWriter, err error) {
	statusCode := apperror.GetHTTPStatusCode(err)
	errorResponse := apperror.NewErrorResponse(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if encodeErr := json.NewEncoder(w).Encode(errorResponse); encodeErr != nil {
		h.logger.Error("Failed to encode error response",
			zap.Error(encodeErr),
			zap.NamedError("cause", err),
		)
	}
}
