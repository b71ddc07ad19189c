package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	apperror "lan-stream/internal/error"
	"lan-stream/internal/service"
	"lan-stream/internal/storage"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxFrameBytes = 1 << 20
	pongWait      = 60 * time.Second
)

// ------------------------------------------------------------------------------------------------------
// WebSocketHandler joins the client to the broadcast hub and submits every
// frame it sends. JSON frames are entries; anything else is taken as text.
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	session := h.hub.Register(conn)
	defer h.hub.Unregister(session)

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-session.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		req, err := decodeFrame(data)
		if err != nil {
			session.Send(apperror.NewErrorResponse(err))
			continue
		}

		if _, err := h.relay.Submit(ctx, req); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			h.logger.Info("Rejected entry", zap.Error(err))
			session.Send(apperror.NewErrorResponse(err))
		}
	}
}

// ------------------------------------------------------------------------------------------------------
func decodeFrame(data []byte) (*service.SubmitRequest, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return &service.SubmitRequest{Kind: storage.KindText, Content: string(data)}, nil
	}

	var req service.SubmitRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apperror.NewValidationError("invalid JSON entry", err)
	}
	if req.Kind == "" {
		req.Kind = storage.KindText
	}
	return &req, nil
}
