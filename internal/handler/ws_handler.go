package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Asaphis/AsaphisCommerce/internal/audit"
	"github.com/Asaphis/AsaphisCommerce/internal/config"
	"github.com/Asaphis/AsaphisCommerce/internal/domain"
	"github.com/Asaphis/AsaphisCommerce/internal/hub"
	"github.com/Asaphis/AsaphisCommerce/internal/service"
	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

type WSHandler struct {
	hub      *hub.Hub
	service  service.RelayService
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, svc service.RelayService, wsCfg config.WebSocketConfig, corsCfg config.CORSConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(corsCfg.AllowedOrigin),
		},
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients) and browser requests from the configured storefront origin.
func originChecker(allowed string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed == "*" {
			return true
		}
		if equalOrigin(origin, allowed) {
			return true
		}
		logger := log.L()
		logger.Warn().Str("origin", origin).Msg("blocked websocket connection from disallowed origin")
		return false
	}
}

func equalOrigin(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return strings.EqualFold(ua.Scheme, ub.Scheme) && strings.EqualFold(ua.Host, ub.Host)
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := log.Ctx(r.Context())
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	audit.Log(r.Context(), audit.ActionConnect, client.ID, "client connected")

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.handleDisconnect)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		logger := log.L()
		logger.Warn().Str(log.FieldClientID, client.ID).Err(err).Msg("malformed message")
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join_room message"))
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client, msg.RoomID); err != nil {
			logger := log.L()
			logger.Error().Str(log.FieldClientID, client.ID).Err(err).Msg("join room failed")
		}

	case domain.MsgTypeChatMessage:
		var msg domain.ChatMessageIn
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid chat_message"))
			return
		}
		if err := h.service.HandleChatMessage(ctx, client, msg); err != nil {
			logger := log.L()
			logger.Error().Str(log.FieldClientID, client.ID).Err(err).Msg("chat message failed")
		}

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

func (h *WSHandler) handleDisconnect(client *hub.Client) {
	if err := h.service.HandleDisconnect(context.Background(), client); err != nil {
		logger := log.L()
		logger.Error().Str(log.FieldClientID, client.ID).Err(err).Msg("disconnect cleanup failed")
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat/ws", h.HandleWebSocket)
}
