// Package service holds the relay's event semantics: join subscribes a
// connection to a room, publish persists then fans out, disconnect
// cleans membership up before anything else can run for the connection.
package service

import (
	"context"
	"time"

	"github.com/Asaphis/AsaphisCommerce/internal/audit"
	"github.com/Asaphis/AsaphisCommerce/internal/domain"
	"github.com/Asaphis/AsaphisCommerce/internal/hub"
	"github.com/Asaphis/AsaphisCommerce/internal/presence"
	"github.com/Asaphis/AsaphisCommerce/internal/store"
	"github.com/Asaphis/AsaphisCommerce/internal/stream"
	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

type relayService struct {
	hub      *hub.Hub
	store    store.MessageStore
	presence presence.Registry
	stream   stream.EventStream
}

func NewRelayService(
	h *hub.Hub,
	messageStore store.MessageStore,
	reg presence.Registry,
	events stream.EventStream,
) RelayService {
	return &relayService{
		hub:      h,
		store:    messageStore,
		presence: reg,
		stream:   events,
	}
}

// HandleJoinRoom subscribes the client to a room. Any string is a valid
// room ID, joining twice is a no-op, and no acknowledgement is sent.
func (s *relayService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error {
	s.hub.JoinRoom(c, roomID)

	if err := s.presence.SetOccupancy(ctx, roomID, s.hub.RoomMemberCount(roomID)); err != nil {
		logger := log.Ctx(ctx)
		logger.Warn().Str(log.FieldRoomID, roomID).Err(err).Msg("failed to publish room occupancy")
	}

	audit.LogWithDetail(ctx, audit.ActionJoinRoom, c.ID, roomID, "client joined room")
	return nil
}

// HandleChatMessage stamps the server timestamp, persists the message,
// and on success fans it out to every member of the room, the sender
// included. A failed persist drops the message: it is logged and audited
// but the sender is told nothing, matching the storefront protocol.
func (s *relayService) HandleChatMessage(ctx context.Context, c *hub.Client, in domain.ChatMessageIn) error {
	msg := &domain.ChatMessage{
		RoomID:   in.RoomID,
		SenderID: in.SenderID,
		Text:     in.Text,
		At:       time.Now().UTC(),
	}

	if err := s.store.SaveMessage(ctx, msg); err != nil {
		logger := log.Ctx(ctx)
		logger.Error().
			Str(log.FieldClientID, c.ID).
			Str(log.FieldRoomID, msg.RoomID).
			Err(err).
			Msg("failed to store message")
		audit.LogWithDetail(ctx, audit.ActionPersistFailed, c.ID, msg.RoomID, "message dropped")
		return nil
	}

	out := &domain.ChatMessageOut{
		Type:     domain.MsgTypeChatMessage,
		RoomID:   msg.RoomID,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		At:       msg.At,
	}
	if err := s.hub.BroadcastToRoom(msg.RoomID, out); err != nil {
		logger := log.Ctx(ctx)
		logger.Error().Str(log.FieldRoomID, msg.RoomID).Err(err).Msg("failed to broadcast message")
		return nil
	}

	// Best effort: downstream consumers, never gates delivery.
	if err := s.stream.Publish(ctx, msg); err != nil {
		logger := log.Ctx(ctx)
		logger.Warn().Str(log.FieldRoomID, msg.RoomID).Err(err).Msg("failed to publish message event")
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, c.ID, msg.RoomID, "message relayed")
	return nil
}

// HandleDisconnect removes the client from every room it joined before
// any further event processing. Running it twice has no extra effect.
func (s *relayService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	left := s.hub.Unregister(c)

	for _, roomID := range left {
		count := s.hub.RoomMemberCount(roomID)
		var err error
		if count == 0 {
			err = s.presence.Clear(ctx, roomID)
		} else {
			err = s.presence.SetOccupancy(ctx, roomID, count)
		}
		if err != nil {
			logger := log.Ctx(ctx)
			logger.Warn().Str(log.FieldRoomID, roomID).Err(err).Msg("failed to update room occupancy")
		}
	}

	audit.Log(ctx, audit.ActionDisconnect, c.ID, "client disconnected")
	return nil
}

func (s *relayService) Start(ctx context.Context) error {
	if err := s.presence.StartHeartbeat(ctx); err != nil {
		return err
	}
	logger := log.L()
	logger.Info().Msg("relay service started")
	return nil
}

func (s *relayService) Stop() error {
	s.presence.StopHeartbeat()
	if err := s.stream.Close(); err != nil {
		logger := log.L()
		logger.Warn().Err(err).Msg("failed to close event stream")
	}
	return nil
}
