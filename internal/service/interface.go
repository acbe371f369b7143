package service

import (
	"context"

	"github.com/Asaphis/AsaphisCommerce/internal/domain"
	"github.com/Asaphis/AsaphisCommerce/internal/hub"
)

type RelayService interface {
	HandleJoinRoom(ctx context.Context, client *hub.Client, roomID string) error
	HandleChatMessage(ctx context.Context, client *hub.Client, msg domain.ChatMessageIn) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	Start(ctx context.Context) error
	Stop() error
}
