package stream

import (
	"context"

	"github.com/Asaphis/AsaphisCommerce/internal/domain"
)

// EventStream publishes delivered chat messages for downstream
// storefront consumers (analytics, search indexing). Publishing is
// best-effort and never gates delivery to room members.
type EventStream interface {
	Publish(ctx context.Context, msg *domain.ChatMessage) error
	Close() error
}
