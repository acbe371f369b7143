package store

import (
	"context"
	"errors"

	"github.com/Asaphis/AsaphisCommerce/internal/domain"
)

// ErrNotConfigured is reported by Ping when the relay runs without a
// persistence backend. The health probe maps it to db:false.
var ErrNotConfigured = errors.New("message store not configured")

// MessageStore is the persistence contract consumed by the relay:
// success means the write was accepted by the backing store. The relay
// never retries a failed write.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *domain.ChatMessage) error
	Ping(ctx context.Context) error
	Close() error
}
