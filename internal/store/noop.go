package store

import (
	"context"

	"github.com/Asaphis/AsaphisCommerce/internal/domain"
)

// NoopStore stands in when no database is configured. Writes succeed as
// no-ops so the relay keeps broadcasting; Ping reports ErrNotConfigured
// so the health probe shows db:false.
type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (*NoopStore) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	return nil
}

func (*NoopStore) Ping(ctx context.Context) error {
	return ErrNotConfigured
}

func (*NoopStore) Close() error {
	return nil
}
