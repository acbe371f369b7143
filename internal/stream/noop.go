package stream

import (
	"context"

	"github.com/Asaphis/AsaphisCommerce/internal/domain"
)

// NoopStream is used when no Kafka brokers are configured.
type NoopStream struct{}

func NewNoopStream() *NoopStream {
	return &NoopStream{}
}

func (*NoopStream) Publish(ctx context.Context, msg *domain.ChatMessage) error { return nil }
func (*NoopStream) Close() error                                               { return nil }
