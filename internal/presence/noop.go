package presence

import "context"

// NoopRegistry is used when no Redis address is configured.
type NoopRegistry struct{}

func NewNoopRegistry() *NoopRegistry {
	return &NoopRegistry{}
}

func (*NoopRegistry) SetOccupancy(ctx context.Context, roomID string, count int) error { return nil }
func (*NoopRegistry) Clear(ctx context.Context, roomID string) error                   { return nil }
func (*NoopRegistry) StartHeartbeat(ctx context.Context) error                         { return nil }
func (*NoopRegistry) StopHeartbeat()                                                   {}
func (*NoopRegistry) Close() error                                                     { return nil }
