package presence

import "context"

// Registry publishes room occupancy for operators to inspect. It is
// advisory only: the relay's delivery semantics never depend on it.
type Registry interface {
	SetOccupancy(ctx context.Context, roomID string, count int) error
	Clear(ctx context.Context, roomID string) error
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}
