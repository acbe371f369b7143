package presence

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Asaphis/AsaphisCommerce/internal/config"
	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

// RedisRegistry mirrors live room occupancy into Redis under TTL'd keys.
// A heartbeat refreshes the keys so a crashed relay's entries expire on
// their own.
type RedisRegistry struct {
	client            *redis.Client
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	occupancy         map[string]int // roomID -> last published count
	mu                sync.RWMutex
	cancel            context.CancelFunc
}

func NewRedisRegistry(cfg config.RedisConfig) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRegistry{
		client:            client,
		prefix:            cfg.PresencePrefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		occupancy:         make(map[string]int),
	}, nil
}

func (r *RedisRegistry) keyFor(roomID string) string {
	return fmt.Sprintf("%s:room:%s", r.prefix, roomID)
}

// SetOccupancy records the current member count for a room.
func (r *RedisRegistry) SetOccupancy(ctx context.Context, roomID string, count int) error {
	key := r.keyFor(roomID)

	if err := r.client.Set(ctx, key, strconv.Itoa(count), r.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to publish occupancy: %w", err)
	}

	r.mu.Lock()
	r.occupancy[roomID] = count
	r.mu.Unlock()
	return nil
}

// Clear removes a room's occupancy entry once its last member leaves.
func (r *RedisRegistry) Clear(ctx context.Context, roomID string) error {
	key := r.keyFor(roomID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear occupancy: %w", err)
	}

	r.mu.Lock()
	delete(r.occupancy, roomID)
	r.mu.Unlock()
	return nil
}

func (r *RedisRegistry) StartHeartbeat(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go r.heartbeatLoop(ctx)
	logger := log.L()
	logger.Info().Dur("interval", r.heartbeatInterval).Dur("ttl", r.keyTTL).Msg("presence heartbeat started")
	return nil
}

func (r *RedisRegistry) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshKeys(ctx)
		}
	}
}

func (r *RedisRegistry) refreshKeys(ctx context.Context) {
	r.mu.RLock()
	counts := make(map[string]int, len(r.occupancy))
	for roomID, count := range r.occupancy {
		counts[roomID] = count
	}
	r.mu.RUnlock()

	for roomID, count := range counts {
		if err := r.client.Set(ctx, r.keyFor(roomID), strconv.Itoa(count), r.keyTTL).Err(); err != nil {
			logger := log.L()
			logger.Error().Str(log.FieldRoomID, roomID).Err(err).Msg("failed to refresh presence key")
		}
	}
}

func (r *RedisRegistry) StopHeartbeat() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *RedisRegistry) Close() error {
	r.StopHeartbeat()
	return r.client.Close()
}
