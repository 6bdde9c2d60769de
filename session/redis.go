package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "session:"
	redisTTL       = 24 * time.Hour
)

// RedisStore keeps session history in Redis so conversations survive process
// restarts. Appends for the same session are serialized through a local
// per-store mutex; the deployment remains single-process.
type RedisStore struct {
	rdb *redis.Client
	mu  sync.Mutex
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]Turn, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return turns, nil
}

func (s *RedisStore) AppendExchange(ctx context.Context, sessionID string, user, assistant Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, err := s.History(ctx, sessionID)
	if err != nil {
		return err
	}

	turns = append(turns, user, assistant)

	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}

	if err := s.rdb.Set(ctx, redisKeyPrefix+sessionID, data, redisTTL).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
