package vectorDB

import (
	"context"

	"github.com/akolanti/codex/internal/data/redisStore"
)

// RedisStorage keeps each index under index:session_<id>. A single SET replaces it.
type RedisStorage struct {
	store *redisStore.Store
}

func NewRedisStorage(store *redisStore.Store) *RedisStorage {
	return &RedisStorage{store: store}
}

func indexKey(sessionId string) string {
	return "index:session_" + sessionId
}

func (r *RedisStorage) Write(ctx context.Context, sessionId string, blob []byte) error {
	return r.store.Set(ctx, indexKey(sessionId), blob, 0)
}

func (r *RedisStorage) Read(ctx context.Context, sessionId string) ([]byte, error) {
	val, err := r.store.GetBytes(ctx, indexKey(sessionId))
	if r.store.IsNil(err) {
		return nil, ErrBlobNotFound
	}
	return val, err
}

func (r *RedisStorage) Exists(ctx context.Context, sessionId string) (bool, error) {
	return r.store.Exists(ctx, indexKey(sessionId))
}

func (r *RedisStorage) Delete(ctx context.Context, sessionId string) error {
	return r.store.Del(ctx, indexKey(sessionId))
}
