package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const defaultRedisKey = "appsistencia:console:sessions"

// RedisStorage keeps every session as one field of a single hash.
type RedisStorage struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedisStorage(client *redis.Client, key string) (*RedisStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStorage{client: client, key: key, ctx: context.Background()}, nil
}

func (s *RedisStorage) Load() (map[string]Session, error) {
	fields, err := s.client.HGetAll(s.ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read sessions hash: %w", err)
	}
	out := make(map[string]Session, len(fields))
	for id, raw := range fields {
		var sess Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", id, err)
		}
		out[id] = sess
	}
	return out, nil
}

func (s *RedisStorage) Save(sessions map[string]Session) error {
	values := make(map[string]interface{}, len(sessions))
	for id, sess := range sessions {
		b, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("encode session %s: %w", id, err)
		}
		values[id] = string(b)
	}

	_, err := s.client.TxPipelined(s.ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(s.ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(s.ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace sessions hash: %w", err)
	}
	return nil
}
