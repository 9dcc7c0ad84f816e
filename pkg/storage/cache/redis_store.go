package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"quantusur/pkg/storage"
	"quantusur/pkg/types"

	"github.com/redis/go-redis/v9"
)

// RedisStore 把扫描会话保存在 Redis Set 里
// 每次写入都会刷新 TTL，长时间没有新 Part 的会话自动过期
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type Config struct {
	RedisURL string        // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 会话过期时间，0 表示不过期
}

func NewRedisStore(cfg Config) (*RedisStore, error) {
	// 解析 URL
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

// sessionKey 生成 Redis Key，添加前缀防止冲突
func (s *RedisStore) sessionKey(session types.SessionID) string {
	return "qur:session:" + string(session)
}

func (s *RedisStore) Append(ctx context.Context, session types.SessionID, parts ...string) (int, error) {
	if err := storage.ValidateSessionID(session); err != nil {
		return 0, err
	}
	if len(parts) == 0 {
		return 0, nil
	}

	members := make([]any, len(parts))
	for i, p := range parts {
		members[i] = storage.Normalize(p)
	}

	key := s.sessionKey(session)
	var added *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, key, members...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis append: %w", err)
	}
	return int(added.Val()), nil
}

func (s *RedisStore) List(ctx context.Context, session types.SessionID) ([]string, error) {
	if err := storage.ValidateSessionID(session); err != nil {
		return nil, err
	}
	parts, err := s.client.SMembers(ctx, s.sessionKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	sort.Strings(parts)

	// 读也算活跃，续期失败不影响结果
	if s.ttl > 0 && len(parts) > 0 {
		if err := s.client.Expire(ctx, s.sessionKey(session), s.ttl).Err(); err != nil {
			slog.Warn("redis: failed to refresh session ttl", "session", session, "error", err)
		}
	}
	return parts, nil
}

func (s *RedisStore) Delete(ctx context.Context, session types.SessionID) error {
	if err := storage.ValidateSessionID(session); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.sessionKey(session)).Result()
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close 释放连接池
func (s *RedisStore) Close() error {
	return s.client.Close()
}
