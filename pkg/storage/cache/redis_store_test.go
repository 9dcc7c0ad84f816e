package cache

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"quantusur/pkg/storage"
	"quantusur/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(Config{RedisURL: "http://not-redis"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}

// -----------------------------------------------------------------------------
// 集成测试
// -----------------------------------------------------------------------------

func TestRedisStore_Integration(t *testing.T) {
	// A. 环境检查: 确保 Redis 在运行
	redisAddr := "localhost:6379"
	conn, err := net.DialTimeout("tcp", redisAddr, 1*time.Second)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	conn.Close()

	// B. 初始化 (用 15 号库，避免碰到开发数据)
	ctx := context.Background()
	store, err := NewRedisStore(Config{
		RedisURL: fmt.Sprintf("redis://%s/15", redisAddr),
		TTL:      1 * time.Minute,
	})
	require.NoError(t, err)
	defer store.Close()

	session := types.SessionID(fmt.Sprintf("test-%d", time.Now().UnixNano()))
	defer store.client.Del(ctx, store.sessionKey(session))

	// --- Step 1: 空会话 ---
	parts, err := store.List(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, parts)

	// --- Step 2: Append 去重 ---
	added, err := store.Append(ctx, session, "UR:BYTES/1-2/AAAA", "ur:bytes/1-2/aaaa", "ur:bytes/2-2/bbbb")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = store.Append(ctx, session, "ur:bytes/2-2/bbbb")
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	parts, err = store.List(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []string{"ur:bytes/1-2/aaaa", "ur:bytes/2-2/bbbb"}, parts)

	// --- Step 3: TTL 已设置 ---
	ttl, err := store.client.TTL(ctx, store.sessionKey(session)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	// --- Step 4: Delete ---
	require.NoError(t, store.Delete(ctx, session))
	assert.ErrorIs(t, store.Delete(ctx, session), storage.ErrNotFound)
}
