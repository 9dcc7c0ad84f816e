package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"quantusur/pkg/signreq"
	"quantusur/pkg/storage"
	"quantusur/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo 构建隔离的测试环境
func setupTestRepo(t *testing.T) *Repository {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&ScanSession{}, &SessionPart{}))

	return NewRepository(metaDB)
}

// mustEncode 生成一组真实的 Part
func mustEncode(t *testing.T, size int) []string {
	t.Helper()
	parts, err := signreq.Encode(context.Background(), make([]byte, size))
	require.NoError(t, err)
	return parts
}

// -----------------------------------------------------------------------------
// 测试用例
// -----------------------------------------------------------------------------

func TestRepository_PartLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	session := types.SessionID("tx-1")

	parts := mustEncode(t, 1000) // F = 6
	require.Len(t, parts, 6)

	// 1. 写入，包含重复
	added, err := repo.Append(ctx, session, parts[0], parts[1], parts[0])
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// 2. 大小写不同也算重复
	added, err = repo.Append(ctx, session, storage.Normalize(parts[1]), parts[2])
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// 3. 按写入顺序读出
	stored, err := repo.List(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []string{
		storage.Normalize(parts[0]),
		storage.Normalize(parts[1]),
		storage.Normalize(parts[2]),
	}, stored)

	// 4. 删除
	require.NoError(t, repo.Delete(ctx, session))
	stored, err = repo.List(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.ErrorIs(t, repo.Delete(ctx, session), storage.ErrNotFound)
	_, err = repo.GetSession(ctx, session)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_SessionDescriptor(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// 先写一个无法解析的 Part，描述保持为空
	_, err := repo.Append(ctx, "multi", "not-a-ur")
	require.NoError(t, err)

	sess, err := repo.GetSession(ctx, "multi")
	require.NoError(t, err)
	assert.Empty(t, sess.Type)
	assert.Empty(t, sess.Descriptor)

	// 再写真实 Part
	parts := mustEncode(t, 1000)
	_, err = repo.Append(ctx, "multi", parts[3])
	require.NoError(t, err)

	sess, err = repo.GetSession(ctx, "multi")
	require.NoError(t, err)
	assert.Equal(t, signreq.DefaultType, sess.Type)

	var desc descriptorJSON
	require.NoError(t, json.Unmarshal(sess.Descriptor, &desc))
	assert.Equal(t, 6, desc.SeqLen)
	assert.Equal(t, 1003, desc.MessageLen)
	assert.Equal(t, 168, desc.FragmentLen)
	assert.Len(t, desc.Checksum, 8)

	// 单分片会话只有类型
	_, err = repo.Append(ctx, "single", mustEncode(t, 10)...)
	require.NoError(t, err)
	sess, err = repo.GetSession(ctx, "single")
	require.NoError(t, err)
	assert.Equal(t, signreq.DefaultType, sess.Type)
	assert.Empty(t, sess.Descriptor)
}

func TestRepository_Isolation(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Append(ctx, "a", "ur:x/one")
	require.NoError(t, err)
	// 同一个 Part 在不同会话里互不影响
	added, err := repo.Append(ctx, "b", "ur:x/one", "ur:x/two")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	a, err := repo.List(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"ur:x/one"}, a)
}

func TestRepository_InvalidSession(t *testing.T) {
	repo := setupTestRepo(t)
	_, err := repo.Append(context.Background(), "../x", "ur:x/one")
	assert.ErrorIs(t, err, storage.ErrInvalidSession)
}

func TestNewDB_SqliteFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "sessions.db")

	db, err := NewDB(context.Background(), Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	added, err := repo.Append(context.Background(), "s", "ur:x/one")
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestNewDB_UnsupportedDriver(t *testing.T) {
	_, err := NewDB(context.Background(), Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")

	_, err = NewDB(context.Background(), Config{Driver: "sqlite"})
	assert.Error(t, err)
}
