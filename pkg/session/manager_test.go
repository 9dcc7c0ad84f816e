package session

import (
	"context"
	"testing"

	"quantusur/pkg/signreq"
	"quantusur/pkg/storage"
	"quantusur/pkg/storage/disk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*Manager, storage.PartStore) {
	t.Helper()
	store, err := disk.NewAdapter(t.TempDir())
	require.NoError(t, err)
	codec, err := signreq.New(signreq.DefaultOptions())
	require.NoError(t, err)
	return NewManager(store, codec), store
}

func mustEncode(t *testing.T, payload []byte) []string {
	t.Helper()
	parts, err := signreq.Encode(context.Background(), payload)
	require.NoError(t, err)
	return parts
}

func TestManager_AcrossCalls(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()

	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	parts := mustEncode(t, payload) // F = 6

	// 第一次扫到 3 个 (含一个重复)
	st, err := m.Scan(ctx, "tx", parts[0], parts[2], parts[0])
	require.NoError(t, err)
	assert.False(t, st.Complete)
	assert.Equal(t, 2, st.Added)
	assert.Equal(t, 2, st.Stored)
	assert.Equal(t, 6, st.Expected)
	assert.Equal(t, []int{0, 2}, st.Known)
	assert.Equal(t, signreq.DefaultType, st.Type)
	assert.Greater(t, st.Progress, 0.0)
	assert.Empty(t, st.Rejected)

	// 第二次再来 2 个
	st, err = m.Scan(ctx, "tx", parts[1], parts[3])
	require.NoError(t, err)
	assert.False(t, st.Complete)
	assert.Equal(t, 4, st.Stored)

	// 第三次补齐
	st, err = m.Scan(ctx, "tx", parts[4], parts[5])
	require.NoError(t, err)
	require.True(t, st.Complete)
	assert.Equal(t, payload, st.Payload)

	// 完成后会话被清理
	stored, err := store.List(ctx, "tx")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestManager_RejectedParts(t *testing.T) {
	m, store := setupManager(t)
	ctx := context.Background()

	a := mustEncode(t, make([]byte, 500))
	b := mustEncode(t, make([]byte, 700))

	st, err := m.Scan(ctx, "tx", a[0], "garbage", b[1])
	require.NoError(t, err)
	assert.Equal(t, 1, st.Added)
	require.Len(t, st.Rejected, 2)
	assert.Equal(t, 1, st.Rejected[0].Index)
	assert.ErrorIs(t, st.Rejected[0].Err, signreq.ErrMalformedPart)
	assert.Equal(t, 2, st.Rejected[1].Index)
	assert.ErrorIs(t, st.Rejected[1].Err, signreq.ErrDescriptorMismatch)

	// 被拒绝的 Part 不会被保存
	stored, err := store.List(ctx, "tx")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestManager_SinglePart(t *testing.T) {
	m, _ := setupManager(t)

	st, err := m.Scan(context.Background(), "one", mustEncode(t, []byte("hi"))...)
	require.NoError(t, err)
	require.True(t, st.Complete)
	assert.Equal(t, []byte("hi"), st.Payload)
	assert.Equal(t, 1, st.Expected)
}

func TestManager_Reset(t *testing.T) {
	m, _ := setupManager(t)
	ctx := context.Background()
	parts := mustEncode(t, make([]byte, 1000))

	_, err := m.Scan(ctx, "tx", parts[0])
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx, "tx"))
	assert.ErrorIs(t, m.Reset(ctx, "tx"), storage.ErrNotFound)

	// 重置后从零开始
	st, err := m.Scan(ctx, "tx", parts[1])
	require.NoError(t, err)
	assert.Equal(t, 1, st.Stored)
}

func TestManager_InvalidSession(t *testing.T) {
	m, _ := setupManager(t)
	_, err := m.Scan(context.Background(), "../etc")
	assert.ErrorIs(t, err, storage.ErrInvalidSession)
}
