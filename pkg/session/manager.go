// Package session 管理跨多次调用持续累积的扫描会话
//
// 扫码器每次只能拿到一部分二维码；Manager 把被接受的 Part 写进 PartStore，
// 每次调用都用全部已存 Part 重放一个新的解码会话，完成后自动清理。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"quantusur/pkg/signreq"
	"quantusur/pkg/storage"
	"quantusur/pkg/types"
)

// Rejection 记录一个没被接受的 Part
type Rejection struct {
	Index int // 在本次输入里的位置 (从 0 开始)
	Err   error
}

// Status 是一次 Scan 之后的会话状态
type Status struct {
	Session  types.SessionID
	Type     string
	Added    int     // 本次新写入的 Part 数
	Stored   int     // 会话里已保存的 Part 总数 (完成后清理前的值)
	Expected int     // 分片数 F，未知时为 0
	Known    []int   // 已解出的分片索引
	Progress float64 // 估计进度 [0, 1]
	Complete bool
	Payload  []byte // 完成时的负载
	Rejected []Rejection
}

type Manager struct {
	store  storage.PartStore
	codec  *signreq.Codec
	logger *slog.Logger
}

func NewManager(store storage.PartStore, codec *signreq.Codec) *Manager {
	return &Manager{
		store:  store,
		codec:  codec,
		logger: slog.Default().With("component", "session"),
	}
}

// Scan 把新 Part 并入会话并尝试重组
// 单个 Part 出错不会中断整个调用，记录在 Status.Rejected 里；
// 完整性错误 (校验和不符) 意味着已存数据损坏，直接返回错误，需要 Reset
func (m *Manager) Scan(ctx context.Context, id types.SessionID, parts ...string) (*Status, error) {
	if err := storage.ValidateSessionID(id); err != nil {
		return nil, err
	}

	// 1. 重放已保存的 Part
	stored, err := m.store.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	sess := m.codec.NewSession()
	for _, p := range stored {
		if err := sess.Add(p); err != nil {
			if errors.Is(err, signreq.ErrIntegrity) {
				return nil, fmt.Errorf("session %s is corrupted: %w", id, err)
			}
			m.logger.Warn("skipping stored part", "session", id, "error", err)
		}
	}

	// 2. 喂入新 Part，只保存被接受的
	st := &Status{Session: id}
	var accepted []string
	for i, p := range parts {
		if err := sess.Add(p); err != nil {
			if errors.Is(err, signreq.ErrIntegrity) {
				return nil, fmt.Errorf("part %d: %w", i+1, err)
			}
			st.Rejected = append(st.Rejected, Rejection{Index: i, Err: err})
			continue
		}
		accepted = append(accepted, p)
	}

	if len(accepted) > 0 {
		if st.Added, err = m.store.Append(ctx, id, accepted...); err != nil {
			return nil, fmt.Errorf("failed to persist parts: %w", err)
		}
	}

	st.Type = sess.Type()
	st.Stored = len(stored) + st.Added
	st.Expected = sess.ExpectedPartCount()
	st.Known = sess.KnownFragments()
	st.Progress = sess.Progress()
	st.Complete = sess.IsComplete()

	m.logger.Debug("scan",
		"session", id,
		"added", st.Added,
		"stored", st.Stored,
		"rejected", len(st.Rejected),
		"progress", st.Progress,
	)

	if !st.Complete {
		return st, nil
	}

	// 3. 完成：取出负载并清理会话
	if st.Payload, err = sess.Result(); err != nil {
		return nil, err
	}
	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.Warn("failed to clean up completed session", "session", id, "error", err)
	}
	return st, nil
}

// Reset 丢弃会话
func (m *Manager) Reset(ctx context.Context, id types.SessionID) error {
	return m.store.Delete(ctx, id)
}
