package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"quantusur/pkg/core"
	"quantusur/pkg/types"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidSession = errors.New("invalid session id")
)

// PartStore 持久化扫描会话里已经收到的 UR Part
// 用于跨多次 CLI 调用累积 Part；实现可以是本地磁盘、Redis 或 SQL
type PartStore interface {
	// Append 追加 Part，已经存在的 (忽略大小写) 直接跳过
	// 返回真正新增的条数
	Append(ctx context.Context, session types.SessionID, parts ...string) (int, error)

	// List 返回会话内的全部 Part (规范化后的小写形式)，会话不存在时返回空切片
	List(ctx context.Context, session types.SessionID) ([]string, error)

	// Delete 删除整个会话，不存在时返回 ErrNotFound
	Delete(ctx context.Context, session types.SessionID) error
}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateSessionID 会话 ID 会被用作目录名和 Key，只允许安全字符
func ValidateSessionID(id types.SessionID) error {
	if !sessionIDPattern.MatchString(string(id)) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, id)
	}
	return nil
}

// Normalize 把 Part 规范化为去空白的小写形式，大小写不同的同一 Part 视为重复
func Normalize(part string) string {
	return strings.ToLower(strings.TrimSpace(part))
}

// PartKey 返回规范化 Part 的内容哈希，用作去重键
func PartKey(part string) types.Hash {
	return core.CalculateBlobHash([]byte(Normalize(part)))
}
