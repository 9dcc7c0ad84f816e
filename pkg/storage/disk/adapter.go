package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"quantusur/pkg/storage"
	"quantusur/pkg/types"
)

// Adapter 实现了 storage.PartStore 接口
// 目录布局: root/<session>/<sha256(part)>，文件内容就是规范化后的 Part
type Adapter struct {
	rootPath string // 比如: /home/user/.qur/sessions
}

// NewAdapter 创建一个新的磁盘存储适配器
func NewAdapter(root string) (*Adapter, error) {
	// 确保根目录存在
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return &Adapter{rootPath: root}, nil
}

func (s *Adapter) sessionDir(session types.SessionID) string {
	return filepath.Join(s.rootPath, string(session))
}

func (s *Adapter) Append(ctx context.Context, session types.SessionID, parts ...string) (int, error) {
	if err := storage.ValidateSessionID(session); err != nil {
		return 0, err
	}
	dir := s.sessionDir(session)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	added := 0
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		ok, err := s.put(dir, part)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// put 写入单个 Part，已存在时返回 false
func (s *Adapter) put(dir, part string) (bool, error) {
	targetPath := filepath.Join(dir, storage.PartKey(part).String())

	// 1. 检查是否存在 (幂等性)
	if _, err := os.Stat(targetPath); err == nil {
		return false, nil
	}

	// 2. 原子写入 (Atomic Write)
	// 先写到临时文件再 Rename，要么文件不存在，要么文件是完整的
	tempFile, err := os.CreateTemp(dir, "temp-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.WriteString(storage.Normalize(part)); err != nil {
		tempFile.Close()
		return false, err
	}
	tempFile.Close() // 必须先关闭才能 Rename

	// 3. 移动到最终位置
	if err := os.Rename(tempFile.Name(), targetPath); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Adapter) List(ctx context.Context, session types.SessionID) ([]string, error) {
	if err := storage.ValidateSessionID(session); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.sessionDir(session))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	// 按文件名 (哈希) 排序，保证输出稳定
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !types.Hash(e.Name()).IsValid() {
			continue // 跳过残留的 temp-* 文件
		}
		data, err := os.ReadFile(filepath.Join(s.sessionDir(session), e.Name()))
		if err != nil {
			return nil, err
		}
		parts = append(parts, string(data))
	}
	return parts, nil
}

func (s *Adapter) Delete(ctx context.Context, session types.SessionID) error {
	if err := storage.ValidateSessionID(session); err != nil {
		return err
	}
	dir := s.sessionDir(session)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return storage.ErrNotFound
	}
	return os.RemoveAll(dir)
}
