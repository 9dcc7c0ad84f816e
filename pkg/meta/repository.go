package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quantusur/pkg/storage"
	"quantusur/pkg/types"
	"quantusur/pkg/ur"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 封装所有对 SQL 数据库的操作，实现 storage.PartStore
type Repository struct {
	db *DB
}

var _ storage.PartStore = (*Repository)(nil)

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// -----------------------------------------------------------------------------
// 1. Part 读写
// -----------------------------------------------------------------------------

// Append 在一个事务里登记会话并写入 Part (幂等写入)
func (r *Repository) Append(ctx context.Context, session types.SessionID, parts ...string) (int, error) {
	if err := storage.ValidateSessionID(session); err != nil {
		return 0, err
	}

	added := 0
	err := r.db.GetConn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 会话不存在就创建
		sess := ScanSession{ID: string(session)}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sess).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		// 2. 逐个写入，(session_id, hash) 冲突则忽略
		for _, p := range parts {
			model := SessionPart{
				SessionID: string(session),
				Hash:      storage.PartKey(p).String(),
				Part:      storage.Normalize(p),
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}, {Name: "hash"}},
				DoNothing: true,
			}).Create(&model)
			if result.Error != nil {
				return fmt.Errorf("failed to insert part: %w", result.Error)
			}
			added += int(result.RowsAffected)
		}

		// 3. 补全会话的类型和描述 (只做一次)
		return r.fillDescriptor(tx, string(session), parts)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// fillDescriptor 用第一个可解析的 Part 填充 Type / Descriptor
func (r *Repository) fillDescriptor(tx *gorm.DB, id string, parts []string) error {
	var sess ScanSession
	if err := tx.Where("id = ?", id).First(&sess).Error; err != nil {
		return err
	}
	if sess.Type != "" {
		return nil
	}

	for _, p := range parts {
		parsed, err := ur.Parse(p)
		if err != nil {
			continue // 存储层不关心 Part 是否合法
		}
		updates := map[string]any{"type": parsed.Type}
		if !parsed.IsSinglePart() {
			desc := parsed.Part.Descriptor()
			raw, err := json.Marshal(descriptorJSON{
				SeqLen:      desc.SeqLen,
				MessageLen:  desc.MessageLen,
				Checksum:    desc.Checksum.String(),
				FragmentLen: desc.FragmentLen,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal descriptor: %w", err)
			}
			updates["descriptor"] = datatypes.JSON(raw)
		}
		return tx.Model(&ScanSession{}).Where("id = ?", id).Updates(updates).Error
	}
	return nil
}

// List 按写入顺序返回会话的全部 Part
func (r *Repository) List(ctx context.Context, session types.SessionID) ([]string, error) {
	if err := storage.ValidateSessionID(session); err != nil {
		return nil, err
	}
	parts := []string{}
	err := r.db.GetConn().WithContext(ctx).
		Model(&SessionPart{}).
		Where("session_id = ?", string(session)).
		Order("id ASC").
		Pluck("part", &parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// Delete 删除会话及其全部 Part
func (r *Repository) Delete(ctx context.Context, session types.SessionID) error {
	if err := storage.ValidateSessionID(session); err != nil {
		return err
	}
	return r.db.GetConn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", string(session)).Delete(&SessionPart{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", string(session)).Delete(&ScanSession{})
		if result.Error != nil {
			return result.Error
		}
		// 关键检查：影响行数为 0 说明会话本来就不存在
		if result.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// -----------------------------------------------------------------------------
// 2. 会话查询
// -----------------------------------------------------------------------------

// GetSession 读取会话元数据
func (r *Repository) GetSession(ctx context.Context, session types.SessionID) (*ScanSession, error) {
	var sess ScanSession
	err := r.db.GetConn().WithContext(ctx).
		Where("id = ?", string(session)).
		First(&sess).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}
