package meta

import (
	"time"

	"gorm.io/datatypes"
)

// ScanSession 是一次持久化扫描会话的元数据
type ScanSession struct {
	// ID 是调用方给的会话名，例如 "tx-42"
	ID string `gorm:"primaryKey;type:varchar(64)"`

	// Type 是第一个可解析 Part 的 UR 类型名
	Type string `gorm:"type:varchar(100)"`

	// Descriptor: 第一个多分片 Part 的头部投影
	// {"seq_len": 6, "message_len": 1003, "checksum": "6a1d0c2b", "fragment_len": 168}
	// 单分片会话或还没收到可解析的 Part 时为空
	Descriptor datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 强制指定表名
func (ScanSession) TableName() string {
	return "scan_sessions"
}

// SessionPart 是会话里的一个 UR Part
// (SessionID, Hash) 唯一，重复的 Part 在数据库层面就被挡住
type SessionPart struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"uniqueIndex:idx_session_part;type:varchar(64);not null"`
	Hash      string `gorm:"uniqueIndex:idx_session_part;type:char(64);not null"`
	Part      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (SessionPart) TableName() string {
	return "session_parts"
}

// descriptorJSON 是 Descriptor 列的结构
type descriptorJSON struct {
	SeqLen      int    `json:"seq_len"`
	MessageLen  int    `json:"message_len"`
	Checksum    string `json:"checksum"`
	FragmentLen int    `json:"fragment_len"`
}
