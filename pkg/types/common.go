// pkg/types/common.go
package types

import "fmt"

// Hash 代表内容的唯一标识符 (SHA256 Hex String)
// 用于持久化层对 Part 字符串去重
type Hash string

func (h Hash) String() string { return string(h) }

// 验证 Hash 合法性
func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 } // 简单的长度检查

// Checksum 是包装后消息的 CRC-32 校验值
// 它既是完整性校验，也是 Fountain 混合器的种子之一
type Checksum uint32

// String 以 8 位小写十六进制输出，便于日志和 inspect 展示
func (c Checksum) String() string { return fmt.Sprintf("%08x", uint32(c)) }

// SessionID 标识一次持久化的扫描会话
type SessionID string

func (s SessionID) String() string { return string(s) }
func (s SessionID) IsZero() bool   { return s == "" }
