package fountain

import (
	"fmt"

	"quantusur/pkg/core"
	"quantusur/pkg/types"
)

// Part 是一个 Fountain 分片包
// CBOR 形式为定长数组 [seqNum, seqLen, messageLen, checksum, data]
// 分片长度不单独编码，就是 len(Data)
type Part struct {
	_          struct{}       `cbor:",toarray"`
	SeqNum     uint32         // 从 1 开始，无上界
	SeqLen     int            // 分片数 F
	MessageLen int            // 包装后消息的真实长度
	Checksum   types.Checksum // 包装后消息的 CRC-32
	Data       []byte         // 混合后的数据，长度恒为分片长度
}

// 头部声明的大小上限；解码端按 F 分配混合器的权重表
const (
	MaxMessageLength = 16 << 20
	MaxSeqLen        = 1 << 16
)

// rawPart 没有 MarshalBinary 方法，避免 cbor 库回调自身
type rawPart Part

// Descriptor 是一次会话内所有 Part 必须一致的头部字段
type Descriptor struct {
	SeqLen      int
	MessageLen  int
	Checksum    types.Checksum
	FragmentLen int
}

// Descriptor 提取 Part 的会话描述
func (p *Part) Descriptor() Descriptor {
	return Descriptor{
		SeqLen:      p.SeqLen,
		MessageLen:  p.MessageLen,
		Checksum:    p.Checksum,
		FragmentLen: len(p.Data),
	}
}

// FragmentIndexes 返回这个 Part 混合了哪些分片
func (p *Part) FragmentIndexes() []int {
	return ChooseFragments(p.SeqNum, p.SeqLen, p.Checksum)
}

// IsPure 表示该 Part 直接携带单个原始分片
func (p *Part) IsPure() bool {
	return len(p.FragmentIndexes()) == 1
}

// Validate 做结构一致性检查
func (p *Part) Validate() error {
	switch {
	case p.SeqNum == 0:
		return fmt.Errorf("%w: sequence number must start at 1", ErrInvalidPart)
	case p.SeqLen < 1:
		return fmt.Errorf("%w: sequence count must be positive, got %d", ErrInvalidPart, p.SeqLen)
	case len(p.Data) == 0:
		return fmt.Errorf("%w: empty fragment", ErrInvalidPart)
	case p.MessageLen < 1:
		return fmt.Errorf("%w: message length must be positive, got %d", ErrInvalidPart, p.MessageLen)
	}
	if p.MessageLen > MaxMessageLength {
		return fmt.Errorf("%w: message length %d, limit %d", ErrTooLarge, p.MessageLen, MaxMessageLength)
	}
	if p.SeqLen > MaxSeqLen {
		return fmt.Errorf("%w: sequence count %d, limit %d", ErrTooLarge, p.SeqLen, MaxSeqLen)
	}
	// payloadLength 不得超过 F * fragmentLength
	if p.MessageLen > p.SeqLen*len(p.Data) {
		return fmt.Errorf("%w: message length %d exceeds %d fragments of %d bytes",
			ErrIntegrity, p.MessageLen, p.SeqLen, len(p.Data))
	}
	// F 由消息长度和分片长度唯一确定
	if want := FragmentCount(p.MessageLen, len(p.Data)); p.SeqLen != want {
		return fmt.Errorf("%w: sequence count %d, but %d bytes in %d-byte fragments need %d",
			ErrInvalidPart, p.SeqLen, p.MessageLen, len(p.Data), want)
	}
	return nil
}

// MarshalBinary 序列化为 CBOR 数组
func (p *Part) MarshalBinary() ([]byte, error) {
	return core.Marshal((*rawPart)(p))
}

// ParsePart 解析 CBOR 字节并做结构校验
func ParsePart(data []byte) (*Part, error) {
	p := new(Part)
	if err := core.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPart, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
