package ur

import (
	"fmt"

	"quantusur/pkg/fountain"
)

// Decoder 收集 UR 字符串并重组消息
// 到达顺序无关，重复的 Part 是 no-op；一个 Decoder 只服务一个会话
type Decoder struct {
	// MaxMessageLength 限制 Part 声明的消息长度，0 表示只受 fountain.MaxMessageLength 约束
	MaxMessageLength int

	typ    string
	single []byte
	fd     *fountain.Decoder
}

func NewDecoder() *Decoder {
	return &Decoder{fd: fountain.NewDecoder()}
}

// Receive 喂入一个 UR 字符串
// 会话完成后任何输入都是 no-op，包括无法解析的字符串
func (d *Decoder) Receive(s string) error {
	if d.IsComplete() {
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	if limit := d.MaxMessageLength; limit > 0 {
		if n := parsed.messageLen(); n > limit {
			return fmt.Errorf("%w: %w: message length %d, limit %d", ErrMalformedPart, fountain.ErrTooLarge, n, limit)
		}
	}
	if d.typ != "" && parsed.Type != d.typ {
		return fmt.Errorf("%w: type %q, session has %q", fountain.ErrDescriptorMismatch, parsed.Type, d.typ)
	}

	if parsed.IsSinglePart() {
		// 单分片 UR 不能混进已经开始的多分片会话
		if _, started := d.fd.Descriptor(); started {
			return fmt.Errorf("%w: single-part UR in a multi-part session", fountain.ErrDescriptorMismatch)
		}
		d.typ = parsed.Type
		d.single = parsed.Payload
		return nil
	}

	if err := d.fd.Receive(parsed.Part); err != nil {
		return err
	}
	d.typ = parsed.Type
	return nil
}

// IsComplete 表示消息已经可用
func (d *Decoder) IsComplete() bool {
	return d.single != nil || d.fd.IsComplete()
}

// Type 返回会话的 UR 类型 (还没收到有效 Part 时为空)
func (d *Decoder) Type() string { return d.typ }

// Message 返回重组后的 CBOR 消息
func (d *Decoder) Message() ([]byte, error) {
	if d.single != nil {
		return d.single, nil
	}
	return d.fd.Result()
}

// Fountain 暴露底层的累加器，用于进度展示
func (d *Decoder) Fountain() *fountain.Decoder { return d.fd }

// EstimatedPercentComplete 返回估计进度 [0, 1]
func (d *Decoder) EstimatedPercentComplete() float64 {
	if d.single != nil {
		return 1
	}
	return d.fd.EstimatedPercentComplete()
}
