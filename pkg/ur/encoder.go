package ur

import (
	"context"
	"fmt"

	"quantusur/pkg/fountain"
)

// Encoder 把一条 CBOR 消息编码为 UR 字符串序列
type Encoder struct {
	typ string
	fe  *fountain.Encoder
}

// NewEncoder 创建编码器；消息不超过 maxFragmentLen 时走单分片路径
func NewEncoder(typ string, message []byte, maxFragmentLen int) (*Encoder, error) {
	if !ValidType(typ) {
		return nil, fmt.Errorf("ur: invalid type %q", typ)
	}
	fe, err := fountain.NewEncoder(message, maxFragmentLen)
	if err != nil {
		return nil, err
	}
	return &Encoder{typ: typ, fe: fe}, nil
}

func (e *Encoder) Type() string       { return e.typ }
func (e *Encoder) SeqLen() int        { return e.fe.SeqLen() }
func (e *Encoder) IsSinglePart() bool { return e.fe.IsSinglePart() }

// Fountain 暴露底层的 Fountain 编码器 (只读用途，如 inspect)
func (e *Encoder) Fountain() *fountain.Encoder { return e.fe }

// Part 返回第 seqNum 个 UR；单分片消息任何序号都返回同一个字符串
func (e *Encoder) Part(seqNum uint32) (string, error) {
	p, err := e.fe.Part(seqNum)
	if err != nil {
		return "", err
	}
	if e.fe.IsSinglePart() {
		return EncodeSingle(e.typ, p.Data), nil
	}
	return EncodePart(e.typ, p)
}

// NextPart 依次返回 1, 2, 3, ... 号 UR，适合循环播放二维码
func (e *Encoder) NextPart() (string, error) {
	p, err := e.fe.NextPart()
	if err != nil {
		return "", err
	}
	if e.fe.IsSinglePart() {
		return EncodeSingle(e.typ, p.Data), nil
	}
	return EncodePart(e.typ, p)
}

// Parts 并发生成序号 [from, from+count) 的 UR
func (e *Encoder) Parts(ctx context.Context, from uint32, count int) ([]string, error) {
	if e.fe.IsSinglePart() {
		s, err := e.Part(from)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}

	parts, err := e.fe.Parts(ctx, from, count)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		if out[i], err = EncodePart(e.typ, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}
