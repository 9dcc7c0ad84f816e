package fountain

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"quantusur/pkg/core"
	"quantusur/pkg/types"

	"golang.org/x/sync/errgroup"
)

// Encoder 把一条消息变成无限的 Part 流
// 分片在构造时一次性计算，之后 Part(seqNum) 是纯函数，可以并发调用
type Encoder struct {
	messageLen  int
	checksum    types.Checksum
	fragmentLen int
	fragments   [][]byte

	seqNum uint32 // 仅供 NextPart 使用
}

// NewEncoder 创建编码器
// message 是已经过 CBOR 包装的消息 (长度 >= 1)
func NewEncoder(message []byte, maxFragmentLen int) (*Encoder, error) {
	fragmentLen, err := FragmentLength(len(message), maxFragmentLen)
	if err != nil {
		return nil, err
	}
	if len(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message length %d, limit %d", ErrTooLarge, len(message), MaxMessageLength)
	}
	if n := FragmentCount(len(message), fragmentLen); n > MaxSeqLen {
		return nil, fmt.Errorf("%w: %d fragments of %d bytes, limit %d", ErrTooLarge, n, fragmentLen, MaxSeqLen)
	}
	return &Encoder{
		messageLen:  len(message),
		checksum:    core.Checksum(message),
		fragmentLen: fragmentLen,
		fragments:   Split(message, fragmentLen),
	}, nil
}

func (e *Encoder) SeqLen() int              { return len(e.fragments) }
func (e *Encoder) FragmentLen() int         { return e.fragmentLen }
func (e *Encoder) MessageLen() int          { return e.messageLen }
func (e *Encoder) Checksum() types.Checksum { return e.checksum }
func (e *Encoder) IsSinglePart() bool       { return len(e.fragments) == 1 }

// Descriptor 返回该消息所有 Part 共享的头部
func (e *Encoder) Descriptor() Descriptor {
	return Descriptor{
		SeqLen:      len(e.fragments),
		MessageLen:  e.messageLen,
		Checksum:    e.checksum,
		FragmentLen: e.fragmentLen,
	}
}

// Part 生成序号为 seqNum 的 Part
func (e *Encoder) Part(seqNum uint32) (*Part, error) {
	if seqNum == 0 {
		return nil, fmt.Errorf("%w: sequence number must start at 1", ErrInvalidPart)
	}

	data := make([]byte, e.fragmentLen)
	if e.IsSinglePart() {
		// 单分片快速路径：不需要混合
		copy(data, e.fragments[0])
	} else {
		for _, idx := range ChooseFragments(seqNum, len(e.fragments), e.checksum) {
			xorInto(data, e.fragments[idx])
		}
	}

	return &Part{
		SeqNum:     seqNum,
		SeqLen:     len(e.fragments),
		MessageLen: e.messageLen,
		Checksum:   e.checksum,
		Data:       data,
	}, nil
}

// NextPart 依次生成 1, 2, 3, ... 号 Part
// 前 F 个是纯分片，之后是混合分片；循环播放二维码时一直调用即可
func (e *Encoder) NextPart() (*Part, error) {
	if e.seqNum == math.MaxUint32 {
		return nil, fmt.Errorf("%w: sequence number overflow", ErrInvalidPart)
	}
	e.seqNum++
	return e.Part(e.seqNum)
}

// Parts 并发生成序号 [from, from+count) 的 Part
// 第 k 个 Part 只依赖 (k, F, checksum)，天然可并行；返回结果按序号排列
func (e *Encoder) Parts(ctx context.Context, from uint32, count int) ([]*Part, error) {
	if from == 0 {
		return nil, fmt.Errorf("%w: sequence number must start at 1", ErrInvalidPart)
	}
	if count < 0 || uint64(from)+uint64(count)-1 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: invalid part range %d+%d", ErrInvalidPart, from, count)
	}

	parts := make([]*Part, count)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := e.Part(from + uint32(i))
			if err != nil {
				return err
			}
			parts[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}
