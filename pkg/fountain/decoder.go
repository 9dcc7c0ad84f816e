package fountain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"quantusur/pkg/core"
)

// mixedPart 是尚未完全解开的 Part
// indexes 始终保持有序，且只包含未知分片
type mixedPart struct {
	indexes []int
	data    []byte
}

// Decoder 是重组累加器 (Reassembly Accumulator)
//
// 状态机只有两个状态：Collecting -> Complete。
// 单个 Decoder 只能被一个 goroutine 使用；不同的 Decoder 之间没有任何共享状态。
type Decoder struct {
	desc    Descriptor
	started bool

	seen  map[uint32]struct{}   // 已处理过的 seqNum (去重)
	known map[int][]byte        // 已解出的分片
	mixed map[string]*mixedPart // 等待消元的混合分片，按索引集合去重
	queue []*mixedPart          // 工作队列

	processed   int
	lastIndexes []int

	result []byte
	err    error
}

// NewDecoder 创建一个空会话
func NewDecoder() *Decoder {
	return &Decoder{
		seen:  make(map[uint32]struct{}),
		known: make(map[int][]byte),
		mixed: make(map[string]*mixedPart),
	}
}

// Receive 喂入一个 Part
//
// 返回值约定：
//   - 重复的 seqNum、不携带新信息的混合分片：nil (no-op)
//   - 头部与会话不一致：ErrDescriptorMismatch，会话不受影响，可以继续喂
//   - 全部分片解出但校验和不符：ErrChecksumMismatch，会话终止
func (d *Decoder) Receive(p *Part) error {
	if d.err != nil {
		return d.err
	}
	if d.result != nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}

	// 1. 第一个 Part 确定会话描述
	desc := p.Descriptor()
	if !d.started {
		d.desc = desc
		d.started = true
	} else if desc != d.desc {
		return fmt.Errorf("%w: got %+v, session has %+v", ErrDescriptorMismatch, desc, d.desc)
	}

	// 2. 完全重复
	if _, dup := d.seen[p.SeqNum]; dup {
		return nil
	}
	d.seen[p.SeqNum] = struct{}{}
	d.processed++

	// 3. 单分片快速路径：不需要混合器
	if d.desc.SeqLen == 1 {
		d.lastIndexes = []int{0}
		d.known[0] = slices.Clone(p.Data)
		return d.finish()
	}

	indexes := p.FragmentIndexes()
	d.lastIndexes = indexes

	mp := &mixedPart{
		indexes: slices.Sorted(slices.Values(indexes)),
		data:    slices.Clone(p.Data),
	}
	d.queue = append(d.queue, mp)
	d.drain()

	if len(d.known) == d.desc.SeqLen {
		return d.finish()
	}
	return nil
}

// drain 处理工作队列，直到没有可以继续消元的 Part
func (d *Decoder) drain() {
	for len(d.queue) > 0 {
		mp := d.queue[len(d.queue)-1]
		d.queue = d.queue[:len(d.queue)-1]

		// 消去所有已知分片
		d.reduceByKnown(mp)

		switch len(mp.indexes) {
		case 0:
			// 没有新信息，丢弃
			continue
		case 1:
			d.learn(mp.indexes[0], mp.data)
		default:
			d.buffer(mp)
		}
	}
}

// learn 记录一个新解出的分片，并把所有引用它的混合分片放回工作队列 (级联消元)
func (d *Decoder) learn(idx int, data []byte) {
	d.known[idx] = data
	for key, other := range d.mixed {
		if _, ok := slices.BinarySearch(other.indexes, idx); ok {
			delete(d.mixed, key)
			d.queue = append(d.queue, other)
		}
	}
}

// buffer 缓存一个至少包含两个未知分片的 Part
// 缓存前后都会和其他混合分片做子集消元：若 A ⊂ B，则 B ^= A
func (d *Decoder) buffer(mp *mixedPart) {
	for _, other := range d.mixed {
		if isStrictSubset(other.indexes, mp.indexes) {
			subtract(mp, other)
		}
	}
	if len(mp.indexes) < 2 {
		d.queue = append(d.queue, mp)
		return
	}

	key := mixedKey(mp.indexes)
	if _, ok := d.mixed[key]; ok {
		return
	}

	for k, other := range d.mixed {
		if isStrictSubset(mp.indexes, other.indexes) {
			delete(d.mixed, k)
			subtract(other, mp)
			d.queue = append(d.queue, other)
		}
	}
	d.mixed[key] = mp
}

func (d *Decoder) reduceByKnown(mp *mixedPart) {
	remaining := mp.indexes[:0]
	for _, idx := range mp.indexes {
		if frag, ok := d.known[idx]; ok {
			xorInto(mp.data, frag)
			continue
		}
		remaining = append(remaining, idx)
	}
	mp.indexes = remaining
}

// finish 在所有分片已知时拼接并校验
func (d *Decoder) finish() error {
	fragments := make([][]byte, d.desc.SeqLen)
	for i := range fragments {
		fragments[i] = d.known[i]
	}
	msg := Join(fragments, d.desc.MessageLen)

	// 释放中间状态
	d.mixed = nil
	d.queue = nil

	if got := core.Checksum(msg); got != d.desc.Checksum {
		d.err = fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, d.desc.Checksum, got)
		return d.err
	}
	d.result = msg
	return nil
}

// IsComplete 表示消息已成功重组并通过校验
func (d *Decoder) IsComplete() bool { return d.result != nil }

// IsFailed 表示会话因完整性错误终止
func (d *Decoder) IsFailed() bool { return d.err != nil }

// Result 返回重组后的 (包装) 消息
func (d *Decoder) Result() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.result == nil {
		return nil, ErrIncomplete
	}
	return d.result, nil
}

// Descriptor 返回会话描述；尚未收到任何 Part 时 ok 为 false
func (d *Decoder) Descriptor() (Descriptor, bool) {
	return d.desc, d.started
}

// ExpectedPartCount 返回分片数 F (未开始时为 0)
func (d *Decoder) ExpectedPartCount() int { return d.desc.SeqLen }

// ProcessedPartsCount 返回处理过的不重复 Part 数
func (d *Decoder) ProcessedPartsCount() int { return d.processed }

// LastFragmentIndexes 返回最近一个 Part 混合的分片索引
func (d *Decoder) LastFragmentIndexes() []int { return slices.Clone(d.lastIndexes) }

// ReceivedFragmentIndexes 返回已解出的分片索引 (升序)
func (d *Decoder) ReceivedFragmentIndexes() []int {
	out := make([]int, 0, len(d.known))
	for idx := range d.known {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

// EstimatedPercentComplete 粗略估计进度
// 经验上大约需要 1.75 * F 个 Part 才能解出消息；完成前最多报告 0.99
func (d *Decoder) EstimatedPercentComplete() float64 {
	if d.IsComplete() {
		return 1
	}
	if d.desc.SeqLen == 0 {
		return 0
	}
	estimated := float64(d.desc.SeqLen) * 1.75
	return min(0.99, float64(d.processed)/estimated)
}

func isStrictSubset(a, b []int) bool {
	if len(a) >= len(b) {
		return false
	}
	for _, idx := range a {
		if _, ok := slices.BinarySearch(b, idx); !ok {
			return false
		}
	}
	return true
}

// subtract 计算 a = a ^ b，要求 b 是 a 的子集
func subtract(a, b *mixedPart) {
	remaining := a.indexes[:0]
	for _, idx := range a.indexes {
		if _, ok := slices.BinarySearch(b.indexes, idx); !ok {
			remaining = append(remaining, idx)
		}
	}
	a.indexes = remaining
	xorInto(a.data, b.data)
}

func mixedKey(indexes []int) string {
	strs := make([]string, len(indexes))
	for i, idx := range indexes {
		strs[i] = strconv.Itoa(idx)
	}
	return strings.Join(strs, "|")
}
