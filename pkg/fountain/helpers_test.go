package fountain

import (
	"slices"
	"testing"

	"quantusur/pkg/xoshiro"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 通用辅助函数 (Helpers)
// -----------------------------------------------------------------------------

// makeMessage 与参考实现的测试工具一致：用字符串播种 Xoshiro，逐字节取 [0, 255]
func makeMessage(seed string, size int) []byte {
	rng := xoshiro.NewFromBytes([]byte(seed))
	msg := make([]byte, size)
	for i := range msg {
		msg[i] = byte(rng.IntRange(0, 255))
	}
	return msg
}

// mustNewEncoder 创建 Encoder，失败直接终止测试
func mustNewEncoder(t *testing.T, message []byte, maxFragmentLen int) *Encoder {
	t.Helper()
	enc, err := NewEncoder(message, maxFragmentLen)
	require.NoError(t, err)
	return enc
}

// mustPart 生成指定序号的 Part
func mustPart(t *testing.T, enc *Encoder, seqNum uint32) *Part {
	t.Helper()
	p, err := enc.Part(seqNum)
	require.NoError(t, err)
	return p
}

// mustParts 生成 [from, to] 闭区间内的 Part
func mustParts(t *testing.T, enc *Encoder, from, to uint32) []*Part {
	t.Helper()
	var parts []*Part
	for seq := from; seq <= to; seq++ {
		parts = append(parts, mustPart(t, enc, seq))
	}
	return parts
}

// feedUntilComplete 依次喂入 Part，返回完成时消耗的 Part 数
func feedUntilComplete(t *testing.T, dec *Decoder, parts []*Part) int {
	t.Helper()
	for i, p := range parts {
		require.NoError(t, dec.Receive(p), "part seq=%d", p.SeqNum)
		if dec.IsComplete() {
			return i + 1
		}
	}
	return len(parts)
}

// sortedIndexes 返回升序排列的索引副本
func sortedIndexes(indexes []int) []int {
	return slices.Sorted(slices.Values(indexes))
}
