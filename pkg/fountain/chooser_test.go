package fountain

import (
	"slices"
	"testing"

	"quantusur/pkg/core"
	"quantusur/pkg/types"
	"quantusur/pkg/xoshiro"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 参考实现的测试向量：1024 字节 "Wolf" 消息，最大分片 100 -> F = 11
func TestChooseFragments_ReferenceVector(t *testing.T) {
	message := makeMessage("Wolf", 1024)
	checksum := core.Checksum(message)
	require.Equal(t, types.Checksum(0x2f19f3bb), checksum)

	fragmentLen, err := FragmentLength(len(message), 100)
	require.NoError(t, err)
	seqLen := FragmentCount(len(message), fragmentLen)
	require.Equal(t, 11, seqLen)

	expected := [][]int{
		{0}, {1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}, {10},
		{9},
		{2, 5, 6, 8, 9, 10},
		{8},
		{1, 5},
		{1},
		{0, 2, 4, 5, 8, 10},
		{5},
		{2},
		{2},
		{0, 1, 3, 4, 5, 7, 9, 10},
		{0, 1, 2, 3, 5, 6, 8, 9, 10},
		{0, 2, 4, 5, 7, 8, 9, 10},
		{3, 5},
		{4},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		{0, 1, 3, 4, 5, 6, 7, 9, 10},
		{6},
		{5, 6},
		{7},
	}

	for i, want := range expected {
		seqNum := uint32(i + 1)
		got := slices.Sorted(slices.Values(ChooseFragments(seqNum, seqLen, checksum)))
		assert.Equal(t, want, got, "seqNum %d", seqNum)
	}
}

func TestChooseFragments_PureParts(t *testing.T) {
	for seqLen := 1; seqLen <= 20; seqLen++ {
		for seq := 1; seq <= seqLen; seq++ {
			assert.Equal(t, []int{seq - 1}, ChooseFragments(uint32(seq), seqLen, 0xdeadbeef))
		}
	}
}

func TestChooseFragments_Properties(t *testing.T) {
	checksums := []types.Checksum{0, 1, 0x598c84dc, 0xffffffff}

	for _, checksum := range checksums {
		for seqLen := 1; seqLen <= 24; seqLen++ {
			for seq := uint32(seqLen + 1); seq <= uint32(seqLen+64); seq++ {
				got := ChooseFragments(seq, seqLen, checksum)

				// 度数在 [1, F] 内
				require.NotEmpty(t, got)
				require.LessOrEqual(t, len(got), seqLen)

				// 索引不重复且在范围内
				seen := make(map[int]bool)
				for _, idx := range got {
					require.GreaterOrEqual(t, idx, 0)
					require.Less(t, idx, seqLen)
					require.False(t, seen[idx], "duplicate index %d", idx)
					seen[idx] = true
				}

				// 确定性：两次独立计算完全一致
				require.Equal(t, got, ChooseFragments(seq, seqLen, checksum))
			}
		}
	}
}

func TestChooseFragments_ChecksumIsSeed(t *testing.T) {
	// 同样的 seqNum，不同的 checksum，混合模式应当不同 (至少有一处不同)
	const seqLen = 30
	differs := false
	for seq := uint32(seqLen + 1); seq <= seqLen+50; seq++ {
		a := ChooseFragments(seq, seqLen, 0x11111111)
		b := ChooseFragments(seq, seqLen, 0x22222222)
		if !slices.Equal(a, b) {
			differs = true
			break
		}
	}
	assert.True(t, differs)
}

func TestAliasSampler_Distribution(t *testing.T) {
	weights := []float64{1, 2, 4, 8}
	sampler := newAliasSampler(weights)
	rng := xoshiro.NewFromBytes([]byte("Wolf"))

	const draws = 20000
	counts := make([]int, len(weights))
	for i := 0; i < draws; i++ {
		counts[sampler.next(rng)]++
	}

	// 期望比例 1/15, 2/15, 4/15, 8/15
	for i, w := range weights {
		want := w / 15
		got := float64(counts[i]) / draws
		assert.InDelta(t, want, got, 0.02, "index %d", i)
	}
}

func TestChooseDegree_BiasedLow(t *testing.T) {
	const seqLen = 50
	low := 0
	const samples = 2000
	for seq := uint32(seqLen + 1); seq <= seqLen+samples; seq++ {
		if len(ChooseFragments(seq, seqLen, 0xcafebabe)) <= 3 {
			low++
		}
	}
	// 权重 1/d：d <= 3 的概率约为 (1 + 1/2 + 1/3) / H(50) ≈ 0.41
	assert.Greater(t, float64(low)/samples, 0.3)
}
