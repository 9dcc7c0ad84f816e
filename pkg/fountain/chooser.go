package fountain

import (
	"crypto/sha256"
	"encoding/binary"

	"quantusur/pkg/types"
	"quantusur/pkg/xoshiro"
)

// ChooseFragments 返回第 seqNum 个 Part 需要 XOR 的分片索引集合
//
// 这是整个 UR 协议的互通契约：同样的 (seqNum, seqLen, checksum)
// 在任何实现里都必须得到逐位相同的结果。
//   - seqNum <= seqLen: 纯分片 {seqNum-1}
//   - 否则: 由 SHA-256(seqNum || checksum) 播种的 Xoshiro256** 依次抽取度数和索引
func ChooseFragments(seqNum uint32, seqLen int, checksum types.Checksum) []int {
	if seqLen <= 1 {
		return []int{0}
	}
	if seqNum <= uint32(seqLen) {
		return []int{int(seqNum) - 1}
	}

	var seed [8]byte
	binary.BigEndian.PutUint32(seed[0:4], seqNum)
	binary.BigEndian.PutUint32(seed[4:8], uint32(checksum))
	rng := xoshiro.New(sha256.Sum256(seed[:]))

	degree := chooseDegree(seqLen, rng)

	// Fisher-Yates 式的无放回抽取
	// 参考实现会把整个列表洗完再取前 degree 个，但后续抽取不影响前缀，所以提前结束结果相同
	remaining := make([]int, seqLen)
	for i := range remaining {
		remaining[i] = i
	}
	chosen := make([]int, 0, degree)
	for len(chosen) < degree {
		idx := rng.IntRange(0, len(remaining)-1)
		chosen = append(chosen, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return chosen
}

// chooseDegree 按 1/1, 1/2, ..., 1/seqLen 的权重抽取度数 (偏向低度数)
func chooseDegree(seqLen int, rng *xoshiro.Source) int {
	weights := make([]float64, seqLen)
	for i := range weights {
		weights[i] = 1 / float64(i+1)
	}
	return newAliasSampler(weights).next(rng) + 1
}

// aliasSampler 是 Vose 别名采样器
// 构造顺序 (索引倒序入栈) 必须与参考实现保持一致，否则别名表不同
type aliasSampler struct {
	probs   []float64
	aliases []int
}

func newAliasSampler(weights []float64) *aliasSampler {
	n := len(weights)
	var sum float64
	for _, w := range weights {
		sum += w
	}

	p := make([]float64, n)
	for i, w := range weights {
		p[i] = w * float64(n) / sum
	}

	var small, large []int
	for i := n - 1; i >= 0; i-- {
		if p[i] < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	probs := make([]float64, n)
	aliases := make([]int, n)
	for len(small) > 0 && len(large) > 0 {
		a := small[len(small)-1]
		small = small[:len(small)-1]
		g := large[len(large)-1]
		large = large[:len(large)-1]

		probs[a] = p[a]
		aliases[a] = g
		p[g] += p[a] - 1
		if p[g] < 1 {
			small = append(small, g)
		} else {
			large = append(large, g)
		}
	}
	for _, g := range large {
		probs[g] = 1
	}
	for _, a := range small {
		probs[a] = 1
	}

	return &aliasSampler{probs: probs, aliases: aliases}
}

func (s *aliasSampler) next(rng *xoshiro.Source) int {
	r1 := rng.Float64()
	r2 := rng.Float64()
	i := int(float64(len(s.probs)) * r1)
	if r2 < s.probs[i] {
		return i
	}
	return s.aliases[i]
}
