// Package xoshiro 实现 BCR-2020-005 指定的 Xoshiro256** 伪随机数生成器。
//
// 它没有任何全局状态：同样的种子永远产生同样的序列，
// 这是不同语言的 UR 编解码器之间互通的前提。
package xoshiro

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"
)

// twoPow64 = 2^64，用于把 uint64 映射到 [0, 1)
const twoPow64 = 18446744073709551616.0

// Source 是 Xoshiro256** 的状态
type Source struct {
	s [4]uint64
}

// New 使用 32 字节种子初始化 (每 8 字节按大端序构成一个状态字)
func New(seed [32]byte) *Source {
	r := &Source{}
	r.Seed(seed)
	return r
}

// NewFromBytes 先对任意数据做 SHA-256，再用摘要作为种子
func NewFromBytes(data []byte) *Source {
	return New(sha256.Sum256(data))
}

// Seed 重置状态
func (r *Source) Seed(seed [32]byte) {
	for i := range r.s {
		r.s[i] = binary.BigEndian.Uint64(seed[i*8:])
	}
}

// Uint64 返回下一个 64 位输出
func (r *Source) Uint64() uint64 {
	s := &r.s
	result := bits.RotateLeft64(s[1]*5, 7) * 9
	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]

	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)

	return result
}

// Float64 返回 [0, 1) 区间的浮点数
func (r *Source) Float64() float64 {
	return float64(r.Uint64()) / twoPow64
}

// IntRange 返回 [low, high] 闭区间内的整数
// 换算方式必须与参考实现逐位一致：floor(Float64 * (high-low+1)) + low
func (r *Source) IntRange(low, high int) int {
	span := float64(high - low + 1)
	return int(uint64(r.Float64()*span)) + low
}
