package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/crc32"

	"quantusur/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// 定义确定性的 CBOR 编码选项
// UR 的各个实现必须对同一消息产生完全相同的字节 (校验和依赖于此)
var encOptions = cbor.EncOptions{
	// 1. 强制 Map Key 排序 (Canonical)
	Sort: cbor.SortCanonical,

	// 2. 禁止不定长编码 (Indefinite Length)
	// 字节串必须在头部声明长度
	IndefLength: cbor.IndefLengthForbidden,

	// 3. nil 切片编码为空容器而不是 null
	// 空 payload 必须包装成 0x40
	NilContainers: cbor.NilContainerAsEmpty,
}

// 全局复用的编码模式
var em, _ = encOptions.EncMode()

// 定义严格的解码选项
var decOptions = cbor.DecOptions{
	// --- 安全性配置 (防 DoS 攻击) ---
	// Part 只是一个 5 元素数组，任何更大的容器都是恶意或损坏的数据
	MaxArrayElements: 16,
	MaxMapPairs:      16,
	MaxNestedLevels:  4,

	// 禁止不定长编码
	IndefLength: cbor.IndefLengthForbidden,

	// 强制检查 Map Key 重复
	DupMapKey: cbor.DupMapKeyEnforcedAPF,

	// 禁止自动解析 Bignum Tag (Tag 2/3)
	BignumTag: cbor.BignumTagForbidden,
}

var dm, _ = decOptions.DecMode()

// Marshal 使用确定性编码模式序列化 v
func Marshal(v any) ([]byte, error) {
	data, err := em.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal object: %w", err)
	}
	return data, nil
}

// Unmarshal 通用的严格解码函数 (供外部使用)
func Unmarshal(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}

// Checksum 计算包装后消息的 CRC-32 (IEEE 多项式，与 BCR-2020-005 一致)
func Checksum(data []byte) types.Checksum {
	return types.Checksum(crc32.ChecksumIEEE(data))
}

// CalculateBlobHash 计算原始数据的 SHA-256 Hash
// 持久化层用它给 Part 字符串做内容寻址去重
func CalculateBlobHash(data []byte) types.Hash {
	hashBytes := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(hashBytes[:]))
}
