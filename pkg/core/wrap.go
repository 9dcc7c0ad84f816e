package core

import (
	"errors"
	"fmt"
)

var ErrMalformedContainer = errors.New("malformed container: top-level CBOR item is not a byte string")

// cborMajorBytes 是 CBOR 字节串的 Major Type (2)
const cborMajorBytes = 2

// Wrap 将原始 payload 包装为单个 CBOR 字节串 (Major Type 2)
// 包装后的长度决定了分片数量
func Wrap(payload []byte) ([]byte, error) {
	if payload == nil {
		payload = []byte{}
	}
	return Marshal(payload)
}

// Unwrap 剥离 CBOR 包装，返回原始 payload
// 顶层不是定长字节串、或者尾部有多余数据，都视为 ErrMalformedContainer
func Unwrap(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedContainer)
	}
	// 1. 先看 Major Type，避免把文本串 / 数组等"宽松地"转换成字节
	if major := data[0] >> 5; major != cborMajorBytes {
		return nil, fmt.Errorf("%w: got major type %d", ErrMalformedContainer, major)
	}

	// 2. 严格解码 (拒绝不定长、拒绝尾随数据)
	var payload []byte
	if err := dm.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, nil
}
