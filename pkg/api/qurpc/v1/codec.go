package qurpc

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName 是 gRPC content-subtype，对应 "application/grpc+cbor"
const CodecName = "cbor"

// RPC 消息比 Part 头部大得多 (一次 Encode 可能返回上千个 Part)，
// 所以不复用 core 里那套严格限制容器大小的解码模式
var (
	rpcEnc, _ = cbor.EncOptions{
		Sort:        cbor.SortCoreDeterministic,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()

	rpcDec, _ = cbor.DecOptions{
		IndefLength:      cbor.IndefLengthForbidden,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels:  8,
		MaxArrayElements: 1 << 20,
	}.DecMode()
)

type cborCodec struct{}

func (cborCodec) Marshal(v any) ([]byte, error) {
	data, err := rpcEnc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("qurpc: marshal %T: %w", v, err)
	}
	return data, nil
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	if err := rpcDec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("qurpc: unmarshal %T: %w", v, err)
	}
	return nil
}

func (cborCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(cborCodec{})
}
