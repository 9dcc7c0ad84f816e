// Package qurpc 定义 qur 的 gRPC 接口
//
// 消息是普通的 Go 结构体，线上格式是 CBOR (整数键)，
// 通过 content-subtype "cbor" 注册到 gRPC 的编解码器表里。
package qurpc

// EncodeRequest 的零值字段表示使用服务端配置
type EncodeRequest struct {
	Payload           []byte `cbor:"1,keyasint"`
	Type              string `cbor:"2,keyasint,omitempty"`
	MaxFragmentLength int    `cbor:"3,keyasint,omitempty"`
	ExtraParts        int    `cbor:"4,keyasint,omitempty"`
	Lowercase         bool   `cbor:"5,keyasint,omitempty"`
}

type EncodeResponse struct {
	Parts         []string `cbor:"1,keyasint"`
	FragmentCount int      `cbor:"2,keyasint"`
}

type DecodeRequest struct {
	Parts []string `cbor:"1,keyasint"`
}

type DecodeResponse struct {
	Payload []byte `cbor:"1,keyasint"`
}

type ScanRequest struct {
	Session string   `cbor:"1,keyasint"`
	Parts   []string `cbor:"2,keyasint"`
}

type ScanResponse struct {
	Complete bool    `cbor:"1,keyasint"`
	Progress float64 `cbor:"2,keyasint"`
	Added    int     `cbor:"3,keyasint"`
	Stored   int     `cbor:"4,keyasint"`
	Expected int     `cbor:"5,keyasint"`
	Type     string  `cbor:"6,keyasint,omitempty"`
	Payload  []byte  `cbor:"7,keyasint,omitempty"`
	// Rejected 是被拒绝的 Part 的错误说明，格式 "part N: reason"
	Rejected []string `cbor:"8,keyasint,omitempty"`
	Known    []int    `cbor:"9,keyasint,omitempty"`
}

type ResetRequest struct {
	Session string `cbor:"1,keyasint"`
}

type ResetResponse struct{}
