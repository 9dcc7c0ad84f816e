// Package signreq 是 quantus 签名请求的 UR 编解码入口
//
// 负载先包装为 CBOR 字节串，再经 Fountain 编码切成若干 UR 字符串，
// 便于用一组循环播放的二维码传输。解码方向相反，Part 的到达顺序无关。
package signreq

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quantusur/pkg/core"
	"quantusur/pkg/fountain"
	"quantusur/pkg/ur"
)

const (
	DefaultType              = "quantus-sign-request"
	DefaultMaxFragmentLength = 200
	DefaultMaxMessageLength  = 1 << 20

	// MaxExtraParts 限制一次 Encode 额外生成的混合 Part 数
	MaxExtraParts = 1000
)

var (
	// ErrInput 表示调用方给的输入本身不合法 (非法 hex、没有 Part、选项错误)
	ErrInput = errors.New("invalid input")

	ErrMalformedPart      = ur.ErrMalformedPart
	ErrMalformedContainer = core.ErrMalformedContainer
	ErrDescriptorMismatch = fountain.ErrDescriptorMismatch
	ErrIntegrity          = fountain.ErrIntegrity
	ErrChecksumMismatch   = fountain.ErrChecksumMismatch
	ErrIncomplete         = fountain.ErrIncomplete
	ErrTooLarge           = fountain.ErrTooLarge
)

// Options 控制编码行为；解码不依赖这些选项
type Options struct {
	Type              string // UR 类型名
	MaxFragmentLength int    // 单个分片的最大字节数
	Uppercase         bool   // 输出大写，二维码可以用字母数字模式
	ExtraParts        int    // 在 F 个纯分片之后再追加的混合 Part 数，用于有损扫描
	MaxMessageLength  int    // 包装后消息的长度上限，编码和解码都检查；0 表示 DefaultMaxMessageLength
}

func DefaultOptions() Options {
	return Options{
		Type:              DefaultType,
		MaxFragmentLength: DefaultMaxFragmentLength,
		Uppercase:         true,
		MaxMessageLength:  DefaultMaxMessageLength,
	}
}

func (o Options) validate() error {
	switch {
	case !ur.ValidType(o.Type):
		return fmt.Errorf("%w: type %q", ErrInput, o.Type)
	case o.MaxFragmentLength < 1:
		return fmt.Errorf("%w: max fragment length must be positive, got %d", ErrInput, o.MaxFragmentLength)
	case o.ExtraParts < 0 || o.ExtraParts > MaxExtraParts:
		return fmt.Errorf("%w: extra parts must be within [0, %d], got %d", ErrInput, MaxExtraParts, o.ExtraParts)
	case o.MaxMessageLength < 0 || o.MaxMessageLength > fountain.MaxMessageLength:
		return fmt.Errorf("%w: max message length must be within [0, %d], got %d",
			ErrInput, fountain.MaxMessageLength, o.MaxMessageLength)
	}
	return nil
}

func (o Options) messageLimit() int {
	if o.MaxMessageLength == 0 {
		return DefaultMaxMessageLength
	}
	return o.MaxMessageLength
}

// Codec 是无状态的编解码器，可以被多个 goroutine 共享
type Codec struct {
	opts   Options
	logger *slog.Logger
}

// New 校验选项并创建 Codec
func New(opts Options) (*Codec, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Codec{
		opts:   opts,
		logger: slog.Default().With("component", "signreq"),
	}, nil
}

func (c *Codec) Options() Options { return c.opts }

// Encode 把负载编码为有序的 UR 字符串序列
// 单分片消息只产生一个字符串；否则产生 F + ExtraParts 个
func (c *Codec) Encode(ctx context.Context, payload []byte) ([]string, error) {
	wrapped, err := core.Wrap(payload)
	if err != nil {
		return nil, fmt.Errorf("wrap payload: %w", err)
	}
	if limit := c.opts.messageLimit(); len(wrapped) > limit {
		return nil, fmt.Errorf("%w: %w: wrapped payload is %d bytes, limit %d", ErrInput, ErrTooLarge, len(wrapped), limit)
	}

	enc, err := ur.NewEncoder(c.opts.Type, wrapped, c.opts.MaxFragmentLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}

	count := enc.SeqLen()
	if !enc.IsSinglePart() {
		count += c.opts.ExtraParts
	}
	parts, err := enc.Parts(ctx, 1, count)
	if err != nil {
		return nil, err
	}

	if c.opts.Uppercase {
		for i := range parts {
			parts[i] = strings.ToUpper(parts[i])
		}
	}

	c.logger.Debug("encoded payload",
		"payload_len", len(payload),
		"wrapped_len", len(wrapped),
		"checksum", enc.Fountain().Checksum(),
		"fragments", enc.SeqLen(),
		"fragment_len", enc.Fountain().FragmentLen(),
		"parts", len(parts),
	)
	return parts, nil
}

// Decode 从一组 Part 重组负载，顺序和重复都无所谓
// 遇到第一个出错的 Part 即返回；Part 不够时返回 ErrIncomplete
func (c *Codec) Decode(parts []string) ([]byte, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts provided", ErrInput)
	}

	s := c.NewSession()
	for i, part := range parts {
		if err := s.Add(part); err != nil {
			return nil, fmt.Errorf("part %d: %w", i+1, err)
		}
	}
	return s.Result()
}

// EncodeHex 解析十六进制负载 (可带 0x 前缀，大小写不敏感) 后编码
func (c *Codec) EncodeHex(ctx context.Context, hexPayload string) ([]string, error) {
	payload, err := ParseHex(hexPayload)
	if err != nil {
		return nil, err
	}
	return c.Encode(ctx, payload)
}

// DecodeHex 解码并以小写十六进制返回负载
func (c *Codec) DecodeHex(parts []string) (string, error) {
	payload, err := c.Decode(parts)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(payload), nil
}

// ParseHex 把用户输入的十六进制串转成字节
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s = rest
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------
// 包级快捷方式，使用默认选项
// -----------------------------------------------------------------------------

var defaultCodec = &Codec{opts: DefaultOptions(), logger: slog.Default().With("component", "signreq")}

func Encode(ctx context.Context, payload []byte) ([]string, error) {
	return defaultCodec.Encode(ctx, payload)
}

func Decode(parts []string) ([]byte, error) { return defaultCodec.Decode(parts) }

func EncodeHex(ctx context.Context, hexPayload string) ([]string, error) {
	return defaultCodec.EncodeHex(ctx, hexPayload)
}

func DecodeHex(parts []string) (string, error) { return defaultCodec.DecodeHex(parts) }
