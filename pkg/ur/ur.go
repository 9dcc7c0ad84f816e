// Package ur 实现 BCR-2020-005 Uniform Resources 的字符串语法
//
//	ur:<type>/<bytewords>                 单分片
//	ur:<type>/<seq>-<count>/<bytewords>   多分片 (Fountain Part 的 CBOR)
//
// bytewords 一律使用 Minimal 风格。
package ur

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"quantusur/pkg/bytewords"
	"quantusur/pkg/fountain"
)

const scheme = "ur:"

var ErrMalformedPart = errors.New("ur: malformed part")

// ValidType 检查类型名是否只包含小写字母、数字和连字符
func ValidType(typ string) bool {
	if typ == "" {
		return false
	}
	for _, c := range typ {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// EncodeSingle 生成单分片 UR
func EncodeSingle(typ string, message []byte) string {
	return scheme + typ + "/" + bytewords.Encode(bytewords.Minimal, message)
}

// EncodePart 生成多分片 UR
func EncodePart(typ string, p *fountain.Part) (string, error) {
	body, err := p.MarshalBinary()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s/%d-%d/%s", scheme, typ, p.SeqNum, p.SeqLen, bytewords.Encode(bytewords.Minimal, body)), nil
}

// Parsed 是一个解析后的 UR 字符串
type Parsed struct {
	Type    string
	Payload []byte         // bytewords 解码后的原始字节
	Part    *fountain.Part // 多分片时非空
}

// IsSinglePart 表示没有 seq-count 路径段
func (p *Parsed) IsSinglePart() bool { return p.Part == nil }

// messageLen 返回 (包装后) 消息的声明长度
func (p *Parsed) messageLen() int {
	if p.Part != nil {
		return p.Part.MessageLen
	}
	return len(p.Payload)
}

// Parse 解析一个 UR 字符串 (大小写不敏感)
func Parse(s string) (*Parsed, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	rest, ok := strings.CutPrefix(s, scheme)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedPart, scheme)
	}

	comps := strings.Split(rest, "/")
	if len(comps) < 2 || len(comps) > 3 {
		return nil, fmt.Errorf("%w: expected 2 or 3 path components, got %d", ErrMalformedPart, len(comps))
	}

	typ := comps[0]
	if !ValidType(typ) {
		return nil, fmt.Errorf("%w: invalid type %q", ErrMalformedPart, typ)
	}

	payload, err := bytewords.Decode(bytewords.Minimal, comps[len(comps)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPart, err)
	}

	parsed := &Parsed{Type: typ, Payload: payload}
	if len(comps) == 2 {
		return parsed, nil
	}

	seqNum, seqLen, err := parseSequence(comps[1])
	if err != nil {
		return nil, err
	}

	part, err := fountain.ParsePart(payload)
	if err != nil {
		if errors.Is(err, fountain.ErrIntegrity) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedPart, err)
	}
	// 路径中的 seq-count 必须与 CBOR 头部一致
	if part.SeqNum != seqNum || part.SeqLen != seqLen {
		return nil, fmt.Errorf("%w: path says %d-%d but header says %d-%d",
			ErrMalformedPart, seqNum, seqLen, part.SeqNum, part.SeqLen)
	}
	parsed.Part = part
	return parsed, nil
}

func parseSequence(s string) (uint32, int, error) {
	seqStr, lenStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: invalid sequence component %q", ErrMalformedPart, s)
	}
	seqNum, err := strconv.ParseUint(seqStr, 10, 32)
	if err != nil || seqNum == 0 {
		return 0, 0, fmt.Errorf("%w: invalid sequence number %q", ErrMalformedPart, seqStr)
	}
	seqLen, err := strconv.ParseUint(lenStr, 10, 31)
	if err != nil || seqLen == 0 {
		return 0, 0, fmt.Errorf("%w: invalid sequence count %q", ErrMalformedPart, lenStr)
	}
	return uint32(seqNum), int(seqLen), nil
}
