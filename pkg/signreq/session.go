package signreq

import (
	"encoding/hex"
	"log/slog"

	"quantusur/pkg/core"
	"quantusur/pkg/ur"
)

// Session 是一次增量解码会话
// 不是并发安全的：同一个 Session 只能有一个写者
type Session struct {
	dec    *ur.Decoder
	logger *slog.Logger
}

// NewSession 创建一个空会话
func (c *Codec) NewSession() *Session {
	dec := ur.NewDecoder()
	dec.MaxMessageLength = c.opts.messageLimit()
	return &Session{dec: dec, logger: c.logger}
}

// Add 喂入一个 Part 字符串
// 重复的 Part 以及会话完成后的 Part 都是 no-op
func (s *Session) Add(part string) error {
	err := s.dec.Receive(part)
	if err != nil {
		s.logger.Debug("part rejected", "error", err)
		return err
	}
	s.logger.Debug("part accepted",
		"type", s.dec.Type(),
		"indexes", s.dec.Fountain().LastFragmentIndexes(),
		"processed", s.dec.Fountain().ProcessedPartsCount(),
		"progress", s.Progress(),
		"complete", s.IsComplete(),
	)
	return nil
}

func (s *Session) IsComplete() bool { return s.dec.IsComplete() }

// Type 返回会话的 UR 类型名
func (s *Session) Type() string { return s.dec.Type() }

// Progress 是估计的完成度 [0, 1]
func (s *Session) Progress() float64 { return s.dec.EstimatedPercentComplete() }

// ExpectedPartCount 返回分片数 F，单分片或尚未收到 Part 时分别为 1 和 0
func (s *Session) ExpectedPartCount() int {
	if s.dec.IsComplete() && s.dec.Fountain().ExpectedPartCount() == 0 {
		return 1
	}
	return s.dec.Fountain().ExpectedPartCount()
}

// KnownFragments 返回已经解出的分片索引
func (s *Session) KnownFragments() []int {
	if s.dec.IsComplete() && s.dec.Fountain().ExpectedPartCount() == 0 {
		return []int{0}
	}
	return s.dec.Fountain().ReceivedFragmentIndexes()
}

// Result 返回剥掉 CBOR 包装后的负载
func (s *Session) Result() ([]byte, error) {
	message, err := s.dec.Message()
	if err != nil {
		return nil, err
	}
	return core.Unwrap(message)
}

// ResultHex 以小写十六进制返回负载
func (s *Session) ResultHex() (string, error) {
	payload, err := s.Result()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(payload), nil
}
