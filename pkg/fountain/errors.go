package fountain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage        = errors.New("fountain: message must not be empty")
	ErrInvalidFragmentSize = errors.New("fountain: max fragment length must be positive")
	ErrInvalidPart         = errors.New("fountain: invalid part")
	ErrDescriptorMismatch  = errors.New("fountain: part descriptor does not match session")
	ErrIncomplete          = errors.New("fountain: not enough parts to reconstruct message")

	// ErrTooLarge 是 ErrInvalidPart 的一种：声明的大小超过上限
	ErrTooLarge = fmt.Errorf("%w: size limit exceeded", ErrInvalidPart)

	// ErrIntegrity 覆盖所有"结构完整但数据不可信"的情况
	ErrIntegrity = errors.New("fountain: integrity check failed")
	// ErrChecksumMismatch 是 ErrIntegrity 的一种，errors.Is 两者皆可匹配
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrIntegrity)
)
