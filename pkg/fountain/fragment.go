package fountain

// FragmentLength 计算名义分片长度
// 分片数 F = ceil(messageLen / maxFragmentLen)，分片长度 L = ceil(messageLen / F)
// 这样 L <= maxFragmentLen，并且各分片尽量等长 (与参考实现一致)
func FragmentLength(messageLen, maxFragmentLen int) (int, error) {
	if messageLen <= 0 {
		return 0, ErrEmptyMessage
	}
	if maxFragmentLen <= 0 {
		return 0, ErrInvalidFragmentSize
	}
	count := ceilDiv(messageLen, maxFragmentLen)
	return ceilDiv(messageLen, count), nil
}

// FragmentCount 返回给定分片长度下的分片数量
func FragmentCount(messageLen, fragmentLen int) int {
	return ceilDiv(messageLen, fragmentLen)
}

// Split 将消息切成等长分片，最后一片用 0 补齐
// 返回的分片互不共享底层数组，调用方可以随意修改
func Split(message []byte, fragmentLen int) [][]byte {
	count := FragmentCount(len(message), fragmentLen)
	padded := make([]byte, count*fragmentLen)
	copy(padded, message)

	fragments := make([][]byte, count)
	for i := range fragments {
		fragments[i] = padded[i*fragmentLen : (i+1)*fragmentLen : (i+1)*fragmentLen]
	}
	return fragments
}

// Join 按索引顺序拼接分片，并截断到 messageLen
// 注意：必须按 Header 中的权威长度截断，不能靠剥离尾部 0 (payload 本身可能以 0 结尾)
func Join(fragments [][]byte, messageLen int) []byte {
	var total int
	for _, f := range fragments {
		total += len(f)
	}
	msg := make([]byte, 0, total)
	for _, f := range fragments {
		msg = append(msg, f...)
	}
	if len(msg) > messageLen {
		msg = msg[:messageLen]
	}
	return msg
}

// xorInto 逐字节 dst ^= src (两者等长)
func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
