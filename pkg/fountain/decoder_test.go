package fountain

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. 基本重组
// -----------------------------------------------------------------------------

func TestDecoder_InOrderPureParts(t *testing.T) {
	message := makeMessage("Wolf", 1024)
	enc := mustNewEncoder(t, message, 100)
	dec := NewDecoder()

	used := feedUntilComplete(t, dec, mustParts(t, enc, 1, uint32(enc.SeqLen())))
	assert.Equal(t, enc.SeqLen(), used)
	require.True(t, dec.IsComplete())

	got, err := dec.Result()
	require.NoError(t, err)
	assert.Equal(t, message, got)
	assert.Equal(t, 1.0, dec.EstimatedPercentComplete())
}

func TestDecoder_OrderIndependence(t *testing.T) {
	message := makeMessage("order", 2000)
	enc := mustNewEncoder(t, message, 150)
	parts := mustParts(t, enc, 1, uint32(enc.SeqLen()*3))

	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 20; round++ {
		shuffled := append([]*Part(nil), parts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		dec := NewDecoder()
		feedUntilComplete(t, dec, shuffled)
		require.True(t, dec.IsComplete(), "round %d", round)

		got, err := dec.Result()
		require.NoError(t, err)
		assert.Equal(t, message, got)
	}
}

func TestDecoder_MixedPartsOnly(t *testing.T) {
	// 完全不使用纯分片，只靠 XOR 消元重组
	message := makeMessage("mixed-only", 1024)
	enc := mustNewEncoder(t, message, 100)
	start := uint32(enc.SeqLen() + 1)
	parts := mustParts(t, enc, start, start+200)

	dec := NewDecoder()
	used := feedUntilComplete(t, dec, parts)
	require.True(t, dec.IsComplete())
	t.Logf("decoded %d fragments from %d mixed parts", enc.SeqLen(), used)

	got, err := dec.Result()
	require.NoError(t, err)
	assert.Equal(t, message, got)
}

func TestDecoder_CascadeFromSingleMissingFragment(t *testing.T) {
	message := makeMessage("cascade", 500)
	enc := mustNewEncoder(t, message, 50)
	seqLen := enc.SeqLen()

	// 找一个混合了 0 号分片的 Part
	var mixed *Part
	for seq := uint32(seqLen + 1); mixed == nil; seq++ {
		p := mustPart(t, enc, seq)
		idx := sortedIndexes(p.FragmentIndexes())
		if len(idx) >= 2 && idx[0] == 0 {
			mixed = p
		}
	}

	dec := NewDecoder()
	// 先收到混合分片：它无法立即解开，只能缓存
	require.NoError(t, dec.Receive(mixed))
	assert.Empty(t, dec.ReceivedFragmentIndexes())

	// 再收到除 0 号以外的所有纯分片，0 号必须通过级联消元得到
	for seq := uint32(2); seq <= uint32(seqLen); seq++ {
		require.NoError(t, dec.Receive(mustPart(t, enc, seq)))
	}
	require.True(t, dec.IsComplete())

	got, err := dec.Result()
	require.NoError(t, err)
	assert.Equal(t, message, got)
}

// -----------------------------------------------------------------------------
// 2. 去重与冗余
// -----------------------------------------------------------------------------

func TestDecoder_DuplicatesAreNoOps(t *testing.T) {
	message := makeMessage("dup", 900)
	enc := mustNewEncoder(t, message, 100)
	dec := NewDecoder()

	for seq := uint32(1); seq < uint32(enc.SeqLen()); seq++ {
		p := mustPart(t, enc, seq)
		for i := 0; i < 3; i++ {
			require.NoError(t, dec.Receive(p))
		}
	}
	assert.Equal(t, enc.SeqLen()-1, dec.ProcessedPartsCount())
	assert.False(t, dec.IsComplete())

	require.NoError(t, dec.Receive(mustPart(t, enc, uint32(enc.SeqLen()))))
	require.True(t, dec.IsComplete())

	// 完成之后继续喂也不报错
	require.NoError(t, dec.Receive(mustPart(t, enc, 1)))

	got, err := dec.Result()
	require.NoError(t, err)
	assert.Equal(t, message, got)
}

func TestDecoder_RedundantMixedPartDiscarded(t *testing.T) {
	message := makeMessage("redundant", 600)
	enc := mustNewEncoder(t, message, 100)
	seqLen := enc.SeqLen()

	dec := NewDecoder()
	for seq := uint32(1); seq < uint32(seqLen); seq++ {
		require.NoError(t, dec.Receive(mustPart(t, enc, seq)))
	}

	// 找一个不包含最后一个分片的混合 Part：它的所有分片都已知，不携带新信息
	for seq := uint32(seqLen + 1); ; seq++ {
		p := mustPart(t, enc, seq)
		idx := sortedIndexes(p.FragmentIndexes())
		if idx[len(idx)-1] != seqLen-1 {
			require.NoError(t, dec.Receive(p))
			break
		}
	}
	assert.False(t, dec.IsComplete())
	assert.Len(t, dec.ReceivedFragmentIndexes(), seqLen-1)
}

// -----------------------------------------------------------------------------
// 3. 错误处理
// -----------------------------------------------------------------------------

func TestDecoder_ResultBeforeComplete(t *testing.T) {
	dec := NewDecoder()
	_, err := dec.Result()
	assert.ErrorIs(t, err, ErrIncomplete)

	_, started := dec.Descriptor()
	assert.False(t, started)
	assert.Equal(t, 0.0, dec.EstimatedPercentComplete())
}

func TestDecoder_DescriptorMismatch(t *testing.T) {
	encA := mustNewEncoder(t, makeMessage("message-a", 800), 100)
	encB := mustNewEncoder(t, makeMessage("message-b", 800), 100)

	dec := NewDecoder()
	require.NoError(t, dec.Receive(mustPart(t, encA, 1)))

	// 另一条消息的 Part 被拒绝，但会话继续
	err := dec.Receive(mustPart(t, encB, 2))
	assert.ErrorIs(t, err, ErrDescriptorMismatch)

	for seq := uint32(2); seq <= uint32(encA.SeqLen()); seq++ {
		require.NoError(t, dec.Receive(mustPart(t, encA, seq)))
	}
	require.True(t, dec.IsComplete())
}

func TestDecoder_FragmentLengthMismatch(t *testing.T) {
	enc := mustNewEncoder(t, makeMessage("len", 800), 100)
	dec := NewDecoder()
	require.NoError(t, dec.Receive(mustPart(t, enc, 1)))

	p := mustPart(t, enc, 2)
	p.Data = append(p.Data, 0)
	p.MessageLen = enc.MessageLen()
	assert.ErrorIs(t, dec.Receive(p), ErrDescriptorMismatch)
}

func TestDecoder_ChecksumMismatch(t *testing.T) {
	message := makeMessage("corrupt", 700)
	enc := mustNewEncoder(t, message, 100)

	// 翻转任意一个 bit 都必须被发现
	for _, bit := range []int{0, 7, 13, 8*50 + 3} {
		dec := NewDecoder()
		parts := mustParts(t, enc, 1, uint32(enc.SeqLen()))
		corrupted := bytes.Clone(parts[0].Data)
		corrupted[bit/8] ^= 1 << (bit % 8)
		parts[0].Data = corrupted

		var err error
		for _, p := range parts {
			if err = dec.Receive(p); err != nil {
				break
			}
		}
		assert.ErrorIs(t, err, ErrChecksumMismatch, "bit %d", bit)
		assert.ErrorIs(t, err, ErrIntegrity)
		assert.True(t, dec.IsFailed())
		assert.False(t, dec.IsComplete())

		// 不允许返回任何 payload
		got, err := dec.Result()
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrChecksumMismatch)

		// 会话已终止，后续 Part 都返回同一个错误
		assert.ErrorIs(t, dec.Receive(mustPart(t, enc, 1)), ErrChecksumMismatch)
	}
}

func TestDecoder_InvalidPart(t *testing.T) {
	dec := NewDecoder()
	err := dec.Receive(&Part{SeqNum: 0, SeqLen: 1, MessageLen: 1, Data: []byte{1}})
	assert.ErrorIs(t, err, ErrInvalidPart)

	// 无效 Part 不会确定会话描述
	_, started := dec.Descriptor()
	assert.False(t, started)
}

// -----------------------------------------------------------------------------
// 4. 单分片与进度
// -----------------------------------------------------------------------------

func TestDecoder_SinglePart(t *testing.T) {
	message := []byte{0x43, 0x01, 0x02, 0x03}
	enc := mustNewEncoder(t, message, 200)

	dec := NewDecoder()
	require.NoError(t, dec.Receive(mustPart(t, enc, 1)))
	require.True(t, dec.IsComplete())

	got, err := dec.Result()
	require.NoError(t, err)
	assert.Equal(t, message, got)
}

func TestDecoder_Progress(t *testing.T) {
	enc := mustNewEncoder(t, makeMessage("progress", 1000), 100)
	dec := NewDecoder()

	last := 0.0
	for seq := uint32(1); seq < uint32(enc.SeqLen()); seq++ {
		require.NoError(t, dec.Receive(mustPart(t, enc, seq)))
		p := dec.EstimatedPercentComplete()
		assert.Greater(t, p, last)
		assert.Less(t, p, 1.0)
		last = p

		assert.Equal(t, []int{int(seq) - 1}, dec.LastFragmentIndexes())
	}
	assert.Equal(t, enc.SeqLen(), dec.ExpectedPartCount())
	assert.Len(t, dec.ReceivedFragmentIndexes(), enc.SeqLen()-1)
}
