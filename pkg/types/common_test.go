package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		input Hash
		want  bool
	}{
		{
			name:  "Valid Hash (64 chars)",
			input: Hash(strings.Repeat("a", 64)),
			want:  true,
		},
		{
			name:  "Too Short",
			input: Hash("abc"),
			want:  false,
		},
		{
			name:  "Empty",
			input: Hash(""),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.IsValid())
		})
	}
}

func TestChecksum_String(t *testing.T) {
	assert.Equal(t, "598c84dc", Checksum(0x598c84dc).String())
	// 高位补零
	assert.Equal(t, "0000000f", Checksum(15).String())
}

func TestSessionID(t *testing.T) {
	var zero SessionID
	assert.True(t, zero.IsZero())
	assert.Equal(t, "scan-1", SessionID("scan-1").String())
}
