package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVLQ_IntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 31, -32, 95, 96, -33, 127, 128, -128, 1000, -1000,
		1 << 19, 3<<19 - 1, 3 << 19, -(1 << 26), 3<<26 - 1, 3 << 26, 1<<31 - 1, -1 << 31}
	for _, v := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, v)
		data := out.Result()

		got, err := DecodeVLQInt(&data)
		require.NoError(t, err, "value %d", v)
		require.Equal(t, v, got)
		require.Empty(t, data, "value %d left bytes", v)
	}
}

func TestVLQ_EncodedLengths(t *testing.T) {
	tests := []struct {
		v   int32
		len int
	}{
		{0, 1},
		{95, 1},
		{96, 2},
		{-32, 1},
		{-33, 2},
		{3<<12 - 1, 2},
		{3 << 12, 3},
		{3<<26 - 1, 4},
		{3 << 26, 5},
		{-1 << 31, 5},
	}
	for _, tt := range tests {
		require.Len(t, EncodeVLQ(tt.v), tt.len, "value %d", tt.v)
	}
}

func TestVLQ_UintClockValues(t *testing.T) {
	for _, v := range []uint32{0, 0x00FF_FFFF, 0x8000_0000, 0xFFFF_FFFF, 123_456_789} {
		out := NewScratchOutput()
		EncodeVLQUint(out, v)
		data := out.Result()
		got, err := DecodeVLQUint(&data)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVLQ_DecodeErrors(t *testing.T) {
	var empty []byte
	_, err := DecodeVLQInt(&empty)
	require.ErrorIs(t, err, ErrBufferTooSmall)

	truncated := []byte{0x81, 0x80}
	_, err = DecodeVLQInt(&truncated)
	require.ErrorIs(t, err, ErrBufferTooSmall)
	require.Len(t, truncated, 2, "failed decode must not advance")

	overlong := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	_, err = DecodeVLQInt(&overlong)
	require.ErrorIs(t, err, ErrInvalidVLQ)
}

func TestVLQ_Bytes(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQBytes(out, []byte("tick"))
	EncodeVLQUint(out, 7)
	data := out.Result()

	b, err := DecodeVLQBytes(&data)
	require.NoError(t, err)
	require.Equal(t, []byte("tick"), b)

	v, err := DecodeVLQUint(&data)
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)

	short := []byte{5, 'a'}
	_, err = DecodeVLQBytes(&short)
	require.ErrorIs(t, err, ErrBufferTooSmall)
}

// EncodeVLQ is a test helper returning the encoding of v.
func EncodeVLQ(v int32) []byte {
	out := NewScratchOutput()
	EncodeVLQInt(out, v)
	return append([]byte(nil), out.Result()...)
}
