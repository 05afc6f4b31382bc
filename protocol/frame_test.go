package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeBlock(seq uint8, payload ...byte) []byte {
	out := NewScratchOutput()
	EncodeFrame(out, seq, func(o OutputBuffer) { o.Output(payload) })
	return append([]byte(nil), out.Result()...)
}

func TestEncodeFrame_Layout(t *testing.T) {
	block := encodeBlock(0x11, 0x05, 0x06)
	require.Len(t, block, 7)
	require.Equal(t, byte(7), block[MessagePositionLen])
	require.Equal(t, byte(0x11), block[MessagePositionSeq])
	crc := CRC16(block[:4])
	require.Equal(t, []byte{byte(crc >> 8), byte(crc), MessageValueSync}, block[4:])
}

func TestScanFrame(t *testing.T) {
	block := encodeBlock(0x13, 0x01, 0x02, 0x03)
	stream := append(append([]byte(nil), block...), 0xAA)

	msg, n, err := ScanFrame(stream)
	require.NoError(t, err)
	require.Equal(t, len(block), n)
	require.Equal(t, uint8(0x13), msg.Sequence)
	require.Equal(t, []byte{1, 2, 3}, msg.Payload)
	require.False(t, msg.IsAck())

	ack := encodeBlock(0x14)
	msg, _, err = ScanFrame(ack)
	require.NoError(t, err)
	require.True(t, msg.IsAck())
}

func TestScanFrame_Errors(t *testing.T) {
	block := encodeBlock(0x10, 0x01)

	_, _, err := ScanFrame(block[:3])
	require.ErrorIs(t, err, ErrFrameShort)

	long := encodeBlock(0x10, make([]byte, 20)...)
	_, _, err = ScanFrame(long[:10])
	require.ErrorIs(t, err, ErrFrameShort)

	corrupt := append([]byte(nil), block...)
	corrupt[2] ^= 0xFF
	_, _, err = ScanFrame(corrupt)
	require.ErrorIs(t, err, ErrFrameInvalid)

	badSeq := append([]byte(nil), block...)
	badSeq[MessagePositionSeq] = 0x20
	_, _, err = ScanFrame(badSeq)
	require.ErrorIs(t, err, ErrFrameInvalid)

	badLen := append([]byte(nil), block...)
	badLen[MessagePositionLen] = 2
	_, _, err = ScanFrame(badLen)
	require.ErrorIs(t, err, ErrFrameInvalid)

	noSync := append([]byte(nil), block...)
	noSync[len(noSync)-1] = 0
	_, _, err = ScanFrame(noSync)
	require.ErrorIs(t, err, ErrFrameInvalid)
}

func TestNextSequence(t *testing.T) {
	require.Equal(t, uint8(0x11), NextSequence(0x10))
	require.Equal(t, uint8(0x10), NextSequence(0x1F))
}
