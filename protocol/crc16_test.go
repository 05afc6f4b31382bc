package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// klipperCRC16 is the bitwise form of the checksum as written in Klipper's
// firmware, kept here to pin the table-driven implementation to it.
func klipperCRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

func TestCRC16_CheckValue(t *testing.T) {
	require.Equal(t, uint16(0x6F91), CRC16([]byte("123456789")))
	require.Equal(t, uint16(0xFFFF), CRC16(nil))
}

func TestCRC16_MatchesKlipper(t *testing.T) {
	inputs := [][]byte{
		{5, MessageDest},
		{5, 0x1F},
		{0x00},
		{0xFF},
		{0x0A, 0x11, 0x03, 0x81, 0x80, 0x40},
		[]byte("get_uptime"),
	}
	for _, in := range inputs {
		require.Equal(t, klipperCRC16(in), CRC16(in), "input %v", in)
	}
}
