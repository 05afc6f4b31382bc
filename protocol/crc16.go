package protocol

import "github.com/sigurn/crc16"

// Klipper's block checksum is CRC-16/MCRF4XX: the reflected CCITT polynomial
// with an 0xFFFF seed and no final xor.
var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// CRC16 returns the checksum over a block's header and payload.
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
