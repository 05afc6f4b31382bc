// Package protocol implements the Klipper serial framing used to report
// the MCU clock: VLQ-encoded integers inside CRC-checked message blocks.
//
// A block is [len][seq][payload...][crc_hi][crc_lo][0x7E]. The high nibble
// of seq is always 0x10; the low nibble is the sequence number. A block
// with an empty payload is an ACK (or NAK) carrying the next expected
// sequence.
package protocol

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	MessageDest    = 0x10
	MessageSeqMask = 0x0F

	// MessageMax sizes output scratch buffers; several blocks may be queued.
	MessageMax = 512
)

// NextSequence returns the sequence byte following seq.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}
