package protocol

import "errors"

var (
	// ErrFrameShort means more bytes are needed before a block can be judged.
	ErrFrameShort = errors.New("incomplete message block")
	// ErrFrameInvalid means the bytes at the cursor are not a valid block;
	// the reader must resynchronize on the next sync byte.
	ErrFrameInvalid = errors.New("invalid message block")
	ErrFrameTooLong = errors.New("message too long")
)

// Message is a decoded block.
type Message struct {
	Sequence uint8
	Payload  []byte
}

// IsAck reports whether the block carries no payload.
func (m *Message) IsAck() bool {
	return len(m.Payload) == 0
}

// ScanFrame decodes the block at the start of data and returns it with the
// number of bytes it occupies. The payload aliases data.
func ScanFrame(data []byte) (Message, int, error) {
	if len(data) < MessageLengthMin {
		return Message{}, 0, ErrFrameShort
	}
	n := int(data[MessagePositionLen])
	if n < MessageLengthMin || n > MessageLengthMax {
		return Message{}, 0, ErrFrameInvalid
	}
	seq := data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Message{}, 0, ErrFrameInvalid
	}
	if len(data) < n {
		return Message{}, 0, ErrFrameShort
	}
	if data[n-MessageTrailerSync] != MessageValueSync {
		return Message{}, 0, ErrFrameInvalid
	}
	crc := uint16(data[n-MessageTrailerCRC])<<8 | uint16(data[n-MessageTrailerCRC+1])
	if crc != CRC16(data[:n-MessageTrailerSize]) {
		return Message{}, 0, ErrFrameInvalid
	}
	return Message{
		Sequence: seq,
		Payload:  data[MessageHeaderSize : n-MessageTrailerSize],
	}, n, nil
}

// EncodeFrame writes one block with sequence seq, filling the payload with
// body.
func EncodeFrame(output OutputBuffer, seq uint8, body func(output OutputBuffer)) {
	start := output.CurPosition()
	output.Output([]byte{0, seq})
	if body != nil {
		body(output)
	}
	output.Update(start, uint8(len(output.DataSince(start))+MessageTrailerSize))
	crc := CRC16(output.DataSince(start))
	output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// skipToSync returns data after the first sync byte, or nil if there is none.
func skipToSync(data []byte) ([]byte, bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}
