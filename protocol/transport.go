package protocol

import "sync/atomic"

// CommandHandler runs one decoded command; it consumes its arguments from data.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the MCU end of the link: it validates incoming blocks,
// dispatches their commands in sequence order, ACKs every block and frames
// responses.
type Transport struct {
	synchronized atomic.Bool
	nextSequence atomic.Uint32 // expected host sequence, 0x10-0x1F

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func()
	flushCallback func()
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{output: output, handler: handler}
	t.synchronized.Store(true)
	t.nextSequence.Store(MessageDest)
	return t
}

// SetResetCallback is called when the host restarts its sequence.
func (t *Transport) SetResetCallback(callback func()) { t.resetCallback = callback }

// SetFlushCallback is called right after an ACK is queued so it can be sent
// ahead of anything else.
func (t *Transport) SetFlushCallback(callback func()) { t.flushCallback = callback }

// Receive consumes every complete block in input.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	for len(data) > 0 {
		if !t.synchronized.Load() {
			rest, found := skipToSync(data)
			data = rest
			if found {
				t.synchronized.Store(true)
				t.encodeAck()
			}
			continue
		}
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		msg, n, err := ScanFrame(data)
		if err == ErrFrameShort {
			break
		}
		if err != nil {
			t.synchronized.Store(false)
			continue
		}
		data = data[n:]
		t.handleBlock(msg)
	}
	input.Pop(input.Available() - len(data))
}

func (t *Transport) handleBlock(msg Message) {
	expected := uint8(t.nextSequence.Load())
	if msg.Sequence == MessageDest && expected != MessageDest {
		expected = MessageDest
		t.nextSequence.Store(MessageDest)
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}
	if msg.Sequence == expected {
		t.nextSequence.Store(uint32(NextSequence(expected)))
		t.dispatch(msg.Payload)
	}
	// A block out of sequence still gets an ACK: with the expected
	// sequence it acts as a NAK.
	t.encodeAck()
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.synchronized.Store(false)
		}
	}()
	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			t.synchronized.Store(false)
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(cmdID), &payload); err != nil {
			return
		}
	}
}

func (t *Transport) encodeAck() {
	EncodeFrame(t.output, uint8(t.nextSequence.Load()), nil)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// SendCommand frames a response. Responses carry the current sequence.
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	EncodeFrame(t.output, uint8(t.nextSequence.Load()), func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset returns to the power-on state, e.g. after a USB reconnect.
func (t *Transport) Reset() {
	t.synchronized.Store(true)
	t.nextSequence.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}
