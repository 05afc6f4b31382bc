package protocol

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	cmdEcho  = 2
	respEcho = 3
)

type received struct {
	cmdID uint16
	arg   uint32
}

func newMCU(t *testing.T) (*Transport, *ScratchOutput, *[]received) {
	t.Helper()
	out := NewScratchOutput()
	var got []received
	var tr *Transport
	tr = NewTransport(out, func(cmdID uint16, data *[]byte) error {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		got = append(got, received{cmdID, v})
		tr.SendCommand(respEcho, func(o OutputBuffer) { EncodeVLQUint(o, v+1) })
		return nil
	})
	return tr, out, &got
}

func hostBlock(seq uint8, cmdID uint16, arg uint32) []byte {
	out := NewScratchOutput()
	EncodeFrame(out, seq, func(o OutputBuffer) {
		EncodeVLQUint(o, uint32(cmdID))
		EncodeVLQUint(o, arg)
	})
	return append([]byte(nil), out.Result()...)
}

func scanAll(t *testing.T, data []byte) []Message {
	t.Helper()
	var msgs []Message
	for len(data) > 0 {
		msg, n, err := ScanFrame(data)
		require.NoError(t, err)
		msgs = append(msgs, msg)
		data = data[n:]
	}
	return msgs
}

func TestTransport_DispatchesAndAcks(t *testing.T) {
	tr, out, got := newMCU(t)

	in := NewSliceInputBuffer(hostBlock(0x10, cmdEcho, 41))
	tr.Receive(in)
	require.Zero(t, in.Available())
	require.Equal(t, []received{{cmdEcho, 41}}, *got)

	msgs := scanAll(t, out.Result())
	require.Len(t, msgs, 2)
	require.False(t, msgs[0].IsAck(), "response is queued before the ACK")
	require.True(t, msgs[1].IsAck())
	require.Equal(t, uint8(0x11), msgs[1].Sequence)

	payload := msgs[0].Payload
	id, _ := DecodeVLQUint(&payload)
	v, _ := DecodeVLQUint(&payload)
	require.Equal(t, uint32(respEcho), id)
	require.Equal(t, uint32(42), v)
}

func TestTransport_PartialBlockWaits(t *testing.T) {
	tr, _, got := newMCU(t)
	block := hostBlock(0x10, cmdEcho, 1)

	fifo := NewFifoBuffer(64)
	fifo.Write(block[:4])
	tr.Receive(fifo)
	require.Empty(t, *got)
	require.Equal(t, 4, fifo.Available())

	fifo.Write(block[4:])
	tr.Receive(fifo)
	require.Len(t, *got, 1)
	require.Zero(t, fifo.Available())
}

func TestTransport_OutOfSequenceIsNaked(t *testing.T) {
	tr, out, got := newMCU(t)

	tr.Receive(NewSliceInputBuffer(hostBlock(0x10, cmdEcho, 1)))
	out.Reset()
	tr.Receive(NewSliceInputBuffer(hostBlock(0x15, cmdEcho, 2)))

	require.Len(t, *got, 1)
	msgs := scanAll(t, out.Result())
	require.Len(t, msgs, 1)
	require.Equal(t, uint8(0x11), msgs[0].Sequence, "NAK names the expected sequence")
}

func TestTransport_ResyncAfterGarbage(t *testing.T) {
	tr, _, got := newMCU(t)
	resets := 0
	tr.SetResetCallback(func() { resets++ })

	stream := []byte{0x03, 0x99, 0x01, 0x02, 0x03, MessageValueSync}
	stream = append(stream, hostBlock(0x10, cmdEcho, 7)...)
	tr.Receive(NewSliceInputBuffer(stream))
	require.Equal(t, []received{{cmdEcho, 7}}, *got)

	tr.Receive(NewSliceInputBuffer(hostBlock(0x11, cmdEcho, 8)))
	tr.Receive(NewSliceInputBuffer(hostBlock(0x10, cmdEcho, 9)))
	require.Len(t, *got, 3)
	require.Equal(t, 1, resets, "host restarting at 0x10 resets the link")
}

// pipeMCU serves an MCU transport on one end of a net.Pipe.
func pipeMCU(t *testing.T) net.Conn {
	t.Helper()
	hostEnd, mcuEnd := net.Pipe()
	tr, out, _ := newMCU(t)

	go func() {
		buf := make([]byte, 128)
		fifo := NewFifoBuffer(256)
		for {
			n, err := mcuEnd.Read(buf)
			if err != nil {
				return
			}
			fifo.Write(buf[:n])
			tr.Receive(fifo)
			if res := out.Result(); len(res) > 0 {
				if _, err := mcuEnd.Write(res); err != nil {
					return
				}
				out.Reset()
			}
		}
	}()
	t.Cleanup(func() { mcuEnd.Close() })
	return hostEnd
}

func TestHostTransport_RoundTrip(t *testing.T) {
	host := NewHostTransport(pipeMCU(t))
	defer host.Close()

	for i := uint32(0); i < 20; i++ {
		require.NoError(t, host.SendCommand(cmdEcho, func(o OutputBuffer) {
			EncodeVLQUint(o, i)
		}, time.Second))

		payload, err := host.ReceiveResponse(time.Second)
		require.NoError(t, err)
		id, _ := DecodeVLQUint(&payload)
		v, _ := DecodeVLQUint(&payload)
		require.Equal(t, uint32(respEcho), id)
		require.Equal(t, i+1, v)
	}
}

func TestHostTransport_Timeout(t *testing.T) {
	hostEnd, mcuEnd := net.Pipe()
	defer mcuEnd.Close()
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := mcuEnd.Read(buf); err != nil {
				return
			}
		}
	}()

	host := NewHostTransport(hostEnd)
	defer host.Close()

	err := host.SendCommand(cmdEcho, nil, 20*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	_, err = host.ReceiveResponse(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}
