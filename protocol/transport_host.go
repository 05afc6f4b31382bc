package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrTimeout = errors.New("timed out")
	ErrClosed  = errors.New("transport closed")
)

// HostTransport is the host end of the link. A background goroutine reads
// the port and splits blocks into ACKs and responses.
type HostTransport struct {
	port io.ReadWriteCloser

	writeMu sync.Mutex
	seq     uint8

	input     *FifoBuffer
	synced    bool
	acks      chan Message
	responses chan Message

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       MessageDest,
		input:     NewFifoBuffer(1024),
		synced:    true,
		acks:      make(chan Message, 4),
		responses: make(chan Message, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SendCommand writes one command block and waits for its ACK.
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	out := NewScratchOutput()
	EncodeFrame(out, t.seq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
	block := out.Result()
	if len(block) > MessageLengthMax {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLong, len(block), MessageLengthMax)
	}
	if _, err := t.port.Write(block); err != nil {
		return fmt.Errorf("write command %d: %w", cmdID, err)
	}

	want := NextSequence(t.seq)
	deadline := time.After(timeout)
	for {
		select {
		case ack := <-t.acks:
			if ack.Sequence != want {
				// Stale ACK from an earlier exchange.
				continue
			}
			t.seq = want
			return nil
		case <-deadline:
			return fmt.Errorf("ack for command %d: %w after %v", cmdID, ErrTimeout, timeout)
		case <-t.stop:
			return ErrClosed
		}
	}
}

// ReceiveResponse returns the next response block payload.
func (t *HostTransport) ReceiveResponse(timeout time.Duration) ([]byte, error) {
	select {
	case msg := <-t.responses:
		return msg.Payload, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("response: %w after %v", ErrTimeout, timeout)
	case <-t.stop:
		return nil, ErrClosed
	}
}

// Drain discards queued responses.
func (t *HostTransport) Drain() {
	for {
		select {
		case <-t.responses:
		default:
			return
		}
	}
}

func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		err = t.port.Close()
		<-t.done
	})
	return err
}

func (t *HostTransport) readLoop() {
	defer close(t.done)
	buf := make([]byte, 256)
	for {
		select {
		case <-t.stop:
			return
		default:
		}
		n, err := t.port.Read(buf)
		if n > 0 {
			t.input.Write(buf[:n])
			t.process()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) process() {
	data := t.input.Data()
	avail := len(data)
	for len(data) > 0 {
		if !t.synced {
			data, t.synced = skipToSync(data)
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
			t.synced = false
			continue
		}
		data = data[n:]

		msg.Payload = append([]byte(nil), msg.Payload...)
		if msg.IsAck() {
			t.deliver(t.acks, msg)
		} else {
			t.deliver(t.responses, msg)
		}
	}
	t.input.Pop(avail - len(data))
}

// deliver queues msg, dropping the oldest entry when the queue is full.
func (t *HostTransport) deliver(ch chan Message, msg Message) {
	for {
		select {
		case ch <- msg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
