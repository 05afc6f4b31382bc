package core

import (
	"errors"

	"tickless/protocol"
)

// ResponseSender frames and queues an MCU to host message.
type ResponseSender interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

var (
	ErrNoTransport     = errors.New("no transport configured")
	ErrUnknownResponse = errors.New("unknown response")

	globalTransport ResponseSender
)

// SetGlobalTransport sets where command responses are written.
func SetGlobalTransport(t ResponseSender) {
	globalTransport = t
}

// SendResponse encodes a registered response by name.
func SendResponse(name string, args func(output protocol.OutputBuffer)) error {
	if globalTransport == nil {
		return ErrNoTransport
	}
	cmd, ok := globalRegistry.GetCommandByName(name)
	if !ok {
		return ErrUnknownResponse
	}
	globalTransport.SendCommand(cmd.ID, args)
	return nil
}

// InitClockCommands registers the bootstrap and clock commands.
// Klipper's bootstrap dictionary fixes identify_response = 0 and identify = 1,
// so this must run before anything else registers.
func InitClockCommands() {
	RegisterCommand("identify_response", "offset=%u data=%.*s", nil)
	RegisterCommand("identify", "offset=%u count=%c", handleIdentify)

	RegisterCommand("get_clock", "", handleGetClock)
	RegisterCommand("get_uptime", "", handleGetUptime)

	RegisterResponse("clock", "clock=%u")
	RegisterResponse("uptime", "high=%u clock=%u")
}

func handleIdentify(data *[]byte) error {
	offset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	chunk := globalDictionary.GetChunk(offset, uint8(count))
	return SendResponse("identify_response", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQBytes(output, chunk)
	})
}

func handleGetClock(data *[]byte) error {
	clock := GetTime()
	return SendResponse("clock", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, clock)
	})
}

func handleGetUptime(data *[]byte) error {
	uptime := GetUptime()
	return SendResponse("uptime", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(uptime>>32))
		protocol.EncodeVLQUint(output, uint32(uptime))
	})
}
