// Package mcu talks to a tickless firmware over the Klipper protocol: it
// fetches the data dictionary and queries the MCU clock.
package mcu

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"tickless/host/serial"
	"tickless/protocol"
)

// Bootstrap IDs fixed by the Klipper protocol.
const (
	identifyResponseID = 0
	identifyID         = 1

	// identifyChunk matches the chunk size klippy requests.
	identifyChunk = 40
	// identifyLimit bounds the dictionary size to 40 * 1000 bytes.
	identifyLimit = 1000
)

var (
	ErrNotIdentified   = errors.New("dictionary not retrieved")
	ErrUnknownCommand  = errors.New("command not in dictionary")
	ErrUnknownResponse = errors.New("response not in dictionary")
	ErrNoClockFreq     = errors.New("dictionary has no CLOCK_FREQ")
)

// Dictionary is the parsed MCU data dictionary.
type Dictionary struct {
	Version   string            `json:"version"`
	Config    map[string]string `json:"config"`
	Commands  map[string]int    `json:"commands"`
	Responses map[string]int    `json:"responses"`
}

// MCU is a connection to one microcontroller.
type MCU struct {
	transport *protocol.HostTransport

	// Timeout applies to each ACK and each response wait.
	Timeout time.Duration

	raw        []byte
	dictionary *Dictionary
	commands   map[string]uint16
	responses  map[string]uint16
}

// New runs the protocol over an already open port.
func New(port serial.Port) *MCU {
	return &MCU{
		transport: protocol.NewHostTransport(port),
		Timeout:   time.Second,
	}
}

// Connect opens the serial device described by cfg.
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(port), nil
}

func (m *MCU) Close() error {
	return m.transport.Close()
}

// Identify downloads and parses the data dictionary.
func (m *MCU) Identify() error {
	var buf bytes.Buffer
	for i := 0; i < identifyLimit; i++ {
		offset := uint32(buf.Len())
		chunk, err := m.fetchChunk(offset)
		if err != nil {
			return fmt.Errorf("identify at offset %d: %w", offset, err)
		}
		buf.Write(chunk)
		if len(chunk) < identifyChunk {
			break
		}
	}

	raw, err := inflate(buf.Bytes())
	if err != nil {
		return fmt.Errorf("inflate dictionary: %w", err)
	}
	dict := &Dictionary{}
	if err := json.Unmarshal(raw, dict); err != nil {
		return fmt.Errorf("parse dictionary: %w", err)
	}
	m.raw = raw
	m.dictionary = dict
	m.commands = indexByName(dict.Commands)
	m.responses = indexByName(dict.Responses)
	return nil
}

func (m *MCU) fetchChunk(offset uint32) ([]byte, error) {
	err := m.transport.SendCommand(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, identifyChunk)
	}, m.Timeout)
	if err != nil {
		return nil, err
	}
	args, err := m.await(identifyResponseID)
	if err != nil {
		return nil, err
	}
	got, err := protocol.DecodeVLQUint(&args)
	if err != nil {
		return nil, err
	}
	if got != offset {
		return nil, fmt.Errorf("response offset %d", got)
	}
	return protocol.DecodeVLQBytes(&args)
}

// inflate undoes the zlib wrapping klippy expects; plain JSON passes through.
func inflate(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != 0x78 {
		return data, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// indexByName maps "name arg=%u ..." formats to their first word.
func indexByName(formats map[string]int) map[string]uint16 {
	out := make(map[string]uint16, len(formats))
	for format, id := range formats {
		name, _, _ := strings.Cut(format, " ")
		out[name] = uint16(id)
	}
	return out
}

func (m *MCU) Dictionary() *Dictionary { return m.dictionary }

// RawDictionary returns the dictionary JSON.
func (m *MCU) RawDictionary() []byte { return m.raw }

// ClockFreq returns the CLOCK_FREQ constant.
func (m *MCU) ClockFreq() (uint32, error) {
	if m.dictionary == nil {
		return 0, ErrNotIdentified
	}
	v, ok := m.dictionary.Config["CLOCK_FREQ"]
	if !ok {
		return 0, ErrNoClockFreq
	}
	freq, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("CLOCK_FREQ %q: %w", v, err)
	}
	return uint32(freq), nil
}

// GetClock returns the low 32 bits of the MCU clock.
func (m *MCU) GetClock() (uint32, error) {
	args, err := m.query("get_clock", "clock")
	if err != nil {
		return 0, err
	}
	return protocol.DecodeVLQUint(&args)
}

// GetUptime returns the 64-bit MCU clock.
func (m *MCU) GetUptime() (uint64, error) {
	args, err := m.query("get_uptime", "uptime")
	if err != nil {
		return 0, err
	}
	high, err := protocol.DecodeVLQUint(&args)
	if err != nil {
		return 0, err
	}
	low, err := protocol.DecodeVLQUint(&args)
	if err != nil {
		return 0, err
	}
	return uint64(high)<<32 | uint64(low), nil
}

// query sends an argument-less command and returns the arguments of the
// named response.
func (m *MCU) query(command, response string) ([]byte, error) {
	if m.dictionary == nil {
		return nil, ErrNotIdentified
	}
	cmdID, ok := m.commands[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	respID, ok := m.responses[response]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResponse, response)
	}

	m.transport.Drain()
	if err := m.transport.SendCommand(cmdID, nil, m.Timeout); err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	args, err := m.await(respID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return args, nil
}

// await skips responses until one with id arrives and returns its arguments.
func (m *MCU) await(id uint16) ([]byte, error) {
	deadline := time.Now().Add(m.Timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, protocol.ErrTimeout
		}
		payload, err := m.transport.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		got, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			continue
		}
		if uint16(got) == id {
			return payload, nil
		}
	}
}
