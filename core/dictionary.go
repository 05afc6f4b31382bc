package core

import (
	"sort"
	"strconv"
	"sync"

	"tickless/tinycompress"
)

// Version is reported in the dictionary.
const Version = "tickless-0.1.0"

// Dictionary is the Klipper data dictionary: constants plus the command and
// response formats. It is served to the host zlib-wrapped, in chunks, by
// identify.
type Dictionary struct {
	mu         sync.RWMutex
	constants  map[string]string
	commandReg *CommandRegistry
	version    string
	cached     []byte // zlib stream
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:  make(map[string]string),
		commandReg: cmdReg,
		version:    Version,
	}
}

// RegisterConstant adds a constant to the global dictionary.
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}

// AddConstant sets a constant and drops the cached encoding.
func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = valueToString(value)
	d.cached = nil
}

// Build encodes and caches the dictionary. Call it after all commands are
// registered; until then Generate encodes on every call.
func (d *Dictionary) Build() {
	data := compress(d.encode())
	d.mu.Lock()
	d.cached = data
	d.mu.Unlock()
}

// Generate returns the dictionary as identify serves it.
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}
	return compress(d.encode())
}

// JSON returns the uncompressed dictionary.
func (d *Dictionary) JSON() []byte {
	return d.encode()
}

func compress(data []byte) []byte {
	return tinycompress.AppendStored(make([]byte, 0, tinycompress.StoredSize(len(data))), data)
}

func (d *Dictionary) encode() []byte {
	// Registry snapshot first: never hold both locks.
	entries := d.commandReg.Snapshot()

	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]byte, 0, 512)
	out = append(out, `{"version":`...)
	out = strconv.AppendQuote(out, d.version)
	out = append(out, `,"config":{`...)
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendQuote(out, name)
		out = append(out, ':')
		out = strconv.AppendQuote(out, d.constants[name])
	}
	out = append(out, `},"commands":{`...)
	out = appendFormats(out, entries, true)
	out = append(out, `},"responses":{`...)
	out = appendFormats(out, entries, false)
	out = append(out, `}}`...)
	return out
}

func appendFormats(out []byte, entries []Command, commands bool) []byte {
	first := true
	for _, cmd := range entries {
		if (cmd.Handler != nil) != commands {
			continue
		}
		if !first {
			out = append(out, ',')
		}
		first = false
		format := cmd.Name
		if cmd.Format != "" {
			format += " " + cmd.Format
		}
		out = strconv.AppendQuote(out, format)
		out = append(out, ':')
		out = strconv.AppendInt(out, int64(cmd.ID), 10)
	}
	return out
}

// GetChunk returns a copy of count bytes starting at offset; empty past the end.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}
