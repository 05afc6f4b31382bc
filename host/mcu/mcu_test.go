package mcu

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tickless/core"
	"tickless/core/hwsim"
	"tickless/protocol"
)

var firmwareOnce sync.Once

// firmware serves the clock commands of a simulated 48 MHz board on one end
// of a pipe. Board state must be set before the host sends anything.
func firmware(t *testing.T) (*MCU, *hwsim.Board) {
	t.Helper()
	board := hwsim.NewBoard()
	clock := core.MustNewDwtSystickExt[core.MHz48](board.DWT, board.SysTick, 48_000_000)
	clock.Reset()
	board.SysTick.Handler = func() {
		clock.ClearCompareFlag()
		clock.OnInterrupt()
	}

	firmwareOnce.Do(func() {
		core.InitClockCommands()
		core.RegisterConstant("MCU", "simulated")
	})
	core.SetClockSource[core.MHz48, uint64](clock)
	core.GetGlobalDictionary().Build()

	hostEnd, mcuEnd := net.Pipe()
	out := protocol.NewScratchOutput()
	tr := protocol.NewTransport(out, core.DispatchCommand)
	core.SetGlobalTransport(tr)

	go func() {
		buf := make([]byte, 64)
		fifo := protocol.NewFifoBuffer(256)
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

	m := New(hostEnd)
	t.Cleanup(func() {
		m.Close()
		mcuEnd.Close()
	})
	return m, board
}

func TestMCU_Identify(t *testing.T) {
	m, _ := firmware(t)
	require.NoError(t, m.Identify())

	dict := m.Dictionary()
	require.Equal(t, core.Version, dict.Version)
	require.Equal(t, "48000000", dict.Config["CLOCK_FREQ"])
	require.Equal(t, "extended", dict.Config["CLOCK_MODE"])
	require.Equal(t, "simulated", dict.Config["MCU"])
	require.Equal(t, 1, dict.Commands["identify offset=%u count=%c"])
	require.Equal(t, 0, dict.Responses["identify_response offset=%u data=%.*s"])
	require.Contains(t, dict.Responses, "uptime high=%u clock=%u")
	require.Equal(t, core.GetGlobalDictionary().JSON(), m.RawDictionary())

	freq, err := m.ClockFreq()
	require.NoError(t, err)
	require.Equal(t, uint32(48_000_000), freq)
}

func TestMCU_QueriesBeforeIdentify(t *testing.T) {
	m, _ := firmware(t)

	_, err := m.GetClock()
	require.ErrorIs(t, err, ErrNotIdentified)
	_, err = m.ClockFreq()
	require.ErrorIs(t, err, ErrNotIdentified)
}

func TestMCU_GetClock(t *testing.T) {
	m, board := firmware(t)
	board.DWT.Set(123_456_789)
	require.NoError(t, m.Identify())

	clock, err := m.GetClock()
	require.NoError(t, err)
	require.Equal(t, uint32(123_456_789), clock)
}

func TestMCU_GetUptimeCarriesOverflows(t *testing.T) {
	m, board := firmware(t)
	board.Advance(1 << 31)
	board.Advance(1<<31 + 77)
	require.NoError(t, m.Identify())

	uptime, err := m.GetUptime()
	require.NoError(t, err)
	require.Equal(t, uint64(1)<<32+77, uptime)
}

func TestMCU_Timeout(t *testing.T) {
	hostEnd, mcuEnd := net.Pipe()
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := mcuEnd.Read(buf); err != nil {
				return
			}
		}
	}()
	m := New(hostEnd)
	m.Timeout = 20 * time.Millisecond
	defer mcuEnd.Close()
	defer m.Close()

	err := m.Identify()
	require.ErrorIs(t, err, protocol.ErrTimeout)
}

func TestInflate_PlainJSON(t *testing.T) {
	out, err := inflate([]byte(`{"version":"x"}`))
	require.NoError(t, err)
	require.Equal(t, `{"version":"x"}`, string(out))

	_, err = inflate([]byte{0x78, 0x00})
	require.Error(t, err)
}

func TestIndexByName(t *testing.T) {
	idx := indexByName(map[string]int{
		"get_clock":                   2,
		"identify offset=%u count=%c": 1,
	})
	require.Equal(t, map[string]uint16{"get_clock": 2, "identify": 1}, idx)
}
