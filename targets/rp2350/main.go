//go:build rp2350

// Firmware for the RP2350: a DWT + SysTick clock served to the host over
// USB CDC with the Klipper protocol. Build with -tags clock_extended for
// the 64-bit clock.
package main

import (
	"machine"
	"time"

	"tickless/core"
	"tickless/protocol"
)

// heartbeatUS is the LED toggle period.
const heartbeatUS = 500_000

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	timers    *core.TimerQueue[core.MHz150, ticks]
	heartbeat core.Timer[core.MHz150, ticks]
	led       = machine.LED

	msgerrors                uint32
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	InitUSB()
	InitDebugUART()

	// A panic here means the declared clock does not match the PLL setup.
	mono := newClock(machine.CPUFrequency())
	mono.Reset()
	timers = core.NewTimerQueue(mono)

	core.InitClockCommands()
	core.RegisterConstant("MCU", "rp2350")
	core.SetClockSource(mono)
	core.GetGlobalDictionary().Build()

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	// klippy's serialqueue expects the ACK ahead of any response.
	transport.SetFlushCallback(writeUSB)
	core.SetGlobalTransport(transport)

	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	period := core.DurationFromTicks[core.MHz150](ticks(core.TimerFromUS(heartbeatUS)))
	heartbeat.WakeTime = mono.Now().Add(period)
	heartbeat.Handler = func(t *core.Timer[core.MHz150, ticks]) uint8 {
		led.Set(!led.Get())
		t.WakeTime = t.WakeTime.Add(period)
		return core.SF_RESCHEDULE
	}
	timers.Schedule(&heartbeat)

	go usbReaderLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.DebugPrintln("main loop: recovered panic")
					core.DumpTimingRing()
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			// Work on a snapshot; the reader goroutine keeps appending.
			if data := inputBuffer.Data(); len(data) > 0 {
				in := protocol.NewSliceInputBuffer(data)
				transport.Receive(in)
				inputBuffer.Pop(len(data) - in.Available())
			}
			if len(outputBuffer.Result()) > 0 {
				writeUSB()
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

//export SysTick_Handler
func sysTickHandler() {
	timers.OnAlarm()
}

// usbReaderLoop moves bytes from USB CDC into inputBuffer.
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(time.Millisecond)
				continue
			}

			// First byte after a disconnect starts a fresh session.
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB drains outputBuffer. After repeated failed writes the host is
// assumed gone and pending output is dropped.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
