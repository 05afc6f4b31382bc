//go:build rp2350

package main

import (
	"machine"

	"tickless/core"
)

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART initializes UART1 on GPIO36 (TX) and GPIO37 (RX) at 115200
// baud and routes core debug output and the timing ring to it.
func InitDebugUART() {
	debugUART = machine.UART1
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO36,
		RX:       machine.GPIO37,
	})
	debugEnabled = err == nil

	core.SetDebugWriter(uartPrintln)
	core.SetDebugEnabled(debugEnabled)
	core.DebugPrintln("=== tickless rp2350 ===")
}

// uartPrintln writes s and CRLF to the debug UART.
func uartPrintln(s string) {
	if !debugEnabled || debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
