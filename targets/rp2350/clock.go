//go:build rp2350

package main

import (
	"runtime/volatile"
	"unsafe"
)

// Cortex-M33 system control space.
//
// DWT CTRL     @ 0xE0001000 - bit 0 CYCCNTENA, bit 25 NOCYCCNT
// DWT CYCCNT   @ 0xE0001004
// DWT LAR      @ 0xE0001FB0 - RAZ/WI on cores without the software lock
// DCB DEMCR    @ 0xE000EDFC - bit 24 TRCENA
// SysTick CSR  @ 0xE000E010 - bit 0 ENABLE, bit 1 TICKINT, bit 2 CLKSOURCE
// SysTick RVR  @ 0xE000E014 - 24-bit reload
// SysTick CVR  @ 0xE000E018 - any write clears it
const (
	dwtCtrlAddr   = 0xE0001000
	dwtCyccntAddr = 0xE0001004
	dwtLarAddr    = 0xE0001FB0
	demcrAddr     = 0xE000EDFC
	systCsrAddr   = 0xE000E010
	systRvrAddr   = 0xE000E014
	systCvrAddr   = 0xE000E018

	dwtCtrlCyccntena = 1 << 0
	dwtCtrlNocyccnt  = 1 << 25
	dwtLarKey        = 0xC5ACCE55
	demcrTrcena      = 1 << 24

	systCsrEnable    = 1 << 0
	systCsrTickint   = 1 << 1
	systCsrClksource = 1 << 2
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// dwt drives DWT CYCCNT.
type dwt struct{}

func (dwt) EnableTrace()          { reg(demcrAddr).SetBits(demcrTrcena) }
func (dwt) Unlock()               { reg(dwtLarAddr).Set(dwtLarKey) }
func (dwt) HasCycleCounter() bool { return !reg(dwtCtrlAddr).HasBits(dwtCtrlNocyccnt) }
func (dwt) EnableCycleCounter()   { reg(dwtCtrlAddr).SetBits(dwtCtrlCyccntena) }
func (dwt) CycleCount() uint32    { return reg(dwtCyccntAddr).Get() }
func (dwt) SetCycleCount(v uint32) {
	reg(dwtCyccntAddr).Set(v)
}

// systick drives the SysTick alarm.
type systick struct{}

func (systick) SetCoreClockSource() { reg(systCsrAddr).SetBits(systCsrClksource) }
func (systick) EnableCounter()      { reg(systCsrAddr).SetBits(systCsrEnable) }
func (systick) EnableInterrupt()    { reg(systCsrAddr).SetBits(systCsrTickint) }
func (systick) DisableInterrupt()   { reg(systCsrAddr).ClearBits(systCsrTickint) }
func (systick) SetReload(v uint32)  { reg(systRvrAddr).Set(v & 0x00FF_FFFF) }
func (systick) ClearCurrent()       { reg(systCvrAddr).Set(0) }
