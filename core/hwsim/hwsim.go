// Package hwsim simulates the DWT cycle counter and the SysTick timer so the
// clock can be exercised off target. Both types satisfy the core HAL
// interfaces; Board advances them in lockstep and delivers SysTick
// interrupts at the cycle they would occur on hardware.
package hwsim

// SysTickMask is the width of the SysTick reload and current registers.
const SysTickMask = 0x00FF_FFFF

// DWT is a simulated cycle counter with the DEMCR trace enable bit.
type DWT struct {
	TraceEnabled   bool
	Unlocked       bool
	Enabled        bool
	NoCycleCounter bool

	// OnRead, if set, runs before every CycleCount read.
	OnRead func()

	count uint32
}

func (d *DWT) EnableTrace()           { d.TraceEnabled = true }
func (d *DWT) Unlock()                { d.Unlocked = true }
func (d *DWT) HasCycleCounter() bool  { return !d.NoCycleCounter }
func (d *DWT) EnableCycleCounter()    { d.Enabled = true }
func (d *DWT) SetCycleCount(v uint32) { d.count = v }

func (d *DWT) CycleCount() uint32 {
	if d.OnRead != nil {
		d.OnRead()
	}
	return d.count
}

// Set forces the counter value, as a debugger would.
func (d *DWT) Set(v uint32) {
	d.count = v
}

// Advance counts n cycles if the counter is running. The counter wraps at 2^32.
func (d *DWT) Advance(n uint64) {
	if d.Enabled && d.TraceEnabled {
		d.count += uint32(n)
	}
}

// SysTick is a simulated 24-bit down-counter.
//
// When the current value is zero, the next cycle loads the reload value.
// Counting from 1 to 0 pends the interrupt. A reload of zero stops it.
type SysTick struct {
	CoreClock        bool
	Enabled          bool
	InterruptEnabled bool

	Reload  uint32
	Current uint32

	// Reloads records every value written to the reload register.
	Reloads []uint32

	// Fired counts transitions to zero; Handler runs for each one while the
	// interrupt is enabled.
	Fired   int
	Handler func()
}

func (s *SysTick) SetCoreClockSource() { s.CoreClock = true }
func (s *SysTick) EnableCounter()      { s.Enabled = true }
func (s *SysTick) EnableInterrupt()    { s.InterruptEnabled = true }
func (s *SysTick) DisableInterrupt()   { s.InterruptEnabled = false }
func (s *SysTick) ClearCurrent()       { s.Current = 0 }

func (s *SysTick) SetReload(v uint32) {
	s.Reload = v & SysTickMask
	s.Reloads = append(s.Reloads, s.Reload)
}

// LastReload returns the most recent reload write, or 0 if there was none.
func (s *SysTick) LastReload() uint32 {
	if len(s.Reloads) == 0 {
		return 0
	}
	return s.Reloads[len(s.Reloads)-1]
}

// untilEvent returns the cycles until the next reload or zero crossing,
// or 0 when the timer is idle.
func (s *SysTick) untilEvent() uint64 {
	if !s.Enabled || s.Reload == 0 {
		return 0
	}
	if s.Current == 0 {
		return 1
	}
	return uint64(s.Current)
}

// step advances by n cycles, where n never passes the next event.
func (s *SysTick) step(n uint64) {
	if n == 0 || !s.Enabled || s.Reload == 0 {
		return
	}
	if s.Current == 0 {
		s.Current = s.Reload
		return
	}
	s.Current -= uint32(n)
	if s.Current == 0 {
		s.Fired++
		if s.InterruptEnabled && s.Handler != nil {
			s.Handler()
		}
	}
}

// Board wires a DWT and a SysTick to the same core clock.
type Board struct {
	DWT     *DWT
	SysTick *SysTick
}

func NewBoard() *Board {
	return &Board{DWT: &DWT{}, SysTick: &SysTick{}}
}

// Advance runs the core clock for n cycles, delivering SysTick interrupts
// at the cycle they occur.
func (b *Board) Advance(n uint64) {
	for n > 0 {
		step := b.SysTick.untilEvent()
		if step == 0 || step > n {
			step = n
		}
		b.DWT.Advance(step)
		b.SysTick.step(step)
		n -= step
	}
}
