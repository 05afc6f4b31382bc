package core

// CycleCounter is the free-running up-counter used as the time base
// (DWT CYCCNT on Cortex-M), together with the debug control bits it needs.
// Platform code implements it over raw registers; tests use hwsim.
type CycleCounter interface {
	// EnableTrace sets DEMCR.TRCENA. DWT registers are inaccessible until it is set.
	EnableTrace()

	// Unlock writes the lock access key on cores that gate DWT writes.
	Unlock()

	// HasCycleCounter reports whether the core implements CYCCNT.
	HasCycleCounter() bool

	// EnableCycleCounter starts CYCCNT counting.
	EnableCycleCounter()

	// CycleCount reads CYCCNT.
	CycleCount() uint32

	// SetCycleCount writes CYCCNT.
	SetCycleCount(v uint32)
}

// AlarmTimer is the 24-bit down-counting compare timer (SysTick).
// It raises an interrupt on reaching zero and reloads from its reload
// register. A reload value of zero disables it.
type AlarmTimer interface {
	// SetCoreClockSource clocks the timer from the processor clock.
	SetCoreClockSource()

	// EnableCounter starts the timer.
	EnableCounter()

	// EnableInterrupt and DisableInterrupt gate the exception raised at zero.
	EnableInterrupt()
	DisableInterrupt()

	// SetReload writes the reload register (low 24 bits).
	SetReload(v uint32)

	// ClearCurrent clears the current value register.
	ClearCurrent()
}
