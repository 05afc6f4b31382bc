package core

// MaxReload is the largest value the 24-bit alarm reload register holds.
const MaxReload = 0x00FF_FFFF

// Monotonic is the clock surface a timer queue drives: a time base plus a
// single-shot alarm. T is uint32 for native-width clocks and uint64 for
// clocks that extend the counter in software.
type Monotonic[F Frequency, T Ticks] interface {
	// Reset starts the counters and establishes the epoch.
	Reset()

	// Now returns the current time.
	Now() Instant[F, T]

	// Zero returns the epoch.
	Zero() Instant[F, T]

	// SetCompare arranges for the alarm interrupt to fire at or before
	// deadline. Deadlines beyond the alarm range fire early; the caller
	// re-arms after checking the time.
	SetCompare(deadline Instant[F, T])

	// ClearCompareFlag is the first call made by the alarm interrupt handler.
	ClearCompareFlag()

	// OnInterrupt is called by the interrupt handler after ClearCompareFlag.
	OnInterrupt()

	// EnableTimer and DisableTimer gate the alarm interrupt.
	EnableTimer()
	DisableTimer()

	// DisableInterruptOnEmptyQueue reports whether the alarm interrupt may
	// be disabled while no deadline is pending.
	DisableInterruptOnEmptyQueue() bool
}

// reloadFor converts an absolute deadline into an alarm reload value in
// [1, MaxReload]. Past deadlines give 1 so the alarm fires on the next tick
// instead of being disabled by a zero reload.
func reloadFor[F Frequency, T Ticks](now, deadline Instant[F, T]) uint32 {
	d, ok := deadline.CheckedDurationSince(now)
	if !ok {
		return 1
	}
	ticks := uint64(d.Ticks())
	switch {
	case ticks == 0:
		return 1
	case ticks > MaxReload:
		return MaxReload
	}
	return uint32(ticks)
}

// programAlarm writes the reload for deadline and restarts the down-counter
// so the new value takes effect without a spurious interrupt.
func programAlarm[F Frequency, T Ticks](syst AlarmTimer, now, deadline Instant[F, T]) uint32 {
	reload := reloadFor(now, deadline)
	syst.SetReload(reload)
	syst.ClearCurrent()

	clock := uint32(now.Ticks())
	switch {
	case !deadline.After(now):
		RecordTiming(EvtComparePast, clock, uint32(deadline.Ticks()), reload)
	case reload == MaxReload:
		RecordTiming(EvtCompareClamped, clock, uint32(deadline.Ticks()), reload)
	default:
		RecordTiming(EvtCompareSet, clock, uint32(deadline.Ticks()), reload)
	}
	return reload
}

// checkHardware validates the declared frequency and the cycle counter,
// then zeroes the counter without starting it.
func checkHardware[F Frequency](dwt CycleCounter, sysclk uint32) error {
	if err := CheckFrequency[F](sysclk); err != nil {
		return err
	}
	dwt.EnableTrace()
	if !dwt.HasCycleCounter() {
		return ErrNoCycleCounter
	}
	dwt.SetCycleCount(0)
	return nil
}

// startCounters runs the privileged start sequence shared by both clocks.
func startCounters(dwt CycleCounter, syst AlarmTimer) {
	dwt.EnableTrace()
	dwt.Unlock()
	dwt.SetCycleCount(0)
	dwt.EnableCycleCounter()

	syst.SetCoreClockSource()
	syst.EnableCounter()
}
