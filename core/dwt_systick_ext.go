package core

// DwtSystickExt widens the 32-bit cycle counter to 64 bits by counting
// overflows in software.
//
// An overflow is detected when a read is numerically smaller than the
// previous one, so Now must run at least once per 2^32 ticks. The alarm
// guarantees this: ClearCompareFlag reloads it with MaxReload (2^24 ticks,
// well inside one counter period) and OnInterrupt calls Now, so the
// interrupt keeps firing even with an empty timer queue. Missing two or more
// overflows between reads undercounts by a multiple of 2^32.
type DwtSystickExt[F Frequency] struct {
	dwt  CycleCounter
	syst AlarmTimer

	// last is the most recent timestamp: overflow count in the high word,
	// raw counter in the low word. Accessed only with interrupts disabled.
	last uint64
}

var _ Monotonic[MHz72, uint64] = (*DwtSystickExt[MHz72])(nil)

// NewDwtSystickExt validates F against the measured system clock, checks that
// the core has a cycle counter and zeroes it. Counting starts at Reset.
func NewDwtSystickExt[F Frequency](dwt CycleCounter, syst AlarmTimer, sysclk uint32) (*DwtSystickExt[F], error) {
	if err := checkHardware[F](dwt, sysclk); err != nil {
		return nil, err
	}
	return &DwtSystickExt[F]{dwt: dwt, syst: syst}, nil
}

// MustNewDwtSystickExt panics where NewDwtSystickExt returns an error.
func MustNewDwtSystickExt[F Frequency](dwt CycleCounter, syst AlarmTimer, sysclk uint32) *DwtSystickExt[F] {
	m, err := NewDwtSystickExt[F](dwt, syst, sysclk)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// Reset starts the counters and, unlike the native clock, arms the alarm at
// its full range with the interrupt enabled: overflow tracking needs the
// periodic wakeup from the start, whether or not a deadline is pending.
func (m *DwtSystickExt[F]) Reset() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	startCounters(m.dwt, m.syst)
	m.last = 0
	m.syst.SetReload(MaxReload)
	m.syst.ClearCurrent()
	m.syst.EnableInterrupt()
	RecordTiming(EvtClockReset, 0, HzOf[F](), 1)
}

func (m *DwtSystickExt[F]) Now() Instant[F, uint64] {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	high := uint32(m.last >> 32)
	low := uint32(m.last)
	now := m.dwt.CycleCount()
	if now < low {
		high++
		RecordTiming(EvtOverflow, now, high, low)
	}
	m.last = uint64(high)<<32 | uint64(now)
	return InstantFromTicks[F](m.last)
}

func (m *DwtSystickExt[F]) Zero() Instant[F, uint64] {
	return Instant[F, uint64]{}
}

func (m *DwtSystickExt[F]) SetCompare(deadline Instant[F, uint64]) {
	programAlarm(m.syst, m.Now(), deadline)
}

// ClearCompareFlag re-arms the alarm at its full range so that overflow
// tracking keeps running if nothing calls SetCompare before the next period.
func (m *DwtSystickExt[F]) ClearCompareFlag() {
	m.syst.SetReload(MaxReload)
}

// OnInterrupt samples the counter so overflows are seen even when no
// deadline is due.
func (m *DwtSystickExt[F]) OnInterrupt() {
	m.Now()
}

func (m *DwtSystickExt[F]) EnableTimer() {
	m.syst.EnableInterrupt()
}

// DisableTimer leaves the interrupt enabled: overflow tracking depends on it.
func (m *DwtSystickExt[F]) DisableTimer() {}

func (m *DwtSystickExt[F]) DisableInterruptOnEmptyQueue() bool {
	return false
}
