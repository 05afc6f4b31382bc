package core

// DwtSystick is a native-width clock: timestamps are the raw 32-bit DWT cycle
// count and wrap every 2^32 ticks. Scheduling code comparing instants across
// a wrap sees CheckedDurationSince fail and treats the deadline as passed.
//
// The SysTick alarm is used only while a deadline is pending, so its
// interrupt may be disabled when the timer queue is empty.
type DwtSystick[F Frequency] struct {
	dwt  CycleCounter
	syst AlarmTimer
}

var _ Monotonic[MHz72, uint32] = (*DwtSystick[MHz72])(nil)

// NewDwtSystick validates F against the measured system clock, checks that
// the core has a cycle counter and zeroes it. Counting starts at Reset.
func NewDwtSystick[F Frequency](dwt CycleCounter, syst AlarmTimer, sysclk uint32) (*DwtSystick[F], error) {
	if err := checkHardware[F](dwt, sysclk); err != nil {
		return nil, err
	}
	return &DwtSystick[F]{dwt: dwt, syst: syst}, nil
}

// MustNewDwtSystick is NewDwtSystick for firmware start-up, where a clock
// with the wrong scaling must not run at all.
func MustNewDwtSystick[F Frequency](dwt CycleCounter, syst AlarmTimer, sysclk uint32) *DwtSystick[F] {
	m, err := NewDwtSystick[F](dwt, syst, sysclk)
	if err != nil {
		panic(err.Error())
	}
	return m
}

func (m *DwtSystick[F]) Reset() {
	startCounters(m.dwt, m.syst)
	RecordTiming(EvtClockReset, 0, HzOf[F](), 0)
}

func (m *DwtSystick[F]) Now() Instant[F, uint32] {
	return InstantFromTicks[F](m.dwt.CycleCount())
}

func (m *DwtSystick[F]) Zero() Instant[F, uint32] {
	return Instant[F, uint32]{}
}

func (m *DwtSystick[F]) SetCompare(deadline Instant[F, uint32]) {
	programAlarm(m.syst, m.Now(), deadline)
}

// ClearCompareFlag is a no-op: SysTick clears its flag when the handler runs.
func (m *DwtSystick[F]) ClearCompareFlag() {}

func (m *DwtSystick[F]) OnInterrupt() {}

func (m *DwtSystick[F]) EnableTimer() {
	m.syst.EnableInterrupt()
}

func (m *DwtSystick[F]) DisableTimer() {
	m.syst.DisableInterrupt()
}

func (m *DwtSystick[F]) DisableInterruptOnEmptyQueue() bool {
	return true
}
