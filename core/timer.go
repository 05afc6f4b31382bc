package core

// Firmware-wide time source, installed once at start-up by target code.
var (
	clockNow  func() uint64
	clockFreq uint32
)

// SetClockSource makes m the clock behind GetTime, GetUptime and the
// get_clock/get_uptime commands, and publishes its rate in the dictionary.
func SetClockSource[F Frequency, T Ticks](m Monotonic[F, T]) {
	clockNow = func() uint64 { return uint64(m.Now().Ticks()) }
	clockFreq = HzOf[F]()

	mode := "native"
	if uint64(^T(0)) > 0xFFFF_FFFF {
		mode = "extended"
	}
	RegisterConstant("CLOCK_FREQ", clockFreq)
	RegisterConstant("CLOCK_MODE", mode)
	DebugPrintln("clock: " + utoa(clockFreq) + " Hz, " + mode)
}

// GetTime returns the low 32 bits of the current time in clock ticks.
func GetTime() uint32 {
	return uint32(GetUptime())
}

// GetUptime returns the current time in clock ticks. Native-width clocks
// wrap at 2^32; extended clocks carry the overflow count in the high word.
func GetUptime() uint64 {
	if clockNow == nil {
		return 0
	}
	return clockNow()
}

// TimerFromUS converts microseconds to clock ticks.
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * uint64(clockFreq) / 1_000_000)
}
