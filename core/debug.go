package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent is one entry of the clock's post-mortem ring.
type TimingEvent struct {
	EventType uint8
	Clock     uint32 // low 32 bits of the time base when recorded
	Value1    uint32
	Value2    uint32
}

// Event type codes
const (
	EvtClockReset     = 1 // v1=declared Hz, v2=1 for extended clocks
	EvtCompareSet     = 2 // v1=deadline, v2=reload
	EvtComparePast    = 3 // deadline already passed, reload forced to 1
	EvtCompareClamped = 4 // deadline beyond alarm range, reload = MaxReload
	EvtOverflow       = 5 // v1=new overflow count, v2=previous low word
	EvtTimerFire      = 6 // v1=wake time, v2=handler result
)

const TimingRingSize = 32

var (
	debugPrintln DebugWriter = func(s string) {}
	debugEnabled bool

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables DebugPrintln output.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures an event. It does not allocate and is safe to call
// from the alarm interrupt.
func RecordTiming(eventType uint8, clock, value1, value2 uint32) {
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// GetTimingEvents returns recorded events, oldest first.
func GetTimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(timingRingHead+i)%TimingRingSize]
		if evt.EventType != 0 {
			events = append(events, evt)
		}
	}
	return events
}

func eventName(t uint8) string {
	switch t {
	case EvtClockReset:
		return "CLOCK_RESET"
	case EvtCompareSet:
		return "COMPARE"
	case EvtComparePast:
		return "COMPARE_PAST"
	case EvtCompareClamped:
		return "COMPARE_CLAMP"
	case EvtOverflow:
		return "OVERFLOW"
	case EvtTimerFire:
		return "TIMER_FIRE"
	}
	return "UNKNOWN"
}

// DumpTimingRing writes the ring through the debug writer. Call it after
// stopping time-critical code.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range GetTimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
