package core

import "time"

// Ticks is the raw representation of a timestamp: 32 bits for the native
// cycle counter width, 64 bits when overflows are tracked in software.
type Ticks interface {
	~uint32 | ~uint64
}

// Instant is a point in time counted in ticks of F since the clock epoch.
//
// Ordering is wrap-aware: a is after b when a-b, computed modulo the width
// of T, is at most half the range. Two instants more than half the range
// apart therefore compare the wrong way round, which for a 32-bit clock is
// the documented limitation of the native mode.
type Instant[F Frequency, T Ticks] struct {
	ticks T
}

// InstantFromTicks wraps a raw tick count.
func InstantFromTicks[F Frequency, T Ticks](ticks T) Instant[F, T] {
	return Instant[F, T]{ticks: ticks}
}

// Ticks returns the raw tick count.
func (i Instant[F, T]) Ticks() T {
	return i.ticks
}

// Compare returns -1, 0 or +1.
func (i Instant[F, T]) Compare(o Instant[F, T]) int {
	if i.ticks == o.ticks {
		return 0
	}
	if i.ticks-o.ticks > ^T(0)/2 {
		return -1
	}
	return 1
}

func (i Instant[F, T]) Before(o Instant[F, T]) bool { return i.Compare(o) < 0 }
func (i Instant[F, T]) After(o Instant[F, T]) bool  { return i.Compare(o) > 0 }
func (i Instant[F, T]) Equal(o Instant[F, T]) bool  { return i.ticks == o.ticks }

// CheckedDurationSince returns the time elapsed from earlier to i.
// ok is false when earlier is after i.
func (i Instant[F, T]) CheckedDurationSince(earlier Instant[F, T]) (d Duration[F, T], ok bool) {
	if i.Compare(earlier) < 0 {
		return Duration[F, T]{}, false
	}
	return Duration[F, T]{ticks: i.ticks - earlier.ticks}, true
}

// Add returns i+d, wrapping at the width of T.
func (i Instant[F, T]) Add(d Duration[F, T]) Instant[F, T] {
	return Instant[F, T]{ticks: i.ticks + d.ticks}
}

// Duration is a span of ticks of F.
type Duration[F Frequency, T Ticks] struct {
	ticks T
}

// DurationFromTicks wraps a raw tick count.
func DurationFromTicks[F Frequency, T Ticks](ticks T) Duration[F, T] {
	return Duration[F, T]{ticks: ticks}
}

// DurationFromStd converts a time.Duration, truncating to whole ticks.
// Negative durations become zero; values that do not fit in T wrap.
func DurationFromStd[F Frequency, T Ticks](d time.Duration) Duration[F, T] {
	if d <= 0 {
		return Duration[F, T]{}
	}
	hz := uint64(HzOf[F]())
	secs := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return Duration[F, T]{ticks: T(secs*hz + rem*hz/uint64(time.Second))}
}

func (d Duration[F, T]) Ticks() T {
	return d.ticks
}

// ToStd converts to a time.Duration, truncating to whole nanoseconds.
func (d Duration[F, T]) ToStd() time.Duration {
	hz := uint64(HzOf[F]())
	if hz == 0 {
		return 0
	}
	t := uint64(d.ticks)
	return time.Duration(t/hz)*time.Second + time.Duration(t%hz*uint64(time.Second)/hz)
}
