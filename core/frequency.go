package core

import "errors"

// Frequency declares the tick rate of a clock at compile time.
// Implementations are empty struct types whose Hz method returns a constant,
// so the rate travels in the type of every Instant and Duration instead of
// being stored as a runtime field.
type Frequency interface {
	Hz() uint32
}

// Common core clock rates
type (
	MHz1   struct{}
	MHz12  struct{}
	MHz48  struct{}
	MHz64  struct{}
	MHz72  struct{}
	MHz125 struct{}
	MHz150 struct{}
	MHz168 struct{}
	MHz480 struct{}
)

func (MHz1) Hz() uint32   { return 1_000_000 }
func (MHz12) Hz() uint32  { return 12_000_000 }
func (MHz48) Hz() uint32  { return 48_000_000 }
func (MHz64) Hz() uint32  { return 64_000_000 }
func (MHz72) Hz() uint32  { return 72_000_000 }
func (MHz125) Hz() uint32 { return 125_000_000 }
func (MHz150) Hz() uint32 { return 150_000_000 }
func (MHz168) Hz() uint32 { return 168_000_000 }
func (MHz480) Hz() uint32 { return 480_000_000 }

var (
	ErrZeroFrequency     = errors.New("declared clock frequency is zero")
	ErrFrequencyMismatch = errors.New("declared clock frequency does not match system clock")
	ErrNoCycleCounter    = errors.New("cycle counter not implemented by this core")
)

// FrequencyError reports the two rates that failed to match.
type FrequencyError struct {
	Declared uint32
	Measured uint32
}

func (e *FrequencyError) Error() string {
	return ErrFrequencyMismatch.Error() + ": declared " + utoa(e.Declared) +
		" Hz, measured " + utoa(e.Measured) + " Hz"
}

func (e *FrequencyError) Unwrap() error {
	return ErrFrequencyMismatch
}

// HzOf returns the tick rate declared by F.
func HzOf[F Frequency]() uint32 {
	var f F
	return f.Hz()
}

// CheckFrequency compares the rate declared by F against the system clock
// measured at runtime (e.g. machine.CPUFrequency()).
func CheckFrequency[F Frequency](sysclk uint32) error {
	hz := HzOf[F]()
	if hz == 0 {
		return ErrZeroFrequency
	}
	if hz != sysclk {
		return &FrequencyError{Declared: hz, Measured: sysclk}
	}
	return nil
}
