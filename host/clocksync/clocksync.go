// Package clocksync relates MCU clock readings to host time: it unwraps
// 32-bit clock samples and estimates the MCU tick rate by least squares.
package clocksync

import (
	"errors"
	"math"
	"time"
)

var (
	ErrTooFewSamples = errors.New("need at least two samples spread in time")
	ErrNoNominal     = errors.New("nominal frequency unknown")
)

// Sample is one clock reading. Host is the midpoint of the request and
// the response.
type Sample struct {
	Host  time.Time
	Clock uint64
	RTT   time.Duration
}

// Estimator keeps a sliding window of samples.
type Estimator struct {
	nominal uint32
	window  int
	samples []Sample
	last    uint64
	primed  bool
}

// NewEstimator returns an estimator for a clock declared to run at nominal
// Hz, keeping at most window samples (minimum 2).
func NewEstimator(nominal uint32, window int) *Estimator {
	if window < 2 {
		window = 2
	}
	return &Estimator{nominal: nominal, window: window}
}

// Unwrap extends a 32-bit clock reading to 64 bits relative to the last
// one seen. Readings may move backwards by less than 2^31 ticks.
func (e *Estimator) Unwrap(clock uint32) uint64 {
	if !e.primed {
		e.primed = true
		e.last = uint64(clock)
		return e.last
	}
	diff := int64(int32(clock - uint32(e.last)))
	e.last = uint64(int64(e.last) + diff)
	return e.last
}

// Add records a 64-bit clock reading.
func (e *Estimator) Add(s Sample) {
	e.primed = true
	e.last = s.Clock
	e.samples = append(e.samples, s)
	if len(e.samples) > e.window {
		e.samples = e.samples[len(e.samples)-e.window:]
	}
}

// Add32 unwraps clock and records it.
func (e *Estimator) Add32(host time.Time, clock uint32, rtt time.Duration) Sample {
	s := Sample{Host: host, Clock: e.Unwrap(clock), RTT: rtt}
	e.Add(s)
	return s
}

func (e *Estimator) Samples() []Sample {
	return e.samples
}

// Frequency returns the fitted tick rate in Hz.
func (e *Estimator) Frequency() (float64, error) {
	slope, _, err := e.fit()
	return slope, err
}

// PPM returns the deviation of the fitted rate from the nominal one in
// parts per million.
func (e *Estimator) PPM() (float64, error) {
	if e.nominal == 0 {
		return 0, ErrNoNominal
	}
	freq, err := e.Frequency()
	if err != nil {
		return 0, err
	}
	return (freq - float64(e.nominal)) / float64(e.nominal) * 1e6, nil
}

// ClockAt predicts the MCU clock at host time t.
func (e *Estimator) ClockAt(t time.Time) (uint64, error) {
	slope, intercept, err := e.fit()
	if err != nil {
		return 0, err
	}
	base := e.samples[0]
	ticks := intercept + slope*t.Sub(base.Host).Seconds()
	return base.Clock + uint64(math.Round(ticks)), nil
}

// fit regresses clock ticks on host seconds, both relative to the oldest
// sample to keep float precision.
func (e *Estimator) fit() (slope, intercept float64, err error) {
	n := len(e.samples)
	if n < 2 {
		return 0, 0, ErrTooFewSamples
	}
	base := e.samples[0]
	var sumX, sumY float64
	for _, s := range e.samples {
		sumX += s.Host.Sub(base.Host).Seconds()
		sumY += float64(int64(s.Clock - base.Clock))
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var sxx, sxy float64
	for _, s := range e.samples {
		dx := s.Host.Sub(base.Host).Seconds() - meanX
		dy := float64(int64(s.Clock-base.Clock)) - meanY
		sxx += dx * dx
		sxy += dx * dy
	}
	if sxx == 0 {
		return 0, 0, ErrTooFewSamples
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX, nil
}
