package clocksync

import (
	"context"
	"fmt"
	"time"
)

// Source reads the 32-bit MCU clock.
type Source interface {
	GetClock() (uint32, error)
}

// Collect takes n samples from src, one every interval, and adds them to e.
// onSample, if set, sees each sample as it is taken.
func Collect(ctx context.Context, src Source, e *Estimator, n int, interval time.Duration, onSample func(Sample)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		sent := time.Now()
		clock, err := src.GetClock()
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		rtt := time.Since(sent)
		s := e.Add32(sent.Add(rtt/2), clock, rtt)
		if onSample != nil {
			onSample(s)
		}
	}
	return nil
}
