//go:build rp2350 && !clock_extended

package main

import "tickless/core"

type ticks = uint32

func newClock(sysclk uint32) core.Monotonic[core.MHz150, ticks] {
	return core.MustNewDwtSystick[core.MHz150](dwt{}, systick{}, sysclk)
}
