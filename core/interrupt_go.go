//go:build !tinygo

package core

// State is the saved interrupt mask. Off target there are no interrupts;
// the nesting depth is tracked so tests can check critical sections.
type State uintptr

var criticalDepth int

func disableInterrupts() State {
	criticalDepth++
	return State(criticalDepth - 1)
}

func restoreInterrupts(state State) {
	criticalDepth = int(state)
}

// inCriticalSection reports whether interrupts are currently masked.
func inCriticalSection() bool {
	return criticalDepth > 0
}
