package core

// Timer is a pending wakeup in a TimerQueue.
type Timer[F Frequency, T Ticks] struct {
	WakeTime Instant[F, T]
	Handler  func(*Timer[F, T]) uint8
	next     *Timer[F, T]
	queued   bool
}

// Handler results
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// TimerQueue keeps timers sorted by wake time and drives a Monotonic so that
// its alarm always targets the earliest one. It is the minimal consumer of
// the clock: Schedule from task context, OnAlarm from the alarm interrupt.
type TimerQueue[F Frequency, T Ticks] struct {
	mono Monotonic[F, T]
	head *Timer[F, T]
}

func NewTimerQueue[F Frequency, T Ticks](mono Monotonic[F, T]) *TimerQueue[F, T] {
	return &TimerQueue[F, T]{mono: mono}
}

// Schedule adds t. A timer that is already queued is moved to its new
// WakeTime.
func (q *TimerQueue[F, T]) Schedule(t *Timer[F, T]) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	wasHead := q.head == t
	if t.queued {
		q.remove(t)
	}
	q.insert(t)
	if wasHead || q.head == t {
		q.arm()
	}
}

// Cancel removes t and reports whether it was queued.
func (q *TimerQueue[F, T]) Cancel(t *Timer[F, T]) bool {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !t.queued {
		return false
	}
	wasHead := q.head == t
	q.remove(t)
	if wasHead {
		q.arm()
	}
	return true
}

// Len returns the number of queued timers.
func (q *TimerQueue[F, T]) Len() int {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := 0
	for t := q.head; t != nil; t = t.next {
		n++
	}
	return n
}

// OnAlarm is the body of the alarm interrupt handler. It runs due timers,
// then re-arms the alarm for the next one. An early wakeup (a deadline
// beyond the alarm range was clamped) dispatches nothing and re-arms.
func (q *TimerQueue[F, T]) OnAlarm() {
	q.mono.ClearCompareFlag()
	q.mono.OnInterrupt()

	state := disableInterrupts()
	defer restoreInterrupts(state)

	now := q.mono.Now()
	for q.head != nil && !q.head.WakeTime.After(now) {
		t := q.head
		q.remove(t)

		result := t.Handler(t)
		RecordTiming(EvtTimerFire, uint32(now.Ticks()), uint32(t.WakeTime.Ticks()), uint32(result))
		if result == SF_RESCHEDULE {
			q.insert(t)
		}
		now = q.mono.Now()
	}
	q.arm()
}

// insert links t in wake time order; equal wake times keep FIFO order.
func (q *TimerQueue[F, T]) insert(t *Timer[F, T]) {
	t.queued = true
	if q.head == nil || t.WakeTime.Before(q.head.WakeTime) {
		t.next = q.head
		q.head = t
		return
	}
	cur := q.head
	for cur.next != nil && !t.WakeTime.Before(cur.next.WakeTime) {
		cur = cur.next
	}
	t.next = cur.next
	cur.next = t
}

func (q *TimerQueue[F, T]) remove(t *Timer[F, T]) {
	if q.head == t {
		q.head = t.next
	} else {
		for cur := q.head; cur != nil; cur = cur.next {
			if cur.next == t {
				cur.next = t.next
				break
			}
		}
	}
	t.next = nil
	t.queued = false
}

func (q *TimerQueue[F, T]) arm() {
	if q.head == nil {
		if q.mono.DisableInterruptOnEmptyQueue() {
			q.mono.DisableTimer()
		}
		return
	}
	q.mono.SetCompare(q.head.WakeTime)
	q.mono.EnableTimer()
}
