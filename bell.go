package headlessterm

import "time"

// bellOverloadWindow is how far back in time a bell tick counts toward the
// overload threshold.
const bellOverloadWindow = 2 * time.Second

// bellOverloadThreshold is how many bells within bellOverloadWindow trip
// overload protection, muting further rings until the window clears.
const bellOverloadThreshold = 5

// bellTracker keeps a ring of recent bell timestamps so that a
// pathologically noisy child process (e.g. `yes $'\a'`) can be muted rather
// than flooding the BellProvider.
type bellTracker struct {
	ticks []time.Time
}

// tick records a bell at now and reports whether it should be suppressed
// because too many bells have rung recently.
func (b *bellTracker) tick(now time.Time) (overloaded bool) {
	cutoff := now.Add(-bellOverloadWindow)
	kept := b.ticks[:0]
	for _, ts := range b.ticks {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	b.ticks = append(kept, now)
	return len(b.ticks) > bellOverloadThreshold
}

// reset clears the tracker, as when the terminal is reset (RIS/DECSTR).
func (b *bellTracker) reset() {
	b.ticks = nil
}
