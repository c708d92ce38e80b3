package domain

import "github.com/jonboulle/clockwork"

// now stamps finalized summaries.
var now = clockwork.NewRealClock().Now

// SetClock makes summaries read time from c. Pass nil for the wall clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	now = c.Now
}
