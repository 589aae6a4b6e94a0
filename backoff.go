package gomessagebus

import "time"

const (
	// DefaultCallbackInterval is the base delay between polls that return no
	// messages
	DefaultCallbackInterval = 60 * time.Second
	// DefaultMaxPollInterval caps the delay between polls
	DefaultMaxPollInterval = 3 * time.Minute

	gotDataInterval     = 100 * time.Millisecond
	idleRecheckInterval = 500 * time.Millisecond

	hiddenMultiplier   = 4
	failuresBeforeSlow = 2
)

// pollDelay computes how long to wait after a poll that returned no messages
// or failed. Repeated failures stretch the base interval by the failure
// count, otherwise a hidden host polls four times less often.
func pollDelay(base, max time.Duration, failures int, hidden bool) time.Duration {
	delay := base
	if failures > failuresBeforeSlow {
		// clamp before multiplying so a huge failure count cannot overflow
		if base > 0 && failures > int(max/base) {
			return max
		}
		delay = base * time.Duration(failures)
	} else if hidden {
		delay = base * hiddenMultiplier
	}
	if delay > max {
		return max
	}
	return delay
}
