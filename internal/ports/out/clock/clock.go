package clock

import "time"

// Clock is the time source for session expiry, token minting and ride timestamps.
// Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}
