package unlock

import (
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits passphrase attempts to a burst refilled at a fixed pace.
type Throttle struct {
	lim *rate.Limiter
	now func() time.Time
}

// NewThrottle allows burst attempts, then one more per every.
func NewThrottle(burst int, every time.Duration) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		lim: rate.NewLimiter(rate.Every(every), burst),
		now: time.Now,
	}
}

// Allow consumes one attempt. When none is available it returns false and
// how long until the next one.
func (t *Throttle) Allow() (bool, time.Duration) {
	if t == nil {
		return true, 0
	}
	now := t.now()
	r := t.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}
