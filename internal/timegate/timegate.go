// Package timegate decides whether a capsule may be opened and how long
// remains until it can be.
package timegate

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidOpenDate is returned for open dates that match no accepted layout.
var ErrInvalidOpenDate = errors.New("invalid open date")

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Accepted open date layouts, tried in order. Zone-less layouts are read in
// local time, which is what a datetime-local form field submits.
var openDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Countdown is the time remaining until an open date, floored per unit.
type Countdown struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// Unit is one labelled component of a countdown.
type Unit struct {
	Label string
	Value int
}

// Units returns the components in display order.
func (c Countdown) Units() []Unit {
	return []Unit{
		{Label: "days", Value: c.Days},
		{Label: "hours", Value: c.Hours},
		{Label: "minutes", Value: c.Minutes},
		{Label: "seconds", Value: c.Seconds},
	}
}

// Duration reassembles the countdown into a duration.
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Days)*24*time.Hour +
		time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}

// IsOpen reports whether a capsule with the given open instant may be opened.
func IsOpen(now, openAt time.Time, force bool) bool {
	return force || !now.Before(openAt)
}

// Remaining returns the floored countdown to openAt. ok is false once the
// difference is zero or negative.
func Remaining(now, openAt time.Time) (c Countdown, ok bool) {
	ms := openAt.Sub(now).Milliseconds()
	if ms <= 0 {
		return Countdown{}, false
	}
	return Countdown{
		Days:    int(ms / msPerDay),
		Hours:   int((ms / msPerHour) % 24),
		Minutes: int((ms / msPerMinute) % 60),
		Seconds: int((ms / msPerSecond) % 60),
	}, true
}

// ParseOpenDate parses a stored open date.
func ParseOpenDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidOpenDate
	}
	for _, layout := range openDateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidOpenDate
}

// FormatOpenDate renders an instant in the canonical stored form.
func FormatOpenDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
