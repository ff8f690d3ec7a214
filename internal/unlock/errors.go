package unlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
)

var (
	ErrInvalidCode = errors.New("invalid capsule code")
	ErrFetch       = errors.New("could not load capsule")
	ErrThrottled   = errors.New("too many passphrase attempts")
)

// ThrottleError carries how long to wait before the next attempt.
type ThrottleError struct {
	Wait time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("%v: retry in %s", ErrThrottled, roundWait(e.Wait))
}

func (e *ThrottleError) Unwrap() error { return ErrThrottled }

// classifyFetchErr keeps the store sentinels the presentation layer
// distinguishes and folds everything else into ErrFetch.
func classifyFetchErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidCode), errors.Is(err, store.ErrNotFound), errors.Is(err, ErrFetch):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
}

// UserMessage turns an unlock error into the text shown next to the form.
func UserMessage(err error) string {
	var te *ThrottleError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return fmt.Sprintf("Too many attempts. Try again in %s", roundWait(te.Wait))
	case errors.Is(err, ErrInvalidCode):
		return "That capsule code is not valid"
	case errors.Is(err, store.ErrNotFound):
		return "Capsule not found"
	case errors.Is(err, cipher.ErrWrongPassphrase):
		return "Incorrect passphrase"
	case errors.Is(err, timegate.ErrInvalidOpenDate):
		return "This capsule has an unreadable open date"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out loading capsule"
	default:
		return "Could not load capsule"
	}
}

func roundWait(d time.Duration) time.Duration {
	d = d.Round(time.Second)
	if d < time.Second {
		d = time.Second
	}
	return d
}
