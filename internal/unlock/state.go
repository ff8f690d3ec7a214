package unlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
)

// State is one unlock session. It is never persisted.
type State struct {
	Code   string
	Record *models.CapsuleRecord
	Phase  Phase
	Force  bool

	OpenAt        time.Time
	OpenDateValid bool
	Remaining     timegate.Countdown
	HasRemaining  bool

	PassphraseAttempt string
	Revealed          string // set only in Unlocked
	Attempts          int    // failed decrypts

	LastError string
	Err       error
}

// NewState returns the Loading state for code.
func NewState(code string) State {
	return State{Code: code, Phase: Loading}
}

// Ticking reports whether the countdown should be running.
func (s State) Ticking() bool {
	return s.Phase == Locked && s.OpenDateValid
}

// Event moves a State through Reduce.
type Event interface {
	isEvent()
}

type (
	// RecordFetched delivers the store result.
	RecordFetched struct {
		Record *models.CapsuleRecord
		Now    time.Time
	}
	// FetchFailed reports a rejected code or a store failure.
	FetchFailed struct {
		Err error
	}
	// Tick re-evaluates the time gate.
	Tick struct {
		Now time.Time
	}
	// ForceUnlocked bypasses the time gate. It is a debugging affordance.
	ForceUnlocked struct{}
	// PassphraseSubmitted starts a decrypt attempt.
	PassphraseSubmitted struct {
		Candidate string
	}
	// PassphraseThrottled rejects an attempt before decrypting.
	PassphraseThrottled struct {
		Wait time.Duration
	}
	// DecryptFinished reports the outcome of a decrypt attempt.
	DecryptFinished struct {
		Body string
		Err  error
	}
)

func (RecordFetched) isEvent()       {}
func (FetchFailed) isEvent()         {}
func (Tick) isEvent()                {}
func (ForceUnlocked) isEvent()       {}
func (PassphraseSubmitted) isEvent() {}
func (PassphraseThrottled) isEvent() {}
func (DecryptFinished) isEvent()     {}

// Reduce applies ev to s. Events that do not apply to the current phase
// leave s unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case RecordFetched:
		if s.Phase != Loading {
			return s
		}
		if e.Record == nil {
			return s.fail(store.ErrNotFound)
		}
		return s.admit(e.Record, e.Now)
	case FetchFailed:
		if s.Phase != Loading {
			return s
		}
		return s.fail(e.Err)
	case Tick:
		if !s.Ticking() {
			return s
		}
		return s.evaluate(e.Now)
	case ForceUnlocked:
		if s.Phase != Locked {
			return s
		}
		s.Force = true
		s.clearError()
		return s.openUp()
	case PassphraseSubmitted:
		if s.Phase != PasswordRequired {
			return s
		}
		s.PassphraseAttempt = e.Candidate
		s.clearError()
		s.Phase = Decrypting
		return s
	case PassphraseThrottled:
		if s.Phase != PasswordRequired {
			return s
		}
		s.setError(&ThrottleError{Wait: e.Wait})
		return s
	case DecryptFinished:
		if s.Phase != Decrypting {
			return s
		}
		if e.Err != nil {
			s.Phase = PasswordRequired
			s.Attempts++
			err := e.Err
			if !errors.Is(err, cipher.ErrWrongPassphrase) {
				err = fmt.Errorf("%w: %w", cipher.ErrWrongPassphrase, err)
			}
			s.setError(err)
			return s
		}
		s.Phase = Unlocked
		s.Revealed = e.Body
		s.PassphraseAttempt = ""
		s.clearError()
		return s
	}
	return s
}

func (s State) admit(rec *models.CapsuleRecord, now time.Time) State {
	s.Record = rec
	openAt, err := rec.OpenAt()
	if err != nil {
		// An unreadable date never opens on its own.
		s.Phase = Locked
		s.OpenDateValid = false
		s.setError(err)
		return s
	}
	s.OpenAt = openAt
	s.OpenDateValid = true
	return s.evaluate(now)
}

func (s State) evaluate(now time.Time) State {
	if !timegate.IsOpen(now, s.OpenAt, s.Force) {
		s.Phase = Locked
		s.Remaining, s.HasRemaining = timegate.Remaining(now, s.OpenAt)
		return s
	}
	return s.openUp()
}

func (s State) openUp() State {
	s.Remaining = timegate.Countdown{}
	s.HasRemaining = false
	if s.Record.UsePasswordKey {
		s.Phase = PasswordRequired
		return s
	}
	s.Phase = Unlocked
	s.Revealed = s.Record.Message
	return s
}

func (s State) fail(err error) State {
	if err == nil {
		err = ErrFetch
	}
	s.Phase = Failed
	s.setError(classifyFetchErr(err))
	return s
}

func (s *State) setError(err error) {
	s.Err = err
	s.LastError = UserMessage(err)
}

func (s *State) clearError() {
	s.Err = nil
	s.LastError = ""
}
