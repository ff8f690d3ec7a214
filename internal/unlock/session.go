package unlock

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/countdown"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/charmbracelet/log"
)

// Session drives one unlock from code entry to reveal. Transitions go
// through Reduce; Session adds the fetch, the countdown ticker, the decrypt
// delay and throttling.
type Session struct {
	store        store.CapsuleRecordStore
	now          func() time.Time
	tickInterval time.Duration
	decryptDelay time.Duration
	fetchTimeout time.Duration
	throttle     *Throttle
	observer     func(State)
	haptic       func()
	logger       *log.Logger

	mu      sync.Mutex
	state   State
	ticker  *countdown.Ticker
	started bool
	closed  bool

	notifyMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickInterval = d }
}

// WithDecryptDelay sets the minimum time spent in Decrypting.
func WithDecryptDelay(d time.Duration) Option {
	return func(s *Session) { s.decryptDelay = d }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Session) { s.fetchTimeout = d }
}

// WithThrottle limits passphrase attempts. nil disables throttling.
func WithThrottle(t *Throttle) Option {
	return func(s *Session) { s.throttle = t }
}

// WithObserver is called with every state the session enters, in order.
// fn must not call back into the Session.
func WithObserver(fn func(State)) Option {
	return func(s *Session) { s.observer = fn }
}

// WithHaptic is called after each rejected passphrase.
func WithHaptic(fn func()) Option {
	return func(s *Session) { s.haptic = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession returns an idle session reading from st.
func NewSession(st store.CapsuleRecordStore, opts ...Option) *Session {
	s := &Session{
		store:        st,
		now:          time.Now,
		tickInterval: config.TickInterval,
		decryptDelay: config.DecryptDelay,
		fetchTimeout: config.FetchTimeout,
		throttle:     NewThrottle(config.MaxPassphraseAttempts, config.PassphraseCooldown),
		logger:       log.New(io.Discard),
		state:        NewState(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start validates code, fetches the record and settles into Locked,
// PasswordRequired, Unlocked or Failed. A Locked capsule with a readable
// open date starts the countdown ticker. Only the first call has effect.
func (s *Session) Start(ctx context.Context, code string) State {
	s.mu.Lock()
	if s.started || s.closed {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.started = true
	s.state = NewState(code)
	initial := s.state
	s.mu.Unlock()
	s.notify(initial)

	id, err := ValidateCode(code)
	if err != nil {
		return s.dispatch(FetchFailed{Err: err})
	}
	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	rec, err := s.store.GetByID(fctx, id)
	if err != nil {
		s.logger.Debug("capsule fetch failed", "code", id, "err", err)
		return s.dispatch(FetchFailed{Err: err})
	}
	st := s.dispatch(RecordFetched{Record: rec, Now: s.now()})
	s.logger.Debug("capsule fetched", "code", id, "phase", st.Phase)
	if st.Ticking() {
		s.startTicker()
	}
	return st
}

func (s *Session) startTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.ticker != nil || !s.state.Ticking() {
		return
	}
	s.ticker = countdown.Start(s.tickInterval, func(time.Time) bool {
		return s.dispatch(Tick{Now: s.now()}).Ticking()
	})
}

// stopTicker must not be called from the tick callback.
func (s *Session) stopTicker() {
	s.mu.Lock()
	t := s.ticker
	s.ticker = nil
	s.mu.Unlock()
	t.Stop()
}

// ForceUnlock opens a Locked capsule regardless of its open date.
func (s *Session) ForceUnlock() State {
	if s.State().Phase != Locked {
		return s.State()
	}
	s.stopTicker()
	st := s.dispatch(ForceUnlocked{})
	s.logger.Warn("capsule force-unlocked", "code", st.Code)
	return st
}

// SubmitPassphrase tries candidate against the sealed message. It is a no-op
// unless the session is waiting for a passphrase, so only one attempt runs at
// a time. The decrypt result is held until the decrypt delay has passed or
// ctx is done.
func (s *Session) SubmitPassphrase(ctx context.Context, candidate string) State {
	st, submitted := s.beginAttempt(candidate)
	if !submitted {
		return st
	}

	started := s.now()
	body, err := cipher.Decrypt(st.Record.Message, candidate)
	if wait := s.decryptDelay - s.now().Sub(started); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if err != nil {
		s.logger.Debug("passphrase rejected", "code", st.Code, "attempts", st.Attempts+1)
		if s.haptic != nil {
			s.haptic()
		}
	}
	return s.dispatch(DecryptFinished{Body: body, Err: err})
}

// beginAttempt checks the phase and takes a throttle token under one lock, so
// a submission that loses the race to another never spends a token.
func (s *Session) beginAttempt(candidate string) (State, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	if prev.Phase != PasswordRequired {
		s.mu.Unlock()
		return prev, false
	}
	var ev Event = PassphraseSubmitted{Candidate: candidate}
	ok, wait := s.throttle.Allow()
	if !ok {
		ev = PassphraseThrottled{Wait: wait}
	}
	next := Reduce(prev, ev)
	s.state = next
	s.mu.Unlock()

	if !ok {
		s.logger.Info("passphrase attempt throttled", "wait", wait)
	}
	if s.observer != nil {
		s.observer(next)
	}
	return next, ok
}

// Close stops the ticker. The session ignores further Start calls.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stopTicker()
}

func (s *Session) dispatch(ev Event) State {
	st, _ := s.dispatchFrom(-1, ev)
	return st
}

// dispatchFrom applies ev when the current phase is from (any phase when from
// is negative) and reports whether the state changed phase.
func (s *Session) dispatchFrom(from Phase, ev Event) (State, bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	if from >= 0 && prev.Phase != from {
		s.mu.Unlock()
		return prev, false
	}
	next := Reduce(prev, ev)
	s.state = next
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(next)
	}
	return next, next.Phase != prev.Phase
}

func (s *Session) notify(st State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if s.observer != nil {
		s.observer(st)
	}
}
