package tui

import (
	"context"
	"io"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/unlock"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Screen is the top level page.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenCapsule
)

// Mode selects which key bindings apply. Capsule modes follow the unlock
// phase.
type Mode int

const (
	ModeHome Mode = iota
	ModeLoading
	ModeLocked
	ModePassword
	ModeDecrypting
	ModeUnlocked
	ModeFailed
)

// Options configures a MainModel. Zero values take the config defaults.
type Options struct {
	InitialCode  string // open this capsule straight away
	AllowForce   bool   // bind "f" to force unlock
	FetchTimeout time.Duration
	DecryptDelay time.Duration
	TickInterval time.Duration
	Throttle     *unlock.Throttle // nil allows every attempt
	Now          func() time.Time
	Haptic       func()
	Logger       *log.Logger
}

func (o Options) withDefaults() Options {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = config.FetchTimeout
	}
	if o.DecryptDelay == 0 {
		o.DecryptDelay = config.DecryptDelay
	}
	if o.TickInterval <= 0 {
		o.TickInterval = config.TickInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Haptic == nil {
		o.Haptic = ringBell
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// MainModel is the root bubbletea model: a home screen to enter a code and a
// capsule screen that walks the unlock phases.
type MainModel struct {
	ctx     context.Context
	store   store.CapsuleRecordStore
	opts    Options
	keys    *HandlerRegistry
	screen  Screen
	home    HomeModel
	capsule CapsuleModel
	gen     int
	width   int
	height  int
}

func NewMainModel(ctx context.Context, st store.CapsuleRecordStore, opts Options) MainModel {
	m := MainModel{
		ctx:   ctx,
		store: st,
		opts:  opts.withDefaults(),
		keys:  defaultKeys(opts.AllowForce),
		home:  NewHomeModel(),
	}
	if opts.InitialCode != "" {
		m, _ = m.openCapsule(opts.InitialCode)
	}
	return m
}

func (m MainModel) Init() tea.Cmd {
	if m.screen == ScreenCapsule {
		return tea.Batch(
			fetchCmd(m.ctx, m.store, m.gen, m.capsule.state.Code, m.opts.FetchTimeout),
			m.capsule.spinner.Tick,
		)
	}
	return tea.Batch(textinput.Blink, statsCmd(m.ctx, m.store, m.opts.FetchTimeout))
}

func (m MainModel) mode() Mode {
	if m.screen == ScreenHome {
		return ModeHome
	}
	switch m.capsule.state.Phase {
	case unlock.Locked:
		return ModeLocked
	case unlock.PasswordRequired:
		return ModePassword
	case unlock.Decrypting:
		return ModeDecrypting
	case unlock.Unlocked:
		return ModeUnlocked
	case unlock.Failed:
		return ModeFailed
	default:
		return ModeLoading
	}
}

func (m MainModel) now() time.Time { return m.opts.Now() }

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.capsule.refreshRendered(m.messageWidth())
		return m, nil
	case tea.KeyMsg:
		if next, cmd, handled := m.keys.Handle(m, msg.String()); handled {
			return next, cmd
		}
	case statsMsg:
		return m.handleStats(msg), nil
	case recordFetchedMsg:
		return m.handleFetched(msg)
	case TickMsg:
		return m.handleTick(msg)
	case decryptDoneMsg:
		return m.handleDecrypted(msg)
	case spinner.TickMsg:
		if !m.capsule.spinning() {
			return m, nil
		}
		var cmd tea.Cmd
		m.capsule.spinner, cmd = m.capsule.spinner.Update(msg)
		return m, cmd
	}
	return m.updateInputs(msg)
}

// updateInputs forwards msg to whichever text input has focus.
func (m MainModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode() {
	case ModeHome:
		m.home.input, cmd = m.home.input.Update(msg)
	case ModePassword:
		m.capsule.pass, cmd = m.capsule.pass.Update(msg)
	}
	return m, cmd
}

// openCapsule validates code and moves to the capsule screen. An invalid
// code stays on the home screen with an inline error.
func (m MainModel) openCapsule(code string) (MainModel, tea.Cmd) {
	id, err := unlock.ValidateCode(code)
	if err != nil {
		m.screen = ScreenHome
		m.home.err = unlock.UserMessage(err)
		return m, nil
	}
	m.gen++
	m.screen = ScreenCapsule
	m.home.err = ""
	m.capsule = NewCapsuleModel(id)
	m.opts.Logger.Debug("opening capsule", "code", id)
	return m, tea.Batch(
		fetchCmd(m.ctx, m.store, m.gen, id, m.opts.FetchTimeout),
		m.capsule.spinner.Tick,
	)
}

// goHome leaves the capsule screen. A failure message is carried over to
// the home screen.
func (m MainModel) goHome() (MainModel, tea.Cmd) {
	if m.capsule.state.Phase == unlock.Failed {
		m.home.err = m.capsule.state.LastError
	}
	m.gen++
	m.screen = ScreenHome
	m.capsule = CapsuleModel{}
	m.home.input.Focus()
	return m, tea.Batch(textinput.Blink, statsCmd(m.ctx, m.store, m.opts.FetchTimeout))
}

func (m MainModel) handleStats(msg statsMsg) MainModel {
	if msg.err != nil {
		m.opts.Logger.Warn("stats unavailable", "err", msg.err)
		m.home.statsErr = msg.err
		return m
	}
	m.home.stats = msg.stats
	m.home.statsLoaded = true
	m.home.statsErr = nil
	return m
}

func (m MainModel) handleFetched(msg recordFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.screen != ScreenCapsule {
		return m, nil
	}
	if msg.err != nil {
		m.opts.Logger.Warn("capsule fetch failed", "code", m.capsule.state.Code, "err", msg.err)
		m.capsule.apply(unlock.FetchFailed{Err: msg.err}, m.messageWidth())
		return m, nil
	}
	m.capsule.apply(unlock.RecordFetched{Record: msg.rec, Now: m.now()}, m.messageWidth())
	return m, m.afterTransition()
}

func (m MainModel) handleTick(msg TickMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.gen || !m.capsule.state.Ticking() {
		return m, nil
	}
	m.capsule.apply(unlock.Tick{Now: m.now()}, m.messageWidth())
	return m, m.afterTransition()
}

func (m MainModel) handleDecrypted(msg decryptDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	m.capsule.apply(unlock.DecryptFinished{Body: msg.body, Err: msg.err}, m.messageWidth())
	if msg.err != nil {
		m.opts.Logger.Debug("passphrase rejected", "code", m.capsule.state.Code, "attempts", m.capsule.state.Attempts)
		m.opts.Haptic()
		return m, textinput.Blink
	}
	m.capsule.pass.Reset()
	return m, nil
}

// afterTransition schedules what the new phase needs: the next tick while
// Locked, the cursor while waiting for a passphrase.
func (m MainModel) afterTransition() tea.Cmd {
	switch m.capsule.state.Phase {
	case unlock.Locked:
		if m.capsule.state.Ticking() {
			return tickCmd(m.gen, m.opts.TickInterval)
		}
	case unlock.PasswordRequired:
		return textinput.Blink
	}
	return nil
}

func (m MainModel) submitCode() (MainModel, tea.Cmd) {
	return m.openCapsule(m.home.input.Value())
}

func (m MainModel) submitPassphrase() (MainModel, tea.Cmd) {
	if ok, wait := m.opts.Throttle.Allow(); !ok {
		m.opts.Logger.Info("passphrase attempt throttled", "wait", wait)
		m.capsule.apply(unlock.PassphraseThrottled{Wait: wait}, m.messageWidth())
		return m, nil
	}
	candidate := m.capsule.pass.Value()
	m.capsule.apply(unlock.PassphraseSubmitted{Candidate: candidate}, m.messageWidth())
	if m.capsule.state.Phase != unlock.Decrypting {
		return m, nil
	}
	return m, tea.Batch(
		decryptCmd(m.gen, m.capsule.state.Record.Message, candidate, m.opts.DecryptDelay),
		m.capsule.spinner.Tick,
	)
}

func (m MainModel) forceUnlock() (MainModel, tea.Cmd) {
	m.gen++ // drop the pending tick
	m.capsule.apply(unlock.ForceUnlocked{}, m.messageWidth())
	m.opts.Logger.Warn("capsule force-unlocked", "code", m.capsule.state.Code)
	return m, m.afterTransition()
}

func (m MainModel) messageWidth() int {
	w := config.MessageWrapWidth
	if m.width > 0 && m.width-8 < w {
		w = m.width - 8
	}
	if w < 20 {
		w = 20
	}
	return w
}

func defaultKeys(allowForce bool) *HandlerRegistry {
	r := NewHandlerRegistry()
	r.Register(KeyBinding{
		Key:      "ctrl+c",
		Priority: 100,
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			return m, tea.Quit, true
		},
	})
	r.Register(KeyBinding{
		Key:         "enter",
		Description: "open",
		Modes:       []Mode{ModeHome},
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			next, cmd := m.submitCode()
			return next, cmd, true
		},
	})
	r.Register(KeyBinding{
		Key:         "esc",
		Description: "quit",
		Modes:       []Mode{ModeHome},
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			return m, tea.Quit, true
		},
	})
	r.Register(KeyBinding{
		Key:         "enter",
		Description: "unlock",
		Modes:       []Mode{ModePassword},
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			next, cmd := m.submitPassphrase()
			return next, cmd, true
		},
	})
	r.Register(KeyBinding{
		Key:         "tab",
		Description: "show/hide",
		Modes:       []Mode{ModePassword},
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			m.capsule.toggleVisibility()
			return m, nil, true
		},
	})
	if allowForce {
		r.Register(KeyBinding{
			Key:         "f",
			Description: "force open (DEV)",
			Modes:       []Mode{ModeLocked},
			Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
				next, cmd := m.forceUnlock()
				return next, cmd, true
			},
		})
	}
	r.Register(KeyBinding{
		Key:         "enter",
		Description: "home",
		Modes:       []Mode{ModeFailed},
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			next, cmd := m.goHome()
			return next, cmd, true
		},
	})
	r.Register(KeyBinding{
		Key:         "esc",
		Description: "back",
		Modes:       []Mode{ModeLoading, ModeLocked, ModePassword, ModeDecrypting, ModeUnlocked, ModeFailed},
		Handler: func(m MainModel, _ string) (MainModel, tea.Cmd, bool) {
			next, cmd := m.goHome()
			return next, cmd, true
		},
	})
	return r
}
