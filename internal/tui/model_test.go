package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/testutil"
	"github.com/akyairhashvil/timecapsule/internal/unlock"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

var refNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func setupModel(t *testing.T, opts Options, records ...models.CapsuleRecord) (MainModel, *store.Memory) {
	t.Helper()
	st := testutil.MemoryStore(records...)
	if opts.DecryptDelay == 0 {
		opts.DecryptDelay = time.Millisecond
	}
	if opts.Haptic == nil {
		opts.Haptic = func() {}
	}
	m := NewMainModel(context.Background(), st, opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, st
}

func update(t *testing.T, m MainModel, msg tea.Msg) MainModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(MainModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func updateCmd(t *testing.T, m MainModel, msg tea.Msg) (MainModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(MainModel), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// open enters code on the home screen and delivers the fetch result.
func open(t *testing.T, m MainModel, st store.CapsuleRecordStore, code string) (MainModel, tea.Cmd) {
	t.Helper()
	m.home.input.SetValue(code)
	m = update(t, m, key("enter"))
	if m.screen != ScreenCapsule {
		t.Fatalf("expected capsule screen, home error %q", m.home.err)
	}
	msg := fetchCmd(context.Background(), st, m.gen, m.capsule.state.Code, time.Second)()
	return updateCmd(t, m, msg)
}

func TestNewMainModelHome(t *testing.T) {
	m, _ := setupModel(t, Options{})
	if m.screen != ScreenHome || m.mode() != ModeHome {
		t.Fatalf("expected home screen, got %v", m.screen)
	}
	if !strings.Contains(m.View(), "Enter the code") {
		t.Fatalf("home view missing prompt")
	}
}

func TestViewBeforeWindowSize(t *testing.T) {
	m := NewMainModel(context.Background(), testutil.MemoryStore(), Options{})
	if m.View() != "Initializing..." {
		t.Fatalf("unexpected view before sizing: %q", m.View())
	}
}

func TestHomeShowsStats(t *testing.T) {
	m, st := setupModel(t, Options{})
	msg := statsCmd(context.Background(), st, time.Second)()
	m = update(t, m, msg)
	if !m.home.statsLoaded || !strings.Contains(m.View(), "0 waiting · 0 delivered") {
		t.Fatalf("view missing empty stats")
	}
	m = update(t, m, statsMsg{stats: models.Stats{Waiting: 1200, Sent: 3}})
	if !strings.Contains(m.View(), "1,200 waiting · 3 delivered") {
		t.Fatalf("view missing stats line: %q", m.View())
	}
	m = update(t, m, statsMsg{err: errors.New("offline")})
	if !strings.Contains(m.View(), "stats unavailable") {
		t.Fatalf("view should report missing stats")
	}
}

func TestHomeRejectsInvalidCode(t *testing.T) {
	m, _ := setupModel(t, Options{})
	m.home.input.SetValue("a/b")
	m, cmd := updateCmd(t, m, key("enter"))
	if m.screen != ScreenHome || cmd != nil {
		t.Fatalf("invalid code left the home screen")
	}
	if m.home.err != "That capsule code is not valid" {
		t.Fatalf("home err = %q", m.home.err)
	}
}

func TestPlaintextCapsuleUnlocks(t *testing.T) {
	clock := &testClock{now: refNow}
	rec := testutil.NewRecord().WithID("abc").WithMessage("hello **there**").
		WithOpenAt(refNow.Add(-time.Hour)).WithCreatedAt(refNow.AddDate(-1, 0, 0)).Build()
	m, st := setupModel(t, Options{Now: clock.Now}, rec)

	m, _ = open(t, m, st, " abc ")
	if m.mode() != ModeUnlocked {
		t.Fatalf("mode = %v, phase %s", m.mode(), m.capsule.state.Phase)
	}
	if !strings.Contains(ansi.Strip(m.capsule.rendered), "there") {
		t.Fatalf("rendered message missing body: %q", m.capsule.rendered)
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "From Tester to yourself") || !strings.Contains(view, "deleted after") {
		t.Fatalf("unlocked view incomplete: %q", view)
	}
}

func TestUnlockedLetterKeepsLines(t *testing.T) {
	clock := &testClock{now: refNow}
	letter := "Dear future me,\nremember the lake.\nLove, me <3 <b>x</b> &amp;"
	rec := testutil.NewRecord().WithID("letter").WithMessage(letter).
		WithOpenAt(refNow.Add(-time.Hour)).Build()
	m, st := setupModel(t, Options{Now: clock.Now}, rec)

	m, _ = open(t, m, st, "letter")
	if m.mode() != ModeUnlocked {
		t.Fatalf("mode = %v", m.mode())
	}
	lines := strings.Split(ansi.Strip(m.View()), "\n")
	want := []string{"Dear future me,", "remember the lake.", "Love, me <3 <b>x</b> &amp;"}
	for _, w := range want {
		found := 0
		for _, line := range lines {
			if strings.Contains(line, w) {
				found++
			}
		}
		if found != 1 {
			t.Fatalf("line %q found %d times in view:\n%s", w, found, strings.Join(lines, "\n"))
		}
	}
	for i, line := range lines {
		if strings.Contains(line, "Dear future me,") && strings.Contains(line, "remember") {
			t.Fatalf("line %d joins two letter lines: %q", i, line)
		}
	}
}

func TestNotFoundFailsThenReturnsHome(t *testing.T) {
	m, st := setupModel(t, Options{})
	m, _ = open(t, m, st, "missing")
	if m.mode() != ModeFailed {
		t.Fatalf("mode = %v", m.mode())
	}
	if !strings.Contains(m.View(), "Capsule not found") {
		t.Fatalf("failed view missing message")
	}
	m = update(t, m, key("enter"))
	if m.screen != ScreenHome || m.home.err != "Capsule not found" {
		t.Fatalf("expected home with carried error, got screen %v err %q", m.screen, m.home.err)
	}
}

func TestLockedCapsuleTicksOpen(t *testing.T) {
	clock := &testClock{now: refNow}
	openAt := refNow.Add(90 * time.Second)
	rec := testutil.NewRecord().WithID("soon").WithMessage("arrived").
		WithOpenAt(openAt).WithCreatedAt(refNow.Add(-90 * time.Second)).Build()
	m, st := setupModel(t, Options{Now: clock.Now}, rec)

	m, cmd := open(t, m, st, "soon")
	if m.mode() != ModeLocked || cmd == nil {
		t.Fatalf("expected locked with a tick scheduled, mode %v", m.mode())
	}
	view := ansi.Strip(m.View())
	for _, want := range []string{"minutes", "30", "from now"} {
		if !strings.Contains(view, want) {
			t.Fatalf("locked view missing %q: %q", want, view)
		}
	}

	clock.now = openAt.Add(-time.Second)
	m, cmd = updateCmd(t, m, TickMsg{Gen: m.gen})
	if m.mode() != ModeLocked || m.capsule.state.Remaining.Seconds != 1 || cmd == nil {
		t.Fatalf("expected one second left and another tick, got %+v", m.capsule.state.Remaining)
	}

	clock.now = openAt
	m, cmd = updateCmd(t, m, TickMsg{Gen: m.gen})
	if m.mode() != ModeUnlocked || m.capsule.state.Revealed != "arrived" {
		t.Fatalf("mode = %v revealed = %q", m.mode(), m.capsule.state.Revealed)
	}
	if cmd != nil {
		t.Fatalf("no tick should be scheduled once open")
	}
}

func TestStaleTickIgnored(t *testing.T) {
	clock := &testClock{now: refNow}
	rec := testutil.NewRecord().WithID("later").WithOpenAt(refNow.Add(time.Hour)).Build()
	m, st := setupModel(t, Options{Now: clock.Now}, rec)
	m, _ = open(t, m, st, "later")

	clock.now = refNow.Add(2 * time.Hour)
	m, cmd := updateCmd(t, m, TickMsg{Gen: m.gen - 1})
	if m.mode() != ModeLocked || cmd != nil {
		t.Fatalf("stale tick changed state to %v", m.mode())
	}
}

func TestEscapeDropsPendingWork(t *testing.T) {
	rec := testutil.NewRecord().WithID("abc").Build()
	m, _ := setupModel(t, Options{}, rec)
	m.home.input.SetValue("abc")
	m = update(t, m, key("enter"))
	gen := m.gen

	m = update(t, m, key("esc"))
	if m.screen != ScreenHome || m.gen == gen {
		t.Fatalf("esc should return home and bump the generation")
	}
	m = update(t, m, recordFetchedMsg{gen: gen, rec: &rec})
	if m.screen != ScreenHome || m.capsule.state.Phase != unlock.Loading {
		t.Fatalf("late fetch result was applied")
	}
}

func TestPasswordFlow(t *testing.T) {
	rec := testutil.NewRecord().WithID("pw").WithMessage("sealed words").Encrypted("secret").Build()
	var buzz int
	m, st := setupModel(t, Options{Haptic: func() { buzz++ }}, rec)

	m, _ = open(t, m, st, "pw")
	if m.mode() != ModePassword || !m.capsule.pass.Focused() {
		t.Fatalf("expected focused passphrase input, mode %v", m.mode())
	}
	if m.capsule.pass.EchoMode != textinput.EchoPassword {
		t.Fatalf("passphrase should be masked")
	}

	m.capsule.pass.SetValue("wrong")
	m, cmd := updateCmd(t, m, key("enter"))
	if m.mode() != ModeDecrypting || cmd == nil {
		t.Fatalf("expected decrypting, mode %v", m.mode())
	}
	if !strings.Contains(m.View(), "verifying") {
		t.Fatalf("decrypting view missing spinner text")
	}
	m = update(t, m, decryptCmd(m.gen, rec.Message, "wrong", time.Millisecond)())
	if m.mode() != ModePassword || m.capsule.state.Attempts != 1 {
		t.Fatalf("mode = %v attempts = %d", m.mode(), m.capsule.state.Attempts)
	}
	if buzz != 1 {
		t.Fatalf("haptic called %d times", buzz)
	}
	if !strings.Contains(m.View(), "Incorrect passphrase") {
		t.Fatalf("password view missing error")
	}

	m.capsule.pass.SetValue("secret")
	m = update(t, m, key("enter"))
	m = update(t, m, decryptCmd(m.gen, rec.Message, "secret", time.Millisecond)())
	if m.mode() != ModeUnlocked || m.capsule.state.Revealed != "sealed words" {
		t.Fatalf("mode = %v revealed = %q", m.mode(), m.capsule.state.Revealed)
	}
	if m.capsule.pass.Value() != "" {
		t.Fatalf("passphrase input should be cleared")
	}
	if buzz != 1 {
		t.Fatalf("haptic fired on success")
	}
}

func TestPasswordToggleVisibility(t *testing.T) {
	rec := testutil.NewRecord().WithID("pw").Encrypted("secret").Build()
	m, st := setupModel(t, Options{}, rec)
	m, _ = open(t, m, st, "pw")
	m = update(t, m, key("tab"))
	if m.capsule.pass.EchoMode != textinput.EchoNormal {
		t.Fatalf("tab should reveal the passphrase")
	}
	m = update(t, m, key("tab"))
	if m.capsule.pass.EchoMode != textinput.EchoPassword {
		t.Fatalf("tab should hide the passphrase again")
	}
}

func TestPasswordThrottled(t *testing.T) {
	rec := testutil.NewRecord().WithID("pw").Encrypted("secret").Build()
	m, st := setupModel(t, Options{Throttle: unlock.NewThrottle(1, time.Hour)}, rec)
	m, _ = open(t, m, st, "pw")

	m.capsule.pass.SetValue("wrong")
	m = update(t, m, key("enter"))
	m = update(t, m, decryptCmd(m.gen, rec.Message, "wrong", time.Millisecond)())

	m.capsule.pass.SetValue("secret")
	m, cmd := updateCmd(t, m, key("enter"))
	if m.mode() != ModePassword || cmd != nil {
		t.Fatalf("throttled attempt reached %v", m.mode())
	}
	if !strings.HasPrefix(m.capsule.state.LastError, "Too many attempts") {
		t.Fatalf("LastError = %q", m.capsule.state.LastError)
	}
}

func TestForceUnlock(t *testing.T) {
	clock := &testClock{now: refNow}
	rec := testutil.NewRecord().WithID("far").WithMessage("early").WithOpenAt(refNow.AddDate(3, 0, 0)).Build()

	m, st := setupModel(t, Options{Now: clock.Now}, rec)
	m, _ = open(t, m, st, "far")
	m = update(t, m, key("f"))
	if m.mode() != ModeLocked {
		t.Fatalf("force must be disabled unless allowed, mode %v", m.mode())
	}
	if strings.Contains(m.View(), "force") {
		t.Fatalf("help should not offer force when disabled")
	}

	m, st = setupModel(t, Options{Now: clock.Now, AllowForce: true}, rec)
	m, _ = open(t, m, st, "far")
	if !strings.Contains(m.View(), "force open (DEV)") {
		t.Fatalf("help should offer force")
	}
	gen := m.gen
	m = update(t, m, key("f"))
	if m.mode() != ModeUnlocked || !m.capsule.state.Force {
		t.Fatalf("mode = %v force = %v", m.mode(), m.capsule.state.Force)
	}
	if m.gen == gen {
		t.Fatalf("force should drop the pending tick")
	}
	if !strings.Contains(m.View(), "opened early (DEV)") {
		t.Fatalf("unlocked view should flag forced opening")
	}
}

func TestInvalidOpenDateView(t *testing.T) {
	rec := testutil.NewRecord().WithID("odd").WithOpenDate("someday").Build()
	m, st := setupModel(t, Options{}, rec)
	m, cmd := open(t, m, st, "odd")
	if m.mode() != ModeLocked || cmd != nil {
		t.Fatalf("unreadable date should lock without ticking")
	}
	if !strings.Contains(m.View(), "unreadable open date") {
		t.Fatalf("locked view missing date error")
	}
}

func TestInitialCodeOpensCapsule(t *testing.T) {
	rec := testutil.NewRecord().WithID("deep").Build()
	m := NewMainModel(context.Background(), testutil.MemoryStore(rec), Options{InitialCode: "deep"})
	if m.screen != ScreenCapsule || m.capsule.state.Code != "deep" {
		t.Fatalf("deep link did not open capsule")
	}
	if m.Init() == nil {
		t.Fatalf("expected fetch command")
	}

	bad := NewMainModel(context.Background(), testutil.MemoryStore(), Options{InitialCode: "x/y"})
	if bad.screen != ScreenHome || bad.home.err == "" {
		t.Fatalf("invalid deep link should land on home with an error")
	}
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := setupModel(t, Options{})
	_, cmd := updateCmd(t, m, key("ctrl+c"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestTypingReachesHomeInput(t *testing.T) {
	m, _ := setupModel(t, Options{AllowForce: true})
	m = update(t, m, key("f"))
	if m.home.input.Value() != "f" {
		t.Fatalf("home input = %q", m.home.input.Value())
	}
}
