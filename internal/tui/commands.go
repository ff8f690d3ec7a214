package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/store"
	tea "github.com/charmbracelet/bubbletea"
)

// --- Messages ---

// Every capsule message carries the generation of the capsule screen that
// asked for it. Leaving the screen, or leaving Locked, bumps the generation
// so late ticks and results are dropped.

type TickMsg struct {
	Gen  int
	Time time.Time
}

type recordFetchedMsg struct {
	gen int
	rec *models.CapsuleRecord
	err error
}

type decryptDoneMsg struct {
	gen  int
	body string
	err  error
}

type statsMsg struct {
	stats models.Stats
	err   error
}

func tickCmd(gen int, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return TickMsg{Gen: gen, Time: t} })
}

func fetchCmd(ctx context.Context, st store.CapsuleRecordStore, gen int, code string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		fctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		rec, err := st.GetByID(fctx, code)
		return recordFetchedMsg{gen: gen, rec: rec, err: err}
	}
}

func statsCmd(ctx context.Context, st store.CapsuleRecordStore, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		sctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		s, err := st.GetStats(sctx)
		return statsMsg{stats: s, err: err}
	}
}

// decryptCmd holds the attempt for delay before trying the passphrase.
func decryptCmd(gen int, envelope, passphrase string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		body, err := cipher.Decrypt(envelope, passphrase)
		return decryptDoneMsg{gen: gen, body: body, err: err}
	})
}

var bellWriter io.Writer = os.Stderr

// ringBell is the haptic cue for a rejected passphrase.
func ringBell() {
	fmt.Fprint(bellWriter, "\a")
}
