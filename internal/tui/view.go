package tui

import (
	"fmt"
	"strings"

	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/unlock"
	"github.com/charmbracelet/lipgloss"
)

func renderLogo() string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true).Render("TIME") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true).Render("CAPSULE")
}

func (m MainModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	var body string
	if m.screen == ScreenHome {
		body = m.viewHome()
	} else {
		body = m.viewCapsule()
	}
	if help := m.keys.HelpFor(m.mode()); help != "" {
		body += "\n\n" + CurrentTheme.Dim.Render(help)
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Border).
		Padding(1, 2)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

func (m MainModel) viewHome() string {
	var b strings.Builder
	b.WriteString(CurrentTheme.Focused.Render(fmt.Sprintf("%s v%s", renderLogo(), versionLabel())) + "\n\n")
	switch {
	case m.home.statsErr != nil:
		b.WriteString(CurrentTheme.Dim.Render("stats unavailable") + "\n\n")
	case m.home.statsLoaded:
		b.WriteString(CurrentTheme.Text.Render(formatStats(m.home.stats)) + "\n\n")
	}
	b.WriteString(CurrentTheme.Dim.Render("Enter the code you were given") + "\n")
	b.WriteString(CurrentTheme.Focused.Render("> ") + m.home.input.View())
	if m.home.err != "" {
		b.WriteString("\n" + CurrentTheme.Error.Render(m.home.err))
	}
	return b.String()
}

func (m MainModel) viewCapsule() string {
	st := m.capsule.state
	switch st.Phase {
	case unlock.Loading:
		return m.capsule.spinner.View() + " Loading capsule " + CurrentTheme.Dim.Render(st.Code)
	case unlock.Locked:
		return m.viewLocked()
	case unlock.PasswordRequired:
		return m.viewPassword()
	case unlock.Decrypting:
		return m.viewHeader() + "\n\n" + m.capsule.spinner.View() + " verifying…"
	case unlock.Unlocked:
		return m.viewUnlocked()
	case unlock.Failed:
		return CurrentTheme.Error.Render(st.LastError) + "\n" +
			CurrentTheme.Dim.Render("code: "+st.Code)
	}
	return ""
}

func (m MainModel) viewHeader() string {
	st := m.capsule.state
	if st.Record == nil {
		return ""
	}
	from := truncateLabel(st.Record.From, 32)
	to := truncateLabel(formatRecipients(*st.Record), 32)
	return CurrentTheme.Header.Render(fmt.Sprintf("From %s to %s", from, to))
}

func (m MainModel) viewLocked() string {
	st := m.capsule.state
	var b strings.Builder
	b.WriteString(m.viewHeader() + "\n\n")
	if !st.OpenDateValid {
		b.WriteString(CurrentTheme.Error.Render(st.LastError) + "\n")
		b.WriteString(CurrentTheme.Dim.Render("stored date: "+st.Record.OpenDate))
		return b.String()
	}
	now := m.now()
	b.WriteString(CurrentTheme.Text.Render(fmt.Sprintf("Opens %s (%s)",
		formatDate(st.OpenAt), formatRelative(st.OpenAt, now))) + "\n\n")
	b.WriteString(renderCountdown(st.Remaining, m.width) + "\n\n")
	if !st.Record.CreatedAt.IsZero() {
		b.WriteString(m.capsule.progress.ViewAs(openProgress(st.Record.CreatedAt, st.OpenAt, now)))
	}
	return b.String()
}

func (m MainModel) viewPassword() string {
	st := m.capsule.state
	var b strings.Builder
	b.WriteString(m.viewHeader() + "\n\n")
	b.WriteString(CurrentTheme.Text.Render("This capsule is sealed with a passphrase.") + "\n")
	b.WriteString(CurrentTheme.Focused.Render("> ") + m.capsule.pass.View())
	if st.LastError != "" {
		b.WriteString("\n" + CurrentTheme.Error.Render(st.LastError))
	}
	return b.String()
}

func (m MainModel) viewUnlocked() string {
	st := m.capsule.state
	var b strings.Builder
	b.WriteString(m.viewHeader() + "\n")
	if st.Force {
		b.WriteString(CurrentTheme.Warning.Render("opened early (DEV)") + "\n")
	}
	rendered := m.capsule.rendered
	if rendered == "" {
		rendered = st.Revealed
	}
	b.WriteString(CurrentTheme.Text.Render(strings.TrimRight(rendered, "\n")) + "\n\n")

	rec := st.Record
	meta := []string{"written " + formatDate(rec.CreatedAt)}
	if st.OpenDateValid {
		meta = append(meta, "opened "+formatDate(st.OpenAt))
	}
	if del, ok := rec.DeletionDate(config.RetentionPeriod); ok {
		meta = append(meta, "deleted after "+formatDate(del))
	}
	b.WriteString(CurrentTheme.Dim.Render(strings.Join(meta, " · ")))
	return b.String()
}
