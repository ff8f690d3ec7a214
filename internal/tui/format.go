package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const dateLayout = "Jan 2, 2006 15:04"

// formatDate renders t in local time for display.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// formatRelative describes t against now, e.g. "3 days from now".
func formatRelative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatDuration renders a countdown as "1d 02:03:04", dropping empty days.
func formatDuration(c timegate.Countdown) string {
	clock := fmt.Sprintf("%02d:%02d:%02d", c.Hours, c.Minutes, c.Seconds)
	if c.Days > 0 {
		return fmt.Sprintf("%dd %s", c.Days, clock)
	}
	return clock
}

// formatStats renders the home screen counter line.
func formatStats(s models.Stats) string {
	return fmt.Sprintf("%s waiting · %s delivered",
		humanize.Comma(int64(s.Waiting)), humanize.Comma(int64(s.Sent)))
}

// formatRecipients names who a capsule is addressed to.
func formatRecipients(r models.CapsuleRecord) string {
	if r.AddressedToSelf() {
		return "yourself"
	}
	names := make([]string, 0, len(r.Recipients))
	for _, rc := range r.Recipients {
		names = append(names, rc.Name)
	}
	return strings.Join(names, ", ")
}

func truncateLabel(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if ansi.StringWidth(text) <= max {
		return text
	}
	return ansi.Truncate(text, max, config.TruncationSuffix)
}

// renderCountdown draws one box per unit, or a single clock line when the
// terminal is narrower than the compact threshold.
func renderCountdown(c timegate.Countdown, width int) string {
	if width > 0 && width < config.CompactModeThreshold {
		return CurrentTheme.CountValue.Render(formatDuration(c))
	}
	units := c.Units()
	boxes := make([]string, 0, len(units))
	for _, u := range units {
		body := lipgloss.JoinVertical(lipgloss.Center,
			CurrentTheme.CountValue.Render(fmt.Sprintf("%02d", u.Value)),
			CurrentTheme.CountLabel.Render(u.Label),
		)
		boxes = append(boxes, CurrentTheme.CountBox.Width(config.CountdownBoxWidth).Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// openProgress is how far now sits between creation and opening, in [0, 1].
func openProgress(created, openAt, now time.Time) float64 {
	total := openAt.Sub(created)
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(created)) / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
