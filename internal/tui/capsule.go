package tui

import (
	"strings"

	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/unlock"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/glamour"
)

// CapsuleModel is the capsule screen. Transitions go through unlock.Reduce;
// the model only adds the widgets around the state.
type CapsuleModel struct {
	state    unlock.State
	pass     textinput.Model
	showPass bool
	spinner  spinner.Model
	progress progress.Model

	rendered      string // revealed message, line breaks kept
	renderedWidth int
}

func NewCapsuleModel(code string) CapsuleModel {
	pi := textinput.New()
	pi.Placeholder = "Passphrase"
	pi.EchoMode = textinput.EchoPassword
	pi.EchoCharacter = '•'
	pi.CharLimit = config.MaxPassphraseLength
	pi.Width = 32

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = CurrentTheme.Focused

	pr := progress.New(progress.WithDefaultGradient())
	pr.Width = config.ProgressWidth

	return CapsuleModel{
		state:    unlock.NewState(code),
		pass:     pi,
		spinner:  sp,
		progress: pr,
	}
}

// apply moves the state forward and keeps the widgets in step with it.
func (c *CapsuleModel) apply(ev unlock.Event, width int) {
	c.state = unlock.Reduce(c.state, ev)
	switch c.state.Phase {
	case unlock.PasswordRequired:
		c.pass.Focus()
	case unlock.Unlocked:
		c.pass.Blur()
		c.refreshRendered(width)
	default:
		c.pass.Blur()
	}
}

func (c CapsuleModel) spinning() bool {
	return c.state.Phase == unlock.Loading || c.state.Phase == unlock.Decrypting
}

func (c *CapsuleModel) toggleVisibility() {
	c.showPass = !c.showPass
	if c.showPass {
		c.pass.EchoMode = textinput.EchoNormal
	} else {
		c.pass.EchoMode = textinput.EchoPassword
	}
}

// refreshRendered renders the revealed message for width, once per width.
func (c *CapsuleModel) refreshRendered(width int) {
	if c.state.Phase != unlock.Unlocked {
		return
	}
	if c.rendered != "" && c.renderedWidth == width {
		return
	}
	c.rendered = renderMarkdown(c.state.Revealed, width)
	c.renderedWidth = width
}

// htmlEscaper keeps tags and entities in a letter literal. glamour unescapes
// text tokens, so the letter comes back as written.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;")

// renderMarkdown renders body with every line break kept, and falls back to
// the raw text when glamour cannot render it.
func renderMarkdown(body string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(CurrentTheme.Markdown),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return body
	}
	out, err := r.Render(htmlEscaper.Replace(body))
	if err != nil {
		return body
	}
	return out
}
