package tui

import (
	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/charmbracelet/bubbles/textinput"
)

// HomeModel is the code entry screen.
type HomeModel struct {
	input       textinput.Model
	err         string
	stats       models.Stats
	statsLoaded bool
	statsErr    error
}

func NewHomeModel() HomeModel {
	ti := textinput.New()
	ti.Placeholder = "Capsule code..."
	ti.CharLimit = config.MaxCodeLength
	ti.Width = 36
	ti.Focus()
	return HomeModel{input: ti}
}
