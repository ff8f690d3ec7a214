package unlock

// Phase is the stage of an unlock session.
type Phase int

const (
	Loading Phase = iota
	Locked
	PasswordRequired
	Decrypting
	Unlocked
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Locked:
		return "locked"
	case PasswordRequired:
		return "password_required"
	case Decrypting:
		return "decrypting"
	case Unlocked:
		return "unlocked"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further event can move the session.
func (p Phase) Terminal() bool {
	return p == Unlocked || p == Failed
}
