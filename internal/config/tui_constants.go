package config

// Layout constants.
const (
	// CountdownBoxWidth is the width of one countdown unit box.
	CountdownBoxWidth = 9

	// CompactModeThreshold stacks countdown boxes below this width.
	CompactModeThreshold = 48

	// MessageWrapWidth caps the rendered message width.
	MessageWrapWidth = 72

	// ProgressWidth is the width of the locked-capsule progress bar.
	ProgressWidth = 40
)

// Input constraints.
const (
	// MaxCodeLength bounds the retrieval code input.
	MaxCodeLength = 64

	// MaxPassphraseLength bounds passphrases when sealing and in the input.
	MaxPassphraseLength = 128
)

// TruncationSuffix is appended to truncated strings.
const TruncationSuffix = "…"
