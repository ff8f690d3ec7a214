package config

import "time"

// Unlock timings.
const (
	TickInterval = time.Second
	DecryptDelay = 1500 * time.Millisecond
	FetchTimeout = 10 * time.Second
)

// Passphrase throttling. A burst of MaxPassphraseAttempts is allowed, then
// one attempt per PassphraseCooldown.
const (
	MaxPassphraseAttempts = 5
	PassphraseCooldown    = 30 * time.Second
)

// Capsule content.
const (
	// MarkerTag prefixes every encrypted body; a decrypt that does not yield
	// it is treated as a wrong passphrase.
	MarkerTag = "MSG_"

	MaxMessageLength = 3000

	// RetentionPeriod is how long a capsule is kept after its open date.
	RetentionPeriod = 365 * 24 * time.Hour
)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreRemote = "remote"
	StoreMemory = "memory"
)

// Application settings.
const (
	AppName        = "timecapsule"
	DBFileName     = "capsules.db"
	ConfigFileName = "config.yaml"
	LogFileName    = "capsule.log"
	EnvPrefix      = "CAPSULE_"
)
