package models

import (
	"time"

	"github.com/akyairhashvil/timecapsule/internal/timegate"
)

// Recipient is one addressee of a capsule.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CapsuleRecord is a stored capsule as returned by a record store.
type CapsuleRecord struct {
	ID             string      `json:"id"`
	From           string      `json:"from"`
	SenderPhone    string      `json:"senderPhone,omitempty"`
	Recipients     []Recipient `json:"recipients"`
	Message        string      `json:"message"` // plaintext or cipher envelope
	OpenDate       string      `json:"openDate"`
	UsePasswordKey bool        `json:"usePasswordKey"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// OpenAt parses the stored open date.
func (r CapsuleRecord) OpenAt() (time.Time, error) {
	return timegate.ParseOpenDate(r.OpenDate)
}

// DeletionDate is the instant the store may drop the capsule.
func (r CapsuleRecord) DeletionDate(retention time.Duration) (time.Time, bool) {
	openAt, err := r.OpenAt()
	if err != nil {
		return time.Time{}, false
	}
	return openAt.Add(retention), true
}

// AddressedToSelf reports whether the capsule has no explicit recipients.
func (r CapsuleRecord) AddressedToSelf() bool {
	return len(r.Recipients) == 0
}

// CreateParams is the payload handed to a store when a capsule is created.
// Message is already sealed by the caller.
type CreateParams struct {
	From           string      `json:"from"`
	SenderPhone    string      `json:"senderPhone,omitempty"`
	Recipients     []Recipient `json:"recipients"`
	Message        string      `json:"message"`
	OpenDate       string      `json:"openDate"`
	UsePasswordKey bool        `json:"usePasswordKey"`
}

// Stats summarises a store's capsules relative to now.
type Stats struct {
	Waiting int `json:"waiting"`
	Sent    int `json:"sent"`
}

// Total is the number of capsules counted.
func (s Stats) Total() int {
	return s.Waiting + s.Sent
}

// CountStats classifies open dates as waiting or sent. Dates that fail to
// parse count as sent.
func CountStats(now time.Time, openDates []string) Stats {
	var s Stats
	for _, raw := range openDates {
		at, err := timegate.ParseOpenDate(raw)
		if err == nil && at.After(now) {
			s.Waiting++
			continue
		}
		s.Sent++
	}
	return s
}
