// Package capsule turns a sender's draft into the payload a record store
// accepts, sealing the message when a passphrase is set.
package capsule

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/config"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
)

var ErrInvalidDraft = errors.New("invalid capsule draft")

// FieldError names one rejected draft field.
type FieldError struct {
	Field string
	Msg   string
}

// ValidationError collects every field problem in a draft, in form order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Msg)
	}
	return fmt.Sprintf("%v: %s", ErrInvalidDraft, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidDraft }

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Draft is a capsule as the sender fills it in.
type Draft struct {
	From        string
	SenderPhone string
	Recipients  []models.Recipient
	Message     string
	OpenDate    string // RFC 3339 or a zone-less local date-time
	Passphrase  string
}

// Korean mobile numbers after stripping non-digits.
var phonePattern = regexp.MustCompile(`^01[016789][0-9]{3,4}[0-9]{4}$`)

// NormalizePhone drops everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether phone is a mobile number once normalized.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// ParseRecipient reads "name:phone". The phone part is optional.
func ParseRecipient(s string) (models.Recipient, error) {
	name, phone, _ := strings.Cut(s, ":")
	r := models.Recipient{Name: strings.TrimSpace(name), Phone: strings.TrimSpace(phone)}
	if r.Name == "" {
		return models.Recipient{}, fmt.Errorf("%w: recipient %q has no name", ErrInvalidDraft, s)
	}
	return r, nil
}

// Validate checks d without sealing it. Phones are optional but must be
// well formed when given.
func (d Draft) Validate() error {
	var fields []FieldError
	add := func(field, msg string) {
		fields = append(fields, FieldError{Field: field, Msg: msg})
	}

	if strings.TrimSpace(d.From) == "" {
		add("from", "sender is required")
	}
	if d.SenderPhone != "" && !ValidPhone(d.SenderPhone) {
		add("senderPhone", "not a valid phone number")
	}
	for i, r := range d.Recipients {
		if strings.TrimSpace(r.Name) == "" {
			add(fmt.Sprintf("recipients[%d].name", i), "recipient name is required")
		}
		if r.Phone != "" && !ValidPhone(r.Phone) {
			add(fmt.Sprintf("recipients[%d].phone", i), "not a valid phone number")
		}
	}
	if strings.TrimSpace(d.OpenDate) == "" {
		add("openDate", "open date is required")
	} else if _, err := timegate.ParseOpenDate(d.OpenDate); err != nil {
		add("openDate", "unrecognised date")
	}
	if strings.TrimSpace(d.Message) == "" {
		add("message", "message is required")
	} else if n := utf8.RuneCountInString(d.Message); n > config.MaxMessageLength {
		add("message", fmt.Sprintf("%d characters, limit is %d", n, config.MaxMessageLength))
	}

	if n := utf8.RuneCountInString(d.Passphrase); n > config.MaxPassphraseLength {
		add("passphrase", fmt.Sprintf("%d characters, limit is %d", n, config.MaxPassphraseLength))
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Seal validates d and returns the store payload. With a passphrase the
// message is encrypted and UsePasswordKey is set; the passphrase itself is
// never part of the payload.
func Seal(d Draft) (models.CreateParams, error) {
	if err := d.Validate(); err != nil {
		return models.CreateParams{}, err
	}
	openAt, _ := timegate.ParseOpenDate(d.OpenDate)

	params := models.CreateParams{
		From:        strings.TrimSpace(d.From),
		SenderPhone: NormalizePhone(d.SenderPhone),
		OpenDate:    timegate.FormatOpenDate(openAt),
		Message:     d.Message,
	}
	for _, r := range d.Recipients {
		params.Recipients = append(params.Recipients, models.Recipient{
			Name:  strings.TrimSpace(r.Name),
			Phone: NormalizePhone(r.Phone),
		})
	}
	if d.Passphrase != "" {
		env, err := cipher.Encrypt(d.Message, d.Passphrase)
		if err != nil {
			return models.CreateParams{}, fmt.Errorf("seal message: %w", err)
		}
		params.Message = env
		params.UsePasswordKey = true
	}
	return params, nil
}
