package testutil

import (
	"time"

	"github.com/akyairhashvil/timecapsule/internal/cipher"
	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/akyairhashvil/timecapsule/internal/timegate"
)

// RecordBuilder provides fluent API for creating test capsules.
type RecordBuilder struct {
	record     models.CapsuleRecord
	passphrase string
}

// NewRecord returns a plaintext capsule that opened an hour ago.
func NewRecord() *RecordBuilder {
	now := time.Now()
	return &RecordBuilder{
		record: models.CapsuleRecord{
			ID:        "test-capsule",
			From:      "Tester",
			Message:   "Hello from the past",
			OpenDate:  timegate.FormatOpenDate(now.Add(-time.Hour)),
			CreatedAt: now.Add(-24 * time.Hour).UTC(),
		},
	}
}

func (b *RecordBuilder) WithID(id string) *RecordBuilder {
	b.record.ID = id
	return b
}

func (b *RecordBuilder) WithFrom(from string) *RecordBuilder {
	b.record.From = from
	return b
}

func (b *RecordBuilder) WithMessage(msg string) *RecordBuilder {
	b.record.Message = msg
	return b
}

func (b *RecordBuilder) WithRecipients(names ...string) *RecordBuilder {
	b.record.Recipients = nil
	for _, n := range names {
		b.record.Recipients = append(b.record.Recipients, models.Recipient{Name: n})
	}
	return b
}

// WithOpenAt stores t in the canonical open date form.
func (b *RecordBuilder) WithOpenAt(t time.Time) *RecordBuilder {
	b.record.OpenDate = timegate.FormatOpenDate(t)
	return b
}

// WithOpenDate stores raw verbatim, parseable or not.
func (b *RecordBuilder) WithOpenDate(raw string) *RecordBuilder {
	b.record.OpenDate = raw
	return b
}

func (b *RecordBuilder) WithCreatedAt(t time.Time) *RecordBuilder {
	b.record.CreatedAt = t
	return b
}

// Encrypted seals the message under passphrase at Build time.
func (b *RecordBuilder) Encrypted(passphrase string) *RecordBuilder {
	b.passphrase = passphrase
	return b
}

func (b *RecordBuilder) Build() models.CapsuleRecord {
	r := b.record
	if b.passphrase != "" {
		env, err := cipher.Encrypt(r.Message, b.passphrase)
		if err != nil {
			panic("testutil: encrypt: " + err.Error())
		}
		r.Message = env
		r.UsePasswordKey = true
	}
	return r
}

// MemoryStore returns an in-memory store holding records.
func MemoryStore(records ...models.CapsuleRecord) *store.Memory {
	m := store.NewMemory()
	for _, r := range records {
		m.Put(r)
	}
	return m
}
