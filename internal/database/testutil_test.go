package database

import (
	"context"
	"testing"

	"github.com/akyairhashvil/timecapsule/internal/models"
)

type TestDataBuilder struct {
	t   *testing.T
	ctx context.Context
	db  *Database
	ids []string
}

func NewTestDataBuilder(t *testing.T) *TestDataBuilder {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	return &TestDataBuilder{t: t, ctx: ctx, db: db}
}

// WithCapsule adds a plaintext capsule opening at openDate, addressed to
// the given recipient names.
func (b *TestDataBuilder) WithCapsule(openDate string, recipients ...string) *TestDataBuilder {
	b.t.Helper()
	params := models.CreateParams{From: "Tester", Message: "message", OpenDate: openDate}
	for _, name := range recipients {
		params.Recipients = append(params.Recipients, models.Recipient{Name: name})
	}
	id, err := b.db.Create(b.ctx, params)
	if err != nil {
		b.t.Fatalf("Create failed: %v", err)
	}
	b.ids = append(b.ids, id)
	return b
}

func (b *TestDataBuilder) Build() *Database {
	return b.db
}

func (b *TestDataBuilder) IDs() []string {
	return b.ids
}
