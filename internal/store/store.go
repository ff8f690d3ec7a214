// Package store defines the capsule record store contract shared by the
// sqlite, remote and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/akyairhashvil/timecapsule/internal/models"
)

// ErrNotFound is returned by GetByID when no capsule has the given code.
var ErrNotFound = errors.New("capsule not found")

// CapsuleRecordStore persists and retrieves capsule records.
//
//go:generate mockgen -source=store.go -destination=../unlock/mock_store_test.go -package=unlock
type CapsuleRecordStore interface {
	Create(ctx context.Context, params models.CreateParams) (string, error)
	GetByID(ctx context.Context, id string) (*models.CapsuleRecord, error)
	GetStats(ctx context.Context) (models.Stats, error)
}
