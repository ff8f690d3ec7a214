package store

import (
	"context"
	"sync"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-process store. Records live as long as the value.
type Memory struct {
	mu      sync.RWMutex
	records map[string]models.CapsuleRecord
	now     func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.CapsuleRecord), now: time.Now}
}

// Put stores r under r.ID as-is, replacing any existing record.
func (m *Memory) Put(r models.CapsuleRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = cloneRecord(r)
}

func (m *Memory) Create(ctx context.Context, params models.CreateParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.Put(models.CapsuleRecord{
		ID:             id,
		From:           params.From,
		SenderPhone:    params.SenderPhone,
		Recipients:     params.Recipients,
		Message:        params.Message,
		OpenDate:       params.OpenDate,
		UsePasswordKey: params.UsePasswordKey,
		CreatedAt:      m.now().UTC(),
	})
	return id, nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (*models.CapsuleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRecord(r)
	return &out, nil
}

func (m *Memory) GetStats(ctx context.Context) (models.Stats, error) {
	if err := ctx.Err(); err != nil {
		return models.Stats{}, err
	}
	m.mu.RLock()
	dates := make([]string, 0, len(m.records))
	for _, r := range m.records {
		dates = append(dates, r.OpenDate)
	}
	m.mu.RUnlock()
	return models.CountStats(m.now(), dates), nil
}

func cloneRecord(r models.CapsuleRecord) models.CapsuleRecord {
	if r.Recipients != nil {
		r.Recipients = append([]models.Recipient(nil), r.Recipients...)
	}
	return r
}

var _ CapsuleRecordStore = (*Memory)(nil)
