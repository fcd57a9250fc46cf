package api

import (
	"sync"

	"MediNotify/internal/models"
)

// RecordFeed keeps the most recent notification records in memory for the
// admin view. It is the callback sink for the orchestrator.
type RecordFeed struct {
	mu      sync.Mutex
	max     int
	records []models.NotificationRecord
}

func NewRecordFeed(max int) *RecordFeed {
	if max <= 0 {
		max = 200
	}
	return &RecordFeed{max: max}
}

func (f *RecordFeed) Add(rec models.NotificationRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records = append(f.records, rec)
	if len(f.records) > f.max {
		f.records = f.records[len(f.records)-f.max:]
	}
}

// Snapshot returns records newest first.
func (f *RecordFeed) Snapshot() []models.NotificationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.NotificationRecord, len(f.records))
	for i, rec := range f.records {
		out[len(f.records)-1-i] = rec
	}
	return out
}
