package queue

import (
	"context"
	"time"
)

// FailedJobRecord is a row of the failed_jobs table.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// persistFailed records the failure in memory and, when a store is
// configured, in failed_jobs. A store error is logged; the in-memory copy
// still has the job.
func (m *Manager) persistFailed(name string, payload []byte, lastErr error) {
	now := time.Now()

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Name: name, Payload: payload, Err: lastErr, FailedAt: now, Attempts: m.maxRetry,
	})
	m.mu.Unlock()

	if m.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := FailedJobRecord{
		JobType:  name,
		Payload:  string(payload),
		Error:    lastErr.Error(),
		Attempts: m.maxRetry,
		FailedAt: now,
	}
	if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
		m.log.Error("queue: persist failed job", "type", name, "error", err)
	}
}

// PruneFailed deletes failed_jobs rows (and in-memory entries) that failed
// before cutoff, returning how many rows were removed.
func (m *Manager) PruneFailed(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	kept := m.failed[:0]
	for _, f := range m.failed {
		if !f.FailedAt.Before(cutoff) {
			kept = append(kept, f)
		}
	}
	m.failed = kept
	m.mu.Unlock()

	if m.db == nil {
		return 0, nil
	}
	res := m.db.WithContext(ctx).Where("failed_at < ?", cutoff).Delete(&FailedJobRecord{})
	return res.RowsAffected, res.Error
}
