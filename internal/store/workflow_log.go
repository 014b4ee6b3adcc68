package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rosterhub/workflow-engine/internal/store/model"
	"gorm.io/gorm"
)

// WorkflowLog is the append-only audit trail. There is deliberately no update
// or delete; entries written here are permanent.
type WorkflowLog interface {
	// Record appends the entry, filling DurationMinutes from the posting's
	// previous entry. Entries with a zero CreatedAt are stamped with now.
	Record(ctx context.Context, entry model.WorkflowLogEntry) (*model.WorkflowLogEntry, error)
	History(ctx context.Context, postingID uuid.UUID) ([]model.WorkflowLogEntry, error)
	Last(ctx context.Context, postingID uuid.UUID) (*model.WorkflowLogEntry, error)
	CountByToStatusSince(ctx context.Context, toStatus string, since time.Time) (int64, error)
}

type WorkflowLogStore struct {
	db *gorm.DB
}

// Make sure we conform to WorkflowLog interface
var _ WorkflowLog = (*WorkflowLogStore)(nil)

func NewWorkflowLogStore(db *gorm.DB) WorkflowLog {
	return &WorkflowLogStore{db: db}
}

func (s *WorkflowLogStore) Record(ctx context.Context, entry model.WorkflowLogEntry) (*model.WorkflowLogEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	last, err := s.Last(ctx, entry.PostingID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}
	if last != nil {
		entry.DurationMinutes = entry.CreatedAt.Sub(last.CreatedAt).Minutes()
	}

	if err := s.getDB(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("recording workflow log entry: %w", err)
	}
	return &entry, nil
}

func (s *WorkflowLogStore) History(ctx context.Context, postingID uuid.UUID) ([]model.WorkflowLogEntry, error) {
	var entries []model.WorkflowLogEntry
	err := s.getDB(ctx).
		Where("posting_id = ?", postingID).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("querying workflow history: %w", err)
	}
	return entries, nil
}

func (s *WorkflowLogStore) Last(ctx context.Context, postingID uuid.UUID) (*model.WorkflowLogEntry, error) {
	var entry model.WorkflowLogEntry
	result := s.getDB(ctx).
		Where("posting_id = ?", postingID).
		Order("created_at DESC, id DESC").
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying last workflow log entry: %w", result.Error)
	}
	return &entry, nil
}

func (s *WorkflowLogStore) CountByToStatusSince(ctx context.Context, toStatus string, since time.Time) (int64, error) {
	var count int64
	err := s.getDB(ctx).Model(&model.WorkflowLogEntry{}).
		Where("to_status = ? AND created_at >= ?", toStatus, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting workflow log entries: %w", err)
	}
	return count, nil
}

func (s *WorkflowLogStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
