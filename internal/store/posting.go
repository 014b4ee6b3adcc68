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

// workflowColumns are the posting columns a transition is allowed to touch.
// Everything else on the row belongs to other subsystems.
var workflowColumns = []string{
	"status",
	"workflow_stage",
	"previous_status",
	"rejection_reason",
	"version",
	"submitted_at",
	"approved_at",
	"published_at",
	"review_completed_at",
}

type Posting interface {
	Create(ctx context.Context, posting model.JobPosting) (*model.JobPosting, error)
	Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
	// UpdateWorkflow writes the workflow columns guarded by the posting's
	// version. Returns ErrConcurrentUpdate when the row moved underneath.
	UpdateWorkflow(ctx context.Context, posting *model.JobPosting) (*model.JobPosting, error)
	List(ctx context.Context, filter *PostingQueryFilter) (model.JobPostingList, error)
	Count(ctx context.Context, filter *PostingQueryFilter) (int64, error)
	CountDistinctEmployersSince(ctx context.Context, since time.Time) (int64, error)
}

type PostingStore struct {
	db *gorm.DB
}

// Make sure we conform to Posting interface
var _ Posting = (*PostingStore)(nil)

func NewPostingStore(db *gorm.DB) Posting {
	return &PostingStore{db: db}
}

func (s *PostingStore) Create(ctx context.Context, posting model.JobPosting) (*model.JobPosting, error) {
	if err := s.getDB(ctx).Create(&posting).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating posting: %w", err)
	}
	return &posting, nil
}

func (s *PostingStore) Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	var posting model.JobPosting
	result := s.getDB(ctx).First(&posting, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying posting: %w", result.Error)
	}
	return &posting, nil
}

func (s *PostingStore) UpdateWorkflow(ctx context.Context, posting *model.JobPosting) (*model.JobPosting, error) {
	currentVersion := posting.Version
	posting.Version++

	result := s.getDB(ctx).Model(&model.JobPosting{}).
		Where("id = ? AND version = ?", posting.ID, currentVersion).
		Select(workflowColumns).
		Updates(posting)
	if result.Error != nil {
		posting.Version = currentVersion
		return nil, fmt.Errorf("updating posting workflow: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		posting.Version = currentVersion
		return nil, ErrConcurrentUpdate
	}
	return posting, nil
}

func (s *PostingStore) List(ctx context.Context, filter *PostingQueryFilter) (model.JobPostingList, error) {
	var postings model.JobPostingList

	tx := s.getDB(ctx).Model(&model.JobPosting{}).Order("created_at")
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&postings).Error; err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	return postings, nil
}

func (s *PostingStore) Count(ctx context.Context, filter *PostingQueryFilter) (int64, error) {
	var count int64

	tx := s.getDB(ctx).Model(&model.JobPosting{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return count, nil
}

func (s *PostingStore) CountDistinctEmployersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.getDB(ctx).Model(&model.JobPosting{}).
		Where("created_at >= ?", since).
		Distinct("employer_number").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting active employers: %w", err)
	}
	return count, nil
}

func (s *PostingStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
