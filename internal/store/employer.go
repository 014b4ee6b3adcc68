package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rosterhub/workflow-engine/internal/store/model"
	"gorm.io/gorm"
)

type Employer interface {
	Create(ctx context.Context, employer model.Employer) (*model.Employer, error)
	Get(ctx context.Context, id uint) (*model.Employer, error)
	GetByNumber(ctx context.Context, number string) (*model.Employer, error)
	// ClaimNumber sets the employer number only if none is assigned yet.
	// Returns ErrConcurrentUpdate when another caller claimed first.
	ClaimNumber(ctx context.Context, id uint, number string) error
	Count(ctx context.Context) (int64, error)
}

type EmployerStore struct {
	db *gorm.DB
}

// Make sure we conform to Employer interface
var _ Employer = (*EmployerStore)(nil)

func NewEmployerStore(db *gorm.DB) Employer {
	return &EmployerStore{db: db}
}

func (s *EmployerStore) Create(ctx context.Context, employer model.Employer) (*model.Employer, error) {
	if err := s.getDB(ctx).Create(&employer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating employer: %w", err)
	}
	return &employer, nil
}

func (s *EmployerStore) Get(ctx context.Context, id uint) (*model.Employer, error) {
	var employer model.Employer
	result := s.getDB(ctx).First(&employer, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying employer: %w", result.Error)
	}
	return &employer, nil
}

func (s *EmployerStore) GetByNumber(ctx context.Context, number string) (*model.Employer, error) {
	var employer model.Employer
	result := s.getDB(ctx).First(&employer, "employer_number = ?", number)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying employer by number: %w", result.Error)
	}
	return &employer, nil
}

func (s *EmployerStore) ClaimNumber(ctx context.Context, id uint, number string) error {
	result := s.getDB(ctx).Model(&model.Employer{}).
		Where("id = ? AND employer_number IS NULL", id).
		Update("employer_number", number)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("claiming employer number: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (s *EmployerStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.getDB(ctx).Model(&model.Employer{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting employers: %w", err)
	}
	return count, nil
}

func (s *EmployerStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
