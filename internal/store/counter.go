package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const CounterEmployerNumber = "employer_number"

// Counter draws values from a named monotonic sequence. The draw is a single
// atomic UPDATE so concurrent callers can never observe the same value.
type Counter interface {
	Next(ctx context.Context, name string) (int64, error)
}

type CounterStore struct {
	db *gorm.DB
}

// Make sure we conform to Counter interface
var _ Counter = (*CounterStore)(nil)

func NewCounterStore(db *gorm.DB) Counter {
	return &CounterStore{db: db}
}

func (s *CounterStore) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	result := s.getDB(ctx).Raw(
		"UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value", name,
	).Scan(&value)
	if result.Error != nil {
		return 0, fmt.Errorf("incrementing counter %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrRecordNotFound
	}
	return value, nil
}

func (s *CounterStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
