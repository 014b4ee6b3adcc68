package store

import (
	"context"

	"github.com/rosterhub/workflow-engine/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Employer() Employer
	Posting() Posting
	WorkflowLog() WorkflowLog
	Counter() Counter
	InitialMigration() error
	Seed() error
	Close() error
}

type DataStore struct {
	db          *gorm.DB
	employer    Employer
	posting     Posting
	workflowLog WorkflowLog
	counter     Counter
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:          db,
		employer:    NewEmployerStore(db),
		posting:     NewPostingStore(db),
		workflowLog: NewWorkflowLogStore(db),
		counter:     NewCounterStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Employer() Employer {
	return s.employer
}

func (s *DataStore) Posting() Posting {
	return s.posting
}

func (s *DataStore) WorkflowLog() WorkflowLog {
	return s.workflowLog
}

func (s *DataStore) Counter() Counter {
	return s.counter
}

func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Employer{},
		&model.JobPosting{},
		&model.WorkflowLogEntry{},
		&model.Counter{},
	)
}

// Seed creates the employer-number counter row if it is missing. Safe to run
// on every startup.
func (s *DataStore) Seed() error {
	counter := model.Counter{Name: CounterEmployerNumber, Value: 0}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&counter).Error
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
