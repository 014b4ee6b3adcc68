package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobPosting is the workflow-bearing entity. EmployerNumber is a denormalized
// copy of the owning employer's number, written in the same transaction that
// creates the posting. Version backs the optimistic lock that serializes
// transitions per posting.
type JobPosting struct {
	ID             uuid.UUID `gorm:"primaryKey"`
	EmployerNumber string    `gorm:"index;not null"`
	Title          string    `gorm:"not null"`
	Status         string    `gorm:"index;not null"`
	WorkflowStage  string    `gorm:"not null"`
	// PreviousStatus holds the pre-flag status so unflag restores it without
	// guessing from the audit trail.
	PreviousStatus  string
	AutoPublish     bool
	RequiresReview  bool
	AdminPriority   int
	Featured        bool
	WorkflowNotes   string
	RejectionReason string
	Views           int
	Applications    int
	Version         int `gorm:"not null;default:0"`

	ScheduledPublishAt *time.Time
	ExpiresAt          *time.Time `gorm:"index"`
	SubmittedAt        *time.Time
	ApprovedAt         *time.Time
	PublishedAt        *time.Time
	ReviewCompletedAt  *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type JobPostingList []JobPosting

func (p JobPosting) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}
