package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowLogEntry documents one transition of a posting. Entries are
// append-only; the store exposes no update or delete for them.
type WorkflowLogEntry struct {
	ID               uint      `gorm:"primaryKey"`
	PostingID        uuid.UUID `gorm:"index;not null"`
	EmployerNumber   string    `gorm:"index"`
	Action           string    `gorm:"not null"`
	FromStatus       string    `gorm:"not null"`
	ToStatus         string    `gorm:"index;not null"`
	StageBefore      string
	StageAfter       string
	Actor            string `gorm:"not null"`
	Notes            string
	Automated        bool
	NotificationSent bool
	// DurationMinutes is the elapsed time since the posting's previous
	// transition, zero for the first entry.
	DurationMinutes float64
	CreatedAt       time.Time `gorm:"index"`
}
