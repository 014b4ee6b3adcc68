package model

import (
	"encoding/json"
	"time"
)

// Employer carries the minimal profile the engine needs. The employer number
// is nil until the allocator assigns it and immutable afterwards.
type Employer struct {
	ID             uint    `gorm:"primaryKey"`
	EmployerNumber *string `gorm:"uniqueIndex;size:16"`
	CompanyName    string  `gorm:"not null"`
	ContactEmail   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (e Employer) String() string {
	val, _ := json.Marshal(e)
	return string(val)
}
