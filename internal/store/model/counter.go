package model

// Counter is a named monotonic sequence backed by a single row. Draws happen
// via an atomic UPDATE ... RETURNING, never via a table scan.
type Counter struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}
