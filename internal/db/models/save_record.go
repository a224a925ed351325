package models

import "time"

// SaveRecord is the audit trail for one save attempt: which period it went
// to, how many pages made it, and whether the ledger row was appended.
// Because uploads are not rolled back, this record is the operator's view
// of partial outcomes.
type SaveRecord struct {
	ID            string `gorm:"primaryKey"` // UUID
	Email         string `gorm:"index"`
	Period        string
	Date          string
	Item          string
	Amount        string
	PagesTotal    int
	PagesUploaded int
	RowAppended   bool
	ErrDetail     string
	CreatedAt     time.Time
}
