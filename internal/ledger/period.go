// Package ledger persists receipts to Google Drive: a per-month folder, a
// companion spreadsheet with one row per expense, and the page uploads.
package ledger

import (
	"fmt"
	"time"
)

// PeriodKey buckets a receipt date into its reimbursement month:
// "2024-02-14" -> "reimbursement-02-2024". The day is irrelevant.
func PeriodKey(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("ledger: bad date %q: %w", date, err)
	}
	return fmt.Sprintf("reimbursement-%02d-%d", t.Month(), t.Year()), nil
}
