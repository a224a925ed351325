package ledger

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	sheetMimeType  = "application/vnd.google-apps.spreadsheet"
)

// headerRange addresses row 1, which always holds exactly headerRow.
const headerRange = "A1:C1"

var headerRow = []string{"date", "item", "amount"}

// Reconciliation step names carried by ReconcileError.
const (
	StepFolder = "find-or-create-folder"
	StepSheet  = "find-or-create-sheet"
	StepHeader = "ensure-header"
)

// ReconcileError names the reconciliation step that failed. The caller must
// not append rows without a resolved sheet.
type ReconcileError struct {
	Step string
	Err  error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Step, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// Period is the resolved (folder, spreadsheet) pair for one month.
type Period struct {
	Key      string `json:"key"`
	FolderID string `json:"folderId"`
	SheetID  string `json:"sheetId"`
}

// Reconciler finds or creates the Drive folder and spreadsheet for a
// period. Every step is find-by-name-or-create and idempotent: a search hit
// always wins over creation, and duplicate hits (eventual consistency,
// concurrent prior creation) resolve to the first result the provider
// returns.
type Reconciler struct {
	drive  *drive.Service
	sheets *sheets.Service
}

// NewReconciler builds a Reconciler over authorized Drive and Sheets
// clients.
func NewReconciler(driveSvc *drive.Service, sheetsSvc *sheets.Service) *Reconciler {
	return &Reconciler{drive: driveSvc, sheets: sheetsSvc}
}

// ResolvePeriod resolves the folder and spreadsheet for the receipt date
// and guarantees the spreadsheet header row.
func (rc *Reconciler) ResolvePeriod(ctx context.Context, date string) (Period, error) {
	key, err := PeriodKey(date)
	if err != nil {
		return Period{}, &ReconcileError{Step: StepFolder, Err: err}
	}

	folderID, err := rc.findOrCreateFolder(ctx, key)
	if err != nil {
		return Period{}, &ReconcileError{Step: StepFolder, Err: err}
	}

	sheetID, err := rc.findOrCreateSheet(ctx, folderID, key)
	if err != nil {
		return Period{}, &ReconcileError{Step: StepSheet, Err: err}
	}

	if err := rc.ensureHeader(ctx, sheetID); err != nil {
		return Period{}, &ReconcileError{Step: StepHeader, Err: err}
	}

	return Period{Key: key, FolderID: folderID, SheetID: sheetID}, nil
}

func (rc *Reconciler) findOrCreateFolder(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", name, folderMimeType)
	list, err := rc.drive.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search folder: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	log.Printf("📁 Folder %q not found, creating", name)
	folder, err := rc.drive.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return folder.Id, nil
}

func (rc *Reconciler) findOrCreateSheet(ctx context.Context, folderID, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		name, sheetMimeType, folderID)
	list, err := rc.drive.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search sheet: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	log.Printf("📊 Sheet %q not found, creating", name)
	sheet, err := rc.drive.Files.Create(&drive.File{
		Name:     name,
		MimeType: sheetMimeType,
		Parents:  []string{folderID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	return sheet.Id, nil
}

// ensureHeader repairs row 1 whenever it is not exactly the expected
// header. Safe to repeat.
func (rc *Reconciler) ensureHeader(ctx context.Context, sheetID string) error {
	resp, err := rc.sheets.Spreadsheets.Values.Get(sheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if headerMatches(resp.Values) {
		return nil
	}

	row := make([]interface{}, len(headerRow))
	for i, cell := range headerRow {
		row[i] = cell
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err = rc.sheets.Spreadsheets.Values.Update(sheetID, headerRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func headerMatches(values [][]interface{}) bool {
	if len(values) == 0 || len(values[0]) != len(headerRow) {
		return false
	}
	for i, want := range headerRow {
		got, ok := values[0][i].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
