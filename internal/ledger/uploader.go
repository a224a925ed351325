package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/receiptdrop/receiptdrop/internal/receipt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

// ErrValidation gates SaveReceipt before any provider call: the receipt
// must be a complete success and at least one page must be present.
var ErrValidation = errors.New("ledger: receipt is not ready to save")

// PageResult is the outcome of one page upload.
type PageResult struct {
	Ordinal int    `json:"page"`
	FileID  string `json:"fileId,omitempty"`
	Err     string `json:"error,omitempty"`
}

// SaveResult reports what actually happened. There is no rollback across
// steps, so partial outcomes are surfaced rather than hidden: a retry of
// the whole save is safe but re-uploads already-succeeded pages.
type SaveResult struct {
	Period      Period       `json:"period"`
	Pages       []PageResult `json:"pages"`
	RowAppended bool         `json:"rowAppended"`
}

// PagesUploaded counts the pages that made it to Drive.
func (r *SaveResult) PagesUploaded() int {
	n := 0
	for _, p := range r.Pages {
		if p.Err == "" {
			n++
		}
	}
	return n
}

// Progress receives (done, total) after each page settles.
type Progress func(done, total int)

// Uploader persists the pages and the ledger row for one receipt.
type Uploader struct {
	drive      *drive.Service
	sheets     *sheets.Service
	reconciler *Reconciler
	progress   Progress
}

// NewUploader builds an Uploader (and its Reconciler) over authorized Drive
// and Sheets clients.
func NewUploader(driveSvc *drive.Service, sheetsSvc *sheets.Service) *Uploader {
	return &Uploader{
		drive:      driveSvc,
		sheets:     sheetsSvc,
		reconciler: NewReconciler(driveSvc, sheetsSvc),
	}
}

// OnProgress registers a callback observing page upload progress.
func (u *Uploader) OnProgress(fn Progress) {
	u.progress = fn
}

// SaveReceipt uploads every page in ordinal order and appends exactly one
// ledger row per receipt, after all page outcomes are known. A page failure
// does not cancel the remaining pages; the first failure is returned once
// everything has been attempted, together with the full result.
func (u *Uploader) SaveReceipt(ctx context.Context, rec receipt.Receipt, pages []receipt.Page) (*SaveResult, error) {
	if !rec.Complete() || len(pages) == 0 {
		return nil, ErrValidation
	}

	period, err := u.reconciler.ResolvePeriod(ctx, rec.Date)
	if err != nil {
		return nil, err
	}

	res := &SaveResult{Period: period}
	var firstErr error

	for i, page := range pages {
		name := CraftFilename(rec.Date, rec.Item, rec.Amount, page.Ordinal, page.MimeType)
		fileID, err := u.uploadPage(ctx, period.FolderID, name, page)

		pr := PageResult{Ordinal: page.Ordinal, FileID: fileID}
		if err != nil {
			pr.Err = err.Error()
			if firstErr == nil {
				firstErr = fmt.Errorf("upload page %d: %w", page.Ordinal, err)
			}
			log.Printf("❌ Upload failed for page %d: %v", page.Ordinal, err)
		} else {
			log.Printf("📄 Uploaded %s (%d/%d)", name, i+1, len(pages))
		}
		res.Pages = append(res.Pages, pr)

		if u.progress != nil {
			u.progress(i+1, len(pages))
		}
	}

	if err := u.appendRow(ctx, period.SheetID, rec); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("append ledger row: %w", err)
		}
		log.Printf("❌ Ledger append failed for %s: %v", period.Key, err)
	} else {
		res.RowAppended = true
	}

	return res, firstErr
}

func (u *Uploader) uploadPage(ctx context.Context, folderID, name string, page receipt.Page) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: page.MimeType,
		Parents:  []string{folderID},
	}
	f, err := u.drive.Files.Create(meta).
		Media(bytes.NewReader(page.Bytes), googleapi.ContentType(page.MimeType)).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// appendRow adds [date, item, amount] beneath existing content. Append
// semantics, never an overwrite of prior rows.
func (u *Uploader) appendRow(ctx context.Context, sheetID string, rec receipt.Receipt) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{{rec.Date, rec.Item, rec.Amount}}}
	_, err := u.sheets.Spreadsheets.Values.Append(sheetID, "A:C", vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}
