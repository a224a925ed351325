package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/receiptdrop/receiptdrop/internal/db"
	"github.com/receiptdrop/receiptdrop/internal/db/models"
	"github.com/receiptdrop/receiptdrop/internal/ledger"
	"github.com/receiptdrop/receiptdrop/internal/logging"
	"github.com/receiptdrop/receiptdrop/internal/receipt"
	"github.com/receiptdrop/receiptdrop/internal/web/middleware"
	"gorm.io/gorm"
)

// saveResponse is the JSON body of a save call: the honest outcome,
// including per-page detail when something went partially wrong.
type saveResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Result  *ledger.SaveResult `json:"result,omitempty"`
}

// SaveHandler persists the corrected receipt: pages to the period folder,
// one row to the period sheet, and an audit record locally.
func SaveHandler(database *gorm.DB, services ServiceBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Sign in required")
			return
		}

		pages, err := readPages(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rec := receipt.Receipt{
			Status: receipt.StatusSuccess,
			Date:   r.FormValue("date"),
			Item:   r.FormValue("item"),
			Amount: r.FormValue("amount"),
		}
		if !rec.Complete() {
			writeError(w, http.StatusUnprocessableEntity, "date, item and amount are all required")
			return
		}

		driveSvc, sheetsSvc, err := services(r.Context(), middleware.AccessTokenFrom(r.Context()))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to build Drive client: "+err.Error())
			return
		}

		uploader := ledger.NewUploader(driveSvc, sheetsSvc)
		reqID := logging.GetRequestID(r.Context())
		uploader.OnProgress(func(done, total int) {
			log.Printf("📤 [%s] Uploading pages %d/%d", reqID, done, total)
		})

		result, saveErr := uploader.SaveReceipt(r.Context(), rec, pages)

		recordSave(database, user.Email, rec, pages, result, saveErr)

		switch {
		case errors.Is(saveErr, ledger.ErrValidation):
			writeError(w, http.StatusUnprocessableEntity, "receipt is not ready to save")
		case saveErr != nil:
			writeJSON(w, http.StatusBadGateway, saveResponse{
				Success: false,
				Error:   saveErr.Error(),
				Result:  result,
			})
		default:
			writeJSON(w, http.StatusOK, saveResponse{Success: true, Result: result})
		}
	}
}

// recordSave writes the audit row; failures are logged, not surfaced, since
// the Drive state is already what the user cares about.
func recordSave(database *gorm.DB, email string, rec receipt.Receipt, pages []receipt.Page, result *ledger.SaveResult, saveErr error) {
	record := models.SaveRecord{
		ID:         uuid.New().String(),
		Email:      email,
		Date:       rec.Date,
		Item:       rec.Item,
		Amount:     rec.Amount,
		PagesTotal: len(pages),
		CreatedAt:  time.Now(),
	}
	if result != nil {
		record.Period = result.Period.Key
		record.PagesUploaded = result.PagesUploaded()
		record.RowAppended = result.RowAppended
	}
	if saveErr != nil {
		record.ErrDetail = saveErr.Error()
	}

	if err := db.RecordSave(database, record); err != nil {
		log.Printf("⚠️ Failed to record save history: %v", err)
	}
}
