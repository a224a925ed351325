package handlers

import (
	"log"
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/logging"
)

// ScanHandler runs extraction over the uploaded pages and returns the
// receipt fields for the user to review and correct. Terminal extraction
// errors (not a receipt, multiple transactions) come back as a normal
// response with status "error" so the UI can show them inline; only an
// exhausted retry loop becomes an HTTP failure.
func ScanHandler(extractor Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages, err := readPages(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := extractor.Analyze(r.Context(), pages)
		if err != nil {
			log.Printf("❌ [%s] Extraction failed: %v", logging.GetRequestID(r.Context()), err)
			writeJSON(w, http.StatusBadGateway, rec)
			return
		}

		log.Printf("🔍 [%s] Scanned %d page(s): status=%s", logging.GetRequestID(r.Context()), len(pages), rec.Status)
		writeJSON(w, http.StatusOK, rec)
	}
}
