// Package handlers wires the web routes: upload page, extraction scan,
// Drive/Sheets save, and save history.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/receiptdrop/receiptdrop/internal/receipt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// maxUploadBytes caps a whole multipart submission (all pages).
const maxUploadBytes = 32 << 20

// acceptedTypes mirrors the upload control. PDFs are rasterized to images
// before they reach the server, so only image types appear here.
var acceptedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Analyzer turns ordered receipt pages into structured fields.
type Analyzer interface {
	Analyze(ctx context.Context, pages []receipt.Page) (receipt.Receipt, error)
}

// ServiceBuilder constructs Drive and Sheets clients for the request's
// access token. Tests substitute a builder pointing at a fake provider.
type ServiceBuilder func(ctx context.Context, accessToken string) (*drive.Service, *sheets.Service, error)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// readPages collects the uploaded "pages" files in submission order,
// assigning 1-based ordinals.
func readPages(r *http.Request) ([]receipt.Page, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parse upload: %w", err)
	}
	if r.MultipartForm == nil {
		return nil, fmt.Errorf("no upload data")
	}

	files := r.MultipartForm.File["pages"]
	if len(files) == 0 {
		return nil, fmt.Errorf("no pages uploaded")
	}

	pages := make([]receipt.Page, 0, len(files))
	for i, fh := range files {
		mimeType := fh.Header.Get("Content-Type")
		if !acceptedTypes[mimeType] {
			return nil, fmt.Errorf("unsupported file type %q", mimeType)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open page %d: %w", i+1, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i+1, err)
		}

		pages = append(pages, receipt.Page{
			Ordinal:  i + 1,
			Bytes:    data,
			MimeType: mimeType,
		})
	}
	return pages, nil
}
