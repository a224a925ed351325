// Package receipt defines the shared shapes for an analyzed receipt and its
// image pages. These are the single source of truth used by the extraction,
// ledger and web layers.
package receipt

// Status values for an extraction result.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error kinds reported when Status is StatusError.
const (
	ErrKindNotAReceipt     = "not-a-receipt"
	ErrKindMultipleTx      = "multiple-transactions"
	ErrKindMalformedOutput = "malformed-output"
)

// Receipt is the structured result of analyzing one physical document.
// Date, Item and Amount are meaningful only when Status is StatusSuccess;
// a field the model could not recognize is an empty string, never absent.
// Amount stays a currency-formatted string and is never parsed to a number.
type Receipt struct {
	Status  string `json:"status"`
	Date    string `json:"date,omitempty"`
	Item    string `json:"item,omitempty"`
	Amount  string `json:"amount,omitempty"`
	ErrKind string `json:"error,omitempty"`
}

// Page is one image unit of a possibly multi-page receipt document.
// Ordinals start at 1 and ordering is significant.
type Page struct {
	Ordinal  int
	Bytes    []byte
	MimeType string
}

// Complete reports whether the receipt can be persisted: a successful
// extraction with all three fields present.
func (r Receipt) Complete() bool {
	return r.Status == StatusSuccess && r.Date != "" && r.Item != "" && r.Amount != ""
}
