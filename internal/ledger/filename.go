package ledger

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nonDigit = regexp.MustCompile(`\D`)
	nonWord  = regexp.MustCompile(`\W`)
)

// CraftFilename derives a deterministic page filename from the receipt
// fields: normalized date, item and amount plus the page ordinal, joined
// with "+", with the extension taken from the mime subtype. Empty fields
// are skipped rather than leaving empty segments.
func CraftFilename(date, item, amount string, ordinal int, mimeType string) string {
	var parts []string
	if date != "" {
		parts = append(parts, nonDigit.ReplaceAllString(date, "_"))
	}
	if item != "" {
		parts = append(parts, nonWord.ReplaceAllString(item, "_"))
	}
	if amount != "" {
		parts = append(parts, nonDigit.ReplaceAllString(amount, "_"))
	}
	parts = append(parts, strconv.Itoa(ordinal))

	ext := mimeType
	if i := strings.Index(mimeType, "/"); i >= 0 {
		ext = mimeType[i+1:]
	}
	return strings.Join(parts, "+") + "." + ext
}
