package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/receiptdrop/receiptdrop/internal/receipt"
)

// ParseError marks model output that could not be coerced into a receipt.
// It is retryable, unlike the terminal extraction error kinds.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse receipt: " + e.Reason
}

// Parser coerces free-form model output into a receipt.
type Parser interface {
	Parse(text string) (receipt.Receipt, error)
}

var bracketLine = regexp.MustCompile(`\[\[(.*?)\]\]: \[\[(.*?)\]\]`)

// BracketParser reads the bracketed key-value convention, one field per
// line: `[[date]]: [[2024-02-14]]`. Lines that do not match are ignored. An
// explicit `[[message]]: [[error: ...]]` line overrides any field lines.
type BracketParser struct{}

func (BracketParser) Parse(text string) (receipt.Receipt, error) {
	var rec receipt.Receipt
	matched := false

	for _, line := range strings.Split(text, "\n") {
		m := bracketLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])

		if key == "message" {
			if kind, ok := errorKind(value); ok {
				return receipt.Receipt{Status: receipt.StatusError, ErrKind: kind}, nil
			}
			if strings.Contains(strings.ToLower(value), "error") {
				return receipt.Receipt{}, &ParseError{Reason: fmt.Sprintf("unrecognized error message %q", value)}
			}
			continue
		}

		switch key {
		case "date":
			rec.Date = value
			matched = true
		case "item":
			rec.Item = value
			matched = true
		case "amount", "price":
			rec.Amount = value
			matched = true
		}
	}

	if !matched {
		return receipt.Receipt{}, &ParseError{Reason: "no bracketed fields found"}
	}
	rec.Status = receipt.StatusSuccess
	return rec, nil
}

// bareKey quotes unquoted or single-quoted object keys so the repaired text
// parses as strict JSON.
var bareKey = regexp.MustCompile(`(['"])?([a-zA-Z0-9_]+)(['"])?:`)

// JSONParser is the best-effort fallback for models that answer with a
// fenced JSON object carrying bare or single-quoted keys. The repair step is
// inherently fragile; a parse failure is retryable, not fatal.
type JSONParser struct{}

func (JSONParser) Parse(text string) (receipt.Receipt, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = bareKey.ReplaceAllString(cleaned, `"$2":`)
	cleaned = strings.ReplaceAll(cleaned, "'", `"`)

	var raw struct {
		Message string `json:"message"`
		Date    string `json:"date"`
		Item    string `json:"item"`
		Amount  string `json:"amount"`
		Price   string `json:"price"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return receipt.Receipt{}, &ParseError{Reason: err.Error()}
	}

	if raw.Message != "" {
		if kind, ok := errorKind(raw.Message); ok {
			return receipt.Receipt{Status: receipt.StatusError, ErrKind: kind}, nil
		}
		return receipt.Receipt{}, &ParseError{Reason: fmt.Sprintf("unrecognized message %q", raw.Message)}
	}

	amount := raw.Amount
	if amount == "" {
		amount = raw.Price
	}
	return receipt.Receipt{
		Status: receipt.StatusSuccess,
		Date:   raw.Date,
		Item:   raw.Item,
		Amount: amount,
	}, nil
}

// ParseResponse runs the canonical bracket parser first and falls back to
// JSON repair for older output conventions.
func ParseResponse(text string) (receipt.Receipt, error) {
	rec, err := (BracketParser{}).Parse(text)
	if err == nil {
		return rec, nil
	}
	return (JSONParser{}).Parse(text)
}

func errorKind(msg string) (string, bool) {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "not a receipt"):
		return receipt.ErrKindNotAReceipt, true
	case strings.Contains(msg, "multiple transactions"):
		return receipt.ErrKindMultipleTx, true
	}
	return "", false
}
