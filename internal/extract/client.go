// Package extract calls a vision-capable Gemini model to turn receipt
// images into structured fields, and parses the model's free-form answer.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/receiptdrop/receiptdrop/internal/receipt"
	"github.com/receiptdrop/receiptdrop/internal/util"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 5 * time.Minute

	// maxAttempts bounds the retry loop around malformed model output.
	maxAttempts = 5
)

const defaultPrompt = `You will be provided a receipt or invoice; it might be a single page or multiple pages of images.

Read the receipt and recognize the following information:
1. date: the date of this transaction
2. item: the name of the store
3. amount: the total price of the transaction

Notes:
1. the date in the receipt may appear as YYYY-MM-DD, mm/dd/yy, mm/dd/yyyy and so on; always answer it formatted as YYYY-MM-DD
2. do not list subtotal, tax or tip; give only the description and the total price of the transaction
3. read the receipt again and again until you are sure about the information

Answer with one line per field, in exactly this form:

[[date]]: [[YYYY-MM-DD]]
[[item]]: [[...]]
[[amount]]: [[...]]

If you cannot recognize one of the fields, leave its value empty, for example:

[[item]]: [[]]

If the pages belong to different transactions, answer only:

[[message]]: [[error: multiple transactions]]

If it is not a receipt, answer only:

[[message]]: [[error: not a receipt]]

Do not include any content other than these lines in your answer.`

// Client talks to the Gemini generateContent endpoint with a server-side
// API key.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	prompt     string
	httpClient *http.Client
}

// NewClient creates a Client with the given API key and settings.
func NewClient(apiKey string, settings Settings) *Client {
	return NewClientWithHTTP(apiKey, settings, "", nil)
}

// NewClientWithHTTP creates a Client with an explicit base URL and HTTP
// client. Tests point baseURL at a fake server.
func NewClientWithHTTP(apiKey string, settings Settings, baseURL string, httpClient *http.Client) *Client {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if trimmedBaseURL == "" {
		trimmedBaseURL = defaultBaseURL
	}
	model := strings.TrimSpace(settings.Model)
	if model == "" {
		model = defaultModel
	}
	prompt := settings.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(trimmedBaseURL, "/"),
		model:      model,
		prompt:     prompt,
		httpClient: httpClient,
	}
}

// Analyze sends the pages to the model and coerces the answer into a
// receipt. Malformed output is retried up to the attempt bound; the
// not-a-receipt and multiple-transactions answers are terminal immediately.
func (c *Client) Analyze(ctx context.Context, pages []receipt.Page) (receipt.Receipt, error) {
	if len(pages) == 0 {
		return receipt.Receipt{}, fmt.Errorf("extract: no pages to analyze")
	}

	body, err := json.Marshal(c.buildRequest(pages))
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("extract: encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.generate(ctx, body)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ Extraction call failed (attempt %d/%d): %v", attempt, maxAttempts, err)
			continue
		}

		rec, err := ParseResponse(text)
		if err != nil {
			lastErr = err
			log.Printf("⚠️ Malformed model output (attempt %d/%d): %s", attempt, maxAttempts, util.TruncateLog(text, 256))
			continue
		}

		return rec, nil
	}

	return receipt.Receipt{Status: receipt.StatusError, ErrKind: receipt.ErrKindMalformedOutput},
		fmt.Errorf("extract: gave up after %d attempts: %w", maxAttempts, lastErr)
}

type generatePart struct {
	Text       string              `json:"text,omitempty"`
	InlineData *generateInlineData `json:"inlineData,omitempty"`
}

type generateInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContent struct {
	Role  string         `json:"role"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

func (c *Client) buildRequest(pages []receipt.Page) generateRequest {
	parts := make([]generatePart, 0, len(pages)+1)
	parts = append(parts, generatePart{Text: c.prompt})
	for _, page := range pages {
		parts = append(parts, generatePart{InlineData: &generateInlineData{
			MimeType: page.MimeType,
			Data:     base64.StdEncoding.EncodeToString(page.Bytes),
		}})
	}
	return generateRequest{Contents: []generateContent{{Role: "user", Parts: parts}}}
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned %d: %s", resp.StatusCode, util.TruncateBytes(raw))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
