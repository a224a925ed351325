package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/receiptdrop/receiptdrop/internal/auth/session"
	"github.com/receiptdrop/receiptdrop/internal/auth/token"
	"github.com/receiptdrop/receiptdrop/internal/db"
	"github.com/receiptdrop/receiptdrop/internal/web/middleware"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// testPage is one uploaded file in a multipart submission.
type testPage struct {
	name     string
	mimeType string
	content  string
}

// multipartBody builds the multipart form the upload page submits: receipt
// fields plus the page files, each with its content type.
func multipartBody(t *testing.T, fields map[string]string, pages []testPage) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, p := range pages {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="pages"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.mimeType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := io.WriteString(part, p.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// authedRequest sends req through RequireSession with a signed-in user so
// the handler sees the same context it gets in production.
func authedRequest(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	sessions := session.NewStore("test-secret", false)
	tokens := token.NewManager(&oauth2.Config{})

	user := session.User{
		Name:         "Ana",
		Email:        "ana@example.com",
		AccessToken:  "test-access",
		RefreshToken: "test-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
	issue := httptest.NewRecorder()
	if err := sessions.Issue(issue, user); err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	for _, c := range issue.Result().Cookies() {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	middleware.RequireSession(sessions, tokens, true)(handler).ServeHTTP(rec, req)
	return rec
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("InitDB() error: %v", err)
	}
	return database
}
