package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeGoogle stands in for the Drive and Sheets APIs behind a single
// endpoint. It stores files and sheet rows in memory and counts calls so
// tests can assert idempotence.
type fakeGoogle struct {
	t *testing.T

	mu        sync.Mutex
	files     []fakeFile
	sheetRows map[string][][]interface{}
	nextID    int

	listCalls    int
	createCalls  int
	uploadCalls  int
	headerReads  int
	headerWrites int
	appendCalls  int

	failUploads map[string]bool
	failOps     map[string]bool
}

type fakeFile struct {
	ID       string
	Name     string
	MimeType string
	Parents  []string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	return &fakeGoogle{
		t:           t,
		sheetRows:   map[string][][]interface{}{},
		failUploads: map[string]bool{},
		failOps:     map[string]bool{},
	}
}

// seedFile pre-populates a file as if a prior save created it.
func (f *fakeGoogle) seedFile(name, mimeType string, parents ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newIDLocked()
	f.files = append(f.files, fakeFile{ID: id, Name: name, MimeType: mimeType, Parents: parents})
	if mimeType == sheetMimeType {
		f.sheetRows[id] = nil
	}
	return id
}

func (f *fakeGoogle) newIDLocked() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeGoogle) fail(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprint(w, `{"error": {"code": 500, "message": "backend unavailable"}}`)
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/files":
		f.handleList(w, r)
	case r.Method == http.MethodPost && path == "/files":
		f.handleCreate(w, r)
	case r.Method == http.MethodPost && path == "/upload/drive/v3/files":
		f.handleUpload(w, r)
	case strings.HasPrefix(path, "/v4/spreadsheets/"):
		f.handleValues(w, r)
	default:
		f.t.Errorf("fake google: unexpected request %s %s", r.Method, path)
		http.NotFound(w, r)
	}
}

var (
	queryName    = regexp.MustCompile(`name = '([^']+)'`)
	queryMime    = regexp.MustCompile(`mimeType = '([^']+)'`)
	queryParents = regexp.MustCompile(`'([^']+)' in parents`)
)

func (f *fakeGoogle) handleList(w http.ResponseWriter, r *http.Request) {
	f.listCalls++
	if f.failOps["list"] {
		f.fail(w)
		return
	}

	q := r.URL.Query().Get("q")
	name := submatch(queryName, q)
	mimeType := submatch(queryMime, q)
	parent := submatch(queryParents, q)

	var matches []map[string]string
	for _, file := range f.files {
		if name != "" && file.Name != name {
			continue
		}
		if mimeType != "" && file.MimeType != mimeType {
			continue
		}
		if parent != "" && !hasParent(file, parent) {
			continue
		}
		matches = append(matches, map[string]string{"id": file.ID, "name": file.Name})
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"files": matches})
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func hasParent(f fakeFile, parent string) bool {
	for _, p := range f.Parents {
		if p == parent {
			return true
		}
	}
	return false
}

func (f *fakeGoogle) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.createCalls++
	if f.failOps["create"] {
		f.fail(w)
		return
	}

	var meta struct {
		Name     string   `json:"name"`
		MimeType string   `json:"mimeType"`
		Parents  []string `json:"parents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		f.t.Errorf("fake google: decode create metadata: %v", err)
		f.fail(w)
		return
	}

	id := f.newIDLocked()
	f.files = append(f.files, fakeFile{ID: id, Name: meta.Name, MimeType: meta.MimeType, Parents: meta.Parents})
	if meta.MimeType == sheetMimeType {
		f.sheetRows[id] = nil
	}
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// handleUpload accepts the multipart/related media upload the Drive client
// sends when metadata and content travel together.
func (f *fakeGoogle) handleUpload(w http.ResponseWriter, r *http.Request) {
	f.uploadCalls++

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		f.t.Errorf("fake google: parse upload content type: %v", err)
		f.fail(w)
		return
	}
	mr := multipart.NewReader(r.Body, params["boundary"])

	metaPart, err := mr.NextPart()
	if err != nil {
		f.t.Errorf("fake google: read metadata part: %v", err)
		f.fail(w)
		return
	}
	var meta struct {
		Name     string   `json:"name"`
		MimeType string   `json:"mimeType"`
		Parents  []string `json:"parents"`
	}
	if err := json.NewDecoder(metaPart).Decode(&meta); err != nil {
		f.t.Errorf("fake google: decode upload metadata: %v", err)
		f.fail(w)
		return
	}
	if mediaPart, err := mr.NextPart(); err == nil {
		io.Copy(io.Discard, mediaPart)
	}

	if f.failUploads[meta.Name] {
		f.fail(w)
		return
	}

	id := f.newIDLocked()
	f.files = append(f.files, fakeFile{ID: id, Name: meta.Name, MimeType: meta.MimeType, Parents: meta.Parents})
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (f *fakeGoogle) handleValues(w http.ResponseWriter, r *http.Request) {
	// /v4/spreadsheets/{id}/values/{range}[:append]
	rest := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/")
	sheetID, valueRange, ok := strings.Cut(rest, "/values/")
	if !ok {
		f.t.Errorf("fake google: unexpected sheets path %s", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	if strings.HasSuffix(valueRange, ":append") {
		f.appendCalls++
		if f.failOps["append"] {
			f.fail(w)
			return
		}
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			f.t.Errorf("fake google: decode append body: %v", err)
			f.fail(w)
			return
		}
		f.sheetRows[sheetID] = append(f.sheetRows[sheetID], vr.Values...)
		json.NewEncoder(w).Encode(map[string]interface{}{})
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.headerReads++
		if f.failOps["headerGet"] {
			f.fail(w)
			return
		}
		resp := map[string]interface{}{"range": valueRange}
		if rows := f.sheetRows[sheetID]; len(rows) > 0 {
			resp["values"] = rows[:1]
		}
		json.NewEncoder(w).Encode(resp)
	case http.MethodPut:
		f.headerWrites++
		if f.failOps["headerPut"] {
			f.fail(w)
			return
		}
		var vr sheets.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			f.t.Errorf("fake google: decode header body: %v", err)
			f.fail(w)
			return
		}
		if len(f.sheetRows[sheetID]) == 0 {
			f.sheetRows[sheetID] = append(f.sheetRows[sheetID], nil)
		}
		f.sheetRows[sheetID][0] = vr.Values[0]
		json.NewEncoder(w).Encode(map[string]interface{}{})
	default:
		f.t.Errorf("fake google: unexpected method %s for %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	}
}

// newTestServices starts a fake Google backend and returns Drive and Sheets
// clients pointed at it.
func newTestServices(t *testing.T, fake *fakeGoogle) (*drive.Service, *sheets.Service) {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	driveSvc, sheetsSvc, err := NewServices(context.Background(), "test-token", option.WithEndpoint(ts.URL))
	if err != nil {
		t.Fatalf("NewServices() error: %v", err)
	}
	return driveSvc, sheetsSvc
}
