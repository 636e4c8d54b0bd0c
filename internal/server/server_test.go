package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kintreehq/kintree/pkg/codec"
	"github.com/kintreehq/kintree/pkg/editor"
	"github.com/kintreehq/kintree/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *editor.Editor) {
	t.Helper()
	ed, err := editor.Open(context.Background(), store.NewMemStore())
	if err != nil {
		t.Fatalf("editor.Open: %v", err)
	}
	return New(ed), ed
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = httptest.NewRequest(method, path, bytes.NewReader(data))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func createPerson(t *testing.T, h http.Handler, rec codec.PersonRecord) codec.PersonRecord {
	t.Helper()
	w := doJSON(t, h, "POST", "/api/people", rec)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s: status %d: %s", rec.FirstName, w.Code, w.Body.String())
	}
	var saved codec.PersonRecord
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	return saved
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s.Router(), "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCreateAndGetGraph(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	ada := createPerson(t, h, codec.PersonRecord{FirstName: "Ada", BirthDate: "1950"})
	if ada.ID == "" {
		t.Fatal("create response missing ID")
	}

	w := doJSON(t, h, "GET", "/api/graph", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph status = %d", w.Code)
	}
	var doc codec.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding graph: %v", err)
	}
	if doc.Version != codec.Version || len(doc.People) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.People[0].BirthDate != "1950" {
		t.Errorf("birthDate = %q", doc.People[0].BirthDate)
	}
}

func TestCreatePersonValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	w := doJSON(t, h, "POST", "/api/people", codec.PersonRecord{
		FirstName: "",
		BirthDate: "1950-13-01",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Messages []string `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Messages) == 0 {
		t.Fatal("missing validation messages")
	}

	// Rule violations also arrive as 422 with all problems listed.
	w = doJSON(t, h, "POST", "/api/people", codec.PersonRecord{
		FirstName: "",
		ParentIDs: []string{"ghost"},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Messages) < 2 {
		t.Fatalf("messages = %v, want at least 2", resp.Messages)
	}
}

func TestUpdateAndDeletePerson(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	ada := createPerson(t, h, codec.PersonRecord{FirstName: "Ada"})

	ada.LastName = "Hart"
	w := doJSON(t, h, "PUT", "/api/people/"+ada.ID, ada)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "PUT", "/api/people/ghost", ada)
	if w.Code != http.StatusNotFound {
		t.Fatalf("update unknown status = %d", w.Code)
	}

	w = doJSON(t, h, "DELETE", "/api/people/"+ada.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, h, "DELETE", "/api/people/"+ada.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", w.Code)
	}
}

func TestSetParentsAndSiblings(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	ada := createPerson(t, h, codec.PersonRecord{FirstName: "Ada"})
	ben := createPerson(t, h, codec.PersonRecord{FirstName: "Ben"})
	cam := createPerson(t, h, codec.PersonRecord{FirstName: "Cam"})

	w := doJSON(t, h, "PUT", "/api/people/"+cam.ID+"/parents",
		setParentsRequest{ParentIDs: []string{ada.ID, ben.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("set parents status = %d: %s", w.Code, w.Body.String())
	}
	var rec codec.PersonRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.ParentIDs) != 2 {
		t.Fatalf("parentIds = %v", rec.ParentIDs)
	}

	// A cycle-inducing parent set is a 422.
	w = doJSON(t, h, "PUT", "/api/people/"+ada.ID+"/parents",
		setParentsRequest{ParentIDs: []string{cam.ID}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("cycle status = %d", w.Code)
	}

	w = doJSON(t, h, "POST", "/api/people/"+ada.ID+"/siblings/"+ben.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("add sibling status = %d: %s", w.Code, w.Body.String())
	}

	// Symmetric link visible from the other side.
	w = doJSON(t, h, "GET", "/api/graph", nil)
	var doc codec.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	for _, p := range doc.People {
		if p.ID == ben.ID && len(p.SiblingIDs) != 1 {
			t.Errorf("ben siblingIds = %v", p.SiblingIDs)
		}
	}

	w = doJSON(t, h, "DELETE", "/api/people/"+ada.ID+"/siblings/"+ben.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove sibling status = %d", w.Code)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	ada := createPerson(t, h, codec.PersonRecord{FirstName: "Ada"})
	createPerson(t, h, codec.PersonRecord{FirstName: "Ben", ParentIDs: []string{ada.ID}})

	w := doJSON(t, h, "GET", "/api/layout", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("layout status = %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Nodes []struct {
			ID         string  `json:"id"`
			Generation int     `json:"generation"`
			Y          float64 `json:"y"`
		} `json:"nodes"`
		Edges []struct{ From, To string } `json:"edges"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding layout: %v", err)
	}
	if len(out.Nodes) != 2 || len(out.Edges) != 1 {
		t.Fatalf("nodes=%d edges=%d", len(out.Nodes), len(out.Edges))
	}
}

func TestRenderSVGEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	createPerson(t, h, codec.PersonRecord{FirstName: "Ada"})

	w := doJSON(t, h, "GET", "/api/render/svg", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Error("body is not SVG")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()
	createPerson(t, h, codec.PersonRecord{FirstName: "Ada", BirthDate: "1950"})

	w := doJSON(t, h, "GET", "/api/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	exported := w.Body.Bytes()

	other, _ := newTestServer(t)
	oh := other.Router()
	r := httptest.NewRequest("POST", "/api/import", bytes.NewReader(exported))
	rec := httptest.NewRecorder()
	oh.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}

	w = doJSON(t, oh, "GET", "/api/graph", nil)
	var doc codec.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.People) != 1 || doc.People[0].FirstName != "Ada" {
		t.Fatalf("imported doc = %+v", doc)
	}
}

func TestImportRejectsBadDocument(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	r := httptest.NewRequest("POST", "/api/import", strings.NewReader(`{"version":2,"updatedAt":"x","people":[]}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid family graph document") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestPhotoUploadAndRemove(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	ada := createPerson(t, h, codec.PersonRecord{FirstName: "Ada"})

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	r := httptest.NewRequest("PUT", "/api/people/"+ada.ID+"/photo", &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("photo upload status = %d: %s", w.Code, w.Body.String())
	}
	var saved codec.PersonRecord
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(saved.Photo, "data:image/jpeg;base64,") {
		t.Errorf("photo payload = %q, want jpeg data URI", saved.Photo)
	}

	w = doJSON(t, h, "DELETE", "/api/people/"+ada.ID+"/photo", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("photo remove status = %d", w.Code)
	}
	w = doJSON(t, h, "GET", "/api/graph", nil)
	var doc codec.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.People[0].Photo != "" {
		t.Error("photo should be cleared after removal")
	}
}

func TestPhotoUploadSoftFailure(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	ada := createPerson(t, h, codec.PersonRecord{FirstName: "Ada"})

	r := httptest.NewRequest("PUT", "/api/people/"+ada.ID+"/photo", strings.NewReader("not an image"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want soft failure with 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "warning") {
		t.Errorf("body = %s, want a warning", w.Body.String())
	}

	w = doJSON(t, h, "PUT", "/api/people/ghost/photo", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown person status = %d", w.Code)
	}
}
