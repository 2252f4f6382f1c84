package contact

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

func newTestRouter() http.Handler {
	svc := NewService(NewInMemoryRepository(), nil, logging.Discard())
	r := chi.NewRouter()
	NewHandler(svc, logging.Discard()).Routes(r)
	return r
}

func doRequest(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateContact_Success(t *testing.T) {
	h := newTestRouter()
	body, _ := json.Marshal(CreateRequest{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Phone:   "7165551234",
		Message: "Do you take new patients?",
	})

	w := doRequest(h, http.MethodPost, "/contact", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var sub Submission
	if err := json.NewDecoder(w.Body).Decode(&sub); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if sub.ID == "" || sub.CreatedAt.IsZero() {
		t.Fatalf("expected identity and timestamp, got %+v", sub)
	}

	w = doRequest(h, http.MethodGet, "/contact/"+sub.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestCreateContact_InvalidRequest(t *testing.T) {
	h := newTestRouter()
	body, _ := json.Marshal(CreateRequest{Name: "Jane", Email: "not-an-email"})

	w := doRequest(h, http.MethodPost, "/contact", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "Invalid contact data" {
		t.Errorf("unexpected error %q", resp.Error)
	}
	got := map[string]string{}
	for _, d := range resp.Details {
		got[d.Field] = d.Message
	}
	if got["email"] != "Valid email is required" {
		t.Errorf("expected email violation, got %+v", resp.Details)
	}
	if got["phone"] == "" || got["message"] == "" {
		t.Errorf("expected phone and message violations, got %+v", resp.Details)
	}
	if _, ok := got["name"]; ok {
		t.Errorf("name should be valid, got %+v", resp.Details)
	}
}

func TestCreateContact_MalformedBody(t *testing.T) {
	h := newTestRouter()
	w := doRequest(h, http.MethodPost, "/contact", []byte("not json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestListContact_NewestFirst(t *testing.T) {
	h := newTestRouter()
	for _, name := range []string{"First", "Second"} {
		body, _ := json.Marshal(CreateRequest{Name: name, Email: "a@example.com", Phone: "7165551234", Message: "Hi"})
		if w := doRequest(h, http.MethodPost, "/contact", body); w.Code != http.StatusCreated {
			t.Fatalf("create %s: status %d", name, w.Code)
		}
	}

	w := doRequest(h, http.MethodGet, "/contact", nil)
	var list []Submission
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Second" || list[1].Name != "First" {
		t.Errorf("expected newest first, got %+v", list)
	}
}

func TestGetContact_NotFound(t *testing.T) {
	h := newTestRouter()
	w := doRequest(h, http.MethodGet, "/contact/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if !strings.Contains(w.Body.String(), "Contact submission not found") {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}
