package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/psychwebmd-intake/internal/drafts"
	"github.com/wolfman30/psychwebmd-intake/internal/flows"
	"github.com/wolfman30/psychwebmd-intake/internal/wizard"
	"github.com/wolfman30/psychwebmd-intake/pkg/logging"
)

type wizardFixture struct {
	router    chi.Router
	submitted int
	failWith  error
}

func newWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()
	fx := &wizardFixture{}
	engine, err := wizard.New(wizard.Config{
		Flows:  flows.Default(),
		Drafts: drafts.NewMemoryStore(time.Hour),
		Submitter: wizard.SubmitterFunc(func(ctx context.Context, req wizard.SubmitRequest) (*wizard.Receipt, error) {
			if fx.failWith != nil {
				return nil, fx.failWith
			}
			fx.submitted++
			return &wizard.Receipt{ID: "appt-1", CreatedAt: time.Now().UTC()}, nil
		}),
		Logger: logging.Discard(),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	NewWizardHandler(engine, logging.Discard()).Routes(r)
	fx.router = r
	return fx
}

func (fx *wizardFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, SessionResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)

	var resp SessionResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return rr, resp
}

func TestWizardListFlows(t *testing.T) {
	fx := newWizardFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/flows", nil)
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out []FlowSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, len(flows.Default().All()))
}

func TestWizardGetFlow(t *testing.T) {
	fx := newWizardFixture(t)

	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/flows/intake-form-flow", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"fields"`)

	rr = httptest.NewRecorder()
	fx.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/flows/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Flow not found")
}

func TestWizardSessionLifecycle(t *testing.T) {
	fx := newWizardFixture(t)
	flow, err := flows.Default().Lookup("new-patient-flow")
	require.NoError(t, err)

	rr, view := fx.do(t, http.MethodPost, "/flows/new-patient-flow/sessions", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotEmpty(t, view.SessionID)
	assert.Equal(t, 1, view.Step)
	base := "/flows/new-patient-flow/sessions/" + view.SessionID

	rr, view = fx.do(t, http.MethodPost, base+"/advance", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotEmpty(t, view.Errors)

	rr, _ = fx.do(t, http.MethodPatch, base+"/answers", flows.CompleteAnswers(flow))
	require.Equal(t, http.StatusOK, rr.Code)

	rr, view = fx.do(t, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, wizard.TransitionCodeSent, view.Transition)
	assert.True(t, view.CodeSent)

	rr, _ = fx.do(t, http.MethodPost, base+"/code", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = fx.do(t, http.MethodPost, base+"/retreat", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, _ = fx.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	for view.Step < flow.TotalSteps() {
		rr, view = fx.do(t, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr, view = fx.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, wizard.StateConfirmed, view.State)
	require.NotNil(t, view.Receipt)
	assert.Equal(t, "appt-1", view.Receipt.ID)
	assert.Equal(t, 1, fx.submitted)

	rr, view = fx.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "This request has already been submitted", view.Error)

	rr, view = fx.do(t, http.MethodPost, base+"/restart", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, wizard.StateEditing, view.State)
	assert.Equal(t, 1, view.Step)
}

func TestWizardSubmitFailureKeepsSession(t *testing.T) {
	fx := newWizardFixture(t)
	fx.failWith = errors.New("database unavailable")
	flow, err := flows.Default().Lookup("intake-form-flow")
	require.NoError(t, err)

	rr, view := fx.do(t, http.MethodPost, "/flows/intake-form-flow/sessions", map[string]any{
		"sessionId": "browser-1",
		"answers":   flows.CompleteAnswers(flow),
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "browser-1", view.SessionID)
	base := "/flows/intake-form-flow/sessions/browser-1"

	for view.Step < flow.TotalSteps() {
		rr, view = fx.do(t, http.MethodPost, base+"/advance", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr, view = fx.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, wizard.DefaultFailureMessage, view.Error)
	assert.Equal(t, wizard.StateEditing, view.State)
	assert.Equal(t, flow.TotalSteps(), view.Step)

	fx.failWith = nil
	rr, view = fx.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, wizard.StateConfirmed, view.State)
}

func TestWizardUnknownSession(t *testing.T) {
	fx := newWizardFixture(t)
	rr, _ := fx.do(t, http.MethodGet, "/flows/new-patient-flow/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Session not found")
}

func TestWizardOpenRejectsMalformedBody(t *testing.T) {
	fx := newWizardFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/flows/new-patient-flow/sessions", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	fx.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
