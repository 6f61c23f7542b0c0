package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/eventagent/agent"
	"github.com/tbxark/eventagent/catalog"
	"github.com/tbxark/eventagent/extract"
	"github.com/tbxark/eventagent/merge"
	"github.com/tbxark/eventagent/normalize"
	"github.com/tbxark/eventagent/planner"
	"github.com/tbxark/eventagent/session"
	"github.com/tbxark/eventagent/validate"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cat := catalog.MustDefault()
	norm, err := normalize.New(cat)
	require.NoError(t, err)
	val := validate.New(cat)
	merger := merge.New(norm, val, merge.WithLogger(logger))
	plan, err := planner.New(norm, val, planner.WithLogger(logger))
	require.NoError(t, err)
	flow, err := agent.NewFlow(extract.NewLocalOracle(norm), merger, plan, cat, agent.WithLogger(logger))
	require.NoError(t, err)
	engine := agent.NewEngine(flow, session.NewMemoryStore(time.Hour))
	return New(engine, flow, merger, cat, WithLogger(logger)).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCatalogUsesExternalNames(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[catalogResponse](t, rec)
	assert.Equal(t, []string{"eventType", "guestCount", "budget"}, resp.Required)
	var budget *catalogParameter
	for i := range resp.Parameters {
		if resp.Parameters[i].Key == "budget" {
			budget = &resp.Parameters[i]
		}
	}
	require.NotNil(t, budget)
	assert.Contains(t, budget.Options, catalogOption{Value: "5k-15k", Label: "$5,000-$15,000"})
}

func TestStatelessExtract(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/v1/extract", map[string]any{
		"message":         "About 20 kids and their parents, so maybe 50 people total",
		"existing_params": map[string]any{"eventType": "Birthday (Child)", "budget": "not a budget"},
		"conversation_history": []map[string]any{
			{"role": "user", "content": "I want to plan a birthday party for my 3 year old"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[turnResponse](t, rec)
	assert.Equal(t, map[string]any{"eventType": "birthday-child", "guestCount": float64(50)}, resp.ExtractedParams)
	assert.True(t, resp.NeedsClarification)
	assert.False(t, resp.ReadyToGenerate)
	assert.Equal(t, []string{"budget"}, resp.Missing)
	assert.Contains(t, resp.ClarificationOptions, "Under $2,000")
	assert.NotEmpty(t, resp.ClarificationQuestion)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "/guestCount", resp.Changes[0].Path)
}

func TestExtractRejectsEmptyMessage(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/extract", map[string]any{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["session_id"]
	require.NotEmpty(t, id)

	for _, msg := range []string{
		"I want to plan a birthday party for my 3 year old",
		"About 20 kids and their parents, so maybe 50 people total",
	} {
		rec = do(t, h, http.MethodPost, "/api/v1/sessions/"+id+"/messages", map[string]string{"message": msg})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/api/v1/sessions/"+id+"/messages", map[string]string{"message": "$5,000-$15,000"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[turnResponse](t, rec)
	assert.Equal(t, id, resp.SessionID)
	assert.Equal(t, "5k-15k", resp.ExtractedParams["budget"])
	assert.True(t, resp.ReadyToGenerate)
	assert.Empty(t, resp.ClarificationQuestion)

	rec = do(t, h, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[sessionResponse](t, rec)
	assert.Equal(t, "ready", string(got.Phase))
	assert.Len(t, got.History, 6)

	rec = do(t, h, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/sessions/missing/messages", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"session not found"}`, rec.Body.String())
}

func TestKeyRenaming(t *testing.T) {
	raw := fromExternal(map[string]any{"budget": "under-2k", "guest_count": 10, "mood": "fun"})
	assert.Equal(t, "under-2k", raw["budget_range"])
	assert.Equal(t, 10, raw["guest_count"])
	assert.Equal(t, "fun", raw["mood"])
	assert.Equal(t, "accessibilityRequirements", externalName("accessibility_requirements"))
}

