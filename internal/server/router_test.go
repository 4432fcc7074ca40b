package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/tenantex/internal/api/handlers"
	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/cloo-solutions/tenantex/internal/jobs"
	"github.com/cloo-solutions/tenantex/internal/pagination"
	"github.com/cloo-solutions/tenantex/internal/repository"
	"github.com/stretchr/testify/assert"
)

const testAPIKey = "ttx_test_key"

type stubRetrieval struct{}

func (stubRetrieval) RetrieveTenant(ctx context.Context, tenantID, query string, setting *domain.RetrievalSetting) ([]domain.RetrievalResult, error) {
	return []domain.RetrievalResult{}, nil
}

func (stubRetrieval) RetrieveGeneral(ctx context.Context, query string, setting *domain.RetrievalSetting) ([]domain.RetrievalResult, error) {
	return []domain.RetrievalResult{}, nil
}

type stubQueue struct{}

func (stubQueue) Enqueue(tenantID, objectKey string) (string, error) { return "job-1", nil }

func (stubQueue) Status(jobID string) (*jobs.JobRecord, error) { return nil, domain.ErrJobNotFound }

type stubTenants struct{}

func (stubTenants) Delete(ctx context.Context, tenantID string) error { return nil }

type stubPassages struct{}

func (stubPassages) ListByTenant(ctx context.Context, tenantID string, cursor *pagination.Cursor, limit int) (*repository.PassagePage, error) {
	return &repository.PassagePage{Items: []*domain.Passage{}}, nil
}

func (stubPassages) FindByFilters(ctx context.Context, filters []domain.FilterCondition, limit int) ([]*domain.Passage, error) {
	return []*domain.Passage{}, nil
}

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		APIKey:           testAPIKey,
		TenantHandler:    handlers.NewTenantHandler(stubRetrieval{}, stubQueue{}, stubTenants{}, stubPassages{}),
		KnowledgeHandler: handlers.NewKnowledgeHandler(stubRetrieval{}),
		UtilsHandler:     handlers.NewUtilsHandler(stubPassages{}),
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthUnauthenticated(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = doRequest(t, router, http.MethodGet, "/utils/health-check", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true\n", w.Body.String())
}

func TestRouter_ProtectedRoutesRequireKey(t *testing.T) {
	router := newTestRouter()

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/tenant/retrieval", `{"knowledge_id": "t", "query": "q"}`},
		{http.MethodPost, "/tenant/upload-knowledge", `{"knowledge_id": "t", "key": "k"}`},
		{http.MethodGet, "/tenant/jobs/abc", ""},
		{http.MethodPost, "/tenant/objects", `{"knowledge_id": "t"}`},
		{http.MethodDelete, "/tenant/knowledge/t", ""},
		{http.MethodPost, "/knowledge/retrieval", `{"query": "q"}`},
		{http.MethodPost, "/utils/knowledge-by-filters", `{"filters": [{"path": "source", "operator": "Equal", "value": "a"}]}`},
	}

	for _, rt := range routes {
		w := doRequest(t, router, rt.method, rt.path, rt.body, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s without key", rt.method, rt.path)

		w = doRequest(t, router, rt.method, rt.path, rt.body, true)
		assert.NotEqual(t, http.StatusUnauthorized, w.Code, "%s %s with key", rt.method, rt.path)
	}
}

func TestRouter_RoutesReachHandlers(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodPost, "/tenant/retrieval", `{"knowledge_id": "t", "query": "q"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "results")

	w = doRequest(t, router, http.MethodPost, "/tenant/upload-knowledge", `{"knowledge_id": "t", "key": "docs/a.txt"}`, true)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")

	w = doRequest(t, router, http.MethodGet, "/tenant/jobs/missing", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodDelete, "/tenant/knowledge/t", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deleted")
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodGet, "/health", "", false)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_OversizedBodyRejected(t *testing.T) {
	router := newTestRouter()

	big := bytes.Repeat([]byte("a"), 16*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/tenant/retrieval", bytes.NewBuffer(big))
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter()

	w := doRequest(t, router, http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
