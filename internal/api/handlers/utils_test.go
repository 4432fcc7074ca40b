package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPassageFinder is a mock implementation of PassageFinder
type MockPassageFinder struct {
	mock.Mock
}

func (m *MockPassageFinder) FindByFilters(ctx context.Context, filters []domain.FilterCondition, limit int) ([]*domain.Passage, error) {
	args := m.Called(ctx, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Passage), args.Error(1)
}

func TestKnowledgeByFilters_FilterArray(t *testing.T) {
	finder := new(MockPassageFinder)
	handler := NewUtilsHandler(finder)

	passages := []*domain.Passage{
		{ID: "p1", TenantID: "tenant-1", Source: "doc.txt", Content: "hello", KnowledgeType: "specific_knowledge", SourceID: "0_doc.txt", CreatedAt: time.Now().UTC()},
		{ID: "p2", TenantID: "tenant-1", Source: "doc.txt", Content: "world", KnowledgeType: "specific_knowledge", SourceID: "1_doc.txt", ChunkIndex: 1, CreatedAt: time.Now().UTC()},
	}
	finder.On("FindByFilters", mock.Anything, mock.MatchedBy(func(filters []domain.FilterCondition) bool {
		return len(filters) == 1 && filters[0].Path == "source" && filters[0].Operator == domain.FilterOpEqual
	}), 10).Return(passages, nil)

	body := `{"filters": [{"path": "source", "operator": "Equal", "value": "doc.txt"}]}`
	req := httptest.NewRequest(http.MethodPost, "/utils/knowledge-by-filters", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.KnowledgeByFilters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data KnowledgeByFiltersResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Count)
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "hello", resp.Data.Items[0].Content)
}

func TestKnowledgeByFilters_SingleFilterObject(t *testing.T) {
	finder := new(MockPassageFinder)
	handler := NewUtilsHandler(finder)

	finder.On("FindByFilters", mock.Anything, mock.MatchedBy(func(filters []domain.FilterCondition) bool {
		return len(filters) == 1 && filters[0].Path == "knowledge_type"
	}), 10).Return([]*domain.Passage{}, nil)

	body := `{"filters": {"path": "knowledge_type", "operator": "Equal", "value": "specific_knowledge"}}`
	req := httptest.NewRequest(http.MethodPost, "/utils/knowledge-by-filters", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.KnowledgeByFilters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	finder.AssertExpectations(t)
}

func TestKnowledgeByFilters_PathAsArray(t *testing.T) {
	finder := new(MockPassageFinder)
	handler := NewUtilsHandler(finder)

	finder.On("FindByFilters", mock.Anything, mock.MatchedBy(func(filters []domain.FilterCondition) bool {
		return len(filters) == 1 && filters[0].Path == "source_id"
	}), 10).Return([]*domain.Passage{}, nil)

	body := `{"filters": [{"path": ["source_id"], "operator": "Like", "value": "0_"}]}`
	req := httptest.NewRequest(http.MethodPost, "/utils/knowledge-by-filters", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.KnowledgeByFilters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	finder.AssertExpectations(t)
}

func TestKnowledgeByFilters_CustomLimit(t *testing.T) {
	finder := new(MockPassageFinder)
	handler := NewUtilsHandler(finder)

	finder.On("FindByFilters", mock.Anything, mock.Anything, 3).Return([]*domain.Passage{}, nil)

	body := `{"filters": [{"path": "source", "operator": "Equal", "value": "a"}], "limit": 3}`
	req := httptest.NewRequest(http.MethodPost, "/utils/knowledge-by-filters", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.KnowledgeByFilters(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	finder.AssertExpectations(t)
}

func TestKnowledgeByFilters_EmptyFilters(t *testing.T) {
	finder := new(MockPassageFinder)
	handler := NewUtilsHandler(finder)

	req := httptest.NewRequest(http.MethodPost, "/utils/knowledge-by-filters", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	handler.KnowledgeByFilters(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	finder.AssertNotCalled(t, "FindByFilters", mock.Anything, mock.Anything, mock.Anything)
}

func TestKnowledgeByFilters_InvalidFilterField(t *testing.T) {
	finder := new(MockPassageFinder)
	handler := NewUtilsHandler(finder)

	finder.On("FindByFilters", mock.Anything, mock.Anything, 10).
		Return(nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, `cannot filter on "tenant_id"`, domain.ErrInvalidFilterField))

	body := `{"filters": [{"path": "tenant_id", "operator": "Equal", "value": "x"}]}`
	req := httptest.NewRequest(http.MethodPost, "/utils/knowledge-by-filters", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.KnowledgeByFilters(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "tenant_id")
}

func TestHealthCheck_ReturnsBareTrue(t *testing.T) {
	handler := NewUtilsHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/utils/health-check", nil)
	w := httptest.NewRecorder()

	handler.HealthCheck(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true\n", w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestGeneralRetrieve_Success(t *testing.T) {
	retrieval := new(MockRetrievalService)
	handler := NewKnowledgeHandler(retrieval)

	results := []domain.RetrievalResult{
		{Content: "shared passage", Title: "handbook.pdf", Score: 0.71},
	}
	retrieval.On("RetrieveGeneral", mock.Anything, "company policy", mock.MatchedBy(func(s *domain.RetrievalSetting) bool {
		return s != nil && s.TopK == 4 && s.ScoreThreshold == domain.DefaultScoreThreshold
	})).Return(results, nil)

	body := `{"knowledge_id": "ignored", "query": "company policy", "retrieval_setting": {"top_k": 4}}`
	req := httptest.NewRequest(http.MethodPost, "/knowledge/retrieval", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp RetrievalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "shared passage", resp.Results[0].Content)
	retrieval.AssertNotCalled(t, "RetrieveTenant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGeneralRetrieve_MissingQuery(t *testing.T) {
	retrieval := new(MockRetrievalService)
	handler := NewKnowledgeHandler(retrieval)

	req := httptest.NewRequest(http.MethodPost, "/knowledge/retrieval", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()

	handler.Retrieve(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
