package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cloo-solutions/tenantex/internal/api"
	"github.com/cloo-solutions/tenantex/internal/domain"
)

type PassageFinder interface {
	FindByFilters(ctx context.Context, filters []domain.FilterCondition, limit int) ([]*domain.Passage, error)
}

type UtilsHandler struct {
	passages PassageFinder
}

func NewUtilsHandler(passages PassageFinder) *UtilsHandler {
	return &UtilsHandler{passages: passages}
}

// FilterList accepts either a single filter object or an array of them.
type FilterList []domain.FilterCondition

func (f *FilterList) UnmarshalJSON(data []byte) error {
	var many []domain.FilterCondition
	if err := json.Unmarshal(data, &many); err == nil {
		*f = many
		return nil
	}

	var one domain.FilterCondition
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*f = FilterList{one}
	return nil
}

type KnowledgeByFiltersRequest struct {
	Filters FilterList `json:"filters"`
	Limit   int        `json:"limit"`
}

type FilteredPassageResponse struct {
	ID            string `json:"id"`
	TenantID      string `json:"tenant_id"`
	Source        string `json:"source"`
	Content       string `json:"content"`
	KnowledgeType string `json:"knowledge_type"`
	SourceID      string `json:"source_id"`
	ChunkIndex    int    `json:"chunk_index"`
	CreatedAt     string `json:"created_at"`
}

type KnowledgeByFiltersResponse struct {
	Count int                        `json:"count"`
	Items []*FilteredPassageResponse `json:"items"`
}

func (h *UtilsHandler) KnowledgeByFilters(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeByFiltersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Filters) == 0 {
		api.Error(w, http.StatusBadRequest, "filters is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	passages, err := h.passages.FindByFilters(r.Context(), req.Filters, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*FilteredPassageResponse, len(passages))
	for i, p := range passages {
		items[i] = &FilteredPassageResponse{
			ID:            p.ID,
			TenantID:      p.TenantID,
			Source:        p.Source,
			Content:       p.Content,
			KnowledgeType: p.KnowledgeType,
			SourceID:      p.SourceID,
			ChunkIndex:    p.ChunkIndex,
			CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	api.Success(w, http.StatusOK, KnowledgeByFiltersResponse{
		Count: len(items),
		Items: items,
	})
}

func (h *UtilsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, true)
}
