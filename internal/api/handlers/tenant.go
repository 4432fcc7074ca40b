package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloo-solutions/tenantex/internal/api"
	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/cloo-solutions/tenantex/internal/extract"
	"github.com/cloo-solutions/tenantex/internal/jobs"
	"github.com/cloo-solutions/tenantex/internal/pagination"
	"github.com/cloo-solutions/tenantex/internal/repository"
	"github.com/go-chi/chi/v5"
)

type RetrievalService interface {
	RetrieveTenant(ctx context.Context, tenantID, query string, setting *domain.RetrievalSetting) ([]domain.RetrievalResult, error)
	RetrieveGeneral(ctx context.Context, query string, setting *domain.RetrievalSetting) ([]domain.RetrievalResult, error)
}

type IngestionQueue interface {
	Enqueue(tenantID, objectKey string) (string, error)
	Status(jobID string) (*jobs.JobRecord, error)
}

type TenantAdmin interface {
	Delete(ctx context.Context, tenantID string) error
}

type PassageLister interface {
	ListByTenant(ctx context.Context, tenantID string, cursor *pagination.Cursor, limit int) (*repository.PassagePage, error)
}

type TenantHandler struct {
	retrieval RetrievalService
	queue     IngestionQueue
	tenants   TenantAdmin
	passages  PassageLister
}

func NewTenantHandler(retrieval RetrievalService, queue IngestionQueue, tenants TenantAdmin, passages PassageLister) *TenantHandler {
	return &TenantHandler{
		retrieval: retrieval,
		queue:     queue,
		tenants:   tenants,
		passages:  passages,
	}
}

// RetrievalSettingRequest uses pointer fields so an explicit zero threshold
// can be told apart from an absent one.
type RetrievalSettingRequest struct {
	TopK           *int     `json:"top_k"`
	ScoreThreshold *float64 `json:"score_threshold"`
}

type RetrievalRequest struct {
	KnowledgeID      string                   `json:"knowledge_id"`
	Query            string                   `json:"query"`
	RetrievalSetting *RetrievalSettingRequest `json:"retrieval_setting"`
}

type RetrievalRecord struct {
	Content  string            `json:"content"`
	Title    string            `json:"title"`
	Metadata RetrievalMetadata `json:"metadata"`
}

type RetrievalMetadata struct {
	Score float64 `json:"score"`
}

type RetrievalResponse struct {
	Results []RetrievalRecord `json:"results"`
}

func toRetrievalSetting(req *RetrievalSettingRequest) *domain.RetrievalSetting {
	if req == nil {
		return nil
	}

	setting := domain.DefaultRetrievalSetting()
	if req.TopK != nil {
		setting.TopK = *req.TopK
	}
	if req.ScoreThreshold != nil {
		setting.ScoreThreshold = *req.ScoreThreshold
	}
	return &setting
}

func toRetrievalResponse(results []domain.RetrievalResult) RetrievalResponse {
	records := make([]RetrievalRecord, len(results))
	for i, r := range results {
		records[i] = RetrievalRecord{
			Content:  r.Content,
			Title:    r.Title,
			Metadata: RetrievalMetadata{Score: r.Score},
		}
	}
	return RetrievalResponse{Results: records}
}

// Retrieve runs a nearest-neighbor search scoped to one tenant. The response
// shape is consumed by external retrieval callers and is written without the
// standard envelope.
func (h *TenantHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrievalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KnowledgeID == "" {
		api.Error(w, http.StatusBadRequest, "knowledge_id is required")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.retrieval.RetrieveTenant(r.Context(), req.KnowledgeID, req.Query, toRetrievalSetting(req.RetrievalSetting))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, toRetrievalResponse(results))
}

type UploadKnowledgeRequest struct {
	KnowledgeID string `json:"knowledge_id"`
	Key         string `json:"key"`
}

type UploadKnowledgeResponse struct {
	JobID string `json:"job_id"`
}

func (h *TenantHandler) UploadKnowledge(w http.ResponseWriter, r *http.Request) {
	var req UploadKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KnowledgeID == "" {
		api.Error(w, http.StatusBadRequest, "knowledge_id is required")
		return
	}
	if req.Key == "" {
		api.Error(w, http.StatusBadRequest, "key is required")
		return
	}
	if ext := filepath.Ext(req.Key); !extract.Supported(ext) {
		api.Error(w, http.StatusBadRequest, fmt.Sprintf("unsupported document type %q, expected one of %s",
			ext, strings.Join(extract.SupportedExtensions, ", ")))
		return
	}

	jobID, err := h.queue.Enqueue(req.KnowledgeID, req.Key)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, UploadKnowledgeResponse{JobID: jobID})
}

type JobStatusResponse struct {
	JobID       string `json:"job_id"`
	KnowledgeID string `json:"knowledge_id"`
	Key         string `json:"key"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

func (h *TenantHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	record, err := h.queue.Status(id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, JobStatusResponse{
		JobID:       record.Job.ID,
		KnowledgeID: record.Job.TenantID,
		Key:         record.Job.ObjectKey,
		Status:      string(record.Status),
		Error:       record.Error,
		UpdatedAt:   record.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

type ListObjectsRequest struct {
	KnowledgeID string `json:"knowledge_id"`
	Cursor      string `json:"cursor"`
	Limit       int    `json:"limit"`
}

type ObjectResponse struct {
	ID            string `json:"id"`
	Source        string `json:"source"`
	Content       string `json:"content"`
	KnowledgeType string `json:"knowledge_type"`
	SourceID      string `json:"source_id"`
	ChunkIndex    int    `json:"chunk_index"`
	CreatedAt     string `json:"created_at"`
}

type ListObjectsResponse struct {
	KnowledgeID string            `json:"knowledge_id"`
	Objects     []*ObjectResponse `json:"objects"`
	Cursor      string            `json:"cursor,omitempty"`
	HasMore     bool              `json:"has_more"`
}

func (h *TenantHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	var req ListObjectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KnowledgeID == "" {
		api.Error(w, http.StatusBadRequest, "knowledge_id is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	cursor, err := pagination.DecodeCursor(req.Cursor)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	page, err := h.passages.ListByTenant(r.Context(), req.KnowledgeID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	objects := make([]*ObjectResponse, len(page.Items))
	for i, p := range page.Items {
		objects[i] = &ObjectResponse{
			ID:            p.ID,
			Source:        p.Source,
			Content:       p.Content,
			KnowledgeType: p.KnowledgeType,
			SourceID:      p.SourceID,
			ChunkIndex:    p.ChunkIndex,
			CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	api.Success(w, http.StatusOK, ListObjectsResponse{
		KnowledgeID: req.KnowledgeID,
		Objects:     objects,
		Cursor:      page.NextCursor,
		HasMore:     page.HasMore,
	})
}

// DeleteKnowledge drops a tenant's partition. Deleting an unknown tenant is
// a no-op and still succeeds.
func (h *TenantHandler) DeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if tenantID == "" {
		api.Error(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	if err := h.tenants.Delete(r.Context(), tenantID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"knowledge_id": tenantID, "status": "deleted"})
}
