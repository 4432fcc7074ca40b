package service

import (
	"context"

	"github.com/cloo-solutions/tenantex/internal/domain"
)

// VectorSearcher is the read surface of the vector store gateway.
type VectorSearcher interface {
	Search(ctx context.Context, query, tenantID string, setting domain.RetrievalSetting, collection Collection) ([]domain.RetrievalResult, error)
}

// RetrievalService validates retrieval settings and dispatches queries to
// the tenant-scoped or general knowledge collection.
//
// Both paths propagate collaborator failures as errors. The system this
// replaces swallowed tenant-path failures into empty results; that made
// "no relevant knowledge" indistinguishable from "retrieval failed" and is
// deliberately not preserved. An unknown tenant is still an empty result
// with a nil error.
type RetrievalService struct {
	store VectorSearcher
}

func NewRetrievalService(store VectorSearcher) *RetrievalService {
	return &RetrievalService{store: store}
}

// RetrieveTenant queries one tenant's knowledge. A nil setting uses the
// defaults (top_k 10, score threshold 0.4).
func (s *RetrievalService) RetrieveTenant(ctx context.Context, tenantID, query string, setting *domain.RetrievalSetting) ([]domain.RetrievalResult, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantIDRequired
	}
	return s.store.Search(ctx, query, tenantID, resolveSetting(setting), CollectionTenant)
}

// RetrieveGeneral queries the shared general knowledge collection.
func (s *RetrievalService) RetrieveGeneral(ctx context.Context, query string, setting *domain.RetrievalSetting) ([]domain.RetrievalResult, error) {
	return s.store.Search(ctx, query, "", resolveSetting(setting), CollectionGeneral)
}

func resolveSetting(setting *domain.RetrievalSetting) domain.RetrievalSetting {
	if setting == nil {
		return domain.DefaultRetrievalSetting()
	}
	return setting.Normalize()
}
