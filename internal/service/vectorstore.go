package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/cloo-solutions/tenantex/internal/repository"
	"github.com/cloo-solutions/tenantex/internal/telemetry"
)

// Collection selects which knowledge collection an operation targets.
type Collection string

const (
	// CollectionGeneral is the shared, un-partitioned knowledge base.
	CollectionGeneral Collection = "general"
	// CollectionTenant is the multi-tenant knowledge base, partitioned
	// per tenant id.
	CollectionTenant Collection = "tenant"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// TenantRegistryInterface manages tenant partitions of the tenant
// collection.
type TenantRegistryInterface interface {
	Exists(ctx context.Context, tenantID string) (bool, error)
	Ensure(ctx context.Context, tenantID string) error
	Delete(ctx context.Context, tenantID string) error
}

// PassageRepositoryInterface is the index-facing persistence surface used
// by the gateway.
type PassageRepositoryInterface interface {
	InsertTenant(ctx context.Context, tenantID string, passages []domain.Passage) error
	InsertGeneral(ctx context.Context, passages []domain.Passage) error
	SearchTenant(ctx context.Context, embedding []float32, tenantID string, limit int) ([]repository.Candidate, error)
	SearchGeneral(ctx context.Context, embedding []float32, limit int) ([]repository.Candidate, error)
}

// VectorStoreService is the only component that talks to the vector index:
// it embeds passage content on write and query text on read, scoped to a
// tenant partition or to the general collection.
type VectorStoreService struct {
	embedder EmbeddingClient
	passages PassageRepositoryInterface
	tenants  TenantRegistryInterface
}

func NewVectorStoreService(
	embedder EmbeddingClient,
	passages PassageRepositoryInterface,
	tenants TenantRegistryInterface,
) *VectorStoreService {
	return &VectorStoreService{
		embedder: embedder,
		passages: passages,
		tenants:  tenants,
	}
}

// Store embeds each passage's content and inserts the resulting records
// into the target collection. For the tenant collection the tenant's
// partition is created first if absent, so a store never fails merely
// because the tenant is new.
func (s *VectorStoreService) Store(ctx context.Context, passages []domain.Passage, tenantID string, collection Collection) error {
	if len(passages) == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "VectorStoreService.Store", telemetry.SpanAttributes{
		TenantID:  tenantID,
		Operation: "store",
	})
	defer span.End()

	if collection == CollectionTenant {
		if err := s.tenants.Ensure(ctx, tenantID); err != nil {
			return fmt.Errorf("failed to ensure tenant: %w", err)
		}
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed passages: %w", err)
	}
	for i := range passages {
		passages[i].Embedding = embeddings[i]
	}

	if collection == CollectionTenant {
		if err := s.passages.InsertTenant(ctx, tenantID, passages); err != nil {
			return fmt.Errorf("failed to store passages: %w", err)
		}
		return nil
	}
	if err := s.passages.InsertGeneral(ctx, passages); err != nil {
		return fmt.Errorf("failed to store passages: %w", err)
	}
	return nil
}

// Search embeds the query, retrieves up to TopK nearest candidates from the
// target collection, converts each distance d to a similarity score 1-d,
// and keeps candidates whose score meets the threshold, best first.
//
// The TopK cap applies to the nearest-neighbor search before threshold
// filtering, so fewer than TopK results may come back; filtered-out slots
// are never backfilled. Querying a tenant that does not exist returns an
// empty result, not an error.
func (s *VectorStoreService) Search(ctx context.Context, query, tenantID string, setting domain.RetrievalSetting, collection Collection) ([]domain.RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "VectorStoreService.Search", telemetry.SpanAttributes{
		TenantID:  tenantID,
		Operation: "search",
	})
	defer span.End()

	if query == "" {
		return nil, domain.ErrQueryRequired
	}
	setting = setting.Normalize()

	if collection == CollectionTenant {
		exists, err := s.tenants.Exists(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to check tenant: %w", err)
		}
		if !exists {
			return []domain.RetrievalResult{}, nil
		}
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var candidates []repository.Candidate
	if collection == CollectionTenant {
		candidates, err = s.passages.SearchTenant(ctx, embedding, tenantID, setting.TopK)
	} else {
		candidates, err = s.passages.SearchGeneral(ctx, embedding, setting.TopK)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search passages: %w", err)
	}

	results := []domain.RetrievalResult{}
	for _, c := range candidates {
		score := 1 - c.Distance
		if score < setting.ScoreThreshold {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Content: c.Content,
			Title:   c.Source,
			Score:   score,
		})
	}
	return results, nil
}
