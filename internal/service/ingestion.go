package service

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/cloo-solutions/tenantex/internal/notify"
	"github.com/cloo-solutions/tenantex/internal/telemetry"
)

// VectorStoreInterface is the write surface of the vector store gateway.
type VectorStoreInterface interface {
	Store(ctx context.Context, passages []domain.Passage, tenantID string, collection Collection) error
}

// ObjectStore fetches raw document bytes from object storage.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor converts document bytes into plain text, selecting the
// format from the object key's extension.
type TextExtractor interface {
	ExtractText(content []byte, name string) (string, error)
}

// StatusNotifier reports document processing status to the tenant backend.
type StatusNotifier interface {
	NotifyDocumentStatus(ctx context.Context, key, status string) error
}

// IngestionService coordinates fetch, extraction, chunking, and storage for
// both direct (synchronous) and object-storage (background) document
// sources.
type IngestionService struct {
	store     VectorStoreInterface
	objects   ObjectStore
	extractor TextExtractor
	notifier  StatusNotifier
	chunkCfg  ChunkConfig
}

func NewIngestionService(
	store VectorStoreInterface,
	objects ObjectStore,
	extractor TextExtractor,
	notifier StatusNotifier,
) *IngestionService {
	return &IngestionService{
		store:     store,
		objects:   objects,
		extractor: extractor,
		notifier:  notifier,
		chunkCfg:  DefaultChunkConfig(),
	}
}

// IngestDirect chunks already-extracted text and stores it under the
// tenant's partition. Store failures propagate to the caller.
func (s *IngestionService) IngestDirect(ctx context.Context, tenantID, content, source string) error {
	if tenantID == "" {
		return domain.ErrTenantIDRequired
	}

	passages := SplitContent(content, source, s.chunkCfg)
	if len(passages) == 0 {
		return nil
	}
	return s.store.Store(ctx, passages, tenantID, CollectionTenant)
}

// ProcessJob runs the background ingestion pipeline for one queued job:
// fetch the object, extract its text, chunk, store under the tenant
// partition, then report "done" to the status sink. On failure the sink is
// told "failed" (best effort) and the error is returned so the queue can
// record it; there is no retry.
func (s *IngestionService) ProcessJob(ctx context.Context, job domain.IngestionJob) error {
	if err := domain.ValidateIngestionJob(&job); err != nil {
		return err
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestionService.ProcessJob", telemetry.SpanAttributes{
		TenantID:  job.TenantID,
		ObjectKey: job.ObjectKey,
		Operation: "ingest",
	})
	defer span.End()

	if err := s.processObject(ctx, job.TenantID, job.ObjectKey); err != nil {
		span.SetError(err)
		if notifyErr := s.notifier.NotifyDocumentStatus(ctx, job.ObjectKey, notify.StatusFailed); notifyErr != nil {
			log.Printf("failed to report failed status for %s: %v", job.ObjectKey, notifyErr)
		}
		return err
	}

	if err := s.notifier.NotifyDocumentStatus(ctx, job.ObjectKey, notify.StatusDone); err != nil {
		return fmt.Errorf("stored %s but failed to report done status: %w", job.ObjectKey, err)
	}

	log.Printf("processed object %s for tenant %s", job.ObjectKey, job.TenantID)
	return nil
}

func (s *IngestionService) processObject(ctx context.Context, tenantID, key string) error {
	data, err := s.objects.GetObject(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch object %s: %w", key, err)
	}

	text, err := s.extractor.ExtractText(data, key)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", key, err)
	}

	passages := SplitContent(text, key, s.chunkCfg)
	if len(passages) == 0 {
		return fmt.Errorf("object %s produced no passages", key)
	}

	if err := s.store.Store(ctx, passages, tenantID, CollectionTenant); err != nil {
		return fmt.Errorf("failed to store passages for %s: %w", key, err)
	}
	return nil
}
