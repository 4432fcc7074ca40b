package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/cloo-solutions/tenantex/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Candidate is one nearest-neighbor hit with its raw distance, ordered
// most-similar-first by the index.
type Candidate struct {
	Content  string
	Source   string
	Distance float64
}

// PassagePage is one page of a tenant's stored passages.
type PassagePage struct {
	Items      []*domain.Passage
	NextCursor string
	HasMore    bool
}

// PassageRepository persists embedded passages and runs nearest-neighbor
// and metadata queries against them. Every method checks a dedicated
// connection out of the pool for the duration of one logical operation and
// releases it on all exit paths.
type PassageRepository struct {
	pool *pgxpool.Pool
}

func NewPassageRepository(pool *pgxpool.Pool) *PassageRepository {
	return &PassageRepository{pool: pool}
}

// InsertTenant inserts embedded passages under the tenant's partition.
// The partition must already exist; callers go through the gateway, which
// ensures it.
func (r *PassageRepository) InsertTenant(ctx context.Context, tenantID string, passages []domain.Passage) error {
	if tenantID == "" {
		return domain.ErrTenantIDRequired
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	for _, p := range passages {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := conn.Exec(ctx,
			`INSERT INTO tenant_passages
				(tenant_id, source, content, knowledge_type, source_id, chunk_index, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			tenantID, p.Source, p.Content, p.KnowledgeType, p.SourceID, p.ChunkIndex,
			pgvector.NewVector(p.Embedding), createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertGeneral inserts embedded passages into the un-partitioned general
// knowledge collection.
func (r *PassageRepository) InsertGeneral(ctx context.Context, passages []domain.Passage) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	for _, p := range passages {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := conn.Exec(ctx,
			`INSERT INTO general_passages
				(source, content, knowledge_type, source_id, chunk_index, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.Source, p.Content, p.KnowledgeType, p.SourceID, p.ChunkIndex,
			pgvector.NewVector(p.Embedding), createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// SearchTenant returns up to limit candidates from the tenant's partition,
// ordered by ascending cosine distance to the query embedding.
func (r *PassageRepository) SearchTenant(ctx context.Context, embedding []float32, tenantID string, limit int) ([]Candidate, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantIDRequired
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT content, source, (embedding <=> $1)::float8 AS distance
		 FROM tenant_passages
		 WHERE tenant_id = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(embedding), tenantID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

// SearchGeneral returns up to limit candidates from the general collection,
// ordered by ascending cosine distance to the query embedding.
func (r *PassageRepository) SearchGeneral(ctx context.Context, embedding []float32, limit int) ([]Candidate, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT content, source, (embedding <=> $1)::float8 AS distance
		 FROM general_passages
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func scanCandidates(rows pgx.Rows) ([]Candidate, error) {
	candidates := []Candidate{}
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Content, &c.Source, &c.Distance); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// operator SQL for validated filter conditions.
var filterOperatorSQL = map[domain.FilterOperator]string{
	domain.FilterOpEqual:    "=",
	domain.FilterOpNotEqual: "<>",
	domain.FilterOpLike:     "ILIKE",
}

// FindByFilters fetches passages matching every condition, across all
// tenant partitions. Conditions are validated before any SQL is built, so
// only whitelisted column names and operators reach the query.
func (r *PassageRepository) FindByFilters(ctx context.Context, filters []domain.FilterCondition, limit int) ([]*domain.Passage, error) {
	if limit <= 0 {
		limit = 10
	}

	where := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters)+1)
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s %s $%d", string(f.Path), filterOperatorSQL[f.Operator], len(args)))
	}

	query := `SELECT id::text, tenant_id, source, content, knowledge_type, source_id, chunk_index, created_at
		 FROM tenant_passages`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id::text DESC LIMIT $%d", len(args))

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPassages(rows)
}

// ListByTenant returns one keyset-paginated page of the tenant's passages,
// newest first.
func (r *PassageRepository) ListByTenant(ctx context.Context, tenantID string, cursor *pagination.Cursor, limit int) (*PassagePage, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantIDRequired
	}
	if limit <= 0 {
		limit = 20
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var rows pgx.Rows
	if cursor != nil {
		rows, err = conn.Query(ctx,
			`SELECT id::text, tenant_id, source, content, knowledge_type, source_id, chunk_index, created_at
			 FROM tenant_passages
			 WHERE tenant_id = $1 AND (created_at, id::text) < ($2, $3)
			 ORDER BY created_at DESC, id::text DESC
			 LIMIT $4`,
			tenantID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = conn.Query(ctx,
			`SELECT id::text, tenant_id, source, content, knowledge_type, source_id, chunk_index, created_at
			 FROM tenant_passages
			 WHERE tenant_id = $1
			 ORDER BY created_at DESC, id::text DESC
			 LIMIT $2`,
			tenantID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanPassages(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &PassagePage{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanPassages(rows pgx.Rows) ([]*domain.Passage, error) {
	passages := []*domain.Passage{}
	for rows.Next() {
		var p domain.Passage
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Source, &p.Content,
			&p.KnowledgeType, &p.SourceID, &p.ChunkIndex, &p.CreatedAt); err != nil {
			return nil, err
		}
		passages = append(passages, &p)
	}
	return passages, rows.Err()
}
