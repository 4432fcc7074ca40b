package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// tenantPassagesTable is the LIST-partitioned parent table; one partition
// per tenant.
const tenantPassagesTable = "tenant_passages"

// maxIdentifierLen is the Postgres identifier limit.
const maxIdentifierLen = 63

// TenantRegistry manages per-tenant partitions of the tenant-knowledge
// table. The Postgres partition catalog is the only source of truth: a
// tenant exists iff a partition with its derived name exists. No local
// registry is kept.
type TenantRegistry struct {
	pool *pgxpool.Pool
}

func NewTenantRegistry(pool *pgxpool.Pool) *TenantRegistry {
	return &TenantRegistry{pool: pool}
}

// PartitionName derives the catalog partition name for a tenant id.
// Tenant ids are opaque machine identifiers; characters outside [a-z0-9]
// map to underscores and the result is capped at the identifier limit, so
// ids that differ only in mapped characters would share a partition name.
func PartitionName(tenantID string) string {
	var b strings.Builder
	b.WriteString(tenantPassagesTable)
	b.WriteByte('_')
	for _, r := range strings.ToLower(tenantID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > maxIdentifierLen {
		name = name[:maxIdentifierLen]
	}
	return name
}

// List returns the partition names currently attached to the tenant table.
func (r *TenantRegistry) List(ctx context.Context) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT c.relname
		 FROM pg_inherits i
		 JOIN pg_class c ON c.oid = i.inhrelid
		 JOIN pg_class p ON p.oid = i.inhparent
		 WHERE p.relname = $1
		 ORDER BY c.relname`,
		tenantPassagesTable,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Exists reports whether a partition for the tenant is present.
func (r *TenantRegistry) Exists(ctx context.Context, tenantID string) (bool, error) {
	if tenantID == "" {
		return false, domain.ErrTenantIDRequired
	}

	names, err := r.List(ctx)
	if err != nil {
		return false, err
	}

	want := PartitionName(tenantID)
	for _, name := range names {
		if name == want {
			return true, nil
		}
	}
	return false, nil
}

// Ensure creates the tenant's partition if it is absent. Safe to call
// repeatedly and under concurrent identical requests: IF NOT EXISTS plus
// tolerance of the duplicate-table race makes it idempotent.
func (r *TenantRegistry) Ensure(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return domain.ErrTenantIDRequired
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	stmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES IN (%s)`,
		pgx.Identifier{PartitionName(tenantID)}.Sanitize(),
		tenantPassagesTable,
		quoteLiteral(tenantID),
	)
	if _, err := conn.Exec(ctx, stmt); err != nil {
		if isDuplicateTable(err) {
			return nil
		}
		return fmt.Errorf("failed to create tenant partition: %w", err)
	}
	return nil
}

// Delete drops the tenant's partition and every passage in it. Deleting a
// tenant that never existed is a no-op, not an error.
func (r *TenantRegistry) Delete(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return domain.ErrTenantIDRequired
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	stmt := fmt.Sprintf(`DROP TABLE IF EXISTS %s`,
		pgx.Identifier{PartitionName(tenantID)}.Sanitize())
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop tenant partition: %w", err)
	}
	return nil
}
