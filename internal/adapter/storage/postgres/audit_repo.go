package postgres

import (
	"context"
	"fmt"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
)

const auditSchema = `CREATE TABLE IF NOT EXISTS audit_logs (
	id            UUID PRIMARY KEY,
	username      TEXT,
	action        TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT,
	details       JSONB,
	ip_address    TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_username ON audit_logs (username, created_at)`

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

// EnsureAuditSchema creates the audit_logs table if it does not exist.
func EnsureAuditSchema(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("creating audit schema: %w", err)
	}
	return nil
}

func (r *auditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, username, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, nullable(log.Username), string(log.Action), log.ResourceType,
		nullable(log.ResourceID), nullable(log.Details), log.IPAddress, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
