package postgres

import (
	"context"
	"fmt"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
)

// AuditLogRepository implements repository.AuditLogRepository using
// PostgreSQL.
type AuditLogRepository struct {
	db database.DBTX
}

// NewAuditLogRepository creates a new PostgreSQL-backed audit log repository.
func NewAuditLogRepository(db database.DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an audit record. An empty actor is stored as NULL.
func (r *AuditLogRepository) Create(ctx context.Context, e *domain.AuditLog) (err error) {
	query := `INSERT INTO audit_logs (id, action, actor, created_at) VALUES ($1, $2, NULLIF($3, ''), $4)`
	ctx, end := database.TraceQuery(ctx, "CreateAuditLog", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, e.ID, e.Action, e.Actor, e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *AuditLogRepository) ListRecent(ctx context.Context, limit int) (logs []domain.AuditLog, err error) {
	query := `SELECT id, action, COALESCE(actor, ''), created_at FROM audit_logs ORDER BY created_at DESC LIMIT $1`
	ctx, end := database.TraceQuery(ctx, "ListRecentAuditLogs", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.AuditLog
		if err = rows.Scan(&e.ID, &e.Action, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log row: %w", err)
		}
		logs = append(logs, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log rows: %w", err)
	}
	return logs, nil
}
