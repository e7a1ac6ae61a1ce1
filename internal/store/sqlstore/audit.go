package sqlstore

import (
	"context"
	"strings"
	"time"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.Action == "" {
		return store.ErrInvalid
	}
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = nowUTC()
	}
	_, err := exec(ctx, s.db, `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity, entity_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.ActorID, entry.ActorRole, entry.Action, entry.Entity, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if !from.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, to.UTC())
	}

	query := `SELECT id, actor_id, actor_role, action, entity, entity_id, detail, created_at FROM audit_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	logs := make([]domain.AuditLog, 0, 64)
	if err := selectAll(ctx, s.db, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}
