// Package audit implements the audit-log repository using PostgreSQL.
// It provides append-only writes and history reads; the tree service
// records one entry per mutation inside the mutation's transaction.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/curriculab/curricula-backend/internal/adapter/postgres"
	"github.com/curriculab/curricula-backend/internal/domain"
)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const auditColumns = `
    id, actor_id, entity_type, entity_id, action, changes, created_at`

const insertSQL = `
INSERT INTO audit_log (id, actor_id, entity_type, entity_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING` + auditColumns

const getByEntitySQL = `
SELECT` + auditColumns + `
FROM audit_log
WHERE entity_type = $1 AND entity_id = $2
ORDER BY created_at DESC
LIMIT $3`

const getByActorSQL = `
SELECT` + auditColumns + `
FROM audit_log
WHERE actor_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new audit record and returns the persisted copy.
func (r *Repo) Create(ctx context.Context, record domain.AuditRecord) (domain.AuditRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	changesJSON, err := json.Marshal(record.Changes)
	if err != nil {
		return domain.AuditRecord{}, fmt.Errorf("audit_record marshal changes: %w", err)
	}

	saved, err := scanRecord(querier.QueryRow(ctx, insertSQL,
		record.ID, record.ActorID, string(record.EntityType),
		uuidPtrToPgUUID(record.EntityID), string(record.Action),
		changesJSON, record.CreatedAt,
	))
	if err != nil {
		return domain.AuditRecord{}, postgres.MapError(err, "audit_record", record.ID)
	}

	return saved, nil
}

// Record creates an audit record without returning it.
// Satisfies the tree service's auditSink.
func (r *Repo) Record(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.Create(ctx, record)
	return err
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByEntity returns the change history for a specific entity, ordered
// by created_at DESC, limited to `limit` records.
func (r *Repo) GetByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID, limit int) ([]domain.AuditRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByEntitySQL,
		string(entityType), pgtype.UUID{Bytes: entityID, Valid: true}, limit)
	if err != nil {
		return nil, fmt.Errorf("get audit_records by entity: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByActor returns audit log records for an actor, ordered by
// created_at DESC with pagination.
func (r *Repo) GetByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]domain.AuditRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByActorSQL, actorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get audit_records by actor: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanRecord(row pgx.Row) (domain.AuditRecord, error) {
	var (
		record     domain.AuditRecord
		entityType string
		entityID   pgtype.UUID
		action     string
		changes    []byte
	)

	err := row.Scan(&record.ID, &record.ActorID, &entityType, &entityID,
		&action, &changes, &record.CreatedAt)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	record.EntityType = domain.EntityType(entityType)
	record.Action = domain.AuditAction(action)

	if entityID.Valid {
		id := uuid.UUID(entityID.Bytes)
		record.EntityID = &id
	}

	if len(changes) > 0 {
		parsed := make(map[string]any)
		if err := json.Unmarshal(changes, &parsed); err != nil {
			return domain.AuditRecord{}, fmt.Errorf("audit_record %s unmarshal changes: %w", record.ID, err)
		}
		record.Changes = parsed
	}

	return record, nil
}

func scanRecords(rows pgx.Rows) ([]domain.AuditRecord, error) {
	var result []domain.AuditRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.AuditRecord{}
	}

	return result, nil
}

// uuidPtrToPgUUID converts a *uuid.UUID to pgtype.UUID (nil -> NULL).
func uuidPtrToPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
