// Package nodetype implements the NodeType repository using PostgreSQL.
package nodetype

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/curriculab/curricula-backend/internal/adapter/postgres"
	"github.com/curriculab/curricula-backend/internal/domain"
)

// Repo provides node-type persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new node-type repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const typeColumns = `
    id, code, name, max_children, max_depth, is_system_protected,
    created_at, updated_at`

const getByIDSQL = `
SELECT` + typeColumns + `
FROM node_types
WHERE id = $1`

const getByCodeSQL = `
SELECT` + typeColumns + `
FROM node_types
WHERE code = $1`

const listSQL = `
SELECT` + typeColumns + `
FROM node_types
ORDER BY code`

const upsertSQL = `
INSERT INTO node_types (id, code, name, max_children, max_depth, is_system_protected)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (code) DO UPDATE
SET name = EXCLUDED.name,
    max_children = EXCLUDED.max_children,
    max_depth = EXCLUDED.max_depth,
    is_system_protected = EXCLUDED.is_system_protected,
    updated_at = now()
RETURNING` + typeColumns

// GetByID returns a node type by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.NodeType, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	nt, err := scanType(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "node_type", id)
	}

	return nt, nil
}

// GetByCode returns a node type by its unique code.
func (r *Repo) GetByCode(ctx context.Context, code string) (*domain.NodeType, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	nt, err := scanType(querier.QueryRow(ctx, getByCodeSQL, code))
	if err != nil {
		return nil, postgres.MapError(err, "node_type code "+code, uuid.Nil)
	}

	return nt, nil
}

// List returns all node types ordered by code.
// Returns an empty slice (not nil) when there are none.
func (r *Repo) List(ctx context.Context) ([]domain.NodeType, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list node types: %w", err)
	}
	defer rows.Close()

	var result []domain.NodeType
	for rows.Next() {
		nt, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *nt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.NodeType{}
	}

	return result, nil
}

// Upsert inserts a node type or updates the existing one with the same
// code. Used by the seeder for built-in types.
func (r *Repo) Upsert(ctx context.Context, nt domain.NodeType) (*domain.NodeType, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if nt.ID == uuid.Nil {
		nt.ID = uuid.New()
	}

	saved, err := scanType(querier.QueryRow(ctx, upsertSQL,
		nt.ID, nt.Code, nt.Name,
		limitToPgInt4(nt.MaxChildren), limitToPgInt4(nt.MaxDepth),
		nt.IsSystemProtected,
	))
	if err != nil {
		return nil, postgres.MapError(err, "node_type", nt.ID)
	}

	return saved, nil
}

// ---------------------------------------------------------------------------
// Row scanning and limit mapping
// ---------------------------------------------------------------------------

func scanType(row pgx.Row) (*domain.NodeType, error) {
	var (
		nt          domain.NodeType
		maxChildren pgtype.Int4
		maxDepth    pgtype.Int4
	)

	err := row.Scan(
		&nt.ID, &nt.Code, &nt.Name, &maxChildren, &maxDepth,
		&nt.IsSystemProtected, &nt.CreatedAt, &nt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	nt.MaxChildren = limitFromPgInt4(maxChildren)
	nt.MaxDepth = limitFromPgInt4(maxDepth)

	return &nt, nil
}

// limitFromPgInt4 maps a nullable column to the domain Limit sum type:
// NULL means unbounded, never "limit of zero".
func limitFromPgInt4(v pgtype.Int4) domain.Limit {
	if !v.Valid {
		return domain.Unbounded()
	}
	return domain.Bounded(v.Int32)
}

func limitToPgInt4(l domain.Limit) pgtype.Int4 {
	if n, ok := l.Value(); ok {
		return pgtype.Int4{Int32: n, Valid: true}
	}
	return pgtype.Int4{}
}
