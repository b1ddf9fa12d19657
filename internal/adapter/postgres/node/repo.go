// Package node implements the content-tree node store using PostgreSQL.
// It provides point lookups, indexed path-prefix range scans, optimistic
// partial updates, and the atomic bulk path rewrite behind subtree moves.
// No business rules live here; the tree service validates before writing.
package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/curriculab/curricula-backend/internal/adapter/postgres"
	"github.com/curriculab/curricula-backend/internal/domain"
)

// orderShift moves rows into an unused index range during a reorder so
// the sibling-order unique index never sees a transient collision.
const orderShift = 1 << 20

// Repo provides node persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new node repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const nodeColumns = `
    id, type_id, parent_id, code, name, description, path, depth,
    order_index, is_active, version, created_at, updated_at,
    created_by, updated_by, deleted_at`

// ---------------------------------------------------------------------------
// Raw SQL
// ---------------------------------------------------------------------------

const getByIDSQL = `
SELECT` + nodeColumns + `
FROM nodes
WHERE id = $1 AND deleted_at IS NULL`

const getByIDsSQL = `
SELECT` + nodeColumns + `
FROM nodes
WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL`

const getByCodeSQL = `
SELECT` + nodeColumns + `
FROM nodes
WHERE code = $1 AND deleted_at IS NULL`

const getChildrenSQL = `
SELECT` + nodeColumns + `
FROM nodes
WHERE parent_id IS NOT DISTINCT FROM $1 AND deleted_at IS NULL
ORDER BY order_index`

const countChildrenSQL = `
SELECT count(*) FROM nodes
WHERE parent_id IS NOT DISTINCT FROM $1 AND deleted_at IS NULL`

// Ordering by path yields a pre-order traversal; LIMIT NULL means no cap.
const getByPathPrefixSQL = `
SELECT` + nodeColumns + `
FROM nodes
WHERE path LIKE $1 || '%' AND deleted_at IS NULL
ORDER BY path, order_index
LIMIT NULLIF($2, 0)`

const subtreeStatsSQL = `
SELECT count(*), COALESCE(MAX(depth), 0)
FROM nodes
WHERE path LIKE $1 || '%' AND deleted_at IS NULL`

const maxOrderIndexSQL = `
SELECT COALESCE(MAX(order_index), 0) FROM nodes
WHERE parent_id IS NOT DISTINCT FROM $1 AND deleted_at IS NULL`

const insertSQL = `
INSERT INTO nodes (
    id, type_id, parent_id, code, name, description, path, depth,
    order_index, is_active, version, created_by, updated_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
RETURNING created_at, updated_at`

// bulkRewritePathsSQL splices every matching path from the old prefix
// onto the new one in a single statement. It covers the moved node
// itself and all of its descendants; a move must never rewrite rows
// one-by-one across separate commits.
const bulkRewritePathsSQL = `
UPDATE nodes
SET path = $2 || substr(path, char_length($1) + 1),
    depth = depth + $3,
    version = version + 1,
    updated_at = now()
WHERE path LIKE $1 || '%' AND deleted_at IS NULL`

const getVersionSQL = `
SELECT version FROM nodes WHERE id = $1 AND deleted_at IS NULL`

const softDeleteSQL = `
UPDATE nodes
SET deleted_at = now(),
    is_active = FALSE,
    version = version + 1,
    updated_at = now(),
    updated_by = $3
WHERE id = $1 AND version = $2 AND deleted_at IS NULL`

const shiftOrderSQL = `
UPDATE nodes
SET order_index = order_index + $2
WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL`

const applyOrderSQL = `
UPDATE nodes AS n
SET order_index = u.idx,
    version = n.version + 1,
    updated_at = now(),
    updated_by = $3
FROM (SELECT unnest($1::uuid[]) AS id, unnest($2::int[]) AS idx) AS u
WHERE n.id = u.id AND n.deleted_at IS NULL`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a node by primary key.
// Returns domain.ErrNotFound if the node does not exist or is soft-deleted.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Node, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	n, err := scanNode(querier.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "node", id)
	}

	return n, nil
}

// GetByIDs returns the nodes with the given ids, skipping missing ones.
// Returns an empty slice (not nil) when none match.
func (r *Repo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Node, error) {
	if len(ids) == 0 {
		return []domain.Node{}, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("get nodes by ids: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// GetByCode returns a non-deleted node by its globally unique code.
func (r *Repo) GetByCode(ctx context.Context, code string) (*domain.Node, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	n, err := scanNode(querier.QueryRow(ctx, getByCodeSQL, code))
	if err != nil {
		return nil, postgres.MapError(err, "node code "+code, uuid.Nil)
	}

	return n, nil
}

// GetChildren returns the direct children of parentID ordered by
// order_index. A nil parentID selects root nodes. Returns an empty slice
// (not nil) when there are no children.
func (r *Repo) GetChildren(ctx context.Context, parentID *uuid.UUID) ([]domain.Node, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getChildrenSQL, uuidPtrToPgUUID(parentID))
	if err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// CountChildren returns the number of non-deleted direct children.
// A nil parentID counts root nodes.
func (r *Repo) CountChildren(ctx context.Context, parentID *uuid.UUID) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := querier.QueryRow(ctx, countChildrenSQL, uuidPtrToPgUUID(parentID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}

	return count, nil
}

// GetByPathPrefix returns all non-deleted nodes whose path starts with
// prefix, ordered by path then order_index (pre-order traversal). The
// query is an indexed prefix range scan over the path index, never a
// full scan. limit <= 0 disables the cap.
func (r *Repo) GetByPathPrefix(ctx context.Context, prefix string, limit int) ([]domain.Node, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if limit < 0 {
		limit = 0
	}

	rows, err := querier.Query(ctx, getByPathPrefixSQL, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("get by path prefix: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// SubtreeStats returns the node count and maximum absolute depth among
// non-deleted nodes whose path starts with prefix (subtree root included).
func (r *Repo) SubtreeStats(ctx context.Context, prefix string) (count int, maxDepth int32, err error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if err := querier.QueryRow(ctx, subtreeStatsSQL, prefix).Scan(&count, &maxDepth); err != nil {
		return 0, 0, fmt.Errorf("subtree stats: %w", err)
	}

	return count, maxDepth, nil
}

// GetMaxOrderIndex returns the highest order_index among the non-deleted
// children of parentID, or 0 if there are none.
func (r *Repo) GetMaxOrderIndex(ctx context.Context, parentID *uuid.UUID) (int32, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var max int32
	if err := querier.QueryRow(ctx, maxOrderIndexSQL, uuidPtrToPgUUID(parentID)).Scan(&max); err != nil {
		return 0, fmt.Errorf("max order index: %w", err)
	}

	return max, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert persists a new node. The caller supplies id, path, depth and
// order_index; timestamps are filled by the database and written back
// into the node.
func (r *Repo) Insert(ctx context.Context, n *domain.Node) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	err := querier.QueryRow(ctx, insertSQL,
		n.ID, n.TypeID, uuidPtrToPgUUID(n.ParentID), n.Code, n.Name,
		ptrStringToPgText(n.Description), n.Path, n.Depth, n.OrderIndex,
		n.IsActive, n.Version, n.CreatedBy,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return postgres.MapError(err, "node", n.ID)
	}

	n.UpdatedBy = n.CreatedBy
	return nil
}

// UpdateFields applies a partial update under an optimistic version
// check and returns the updated row. Returns domain.ErrVersionConflict
// if the stored version differs from expectedVersion, domain.ErrNotFound
// if the node does not exist or is soft-deleted.
func (r *Repo) UpdateFields(ctx context.Context, id uuid.UUID, params domain.NodeUpdateParams, expectedVersion int64, actorID uuid.UUID) (*domain.Node, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Update("nodes").
		Set("version", expectedVersion+1).
		Set("updated_at", squirrel.Expr("now()")).
		Set("updated_by", actorID).
		Where(squirrel.Eq{"id": id, "version": expectedVersion}).
		Where("deleted_at IS NULL").
		Suffix("RETURNING" + nodeColumns)

	if params.Name != nil {
		q = q.Set("name", *params.Name)
	}
	if params.Description != nil {
		// ptr("") means clear (set NULL in DB).
		if *params.Description == "" {
			q = q.Set("description", nil)
		} else {
			q = q.Set("description", *params.Description)
		}
	}
	if params.TypeID != nil {
		q = q.Set("type_id", *params.TypeID)
	}
	if params.IsActive != nil {
		q = q.Set("is_active", *params.IsActive)
	}
	if params.ParentID != nil {
		q = q.Set("parent_id", *params.ParentID)
	}
	if params.OrderIndex != nil {
		q = q.Set("order_index", *params.OrderIndex)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	n, err := scanNode(querier.QueryRow(ctx, sql, args...))
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		// The row may still exist; report the real failure (unique
		// violation, serialization error) instead of a version miss.
		return nil, postgres.MapError(err, "node", id)
	}

	// No row matched: either the node is gone or the version is stale.
	return nil, r.disambiguateMiss(ctx, querier, id, err)
}

// BulkRewritePaths atomically splices oldPrefix onto newPrefix for the
// moved node and every descendant, adjusting stored depths by depthDelta.
// Returns the number of rewritten rows.
func (r *Repo) BulkRewritePaths(ctx context.Context, oldPrefix, newPrefix string, depthDelta int32) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, bulkRewritePathsSQL, oldPrefix, newPrefix, depthDelta)
	if err != nil {
		return 0, postgres.MapError(err, "node paths "+oldPrefix, uuid.Nil)
	}

	return tag.RowsAffected(), nil
}

// UpdateOrderIndexes assigns new sibling order indexes in one logical
// step. Rows are first shifted into an unused range, then set to their
// final values, so the sibling-order unique index never fires
// mid-transaction. Returns the number of reordered rows.
func (r *Repo) UpdateOrderIndexes(ctx context.Context, order map[uuid.UUID]int32, actorID uuid.UUID) (int64, error) {
	if len(order) == 0 {
		return 0, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ids := make([]uuid.UUID, 0, len(order))
	indexes := make([]int32, 0, len(order))
	for id, idx := range order {
		ids = append(ids, id)
		indexes = append(indexes, idx)
	}

	if _, err := querier.Exec(ctx, shiftOrderSQL, ids, int32(orderShift)); err != nil {
		return 0, postgres.MapError(err, "node order shift", uuid.Nil)
	}

	tag, err := querier.Exec(ctx, applyOrderSQL, ids, indexes, actorID)
	if err != nil {
		return 0, postgres.MapError(err, "node order apply", uuid.Nil)
	}

	return tag.RowsAffected(), nil
}

// SoftDelete marks a node deleted under an optimistic version check.
// The path column is left untouched for audit history.
func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID, expectedVersion int64, actorID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, softDeleteSQL, id, expectedVersion, actorID)
	if err != nil {
		return postgres.MapError(err, "node", id)
	}

	if tag.RowsAffected() == 0 {
		return r.disambiguateMiss(ctx, querier, id, pgx.ErrNoRows)
	}

	return nil
}

// disambiguateMiss turns a zero-row write into ErrVersionConflict when
// the row still exists (stale version) or ErrNotFound when it is gone.
func (r *Repo) disambiguateMiss(ctx context.Context, querier postgres.Querier, id uuid.UUID, cause error) error {
	var stored int64
	lookupErr := querier.QueryRow(ctx, getVersionSQL, id).Scan(&stored)
	if lookupErr == nil {
		return fmt.Errorf("node %s: stored version %d: %w", id, stored, domain.ErrVersionConflict)
	}

	return postgres.MapError(cause, "node", id)
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanNode(row pgx.Row) (*domain.Node, error) {
	var (
		n           domain.Node
		parentID    pgtype.UUID
		description pgtype.Text
		deletedAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&n.ID, &n.TypeID, &parentID, &n.Code, &n.Name, &description,
		&n.Path, &n.Depth, &n.OrderIndex, &n.IsActive, &n.Version,
		&n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := uuid.UUID(parentID.Bytes)
		n.ParentID = &id
	}
	if description.Valid {
		n.Description = &description.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		n.DeletedAt = &t
	}

	return &n, nil
}

func scanNodes(rows pgx.Rows) ([]domain.Node, error) {
	var result []domain.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if result == nil {
		result = []domain.Node{}
	}

	return result, nil
}

// ---------------------------------------------------------------------------
// pgtype helpers
// ---------------------------------------------------------------------------

// uuidPtrToPgUUID converts a *uuid.UUID to pgtype.UUID (nil -> NULL).
func uuidPtrToPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// ptrStringToPgText converts a *string to pgtype.Text (nil -> NULL).
func ptrStringToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
