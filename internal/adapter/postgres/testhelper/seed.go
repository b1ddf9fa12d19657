package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/pathcodec"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedNodeType creates a node type with the given limits and returns it.
// Unbounded limits are stored as NULL.
func SeedNodeType(t *testing.T, pool *pgxpool.Pool, maxChildren, maxDepth domain.Limit) domain.NodeType {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	nt := domain.NodeType{
		ID:        uuid.New(),
		Code:      "type-" + suffix,
		Name:      "Type " + suffix,
		MaxChildren: maxChildren,
		MaxDepth:    maxDepth,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var maxChildrenVal, maxDepthVal any
	if n, ok := maxChildren.Value(); ok {
		maxChildrenVal = n
	}
	if n, ok := maxDepth.Value(); ok {
		maxDepthVal = n
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO node_types (id, code, name, max_children, max_depth, is_system_protected, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`,
		nt.ID, nt.Code, nt.Name, maxChildrenVal, maxDepthVal, nt.CreatedAt, nt.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedNodeType insert: %v", err)
	}

	return nt
}

// SeedProtectedNodeType creates a system-protected node type.
func SeedProtectedNodeType(t *testing.T, pool *pgxpool.Pool) domain.NodeType {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	nt := domain.NodeType{
		ID:                uuid.New(),
		Code:              "systype-" + suffix,
		Name:              "System Type " + suffix,
		MaxChildren:       domain.Unbounded(),
		MaxDepth:          domain.Unbounded(),
		IsSystemProtected: true,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO node_types (id, code, name, max_children, max_depth, is_system_protected)
		 VALUES ($1, $2, $3, NULL, NULL, TRUE)`,
		nt.ID, nt.Code, nt.Name,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProtectedNodeType insert: %v", err)
	}

	return nt
}

// SeedNode creates a node under the given parent (nil = root) with a
// correct materialized path and the next free order index, bypassing the
// tree service. Returns the stored node.
func SeedNode(t *testing.T, pool *pgxpool.Pool, typeID uuid.UUID, parent *domain.Node) domain.Node {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	actor := uuid.New()

	n := domain.Node{
		ID:       uuid.New(),
		TypeID:   typeID,
		Code:     "node-" + suffix,
		Name:     "Node " + suffix,
		IsActive: true,
		Version:  1,
	}
	n.CreatedBy = actor
	n.UpdatedBy = actor

	parentPath := ""
	if parent != nil {
		n.ParentID = &parent.ID
		n.Depth = parent.Depth + 1
		parentPath = parent.Path
	}
	n.Path = pathcodec.Child(parentPath, n.ID)

	var maxOrder int32
	err := pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index), 0) FROM nodes
		 WHERE parent_id IS NOT DISTINCT FROM $1 AND deleted_at IS NULL`,
		n.ParentID,
	).Scan(&maxOrder)
	if err != nil {
		t.Fatalf("testhelper: SeedNode max order: %v", err)
	}
	n.OrderIndex = maxOrder + 1

	err = pool.QueryRow(ctx,
		`INSERT INTO nodes (id, type_id, parent_id, code, name, path, depth, order_index, is_active, version, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, 1, $9, $9)
		 RETURNING created_at, updated_at`,
		n.ID, n.TypeID, n.ParentID, n.Code, n.Name, n.Path, n.Depth, n.OrderIndex, actor,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedNode insert: %v", err)
	}

	return n
}
