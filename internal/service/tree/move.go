package tree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/pathcodec"
	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// MoveNode re-parents a node and its entire subtree. The operation runs
// in a REPEATABLE READ transaction: validation sees a consistent
// snapshot, the version-checked parent update fences out concurrent
// moves of the same node, and a single bulk statement rewrites every
// descendant path. The moved node lands at the end of its new sibling
// list.
func (s *Service) MoveNode(ctx context.Context, input MoveNodeInput) (*domain.Node, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("move node: %w", domain.ErrUnauthorized)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var (
		moved     *domain.Node
		oldParent *uuid.UUID
		rewritten int64
	)
	err := s.tx.RunInRepeatableReadTx(ctx, func(txCtx context.Context) error {
		node, err := s.nodes.GetByID(txCtx, input.NodeID)
		if err != nil {
			return fmt.Errorf("get node %s: %w", input.NodeID, err)
		}
		if input.ExpectedVersion != nil && node.Version != *input.ExpectedVersion {
			return fmt.Errorf("node %s at version %d, expected %d: %w",
				node.ID, node.Version, *input.ExpectedVersion, domain.ErrVersionConflict)
		}

		newParent, err := s.nodes.GetByID(txCtx, input.NewParentID)
		if err != nil {
			return fmt.Errorf("get new parent %s: %w", input.NewParentID, err)
		}

		nodeType, err := s.types.GetByID(txCtx, node.TypeID)
		if err != nil {
			return fmt.Errorf("get node type %s: %w", node.TypeID, err)
		}
		newParentType, err := s.types.GetByID(txCtx, newParent.TypeID)
		if err != nil {
			return fmt.Errorf("get parent type %s: %w", newParent.TypeID, err)
		}

		siblingCount, err := s.nodes.CountChildren(txCtx, &newParent.ID)
		if err != nil {
			return fmt.Errorf("count children: %w", err)
		}
		if node.ParentID != nil && *node.ParentID == newParent.ID && siblingCount > 0 {
			siblingCount--
		}

		_, subtreeMaxDepth, err := s.nodes.SubtreeStats(txCtx, node.Path)
		if err != nil {
			return fmt.Errorf("subtree stats: %w", err)
		}
		subtreeHeight := subtreeMaxDepth - node.Depth

		if err := s.validator.ValidateMove(node, newParent, newParentType, nodeType, siblingCount, subtreeHeight); err != nil {
			return err
		}

		maxOrder, err := s.nodes.GetMaxOrderIndex(txCtx, &newParent.ID)
		if err != nil {
			return fmt.Errorf("get max order index: %w", err)
		}
		newOrder := maxOrder + 1

		oldPath := node.Path
		newPath := pathcodec.Child(newParent.Path, node.ID)
		depthDelta := newParent.Depth + 1 - node.Depth

		// Version-checked parent swap first. The node's own path is
		// still the old prefix, so the bulk rewrite below covers the
		// node and all its descendants in one statement.
		params := domain.NodeUpdateParams{
			ParentID:   &newParent.ID,
			OrderIndex: &newOrder,
		}
		if _, err := s.nodes.UpdateFields(txCtx, node.ID, params, node.Version, actorID); err != nil {
			return fmt.Errorf("reparent node %s: %w", node.ID, err)
		}

		rewritten, err = s.nodes.BulkRewritePaths(txCtx, oldPath, newPath, depthDelta)
		if err != nil {
			return fmt.Errorf("rewrite paths: %w", err)
		}

		if err := s.audit.Record(txCtx, domain.AuditRecord{
			ActorID:    actorID,
			EntityType: domain.EntityTypeNode,
			EntityID:   &node.ID,
			Action:     domain.AuditActionMove,
			Changes: map[string]any{
				"parent_id": map[string]any{"old": uuidPtrString(node.ParentID), "new": newParent.ID.String()},
				"path":      map[string]any{"old": oldPath, "new": newPath},
			},
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		oldParent = node.ParentID

		// Re-read to return the rewritten path, depth and version.
		moved, err = s.nodes.GetByID(txCtx, node.ID)
		if err != nil {
			return fmt.Errorf("reload node %s: %w", node.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "node moved",
		slog.String("node_id", moved.ID.String()),
		slog.Any("old_parent_id", uuidPtrString(oldParent)),
		slog.String("new_parent_id", input.NewParentID.String()),
		slog.Int64("paths_rewritten", rewritten),
		slog.String("actor_id", actorID.String()),
	)

	return moved, nil
}
