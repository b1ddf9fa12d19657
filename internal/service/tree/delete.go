package tree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// DeleteNode soft-deletes a leaf node. Nodes with live children and
// nodes of a system-protected type are refused. The row keeps its path,
// so historical references stay resolvable.
func (s *Service) DeleteNode(ctx context.Context, input DeleteNodeInput) error {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return fmt.Errorf("delete node: %w", domain.ErrUnauthorized)
	}

	if err := input.Validate(); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		node, err := s.nodes.GetByID(txCtx, input.NodeID)
		if err != nil {
			return fmt.Errorf("get node %s: %w", input.NodeID, err)
		}

		expected := node.Version
		if input.ExpectedVersion != nil {
			if node.Version != *input.ExpectedVersion {
				return fmt.Errorf("node %s at version %d, expected %d: %w",
					node.ID, node.Version, *input.ExpectedVersion, domain.ErrVersionConflict)
			}
			expected = *input.ExpectedVersion
		}

		nodeType, err := s.types.GetByID(txCtx, node.TypeID)
		if err != nil {
			return fmt.Errorf("get node type %s: %w", node.TypeID, err)
		}

		childCount, err := s.nodes.CountChildren(txCtx, &node.ID)
		if err != nil {
			return fmt.Errorf("count children: %w", err)
		}

		if err := s.validator.ValidateDelete(node, nodeType, childCount); err != nil {
			return err
		}

		if err := s.nodes.SoftDelete(txCtx, node.ID, expected, actorID); err != nil {
			return fmt.Errorf("soft delete node %s: %w", node.ID, err)
		}

		return s.audit.Record(txCtx, domain.AuditRecord{
			ActorID:    actorID,
			EntityType: domain.EntityTypeNode,
			EntityID:   &node.ID,
			Action:     domain.AuditActionDelete,
			Changes: map[string]any{
				"code": map[string]any{"old": node.Code},
			},
		})
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "node deleted",
		slog.String("node_id", input.NodeID.String()),
		slog.String("actor_id", actorID.String()),
	)

	return nil
}
