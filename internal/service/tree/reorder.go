package tree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// ReorderChildren assigns new order indexes to children of one parent.
// Every node in the input must be a live child of that parent; otherwise
// nothing is written. Returns the parent's children in their new order.
func (s *Service) ReorderChildren(ctx context.Context, input ReorderChildrenInput) ([]domain.Node, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("reorder children: %w", domain.ErrUnauthorized)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var reordered []domain.Node
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if input.ParentID != nil {
			if _, err := s.nodes.GetByID(txCtx, *input.ParentID); err != nil {
				return fmt.Errorf("get parent %s: %w", *input.ParentID, err)
			}
		}

		children, err := s.nodes.GetChildren(txCtx, input.ParentID)
		if err != nil {
			return fmt.Errorf("get children: %w", err)
		}

		childSet := make(map[uuid.UUID]bool, len(children))
		for _, c := range children {
			childSet[c.ID] = true
		}
		for id := range input.Order {
			if !childSet[id] {
				return fmt.Errorf("node %s is not a child of the target parent: %w", id, domain.ErrNotSibling)
			}
		}

		if _, err := s.nodes.UpdateOrderIndexes(txCtx, input.Order, actorID); err != nil {
			return fmt.Errorf("update order indexes: %w", err)
		}

		orderChanges := make(map[string]any, len(input.Order))
		for id, idx := range input.Order {
			orderChanges[id.String()] = idx
		}
		if err := s.audit.Record(txCtx, domain.AuditRecord{
			ActorID:    actorID,
			EntityType: domain.EntityTypeNode,
			EntityID:   input.ParentID,
			Action:     domain.AuditActionReorder,
			Changes:    map[string]any{"order": map[string]any{"new": orderChanges}},
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		reordered, err = s.nodes.GetChildren(txCtx, input.ParentID)
		if err != nil {
			return fmt.Errorf("reload children: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "children reordered",
		slog.Any("parent_id", uuidPtrString(input.ParentID)),
		slog.Int("count", len(input.Order)),
		slog.String("actor_id", actorID.String()),
	)

	return reordered, nil
}
