package tree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// UpdateNode applies a partial metadata update with an optimistic
// version check. Structure (parent, path, order) is never changed here;
// that is MoveNode's and ReorderChildren's job.
func (s *Service) UpdateNode(ctx context.Context, input UpdateNodeInput) (*domain.Node, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("update node: %w", domain.ErrUnauthorized)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Node
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.nodes.GetByID(txCtx, input.NodeID)
		if err != nil {
			return fmt.Errorf("get node %s: %w", input.NodeID, err)
		}
		if current.Version != input.ExpectedVersion {
			return fmt.Errorf("node %s at version %d, expected %d: %w",
				current.ID, current.Version, input.ExpectedVersion, domain.ErrVersionConflict)
		}

		if input.TypeID != nil && *input.TypeID != current.TypeID {
			if err := s.validateTypeChange(txCtx, current, *input.TypeID); err != nil {
				return err
			}
		}

		params := domain.NodeUpdateParams{
			Name:        input.Name,
			Description: input.Description,
			TypeID:      input.TypeID,
			IsActive:    input.IsActive,
		}

		updated, err = s.nodes.UpdateFields(txCtx, input.NodeID, params, input.ExpectedVersion, actorID)
		if err != nil {
			return fmt.Errorf("update node %s: %w", input.NodeID, err)
		}

		if err := s.audit.Record(txCtx, domain.AuditRecord{
			ActorID:    actorID,
			EntityType: domain.EntityTypeNode,
			EntityID:   &updated.ID,
			Action:     domain.AuditActionUpdate,
			Changes:    updateChanges(current, updated),
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "node updated",
		slog.String("node_id", updated.ID.String()),
		slog.Int64("version", updated.Version),
		slog.String("actor_id", actorID.String()),
	)

	return updated, nil
}

// validateTypeChange re-runs the structural create checks for the new
// type at the node's current position. The sibling count excludes the
// node itself since it already occupies a slot.
func (s *Service) validateTypeChange(ctx context.Context, current *domain.Node, newTypeID uuid.UUID) error {
	newType, err := s.types.GetByID(ctx, newTypeID)
	if err != nil {
		return fmt.Errorf("get node type %s: %w", newTypeID, err)
	}

	var (
		parent     *domain.Node
		parentType *domain.NodeType
	)
	if current.ParentID != nil {
		parent, err = s.nodes.GetByID(ctx, *current.ParentID)
		if err != nil {
			return fmt.Errorf("get parent %s: %w", *current.ParentID, err)
		}
		parentType, err = s.types.GetByID(ctx, parent.TypeID)
		if err != nil {
			return fmt.Errorf("get parent type %s: %w", parent.TypeID, err)
		}
	}

	siblingCount, err := s.nodes.CountChildren(ctx, current.ParentID)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if siblingCount > 0 {
		siblingCount--
	}

	return s.validator.ValidateCreate(parent, parentType, newType, siblingCount)
}

func updateChanges(old, updated *domain.Node) map[string]any {
	changes := make(map[string]any)
	if old.Name != updated.Name {
		changes["name"] = map[string]any{"old": old.Name, "new": updated.Name}
	}
	if !ptrStringEqual(old.Description, updated.Description) {
		changes["description"] = map[string]any{"old": strPtrVal(old.Description), "new": strPtrVal(updated.Description)}
	}
	if old.TypeID != updated.TypeID {
		changes["type_id"] = map[string]any{"old": old.TypeID.String(), "new": updated.TypeID.String()}
	}
	if old.IsActive != updated.IsActive {
		changes["is_active"] = map[string]any{"old": old.IsActive, "new": updated.IsActive}
	}
	return changes
}

func ptrStringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strPtrVal(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
