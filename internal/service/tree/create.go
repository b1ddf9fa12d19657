package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/pathcodec"
	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// CreateNode creates a node under the given parent (nil parent = new
// root). The path, depth and order index are computed here; structural
// constraints and code uniqueness are validated inside the transaction.
func (s *Service) CreateNode(ctx context.Context, input CreateNodeInput) (*domain.Node, error) {
	actorID, ok := ctxutil.ActorIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("create node: %w", domain.ErrUnauthorized)
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	nodeType, err := s.types.GetByID(ctx, input.TypeID)
	if err != nil {
		return nil, fmt.Errorf("get node type %s: %w", input.TypeID, err)
	}

	var created *domain.Node
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var (
			parent     *domain.Node
			parentType *domain.NodeType
			parentPath string
			depth      int32
		)
		if input.ParentID != nil {
			parent, err = s.nodes.GetByID(txCtx, *input.ParentID)
			if err != nil {
				return fmt.Errorf("get parent %s: %w", *input.ParentID, err)
			}
			parentType, err = s.types.GetByID(txCtx, parent.TypeID)
			if err != nil {
				return fmt.Errorf("get parent type %s: %w", parent.TypeID, err)
			}
			parentPath = parent.Path
			depth = parent.Depth + 1
		}

		siblingCount, err := s.nodes.CountChildren(txCtx, input.ParentID)
		if err != nil {
			return fmt.Errorf("count children: %w", err)
		}

		if err := s.validator.ValidateCreate(parent, parentType, nodeType, siblingCount); err != nil {
			return err
		}

		holder, err := s.nodes.GetByCode(txCtx, input.Code)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("check code %q: %w", input.Code, err)
		}
		if err := s.validator.ValidateCodeUnique(input.Code, nil, holder); err != nil {
			return err
		}

		orderIndex, err := s.resolveOrderIndex(txCtx, input.ParentID, input.OrderIndex)
		if err != nil {
			return err
		}

		id := uuid.New()
		node := &domain.Node{
			ID:          id,
			TypeID:      input.TypeID,
			ParentID:    input.ParentID,
			Code:        input.Code,
			Name:        input.Name,
			Description: trimOrNil(input.Description),
			Path:        pathcodec.Child(parentPath, id),
			Depth:       depth,
			OrderIndex:  orderIndex,
			IsActive:    true,
			Version:     1,
		}
		node.CreatedBy = actorID
		node.UpdatedBy = actorID

		if err := s.nodes.Insert(txCtx, node); err != nil {
			return fmt.Errorf("insert node: %w", err)
		}

		if err := s.audit.Record(txCtx, domain.AuditRecord{
			ActorID:    actorID,
			EntityType: domain.EntityTypeNode,
			EntityID:   &node.ID,
			Action:     domain.AuditActionCreate,
			Changes: map[string]any{
				"code":      map[string]any{"new": node.Code},
				"name":      map[string]any{"new": node.Name},
				"type_id":   map[string]any{"new": node.TypeID.String()},
				"parent_id": map[string]any{"new": uuidPtrString(node.ParentID)},
			},
		}); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		created = node
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "node created",
		slog.String("node_id", created.ID.String()),
		slog.String("code", created.Code),
		slog.Int("depth", int(created.Depth)),
		slog.String("actor_id", actorID.String()),
	)

	return created, nil
}

// resolveOrderIndex returns the requested order index, or max+1 when the
// caller did not specify one.
func (s *Service) resolveOrderIndex(ctx context.Context, parentID *uuid.UUID, requested *int32) (int32, error) {
	if requested != nil {
		return *requested, nil
	}
	maxOrder, err := s.nodes.GetMaxOrderIndex(ctx, parentID)
	if err != nil {
		return 0, fmt.Errorf("get max order index: %w", err)
	}
	return maxOrder + 1, nil
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
