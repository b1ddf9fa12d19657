package tree

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/pathcodec"
)

// Validator holds the pure structural validation rules. It never touches
// storage; callers fetch the values it decides on. All checks run before
// any write is issued.
type Validator struct {
	// maxTreeDepth is the hard depth cap applied on top of per-type
	// MaxDepth constraints (root depth = 0).
	maxTreeDepth int32
}

// NewValidator creates a Validator with the given hard depth cap.
func NewValidator(maxTreeDepth int32) *Validator {
	return &Validator{maxTreeDepth: maxTreeDepth}
}

// ValidateCreate checks whether a node of nodeType may be created under
// parent (nil = root). siblingCount is the current number of live
// children under the parent.
func (v *Validator) ValidateCreate(parent *domain.Node, parentType *domain.NodeType, nodeType *domain.NodeType, siblingCount int) error {
	var depth int32
	if parent != nil {
		depth = parent.Depth + 1
	}

	if err := v.checkDepth(nodeType, depth); err != nil {
		return err
	}

	if parent != nil && parentType != nil {
		if !parentType.MaxChildren.Allows(int32(siblingCount) + 1) {
			limit, _ := parentType.MaxChildren.Value()
			return &domain.ConstraintError{
				Constraint: "max_children",
				Limit:      limit,
				Actual:     int32(siblingCount) + 1,
			}
		}
	}

	return nil
}

// ValidateMove checks whether node may be re-parented under newParent.
// The cycle check rejects moving a node under itself or any of its
// descendants before anything is written. siblingCount is the number of
// live children under newParent excluding the node itself;
// subtreeHeight is the height of the moved subtree (0 = leaf).
func (v *Validator) ValidateMove(node *domain.Node, newParent *domain.Node, newParentType *domain.NodeType, nodeType *domain.NodeType, siblingCount int, subtreeHeight int32) error {
	if newParent == nil {
		return domain.NewValidationError("new_parent_id", "required")
	}

	if node.ID == newParent.ID || pathcodec.IsDescendantPath(newParent.Path, node.Path) {
		return fmt.Errorf("move %s under %s: %w", node.ID, newParent.ID, domain.ErrCycle)
	}

	newDepth := newParent.Depth + 1

	// The deepest descendant must also stay within the caps.
	if err := v.checkDepth(nodeType, newDepth+subtreeHeight); err != nil {
		return err
	}
	if err := v.checkDepth(nodeType, newDepth); err != nil {
		return err
	}

	if newParentType != nil && !newParentType.MaxChildren.Allows(int32(siblingCount)+1) {
		limit, _ := newParentType.MaxChildren.Value()
		return &domain.ConstraintError{
			Constraint: "max_children",
			Limit:      limit,
			Actual:     int32(siblingCount) + 1,
		}
	}

	return nil
}

// ValidateDelete checks whether node may be soft-deleted: never with
// live children, never for system-protected types.
func (v *Validator) ValidateDelete(node *domain.Node, nodeType *domain.NodeType, childCount int) error {
	if nodeType != nil && nodeType.IsSystemProtected {
		return fmt.Errorf("node %s type %s is system-protected: %w", node.ID, nodeType.Code, domain.ErrForbidden)
	}

	if childCount > 0 {
		return fmt.Errorf("node %s has %d children: %w", node.ID, childCount, domain.ErrHasChildren)
	}

	return nil
}

// ValidateCodeUnique checks a code-uniqueness lookup result. existing is
// the live node currently holding the code (nil if free); excludeID
// exempts the node being updated.
func (v *Validator) ValidateCodeUnique(code string, excludeID *uuid.UUID, existing *domain.Node) error {
	if existing == nil {
		return nil
	}
	if excludeID != nil && existing.ID == *excludeID {
		return nil
	}
	return fmt.Errorf("code %q held by node %s: %w", code, existing.ID, domain.ErrDuplicateCode)
}

func (v *Validator) checkDepth(nodeType *domain.NodeType, depth int32) error {
	if depth > v.maxTreeDepth {
		return &domain.ConstraintError{
			Constraint: "max_depth",
			Limit:      v.maxTreeDepth,
			Actual:     depth,
		}
	}

	if nodeType != nil && !nodeType.MaxDepth.Allows(depth) {
		limit, _ := nodeType.MaxDepth.Value()
		return &domain.ConstraintError{
			Constraint: "max_depth",
			Limit:      limit,
			Actual:     depth,
		}
	}

	return nil
}
