package tree

import (
	"strings"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
)

const (
	maxCodeLen = 64
	maxNameLen = 255
	maxDescLen = 4096
)

// CreateNodeInput describes a request to create a node. ParentID nil
// creates a root.
type CreateNodeInput struct {
	TypeID      uuid.UUID
	ParentID    *uuid.UUID
	Code        string
	Name        string
	Description *string
	OrderIndex  *int32
}

func (in *CreateNodeInput) Validate() error {
	var errs []domain.FieldError

	if in.TypeID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "type_id", Message: "required"})
	}
	if in.ParentID != nil && *in.ParentID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "parent_id", Message: "must not be the zero uuid"})
	}
	errs = append(errs, validateCode(in.Code)...)
	errs = append(errs, validateName(in.Name)...)
	if in.Description != nil && len(*in.Description) > maxDescLen {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	if in.OrderIndex != nil && *in.OrderIndex < 1 {
		errs = append(errs, domain.FieldError{Field: "order_index", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateNodeInput describes a partial metadata update. ExpectedVersion
// is required; nil pointers leave fields unchanged.
type UpdateNodeInput struct {
	NodeID          uuid.UUID
	ExpectedVersion int64

	Name        *string
	Description *string
	TypeID      *uuid.UUID
	IsActive    *bool
}

func (in *UpdateNodeInput) Validate() error {
	var errs []domain.FieldError

	if in.NodeID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "node_id", Message: "required"})
	}
	if in.ExpectedVersion < 1 {
		errs = append(errs, domain.FieldError{Field: "expected_version", Message: "must be positive"})
	}
	if in.Name != nil {
		errs = append(errs, validateName(*in.Name)...)
	}
	if in.Description != nil && len(*in.Description) > maxDescLen {
		errs = append(errs, domain.FieldError{Field: "description", Message: "too long"})
	}
	if in.TypeID != nil && *in.TypeID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "type_id", Message: "must not be the zero uuid"})
	}
	if in.Name == nil && in.Description == nil && in.TypeID == nil && in.IsActive == nil {
		errs = append(errs, domain.FieldError{Field: "update", Message: "no fields to update"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// MoveNodeInput describes a subtree re-parenting request. When
// ExpectedVersion is nil the move proceeds against the current version.
type MoveNodeInput struct {
	NodeID          uuid.UUID
	NewParentID     uuid.UUID
	ExpectedVersion *int64
}

func (in *MoveNodeInput) Validate() error {
	var errs []domain.FieldError

	if in.NodeID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "node_id", Message: "required"})
	}
	if in.NewParentID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "new_parent_id", Message: "required"})
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion < 1 {
		errs = append(errs, domain.FieldError{Field: "expected_version", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ReorderChildrenInput assigns new order indexes to the children of one
// parent (nil = roots). Every listed node must be a child of ParentID.
type ReorderChildrenInput struct {
	ParentID *uuid.UUID
	Order    map[uuid.UUID]int32
}

func (in *ReorderChildrenInput) Validate() error {
	var errs []domain.FieldError

	if len(in.Order) == 0 {
		errs = append(errs, domain.FieldError{Field: "order", Message: "required"})
	}

	seen := make(map[int32]bool, len(in.Order))
	for id, idx := range in.Order {
		if id == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "order", Message: "zero uuid key"})
		}
		if idx < 1 {
			errs = append(errs, domain.FieldError{Field: "order", Message: "indexes must be positive"})
			break
		}
		if seen[idx] {
			errs = append(errs, domain.FieldError{Field: "order", Message: "duplicate order index"})
			break
		}
		seen[idx] = true
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// DeleteNodeInput describes a soft-delete request. When ExpectedVersion
// is nil the delete proceeds against the current version.
type DeleteNodeInput struct {
	NodeID          uuid.UUID
	ExpectedVersion *int64
}

func (in *DeleteNodeInput) Validate() error {
	var errs []domain.FieldError

	if in.NodeID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "node_id", Message: "required"})
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion < 1 {
		errs = append(errs, domain.FieldError{Field: "expected_version", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateCode(code string) []domain.FieldError {
	trimmed := strings.TrimSpace(code)
	switch {
	case trimmed == "":
		return []domain.FieldError{{Field: "code", Message: "required"}}
	case len(trimmed) > maxCodeLen:
		return []domain.FieldError{{Field: "code", Message: "too long"}}
	case strings.ContainsAny(trimmed, " \t\n"):
		return []domain.FieldError{{Field: "code", Message: "must not contain whitespace"}}
	}
	return nil
}

func validateName(name string) []domain.FieldError {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return []domain.FieldError{{Field: "name", Message: "required"}}
	case len(trimmed) > maxNameLen:
		return []domain.FieldError{{Field: "name", Message: "too long"}}
	}
	return nil
}
