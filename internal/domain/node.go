package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle holds the audit and soft-delete fields shared by persisted
// entities. It is embedded as a value, not inherited.
type Lifecycle struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy uuid.UUID
	UpdatedBy uuid.UUID
	DeletedAt *time.Time
}

// IsDeleted returns true if the entity has been soft-deleted.
func (l Lifecycle) IsDeleted() bool {
	return l.DeletedAt != nil
}

// Node is a single entry in the content tree: a category, subject, topic
// or any other NodeType arranged in a nested hierarchy.
//
// Path is the materialized path: the node's full ancestor chain (self
// included) encoded as delimiter-joined ids with leading and trailing
// delimiters. It is maintained by the tree service and must always equal
// the parent's path plus the node's own id.
type Node struct {
	ID          uuid.UUID
	TypeID      uuid.UUID
	ParentID    *uuid.UUID // nil for roots
	Code        string     // globally unique among non-deleted nodes
	Name        string
	Description *string
	Path        string
	Depth       int32 // derived from Path, stored for ordering and stats
	OrderIndex  int32 // unique among siblings
	IsActive    bool
	Version     int64 // optimistic concurrency token

	Lifecycle
}

// IsRoot returns true if the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// NodeUpdateParams describes a partial metadata update of a node.
// Nil pointer = don't change. For Description, ptr("") clears the value.
type NodeUpdateParams struct {
	Name        *string
	Description *string
	TypeID      *uuid.UUID
	IsActive    *bool

	// Set by MoveNode only; never by metadata updates.
	ParentID   *uuid.UUID
	OrderIndex *int32
}

// IsZero returns true when no field is set.
func (p NodeUpdateParams) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.TypeID == nil &&
		p.IsActive == nil && p.ParentID == nil && p.OrderIndex == nil
}

// TreeStatistics summarizes a subtree for reporting views.
type TreeStatistics struct {
	TotalDescendants int
	DirectChildren   int
	MaxDepthBelow    int32 // relative to the subtree root; 0 = leaf
}
