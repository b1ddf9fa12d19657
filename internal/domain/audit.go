package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of entity an audit record refers to.
type EntityType string

const (
	EntityTypeNode     EntityType = "node"
	EntityTypeNodeType EntityType = "node_type"
)

// AuditAction identifies the mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionMove    AuditAction = "move"
	AuditActionReorder AuditAction = "reorder"
	AuditActionDelete  AuditAction = "delete"
)

// AuditRecord is one append-only audit log entry. Every successful
// mutating tree operation writes exactly one record inside its
// transaction.
type AuditRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	EntityType EntityType
	EntityID   *uuid.UUID
	Action     AuditAction
	Changes    map[string]any // {"field": {"old": ..., "new": ...}}
	CreatedAt  time.Time
}
