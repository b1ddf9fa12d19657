package domain

import (
	"time"

	"github.com/google/uuid"
)

// Limit is an explicit optional bound. The zero value is unbounded, which
// keeps "no limit" impossible to confuse with "limit of zero".
type Limit struct {
	n       int32
	bounded bool
}

// Unbounded returns a Limit with no bound.
func Unbounded() Limit {
	return Limit{}
}

// Bounded returns a Limit capped at n.
func Bounded(n int32) Limit {
	return Limit{n: n, bounded: true}
}

// IsBounded reports whether the limit has a bound.
func (l Limit) IsBounded() bool {
	return l.bounded
}

// Value returns the bound and whether one is set.
func (l Limit) Value() (int32, bool) {
	return l.n, l.bounded
}

// Allows reports whether n is within the limit.
func (l Limit) Allows(n int32) bool {
	return !l.bounded || n <= l.n
}

// NodeType categorizes tree nodes (category, subject, topic, ...) and
// carries the structural constraints enforced on nodes of that type.
type NodeType struct {
	ID   uuid.UUID
	Code string
	Name string

	// MaxChildren limits the number of direct children under a node of
	// this type. MaxDepth limits how deep a node of this type may sit
	// in the tree (root depth = 0).
	MaxChildren Limit
	MaxDepth    Limit

	// IsSystemProtected marks built-in types whose nodes cannot be
	// deleted and which cannot be modified by non-privileged actors.
	IsSystemProtected bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Built-in node type codes seeded on first run.
const (
	NodeTypeCategory      = "category"
	NodeTypeSubject       = "subject"
	NodeTypeTopic         = "topic"
	NodeTypeQuestionGroup = "question_group"
)
