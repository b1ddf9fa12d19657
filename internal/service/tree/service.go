// Package tree implements the content-tree engine: transactional CRUD,
// move, and reorder operations over materialized-path nodes, plus the
// read-only query facade.
package tree

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
)

type nodeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Node, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Node, error)
	GetByCode(ctx context.Context, code string) (*domain.Node, error)
	GetChildren(ctx context.Context, parentID *uuid.UUID) ([]domain.Node, error)
	CountChildren(ctx context.Context, parentID *uuid.UUID) (int, error)
	GetByPathPrefix(ctx context.Context, prefix string, limit int) ([]domain.Node, error)
	SubtreeStats(ctx context.Context, prefix string) (count int, maxDepth int32, err error)
	GetMaxOrderIndex(ctx context.Context, parentID *uuid.UUID) (int32, error)

	Insert(ctx context.Context, n *domain.Node) error
	UpdateFields(ctx context.Context, id uuid.UUID, params domain.NodeUpdateParams, expectedVersion int64, actorID uuid.UUID) (*domain.Node, error)
	BulkRewritePaths(ctx context.Context, oldPrefix, newPrefix string, depthDelta int32) (int64, error)
	UpdateOrderIndexes(ctx context.Context, order map[uuid.UUID]int32, actorID uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID, expectedVersion int64, actorID uuid.UUID) error
}

type typeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NodeType, error)
	List(ctx context.Context) ([]domain.NodeType, error)
}

type auditSink interface {
	Record(ctx context.Context, record domain.AuditRecord) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	RunInRepeatableReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides content-tree operations. Only the Service issues
// write transactions against node rows; every mutation is one
// transaction with validation before the first write and an audit
// record inside the transaction.
type Service struct {
	nodes     nodeStore
	types     typeStore
	audit     auditSink
	tx        txManager
	validator *Validator
	log       *slog.Logger

	// maxSubtreeFetch caps descendant/subtree query results.
	maxSubtreeFetch int
}

// NewService creates a new tree service.
func NewService(
	log *slog.Logger,
	nodes nodeStore,
	types typeStore,
	audit auditSink,
	tx txManager,
	validator *Validator,
	maxSubtreeFetch int,
) *Service {
	return &Service{
		nodes:           nodes,
		types:           types,
		audit:           audit,
		tx:              tx,
		validator:       validator,
		log:             log.With("service", "tree"),
		maxSubtreeFetch: maxSubtreeFetch,
	}
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
