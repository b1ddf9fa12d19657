package tree

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/pathcodec"
)

const testMaxTreeDepth = 12

// newTestService creates a Service with the given mocks, a permissive
// validator and a default logger.
func newTestService(
	t *testing.T,
	nodes *nodeStoreMock,
	types *typeStoreMock,
	audit *auditSinkMock,
	tx *txManagerMock,
) *Service {
	t.Helper()
	return NewService(
		slog.Default(),
		nodes,
		types,
		audit,
		tx,
		NewValidator(testMaxTreeDepth),
		10000,
	)
}

// defaultTxMock runs both transaction kinds inline on the same context.
func defaultTxMock() *txManagerMock {
	passthrough := func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	return &txManagerMock{
		RunInTxFunc:               passthrough,
		RunInRepeatableReadTxFunc: passthrough,
	}
}

// defaultAuditMock returns an auditSinkMock that always succeeds.
func defaultAuditMock() *auditSinkMock {
	return &auditSinkMock{
		RecordFunc: func(ctx context.Context, record domain.AuditRecord) error {
			return nil
		},
	}
}

// unboundedType returns a node type without structural limits.
func unboundedType() *domain.NodeType {
	return &domain.NodeType{
		ID:          uuid.New(),
		Code:        "unbounded",
		Name:        "Unbounded",
		MaxChildren: domain.Unbounded(),
		MaxDepth:    domain.Unbounded(),
	}
}

// buildNode creates an in-memory node with a consistent path under the
// given parent (nil = root).
func buildNode(typeID uuid.UUID, parent *domain.Node) *domain.Node {
	id := uuid.New()
	n := &domain.Node{
		ID:       id,
		TypeID:   typeID,
		Code:     "code-" + id.String()[:8],
		Name:     "Node " + id.String()[:8],
		IsActive: true,
		Version:  1,
	}
	parentPath := ""
	if parent != nil {
		n.ParentID = &parent.ID
		n.Depth = parent.Depth + 1
		parentPath = parent.Path
	}
	n.Path = pathcodec.Child(parentPath, id)
	return n
}

// typeStoreFor serves the given types by id.
func typeStoreFor(types ...*domain.NodeType) *typeStoreMock {
	byID := make(map[uuid.UUID]*domain.NodeType, len(types))
	for _, nt := range types {
		byID[nt.ID] = nt
	}
	return &typeStoreMock{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.NodeType, error) {
			nt, ok := byID[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return nt, nil
		},
	}
}
