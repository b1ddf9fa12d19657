package tree

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
)

var (
	_ nodeStore = &nodeStoreMock{}
	_ typeStore = &typeStoreMock{}
	_ auditSink = &auditSinkMock{}
	_ txManager = &txManagerMock{}
)

// nodeStoreMock implements nodeStore via settable Func fields. Calls to
// methods with a nil Func panic so tests fail loudly on unexpected use.
type nodeStoreMock struct {
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.Node, error)
	GetByIDsFunc           func(ctx context.Context, ids []uuid.UUID) ([]domain.Node, error)
	GetByCodeFunc          func(ctx context.Context, code string) (*domain.Node, error)
	GetChildrenFunc        func(ctx context.Context, parentID *uuid.UUID) ([]domain.Node, error)
	CountChildrenFunc      func(ctx context.Context, parentID *uuid.UUID) (int, error)
	GetByPathPrefixFunc    func(ctx context.Context, prefix string, limit int) ([]domain.Node, error)
	SubtreeStatsFunc       func(ctx context.Context, prefix string) (int, int32, error)
	GetMaxOrderIndexFunc   func(ctx context.Context, parentID *uuid.UUID) (int32, error)
	InsertFunc             func(ctx context.Context, n *domain.Node) error
	UpdateFieldsFunc       func(ctx context.Context, id uuid.UUID, params domain.NodeUpdateParams, expectedVersion int64, actorID uuid.UUID) (*domain.Node, error)
	BulkRewritePathsFunc   func(ctx context.Context, oldPrefix, newPrefix string, depthDelta int32) (int64, error)
	UpdateOrderIndexesFunc func(ctx context.Context, order map[uuid.UUID]int32, actorID uuid.UUID) (int64, error)
	SoftDeleteFunc         func(ctx context.Context, id uuid.UUID, expectedVersion int64, actorID uuid.UUID) error

	mu    sync.Mutex
	calls struct {
		Insert []struct {
			Node *domain.Node
		}
		UpdateFields []struct {
			ID              uuid.UUID
			Params          domain.NodeUpdateParams
			ExpectedVersion int64
		}
		BulkRewritePaths []struct {
			OldPrefix  string
			NewPrefix  string
			DepthDelta int32
		}
		UpdateOrderIndexes []struct {
			Order map[uuid.UUID]int32
		}
		SoftDelete []struct {
			ID              uuid.UUID
			ExpectedVersion int64
		}
	}
}

func (mock *nodeStoreMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Node, error) {
	if mock.GetByIDFunc == nil {
		panic("nodeStoreMock.GetByIDFunc: method is nil but nodeStore.GetByID was just called")
	}
	return mock.GetByIDFunc(ctx, id)
}

func (mock *nodeStoreMock) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Node, error) {
	if mock.GetByIDsFunc == nil {
		panic("nodeStoreMock.GetByIDsFunc: method is nil but nodeStore.GetByIDs was just called")
	}
	return mock.GetByIDsFunc(ctx, ids)
}

func (mock *nodeStoreMock) GetByCode(ctx context.Context, code string) (*domain.Node, error) {
	if mock.GetByCodeFunc == nil {
		panic("nodeStoreMock.GetByCodeFunc: method is nil but nodeStore.GetByCode was just called")
	}
	return mock.GetByCodeFunc(ctx, code)
}

func (mock *nodeStoreMock) GetChildren(ctx context.Context, parentID *uuid.UUID) ([]domain.Node, error) {
	if mock.GetChildrenFunc == nil {
		panic("nodeStoreMock.GetChildrenFunc: method is nil but nodeStore.GetChildren was just called")
	}
	return mock.GetChildrenFunc(ctx, parentID)
}

func (mock *nodeStoreMock) CountChildren(ctx context.Context, parentID *uuid.UUID) (int, error) {
	if mock.CountChildrenFunc == nil {
		panic("nodeStoreMock.CountChildrenFunc: method is nil but nodeStore.CountChildren was just called")
	}
	return mock.CountChildrenFunc(ctx, parentID)
}

func (mock *nodeStoreMock) GetByPathPrefix(ctx context.Context, prefix string, limit int) ([]domain.Node, error) {
	if mock.GetByPathPrefixFunc == nil {
		panic("nodeStoreMock.GetByPathPrefixFunc: method is nil but nodeStore.GetByPathPrefix was just called")
	}
	return mock.GetByPathPrefixFunc(ctx, prefix, limit)
}

func (mock *nodeStoreMock) SubtreeStats(ctx context.Context, prefix string) (int, int32, error) {
	if mock.SubtreeStatsFunc == nil {
		panic("nodeStoreMock.SubtreeStatsFunc: method is nil but nodeStore.SubtreeStats was just called")
	}
	return mock.SubtreeStatsFunc(ctx, prefix)
}

func (mock *nodeStoreMock) GetMaxOrderIndex(ctx context.Context, parentID *uuid.UUID) (int32, error) {
	if mock.GetMaxOrderIndexFunc == nil {
		panic("nodeStoreMock.GetMaxOrderIndexFunc: method is nil but nodeStore.GetMaxOrderIndex was just called")
	}
	return mock.GetMaxOrderIndexFunc(ctx, parentID)
}

func (mock *nodeStoreMock) Insert(ctx context.Context, n *domain.Node) error {
	if mock.InsertFunc == nil {
		panic("nodeStoreMock.InsertFunc: method is nil but nodeStore.Insert was just called")
	}
	mock.mu.Lock()
	mock.calls.Insert = append(mock.calls.Insert, struct {
		Node *domain.Node
	}{Node: n})
	mock.mu.Unlock()
	return mock.InsertFunc(ctx, n)
}

func (mock *nodeStoreMock) InsertCalls() []struct {
	Node *domain.Node
} {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.calls.Insert
}

func (mock *nodeStoreMock) UpdateFields(ctx context.Context, id uuid.UUID, params domain.NodeUpdateParams, expectedVersion int64, actorID uuid.UUID) (*domain.Node, error) {
	if mock.UpdateFieldsFunc == nil {
		panic("nodeStoreMock.UpdateFieldsFunc: method is nil but nodeStore.UpdateFields was just called")
	}
	mock.mu.Lock()
	mock.calls.UpdateFields = append(mock.calls.UpdateFields, struct {
		ID              uuid.UUID
		Params          domain.NodeUpdateParams
		ExpectedVersion int64
	}{ID: id, Params: params, ExpectedVersion: expectedVersion})
	mock.mu.Unlock()
	return mock.UpdateFieldsFunc(ctx, id, params, expectedVersion, actorID)
}

func (mock *nodeStoreMock) UpdateFieldsCalls() []struct {
	ID              uuid.UUID
	Params          domain.NodeUpdateParams
	ExpectedVersion int64
} {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.calls.UpdateFields
}

func (mock *nodeStoreMock) BulkRewritePaths(ctx context.Context, oldPrefix, newPrefix string, depthDelta int32) (int64, error) {
	if mock.BulkRewritePathsFunc == nil {
		panic("nodeStoreMock.BulkRewritePathsFunc: method is nil but nodeStore.BulkRewritePaths was just called")
	}
	mock.mu.Lock()
	mock.calls.BulkRewritePaths = append(mock.calls.BulkRewritePaths, struct {
		OldPrefix  string
		NewPrefix  string
		DepthDelta int32
	}{OldPrefix: oldPrefix, NewPrefix: newPrefix, DepthDelta: depthDelta})
	mock.mu.Unlock()
	return mock.BulkRewritePathsFunc(ctx, oldPrefix, newPrefix, depthDelta)
}

func (mock *nodeStoreMock) BulkRewritePathsCalls() []struct {
	OldPrefix  string
	NewPrefix  string
	DepthDelta int32
} {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.calls.BulkRewritePaths
}

func (mock *nodeStoreMock) UpdateOrderIndexes(ctx context.Context, order map[uuid.UUID]int32, actorID uuid.UUID) (int64, error) {
	if mock.UpdateOrderIndexesFunc == nil {
		panic("nodeStoreMock.UpdateOrderIndexesFunc: method is nil but nodeStore.UpdateOrderIndexes was just called")
	}
	mock.mu.Lock()
	mock.calls.UpdateOrderIndexes = append(mock.calls.UpdateOrderIndexes, struct {
		Order map[uuid.UUID]int32
	}{Order: order})
	mock.mu.Unlock()
	return mock.UpdateOrderIndexesFunc(ctx, order, actorID)
}

func (mock *nodeStoreMock) UpdateOrderIndexesCalls() []struct {
	Order map[uuid.UUID]int32
} {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.calls.UpdateOrderIndexes
}

func (mock *nodeStoreMock) SoftDelete(ctx context.Context, id uuid.UUID, expectedVersion int64, actorID uuid.UUID) error {
	if mock.SoftDeleteFunc == nil {
		panic("nodeStoreMock.SoftDeleteFunc: method is nil but nodeStore.SoftDelete was just called")
	}
	mock.mu.Lock()
	mock.calls.SoftDelete = append(mock.calls.SoftDelete, struct {
		ID              uuid.UUID
		ExpectedVersion int64
	}{ID: id, ExpectedVersion: expectedVersion})
	mock.mu.Unlock()
	return mock.SoftDeleteFunc(ctx, id, expectedVersion, actorID)
}

func (mock *nodeStoreMock) SoftDeleteCalls() []struct {
	ID              uuid.UUID
	ExpectedVersion int64
} {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.calls.SoftDelete
}

type typeStoreMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.NodeType, error)
	ListFunc    func(ctx context.Context) ([]domain.NodeType, error)
}

func (mock *typeStoreMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.NodeType, error) {
	if mock.GetByIDFunc == nil {
		panic("typeStoreMock.GetByIDFunc: method is nil but typeStore.GetByID was just called")
	}
	return mock.GetByIDFunc(ctx, id)
}

func (mock *typeStoreMock) List(ctx context.Context) ([]domain.NodeType, error) {
	if mock.ListFunc == nil {
		panic("typeStoreMock.ListFunc: method is nil but typeStore.List was just called")
	}
	return mock.ListFunc(ctx)
}

type auditSinkMock struct {
	RecordFunc func(ctx context.Context, record domain.AuditRecord) error

	mu    sync.Mutex
	calls []domain.AuditRecord
}

func (mock *auditSinkMock) Record(ctx context.Context, record domain.AuditRecord) error {
	if mock.RecordFunc == nil {
		panic("auditSinkMock.RecordFunc: method is nil but auditSink.Record was just called")
	}
	mock.mu.Lock()
	mock.calls = append(mock.calls, record)
	mock.mu.Unlock()
	return mock.RecordFunc(ctx, record)
}

func (mock *auditSinkMock) RecordCalls() []domain.AuditRecord {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return mock.calls
}

type txManagerMock struct {
	RunInTxFunc               func(ctx context.Context, fn func(ctx context.Context) error) error
	RunInRepeatableReadTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (mock *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInTxFunc == nil {
		panic("txManagerMock.RunInTxFunc: method is nil but txManager.RunInTx was just called")
	}
	return mock.RunInTxFunc(ctx, fn)
}

func (mock *txManagerMock) RunInRepeatableReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mock.RunInRepeatableReadTxFunc == nil {
		panic("txManagerMock.RunInRepeatableReadTxFunc: method is nil but txManager.RunInRepeatableReadTx was just called")
	}
	return mock.RunInRepeatableReadTxFunc(ctx, fn)
}
