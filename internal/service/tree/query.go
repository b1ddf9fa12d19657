package tree

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/pathcodec"
)

// TreeNode is a node with its children nested, for subtree views.
type TreeNode struct {
	domain.Node
	Children []*TreeNode
}

// GetNode returns a single live node by id.
func (s *Service) GetNode(ctx context.Context, id uuid.UUID) (*domain.Node, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("node_id", "required")
	}
	return s.nodes.GetByID(ctx, id)
}

// GetNodeByCode returns a single live node by its unique code.
func (s *Service) GetNodeByCode(ctx context.Context, code string) (*domain.Node, error) {
	if code == "" {
		return nil, domain.NewValidationError("code", "required")
	}
	return s.nodes.GetByCode(ctx, code)
}

// GetChildren returns direct live children of the given parent (nil =
// roots), ordered by order index.
func (s *Service) GetChildren(ctx context.Context, parentID *uuid.UUID) ([]domain.Node, error) {
	return s.nodes.GetChildren(ctx, parentID)
}

// GetAncestors returns the chain from root to the node's direct parent.
// The ids come straight from the materialized path, so this is a single
// batched lookup regardless of depth. Roots get an empty chain.
func (s *Service) GetAncestors(ctx context.Context, id uuid.UUID) ([]domain.Node, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestorIDs, err := pathcodec.AncestorIDs(node.Path)
	if err != nil {
		return nil, fmt.Errorf("decode path %q: %w", node.Path, err)
	}
	if len(ancestorIDs) == 0 {
		return []domain.Node{}, nil
	}

	fetched, err := s.nodes.GetByIDs(ctx, ancestorIDs)
	if err != nil {
		return nil, fmt.Errorf("get ancestors: %w", err)
	}

	// Preserve root-first chain order.
	byID := make(map[uuid.UUID]domain.Node, len(fetched))
	for _, n := range fetched {
		byID[n.ID] = n
	}
	chain := make([]domain.Node, 0, len(ancestorIDs))
	for _, aid := range ancestorIDs {
		if n, ok := byID[aid]; ok {
			chain = append(chain, n)
		}
	}
	return chain, nil
}

// GetDescendants returns every live descendant of the node (self
// excluded) via a single path prefix scan, in depth-first path order.
func (s *Service) GetDescendants(ctx context.Context, id uuid.UUID) ([]domain.Node, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	all, err := s.nodes.GetByPathPrefix(ctx, node.Path, s.maxSubtreeFetch)
	if err != nil {
		return nil, fmt.Errorf("get descendants: %w", err)
	}

	descendants := make([]domain.Node, 0, len(all))
	for _, n := range all {
		if n.ID != node.ID {
			descendants = append(descendants, n)
		}
	}
	return descendants, nil
}

// GetSubtree returns the node with its descendants nested, down to
// maxDepth levels below it (0 = unlimited). Children are ordered by
// order index at every level.
func (s *Service) GetSubtree(ctx context.Context, id uuid.UUID, maxDepth int32) (*TreeNode, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	all, err := s.nodes.GetByPathPrefix(ctx, node.Path, s.maxSubtreeFetch)
	if err != nil {
		return nil, fmt.Errorf("get subtree: %w", err)
	}

	root := &TreeNode{Node: *node}
	byID := map[uuid.UUID]*TreeNode{node.ID: root}

	// Prefix-scan order guarantees parents come before their children.
	for _, n := range all {
		if n.ID == node.ID {
			continue
		}
		if maxDepth > 0 && n.Depth-node.Depth > maxDepth {
			continue
		}
		if n.ParentID == nil {
			continue
		}
		parent, ok := byID[*n.ParentID]
		if !ok {
			continue
		}
		tn := &TreeNode{Node: n}
		byID[n.ID] = tn
		parent.Children = append(parent.Children, tn)
	}

	sortChildren(root)
	return root, nil
}

// GetStatistics returns descendant counts and relative depth for the
// node's subtree, computed in two aggregate queries.
func (s *Service) GetStatistics(ctx context.Context, id uuid.UUID) (*domain.TreeStatistics, error) {
	node, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, maxDepth, err := s.nodes.SubtreeStats(ctx, node.Path)
	if err != nil {
		return nil, fmt.Errorf("subtree stats: %w", err)
	}

	direct, err := s.nodes.CountChildren(ctx, &node.ID)
	if err != nil {
		return nil, fmt.Errorf("count children: %w", err)
	}

	return &domain.TreeStatistics{
		TotalDescendants: count - 1, // SubtreeStats includes the node itself
		DirectChildren:   direct,
		MaxDepthBelow:    maxDepth - node.Depth,
	}, nil
}

// GetNodeTypes lists all node types.
func (s *Service) GetNodeTypes(ctx context.Context) ([]domain.NodeType, error) {
	return s.types.List(ctx)
}

// sortChildren orders every Children slice by order index. Path order
// sorts siblings by id text, which is not the curriculum order.
func sortChildren(tn *TreeNode) {
	sort.Slice(tn.Children, func(i, j int) bool {
		return tn.Children[i].OrderIndex < tn.Children[j].OrderIndex
	})
	for _, c := range tn.Children {
		sortChildren(c)
	}
}
