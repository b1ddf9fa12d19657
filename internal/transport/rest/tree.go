package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/service/tree"
)

// treeService defines the minimal interface needed by TreeHandler.
type treeService interface {
	CreateNode(ctx context.Context, input tree.CreateNodeInput) (*domain.Node, error)
	UpdateNode(ctx context.Context, input tree.UpdateNodeInput) (*domain.Node, error)
	MoveNode(ctx context.Context, input tree.MoveNodeInput) (*domain.Node, error)
	ReorderChildren(ctx context.Context, input tree.ReorderChildrenInput) ([]domain.Node, error)
	DeleteNode(ctx context.Context, input tree.DeleteNodeInput) error

	GetNode(ctx context.Context, id uuid.UUID) (*domain.Node, error)
	GetNodeByCode(ctx context.Context, code string) (*domain.Node, error)
	GetChildren(ctx context.Context, parentID *uuid.UUID) ([]domain.Node, error)
	GetAncestors(ctx context.Context, id uuid.UUID) ([]domain.Node, error)
	GetDescendants(ctx context.Context, id uuid.UUID) ([]domain.Node, error)
	GetSubtree(ctx context.Context, id uuid.UUID, maxDepth int32) (*tree.TreeNode, error)
	GetStatistics(ctx context.Context, id uuid.UUID) (*domain.TreeStatistics, error)
	GetNodeTypes(ctx context.Context) ([]domain.NodeType, error)
}

// TreeHandler serves the content tree REST endpoints.
type TreeHandler struct {
	svc treeService
	log *slog.Logger
}

// NewTreeHandler creates a TreeHandler.
func NewTreeHandler(svc treeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{svc: svc, log: logger.With("handler", "tree")}
}

type createNodeRequest struct {
	TypeID      string  `json:"typeId"`
	ParentID    *string `json:"parentId,omitempty"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	OrderIndex  *int32  `json:"orderIndex,omitempty"`
}

type updateNodeRequest struct {
	ExpectedVersion int64   `json:"expectedVersion"`
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	TypeID          *string `json:"typeId,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
}

type moveNodeRequest struct {
	NewParentID     string `json:"newParentId"`
	ExpectedVersion *int64 `json:"expectedVersion,omitempty"`
}

type reorderRequest struct {
	ParentID *string          `json:"parentId,omitempty"`
	Order    map[string]int32 `json:"order"`
}

type nodeResponse struct {
	ID          string    `json:"id"`
	TypeID      string    `json:"typeId"`
	ParentID    *string   `json:"parentId,omitempty"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Path        string    `json:"path"`
	Depth       int32     `json:"depth"`
	OrderIndex  int32     `json:"orderIndex"`
	IsActive    bool      `json:"isActive"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type treeNodeResponse struct {
	nodeResponse
	Children []treeNodeResponse `json:"children"`
}

type statsResponse struct {
	TotalDescendants int   `json:"totalDescendants"`
	DirectChildren   int   `json:"directChildren"`
	MaxDepthBelow    int32 `json:"maxDepthBelow"`
}

type nodeTypeResponse struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	MaxChildren       *int32 `json:"maxChildren,omitempty"`
	MaxDepth          *int32 `json:"maxDepth,omitempty"`
	IsSystemProtected bool   `json:"isSystemProtected"`
}

// Create handles POST /v1/nodes.
func (h *TreeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	typeID, err := uuid.Parse(req.TypeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid typeId")
		return
	}
	parentID, ok := parseOptionalID(w, req.ParentID, "parentId")
	if !ok {
		return
	}

	node, err := h.svc.CreateNode(r.Context(), tree.CreateNodeInput{
		TypeID:      typeID,
		ParentID:    parentID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toNodeResponse(node))
}

// Get handles GET /v1/nodes/{id}.
func (h *TreeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	node, err := h.svc.GetNode(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponse(node))
}

// List handles GET /v1/nodes. Without parameters it returns the root
// nodes; with ?code= it looks a single node up by its unique code.
func (h *TreeHandler) List(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		node, err := h.svc.GetNodeByCode(r.Context(), code)
		if err != nil {
			handleDomainError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, toNodeResponse(node))
		return
	}

	roots, err := h.svc.GetChildren(r.Context(), nil)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponses(roots))
}

// Update handles PATCH /v1/nodes/{id}.
func (h *TreeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := tree.UpdateNodeInput{
		NodeID:          id,
		ExpectedVersion: req.ExpectedVersion,
		Name:            req.Name,
		Description:     req.Description,
		IsActive:        req.IsActive,
	}
	if req.TypeID != nil {
		typeID, err := uuid.Parse(*req.TypeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid typeId")
			return
		}
		input.TypeID = &typeID
	}

	node, err := h.svc.UpdateNode(r.Context(), input)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponse(node))
}

// Move handles POST /v1/nodes/{id}/move.
func (h *TreeHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req moveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newParentID, err := uuid.Parse(req.NewParentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid newParentId")
		return
	}

	node, err := h.svc.MoveNode(r.Context(), tree.MoveNodeInput{
		NodeID:          id,
		NewParentID:     newParentID,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponse(node))
}

// Reorder handles POST /v1/nodes/reorder. The parent is part of the
// body because root nodes have no parent to address in the path.
func (h *TreeHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	parentID, ok := parseOptionalID(w, req.ParentID, "parentId")
	if !ok {
		return
	}

	order := make(map[uuid.UUID]int32, len(req.Order))
	for raw, idx := range req.Order {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid node id in order: "+raw)
			return
		}
		order[id] = idx
	}

	children, err := h.svc.ReorderChildren(r.Context(), tree.ReorderChildrenInput{
		ParentID: parentID,
		Order:    order,
	})
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponses(children))
}

// Delete handles DELETE /v1/nodes/{id}. The expected version is passed
// as the ?version= query parameter and is optional.
func (h *TreeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	input := tree.DeleteNodeInput{NodeID: id}
	if raw := r.URL.Query().Get("version"); raw != "" {
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid version")
			return
		}
		input.ExpectedVersion = &version
	}

	if err := h.svc.DeleteNode(r.Context(), input); err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Children handles GET /v1/nodes/{id}/children.
func (h *TreeHandler) Children(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	children, err := h.svc.GetChildren(r.Context(), &id)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponses(children))
}

// Ancestors handles GET /v1/nodes/{id}/ancestors. Root first.
func (h *TreeHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ancestors, err := h.svc.GetAncestors(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponses(ancestors))
}

// Descendants handles GET /v1/nodes/{id}/descendants.
func (h *TreeHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	descendants, err := h.svc.GetDescendants(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNodeResponses(descendants))
}

// Subtree handles GET /v1/nodes/{id}/subtree. ?depth= limits how many
// levels below the node are included; 0 or absent means no limit.
func (h *TreeHandler) Subtree(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var maxDepth int32
	if raw := r.URL.Query().Get("depth"); raw != "" {
		depth, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || depth < 0 {
			writeError(w, http.StatusBadRequest, "invalid depth")
			return
		}
		maxDepth = int32(depth)
	}

	subtree, err := h.svc.GetSubtree(r.Context(), id, maxDepth)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toTreeNodeResponse(subtree))
}

// Stats handles GET /v1/nodes/{id}/stats.
func (h *TreeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.GetStatistics(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalDescendants: stats.TotalDescendants,
		DirectChildren:   stats.DirectChildren,
		MaxDepthBelow:    stats.MaxDepthBelow,
	})
}

// NodeTypes handles GET /v1/node-types.
func (h *TreeHandler) NodeTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.GetNodeTypes(r.Context())
	if err != nil {
		handleDomainError(w, r, h.log, err)
		return
	}

	out := make([]nodeTypeResponse, 0, len(types))
	for i := range types {
		out = append(out, toNodeTypeResponse(&types[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalID(w http.ResponseWriter, raw *string, field string) (*uuid.UUID, bool) {
	if raw == nil {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+field)
		return nil, false
	}
	return &id, true
}

func toNodeResponse(n *domain.Node) nodeResponse {
	resp := nodeResponse{
		ID:          n.ID.String(),
		TypeID:      n.TypeID.String(),
		Code:        n.Code,
		Name:        n.Name,
		Description: n.Description,
		Path:        n.Path,
		Depth:       n.Depth,
		OrderIndex:  n.OrderIndex,
		IsActive:    n.IsActive,
		Version:     n.Version,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.ParentID != nil {
		s := n.ParentID.String()
		resp.ParentID = &s
	}
	return resp
}

func toNodeResponses(nodes []domain.Node) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for i := range nodes {
		out = append(out, toNodeResponse(&nodes[i]))
	}
	return out
}

func toTreeNodeResponse(t *tree.TreeNode) treeNodeResponse {
	resp := treeNodeResponse{
		nodeResponse: toNodeResponse(&t.Node),
		Children:     make([]treeNodeResponse, 0, len(t.Children)),
	}
	for _, child := range t.Children {
		resp.Children = append(resp.Children, toTreeNodeResponse(child))
	}
	return resp
}

func toNodeTypeResponse(t *domain.NodeType) nodeTypeResponse {
	resp := nodeTypeResponse{
		ID:                t.ID.String(),
		Code:              t.Code,
		Name:              t.Name,
		IsSystemProtected: t.IsSystemProtected,
	}
	if n, ok := t.MaxChildren.Value(); ok {
		resp.MaxChildren = &n
	}
	if n, ok := t.MaxDepth.Value(); ok {
		resp.MaxDepth = &n
	}
	return resp
}
