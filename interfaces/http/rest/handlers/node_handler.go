package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands"
	"github.com/mark-henry/mhnodalnetwork/application/commands/bus"
	"github.com/mark-henry/mhnodalnetwork/application/queries"
	querybus "github.com/mark-henry/mhnodalnetwork/application/queries/bus"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// CreateNodeRequest is the body of POST /api/nodes.
type CreateNodeRequest struct {
	Node struct {
		Name      string `json:"name" validate:"required,max=512"`
		GraphSlug string `json:"graph_slug" validate:"required"`
	} `json:"node"`
}

// UpdateNodeRequest is the body of PUT /api/nodes/{node_slug}.
type UpdateNodeRequest struct {
	Node struct {
		Name        string   `json:"name" validate:"max=512"`
		Desc        string   `json:"desc"`
		Adjacencies []string `json:"adjacencies"`
	} `json:"node"`
}

// NodeResponse wraps a single node.
type NodeResponse struct {
	Node *queries.NodeView `json:"node"`
}

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func NewNodeHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}
}

// GetNode handles GET /nodes/{node_slug}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{Slug: chi.URLParam(r, "node_slug")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	node, ok := result.(*queries.NodeView)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected node result"))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, NodeResponse{Node: node})
}

// CreateNode handles POST /nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateNodeCommand{
		Name:      req.Node.Name,
		GraphSlug: req.Node.GraphSlug,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	node, ok := result.(*queries.NodeView)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected node result"))
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, NodeResponse{Node: node})
}

// UpdateNode handles PUT /nodes/{node_slug}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var req UpdateNodeRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	_, err := h.commandBus.Send(r.Context(), commands.UpdateNodeCommand{
		Slug:        chi.URLParam(r, "node_slug"),
		Name:        req.Node.Name,
		Desc:        req.Node.Desc,
		Adjacencies: req.Node.Adjacencies,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, empty)
}

// DeleteNode handles DELETE /nodes/{node_slug}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	_, err := h.commandBus.Send(r.Context(), commands.DeleteNodeCommand{Slug: chi.URLParam(r, "node_slug")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, empty)
}
