package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/queries"
	"github.com/mark-henry/mhnodalnetwork/application/services"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// CreateNodeHandler handles node creation commands
type CreateNodeHandler struct {
	store  ports.GraphStore
	reads  *services.ReadModels
	logger *zap.Logger
}

func NewCreateNodeHandler(store ports.GraphStore, reads *services.ReadModels, logger *zap.Logger) *CreateNodeHandler {
	return &CreateNodeHandler{store: store, reads: reads, logger: logger}
}

// Handle creates the node with a fresh id and adds it to the graph. A graph
// slug that does not name a graph is a validation error.
func (h *CreateNodeHandler) Handle(ctx context.Context, cmd commands.CreateNodeCommand) (*queries.NodeView, error) {
	graphID, err := h.reads.DecodeGraph(cmd.GraphSlug)
	if err != nil {
		return nil, pkgerrors.NewValidationError("graph_slug does not name a graph")
	}

	id, err := h.store.NextID(ctx)
	if err != nil {
		return nil, err
	}
	node, err := entities.NewNode(id, cmd.Name)
	if err != nil {
		return nil, err
	}
	if err := h.store.CreateNode(ctx, node, graphID); err != nil {
		return nil, err
	}

	h.reads.InvalidateGraphs(ctx, graphID)

	view, err := h.reads.NodeView(*node)
	if err != nil {
		return nil, err
	}
	h.logger.Info("node created", zap.String("node", view.Slug), zap.String("graph", cmd.GraphSlug))
	return &view, nil
}
