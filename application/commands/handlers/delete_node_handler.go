package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/services"
)

// DeleteNodeHandler handles node deletion commands
type DeleteNodeHandler struct {
	store  ports.GraphStore
	reads  *services.ReadModels
	logger *zap.Logger
}

func NewDeleteNodeHandler(store ports.GraphStore, reads *services.ReadModels, logger *zap.Logger) *DeleteNodeHandler {
	return &DeleteNodeHandler{store: store, reads: reads, logger: logger}
}

// Handle deletes the node, then evicts it, its former neighbours and every
// graph that contained it.
func (h *DeleteNodeHandler) Handle(ctx context.Context, cmd commands.DeleteNodeCommand) error {
	id, err := h.reads.DecodeNode(cmd.Slug)
	if err != nil {
		return err
	}

	deletion, err := h.store.DeleteNode(ctx, id)
	if err != nil {
		return err
	}

	h.reads.InvalidateNodes(ctx, id)
	h.reads.InvalidateNodes(ctx, deletion.FormerNeighbors...)
	h.reads.InvalidateGraphs(ctx, deletion.FormerGraphs...)

	h.logger.Info("node deleted",
		zap.String("node", cmd.Slug),
		zap.Int("former_neighbors", len(deletion.FormerNeighbors)),
		zap.Int("former_graphs", len(deletion.FormerGraphs)),
	)
	return nil
}
