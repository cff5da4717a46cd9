package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/services"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
)

// UpdateNodeHandler handles node update commands
type UpdateNodeHandler struct {
	store  ports.GraphStore
	reads  *services.ReadModels
	logger *zap.Logger
}

func NewUpdateNodeHandler(store ports.GraphStore, reads *services.ReadModels, logger *zap.Logger) *UpdateNodeHandler {
	return &UpdateNodeHandler{store: store, reads: reads, logger: logger}
}

// Handle replaces the node's fields and adjacency set. Every node whose
// adjacency list may have changed is evicted before returning.
func (h *UpdateNodeHandler) Handle(ctx context.Context, cmd commands.UpdateNodeCommand) error {
	id, err := h.reads.DecodeNode(cmd.Slug)
	if err != nil {
		return err
	}
	adjacencies, err := h.reads.DecodeReferences(cmd.Adjacencies)
	if err != nil {
		return err
	}

	node := &entities.Node{ID: id, Name: cmd.Name, Description: cmd.Desc, Adjacencies: adjacencies}
	previous, err := h.store.UpdateNode(ctx, node)
	if err != nil {
		return services.AsReferenceError(err)
	}

	h.reads.InvalidateNodes(ctx, entities.UnionIDs([]int64{id}, previous, node.Adjacencies)...)
	h.logger.Debug("node updated",
		zap.String("node", cmd.Slug),
		zap.Int("previous_adjacencies", len(previous)),
		zap.Int("adjacencies", len(node.Adjacencies)),
	)
	return nil
}
