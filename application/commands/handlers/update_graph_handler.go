package handlers

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/services"
)

// UpdateGraphHandler handles graph update commands
type UpdateGraphHandler struct {
	store  ports.GraphStore
	reads  *services.ReadModels
	logger *zap.Logger
}

func NewUpdateGraphHandler(store ports.GraphStore, reads *services.ReadModels, logger *zap.Logger) *UpdateGraphHandler {
	return &UpdateGraphHandler{store: store, reads: reads, logger: logger}
}

func (h *UpdateGraphHandler) Handle(ctx context.Context, cmd commands.UpdateGraphCommand) error {
	id, err := h.reads.DecodeGraph(cmd.Slug)
	if err != nil {
		return err
	}

	var update ports.GraphUpdate
	if name := strings.TrimSpace(cmd.Name); name != "" {
		update.Name = &name
	}
	if update.NodeIDs, err = h.reads.DecodeReferences(cmd.Nodes); err != nil {
		return err
	}

	if err := h.store.UpdateGraph(ctx, id, update); err != nil {
		return services.AsReferenceError(err)
	}

	h.reads.InvalidateGraphs(ctx, id)
	if update.Name != nil {
		h.reads.InvalidateGraphList(ctx)
	}
	h.logger.Debug("graph updated",
		zap.String("graph", cmd.Slug),
		zap.Bool("renamed", update.Name != nil),
		zap.Int("nodes", len(update.NodeIDs)),
	)
	return nil
}
