package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/queries"
	"github.com/mark-henry/mhnodalnetwork/application/services"
)

// GetGraphHandler loads a graph together with all of its nodes.
type GetGraphHandler struct {
	reads  *services.ReadModels
	logger *zap.Logger
}

func NewGetGraphHandler(reads *services.ReadModels, logger *zap.Logger) *GetGraphHandler {
	return &GetGraphHandler{reads: reads, logger: logger}
}

func (h *GetGraphHandler) Handle(ctx context.Context, query queries.GetGraphQuery) (*queries.GetGraphResult, error) {
	res, err := h.reads.LoadGraph(ctx, query.Slug)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("graph loaded", zap.String("graph", query.Slug), zap.Int("nodes", len(res.Nodes)))
	return res, nil
}
