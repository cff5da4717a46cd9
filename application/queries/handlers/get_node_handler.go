package handlers

import (
	"context"

	"github.com/mark-henry/mhnodalnetwork/application/queries"
	"github.com/mark-henry/mhnodalnetwork/application/services"
)

// GetNodeHandler handles single node queries
type GetNodeHandler struct {
	reads *services.ReadModels
}

func NewGetNodeHandler(reads *services.ReadModels) *GetNodeHandler {
	return &GetNodeHandler{reads: reads}
}

func (h *GetNodeHandler) Handle(ctx context.Context, query queries.GetNodeQuery) (*queries.NodeView, error) {
	return h.reads.LoadNode(ctx, query.Slug)
}
