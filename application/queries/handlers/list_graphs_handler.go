package handlers

import (
	"context"

	"github.com/mark-henry/mhnodalnetwork/application/queries"
	"github.com/mark-henry/mhnodalnetwork/application/services"
)

// ListGraphsHandler lists all graphs.
type ListGraphsHandler struct {
	reads *services.ReadModels
}

func NewListGraphsHandler(reads *services.ReadModels) *ListGraphsHandler {
	return &ListGraphsHandler{reads: reads}
}

func (h *ListGraphsHandler) Handle(ctx context.Context, _ queries.ListGraphsQuery) (*queries.ListGraphsResult, error) {
	return h.reads.ListGraphs(ctx)
}
