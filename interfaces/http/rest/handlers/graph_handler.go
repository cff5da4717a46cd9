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

// UpdateGraphRequest is the body of PUT /api/graphs/{graph_slug}. Listed
// nodes are added to the graph; none are removed.
type UpdateGraphRequest struct {
	Graph struct {
		Name  string   `json:"name" validate:"max=512"`
		Nodes []string `json:"nodes"`
	} `json:"graph"`
}

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

func NewGraphHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{commandBus: commandBus, queryBus: queryBus, errors: errs, logger: logger}
}

// ListGraphs handles GET /graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListGraphsQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// GetGraph handles GET /graphs/{graph_slug}
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphQuery{Slug: chi.URLParam(r, "graph_slug")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// UpdateGraph handles PUT /graphs/{graph_slug}
func (h *GraphHandler) UpdateGraph(w http.ResponseWriter, r *http.Request) {
	var req UpdateGraphRequest
	if err := decodeBody(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	cmd := commands.UpdateGraphCommand{
		Slug:  chi.URLParam(r, "graph_slug"),
		Name:  req.Graph.Name,
		Nodes: req.Graph.Nodes,
	}

	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, empty)
}
