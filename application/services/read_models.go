package services

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/queries"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	"github.com/mark-henry/mhnodalnetwork/domain/core/valueobjects"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

const (
	nodePrefix  = "node/"
	graphPrefix = "graph/"
	graphsKey   = "graphs"
)

func nodeKey(slug string) string  { return nodePrefix + slug }
func graphKey(slug string) string { return graphPrefix + slug }

// ReadModels is the read-through cache in front of the store. It owns slug
// translation so that an undecodable slug never reaches the store.
type ReadModels struct {
	store  ports.GraphStore
	cache  ports.Cache
	codec  *valueobjects.SlugCodec
	logger *zap.Logger
}

func NewReadModels(store ports.GraphStore, c ports.Cache, codec *valueobjects.SlugCodec, logger *zap.Logger) *ReadModels {
	return &ReadModels{store: store, cache: c, codec: codec, logger: logger}
}

// DecodeNode maps a node slug to its id; invalid slugs are NOT_FOUND.
func (r *ReadModels) DecodeNode(slug string) (int64, error) {
	id, err := r.codec.Decode(slug)
	if err != nil {
		return 0, pkgerrors.NewNotFoundError("node").WithCause(err)
	}
	return id, nil
}

// DecodeGraph maps a graph slug to its id; invalid slugs are NOT_FOUND.
func (r *ReadModels) DecodeGraph(slug string) (int64, error) {
	id, err := r.codec.Decode(slug)
	if err != nil {
		return 0, pkgerrors.NewNotFoundError("graph").WithCause(err)
	}
	return id, nil
}

// NodeView converts a stored node to its external form.
func (r *ReadModels) NodeView(n entities.Node) (queries.NodeView, error) {
	slug, err := r.codec.Encode(n.ID)
	if err != nil {
		return queries.NodeView{}, pkgerrors.NewInternalError("encoding node slug").WithCause(err)
	}
	adj, err := r.codec.EncodeAll(n.Adjacencies)
	if err != nil {
		return queries.NodeView{}, pkgerrors.NewInternalError("encoding adjacency slugs").WithCause(err)
	}
	return queries.NodeView{Slug: slug, Name: n.Name, Desc: n.Description, Adjacencies: adj}, nil
}

// ListGraphs returns every graph, cached under a single key.
func (r *ReadModels) ListGraphs(ctx context.Context) (*queries.ListGraphsResult, error) {
	if v, ok := r.cache.Get(ctx, graphsKey); ok {
		if res, ok := v.(queries.ListGraphsResult); ok {
			return &res, nil
		}
	}

	graphs, err := r.store.ListGraphs(ctx)
	if err != nil {
		return nil, err
	}
	res := queries.ListGraphsResult{Graphs: make([]queries.GraphSummaryView, 0, len(graphs))}
	for _, g := range graphs {
		slug, err := r.codec.Encode(g.ID)
		if err != nil {
			return nil, pkgerrors.NewInternalError("encoding graph slug").WithCause(err)
		}
		res.Graphs = append(res.Graphs, queries.GraphSummaryView{Slug: slug, Name: g.Name})
	}
	r.cache.Set(ctx, graphsKey, res)
	return &res, nil
}

// LoadNode returns the hydrated node for slug.
func (r *ReadModels) LoadNode(ctx context.Context, slug string) (*queries.NodeView, error) {
	id, err := r.DecodeNode(slug)
	if err != nil {
		return nil, err
	}
	if v, ok := r.cache.Get(ctx, nodeKey(slug)); ok {
		if view, ok := v.(queries.NodeView); ok {
			return &view, nil
		}
	}

	node, err := r.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := r.NodeView(*node)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, nodeKey(slug), view)
	return &view, nil
}

// LoadGraph returns the graph for slug with every member node. A cached graph
// is only served when all of its member nodes are cached as well.
func (r *ReadModels) LoadGraph(ctx context.Context, slug string) (*queries.GetGraphResult, error) {
	id, err := r.DecodeGraph(slug)
	if err != nil {
		return nil, err
	}
	if res, ok := r.cachedGraph(ctx, slug); ok {
		return res, nil
	}

	loaded, err := r.store.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &queries.GetGraphResult{
		Graph: queries.GraphView{Slug: slug, Name: loaded.Graph.Name, Nodes: make([]string, 0, len(loaded.Nodes))},
		Nodes: make([]queries.NodeView, 0, len(loaded.Nodes)),
	}
	for _, n := range loaded.Nodes {
		view, err := r.NodeView(n)
		if err != nil {
			return nil, err
		}
		res.Graph.Nodes = append(res.Graph.Nodes, view.Slug)
		res.Nodes = append(res.Nodes, view)
		r.cache.Set(ctx, nodeKey(view.Slug), view)
	}
	r.cache.Set(ctx, graphKey(slug), res.Graph)
	return res, nil
}

func (r *ReadModels) cachedGraph(ctx context.Context, slug string) (*queries.GetGraphResult, bool) {
	v, ok := r.cache.Get(ctx, graphKey(slug))
	if !ok {
		return nil, false
	}
	graph, ok := v.(queries.GraphView)
	if !ok {
		return nil, false
	}
	res := &queries.GetGraphResult{Graph: graph, Nodes: make([]queries.NodeView, 0, len(graph.Nodes))}
	for _, nodeSlug := range graph.Nodes {
		nv, ok := r.cache.Get(ctx, nodeKey(nodeSlug))
		if !ok {
			r.logger.Debug("graph cache entry incomplete, reloading", zap.String("graph", slug))
			return nil, false
		}
		view, ok := nv.(queries.NodeView)
		if !ok {
			return nil, false
		}
		res.Nodes = append(res.Nodes, view)
	}
	return res, true
}

// InvalidateNodes drops the cached read models of the given nodes.
func (r *ReadModels) InvalidateNodes(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		if slug, err := r.codec.Encode(id); err == nil {
			r.cache.Delete(ctx, nodeKey(slug))
		}
	}
}

// InvalidateGraphs drops the cached read models of the given graphs.
func (r *ReadModels) InvalidateGraphs(ctx context.Context, ids ...int64) {
	for _, id := range ids {
		if slug, err := r.codec.Encode(id); err == nil {
			r.cache.Delete(ctx, graphKey(slug))
		}
	}
}

// InvalidateGraphList drops the cached graph listing.
func (r *ReadModels) InvalidateGraphList(ctx context.Context) {
	r.cache.Delete(ctx, graphsKey)
}

// DecodeReferences decodes slugs that a write refers to. An undecodable slug
// is a validation error reported as 404.
func (r *ReadModels) DecodeReferences(slugs []string) ([]int64, error) {
	ids, err := r.codec.DecodeAll(slugs)
	if err != nil {
		return nil, AsReferenceError(pkgerrors.NewValidationError(fmt.Sprintf("referenced node does not exist: %v", err)))
	}
	return ids, nil
}

// AsReferenceError reports validation failures of referenced nodes as 404.
func AsReferenceError(err error) error {
	if appErr := pkgerrors.GetAppError(err); appErr != nil && appErr.Type == pkgerrors.ErrorTypeValidation {
		return appErr.WithHTTPStatus(http.StatusNotFound)
	}
	return err
}
