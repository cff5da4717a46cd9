// Package persistence holds cross-cutting wrappers shared by the store backends.
package persistence

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	"github.com/mark-henry/mhnodalnetwork/pkg/observability"
)

// InstrumentedStore records a span and Prometheus metrics for every store call.
type InstrumentedStore struct {
	inner   ports.GraphStore
	tracer  trace.Tracer
	metrics *observability.Collector
}

var _ ports.GraphStore = (*InstrumentedStore)(nil)

func NewInstrumentedStore(inner ports.GraphStore, tracer trace.Tracer, metrics *observability.Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, tracer: tracer, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "store."+op, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveDB(op, start, err)
		}
	}
}

func (s *InstrumentedStore) NextID(ctx context.Context) (id int64, err error) {
	ctx, done := s.observe(ctx, "next_id")
	defer func() { done(err) }()
	return s.inner.NextID(ctx)
}

func (s *InstrumentedStore) ListGraphs(ctx context.Context) (graphs []entities.GraphSummary, err error) {
	ctx, done := s.observe(ctx, "list_graphs")
	defer func() { done(err) }()
	return s.inner.ListGraphs(ctx)
}

func (s *InstrumentedStore) GetGraph(ctx context.Context, id int64) (g *entities.GraphWithNodes, err error) {
	ctx, done := s.observe(ctx, "get_graph", attribute.Int64("graph.id", id))
	defer func() { done(err) }()
	return s.inner.GetGraph(ctx, id)
}

func (s *InstrumentedStore) GetNode(ctx context.Context, id int64) (n *entities.Node, err error) {
	ctx, done := s.observe(ctx, "get_node", attribute.Int64("node.id", id))
	defer func() { done(err) }()
	return s.inner.GetNode(ctx, id)
}

func (s *InstrumentedStore) CreateNode(ctx context.Context, node *entities.Node, graphID int64) (err error) {
	ctx, done := s.observe(ctx, "create_node", attribute.Int64("node.id", node.ID), attribute.Int64("graph.id", graphID))
	defer func() { done(err) }()
	if err = s.inner.CreateNode(ctx, node, graphID); err == nil && s.metrics != nil {
		s.metrics.NodesCreated.Inc()
	}
	return err
}

func (s *InstrumentedStore) UpdateNode(ctx context.Context, node *entities.Node) (prev []int64, err error) {
	ctx, done := s.observe(ctx, "update_node",
		attribute.Int64("node.id", node.ID),
		attribute.Int("node.adjacencies", len(node.Adjacencies)),
	)
	defer func() { done(err) }()
	return s.inner.UpdateNode(ctx, node)
}

func (s *InstrumentedStore) DeleteNode(ctx context.Context, id int64) (del *ports.NodeDeletion, err error) {
	ctx, done := s.observe(ctx, "delete_node", attribute.Int64("node.id", id))
	defer func() { done(err) }()
	if del, err = s.inner.DeleteNode(ctx, id); err == nil && s.metrics != nil {
		s.metrics.NodesDeleted.Inc()
	}
	return del, err
}

func (s *InstrumentedStore) UpdateGraph(ctx context.Context, id int64, update ports.GraphUpdate) (err error) {
	ctx, done := s.observe(ctx, "update_graph",
		attribute.Int64("graph.id", id),
		attribute.Int("graph.node_count", len(update.NodeIDs)),
	)
	defer func() { done(err) }()
	return s.inner.UpdateGraph(ctx, id, update)
}

func (s *InstrumentedStore) SeedGraph(ctx context.Context, graph entities.GraphSummary) (err error) {
	ctx, done := s.observe(ctx, "seed_graph", attribute.Int64("graph.id", graph.ID))
	defer func() { done(err) }()
	return s.inner.SeedGraph(ctx, graph)
}

func (s *InstrumentedStore) EnsureSchema(ctx context.Context) (err error) {
	ctx, done := s.observe(ctx, "ensure_schema")
	defer func() { done(err) }()
	return s.inner.EnsureSchema(ctx)
}

// Ping is not traced; readiness probes would flood the exporter.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}
