package ports

import (
	"context"

	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
)

// GraphStore persists graphs and nodes. Implementations report a missing
// entity with a NOT_FOUND AppError and any backend failure with a DATABASE
// AppError. Every mutation is atomic.
type GraphStore interface {
	// NextID atomically reserves a fresh id from the shared counter.
	NextID(ctx context.Context) (int64, error)

	// ListGraphs returns every graph ordered by id.
	ListGraphs(ctx context.Context) ([]entities.GraphSummary, error)

	// GetGraph loads a graph with all member nodes and their adjacencies.
	// An empty graph is not an error.
	GetGraph(ctx context.Context, id int64) (*entities.GraphWithNodes, error)

	GetNode(ctx context.Context, id int64) (*entities.Node, error)

	// CreateNode stores node and adds it to graph graphID. A missing graph is a
	// VALIDATION error.
	CreateNode(ctx context.Context, node *entities.Node, graphID int64) error

	// UpdateNode replaces name, description and the full adjacency set of node.
	// Unknown neighbour ids are a VALIDATION error and nothing is written.
	// It returns the adjacency set the node had before the update.
	UpdateNode(ctx context.Context, node *entities.Node) ([]int64, error)

	// DeleteNode removes the node and every relationship touching it.
	DeleteNode(ctx context.Context, id int64) (*NodeDeletion, error)

	// UpdateGraph renames a graph and adds members to it.
	UpdateGraph(ctx context.Context, id int64, update GraphUpdate) error

	// SeedGraph creates the graph if missing and sets its name.
	SeedGraph(ctx context.Context, graph entities.GraphSummary) error

	// EnsureSchema creates constraints the store relies on.
	EnsureSchema(ctx context.Context) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// NodeDeletion reports what a deleted node was connected to.
type NodeDeletion struct {
	FormerNeighbors []int64
	FormerGraphs    []int64
}

// GraphUpdate describes a graph mutation. Name is applied when non-nil. Every
// node in NodeIDs becomes a member; existing members are never removed.
type GraphUpdate struct {
	Name    *string
	NodeIDs []int64
}

// Cache is a bounded, expiring key/value store for read models. It never fails;
// a miss only means the caller has to go to the store.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{})
	Has(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
	Len() int
}
