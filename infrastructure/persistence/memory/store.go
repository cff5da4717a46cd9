// Package memory provides an in-process GraphStore. It backs the "memory"
// store mode used for local development and the HTTP tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// CodeUnknownNode matches the code the Neo4j store uses for dangling references.
const CodeUnknownNode = "UNKNOWN_NODE"

type nodeRecord struct {
	name string
	desc string
}

type graphRecord struct {
	name    string
	members map[int64]struct{}
}

// Store keeps graphs, nodes and undirected edges in maps guarded by one lock,
// which makes every operation atomic.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	nodes  map[int64]*nodeRecord
	edges  map[int64]map[int64]struct{}
	graphs map[int64]*graphRecord

	shouldFailOn map[string]error
	recording    bool
	calls        []string
}

var _ ports.GraphStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		nodes:        make(map[int64]*nodeRecord),
		edges:        make(map[int64]map[int64]struct{}),
		graphs:       make(map[int64]*graphRecord),
		shouldFailOn: make(map[string]error),
	}
}

// SetError makes method fail with err until ClearErrors is called.
func (s *Store) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn[method] = err
}

func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn = make(map[string]error)
}

// RecordCalls starts logging method names for Calls. Off by default so a
// long-running dev server does not accumulate them.
func (s *Store) RecordCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = true
}

// Calls returns the names of the store methods invoked since RecordCalls, in order.
func (s *Store) Calls() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.calls...)
}

// enter records the call and returns the configured error. Caller holds mu.
func (s *Store) enter(method string) error {
	if s.recording {
		s.calls = append(s.calls, method)
	}
	if err, ok := s.shouldFailOn[method]; ok {
		return err
	}
	return nil
}

func (s *Store) NextID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("NextID"); err != nil {
		return 0, err
	}
	s.nextID++
	return s.nextID, nil
}

func (s *Store) ListGraphs(ctx context.Context) ([]entities.GraphSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListGraphs"); err != nil {
		return nil, err
	}
	out := make([]entities.GraphSummary, 0, len(s.graphs))
	for id, g := range s.graphs {
		out = append(out, entities.GraphSummary{ID: id, Name: g.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetGraph(ctx context.Context, id int64) (*entities.GraphWithNodes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetGraph"); err != nil {
		return nil, err
	}
	g, ok := s.graphs[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("graph")
	}
	result := &entities.GraphWithNodes{
		Graph: entities.Graph{ID: id, Name: g.name, NodeIDs: sortedKeys(g.members)},
		Nodes: make([]entities.Node, 0, len(g.members)),
	}
	for _, nid := range result.Graph.NodeIDs {
		result.Nodes = append(result.Nodes, s.hydrate(nid))
	}
	return result, nil
}

func (s *Store) GetNode(ctx context.Context, id int64) (*entities.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetNode"); err != nil {
		return nil, err
	}
	if _, ok := s.nodes[id]; !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	n := s.hydrate(id)
	return &n, nil
}

func (s *Store) CreateNode(ctx context.Context, node *entities.Node, graphID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateNode"); err != nil {
		return err
	}
	g, ok := s.graphs[graphID]
	if !ok {
		return pkgerrors.NewValidationError("graph does not exist")
	}
	s.nodes[node.ID] = &nodeRecord{name: node.Name, desc: node.Description}
	g.members[node.ID] = struct{}{}
	return nil
}

func (s *Store) UpdateNode(ctx context.Context, node *entities.Node) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateNode"); err != nil {
		return nil, err
	}
	rec, ok := s.nodes[node.ID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	adjacencies := entities.NormalizeAdjacencies(node.ID, node.Adjacencies)
	if err := s.requireNodes(adjacencies); err != nil {
		return nil, err
	}

	previous := sortedKeys(s.edges[node.ID])
	for _, other := range previous {
		delete(s.edges[other], node.ID)
	}
	delete(s.edges, node.ID)

	rec.name = node.Name
	rec.desc = node.Description
	for _, other := range adjacencies {
		s.link(node.ID, other)
	}
	node.Adjacencies = adjacencies
	return previous, nil
}

func (s *Store) DeleteNode(ctx context.Context, id int64) (*ports.NodeDeletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteNode"); err != nil {
		return nil, err
	}
	if _, ok := s.nodes[id]; !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}

	del := &ports.NodeDeletion{FormerNeighbors: sortedKeys(s.edges[id]), FormerGraphs: []int64{}}
	for _, other := range del.FormerNeighbors {
		delete(s.edges[other], id)
	}
	delete(s.edges, id)
	for gid, g := range s.graphs {
		if _, ok := g.members[id]; ok {
			delete(g.members, id)
			del.FormerGraphs = append(del.FormerGraphs, gid)
		}
	}
	sort.Slice(del.FormerGraphs, func(i, j int) bool { return del.FormerGraphs[i] < del.FormerGraphs[j] })
	delete(s.nodes, id)
	return del, nil
}

func (s *Store) UpdateGraph(ctx context.Context, id int64, update ports.GraphUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateGraph"); err != nil {
		return err
	}
	g, ok := s.graphs[id]
	if !ok {
		return pkgerrors.NewNotFoundError("graph")
	}
	if err := s.requireNodes(update.NodeIDs); err != nil {
		return err
	}
	if update.Name != nil {
		g.name = *update.Name
	}
	for _, nid := range update.NodeIDs {
		g.members[nid] = struct{}{}
	}
	return nil
}

func (s *Store) SeedGraph(ctx context.Context, graph entities.GraphSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SeedGraph"); err != nil {
		return err
	}
	if g, ok := s.graphs[graph.ID]; ok {
		g.name = graph.Name
		return nil
	}
	s.graphs[graph.ID] = &graphRecord{name: graph.Name, members: make(map[int64]struct{})}
	return nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter("EnsureSchema")
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter("Ping")
}

func (s *Store) hydrate(id int64) entities.Node {
	rec := s.nodes[id]
	return entities.Node{
		ID:          id,
		Name:        rec.name,
		Description: rec.desc,
		Adjacencies: sortedKeys(s.edges[id]),
	}
}

func (s *Store) link(a, b int64) {
	if s.edges[a] == nil {
		s.edges[a] = make(map[int64]struct{})
	}
	if s.edges[b] == nil {
		s.edges[b] = make(map[int64]struct{})
	}
	s.edges[a][b] = struct{}{}
	s.edges[b][a] = struct{}{}
}

func (s *Store) requireNodes(ids []int64) error {
	for _, id := range ids {
		if _, ok := s.nodes[id]; !ok {
			return pkgerrors.NewValidationError("referenced node does not exist").WithCode(CodeUnknownNode)
		}
	}
	return nil
}

func sortedKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
