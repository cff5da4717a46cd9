package graphdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// CodeUnknownNode marks validation errors caused by references to missing nodes.
const CodeUnknownNode = "UNKNOWN_NODE"

const (
	counterName    = "node"
	counterInitial = int64(1)
)

const (
	nextIDQuery = `MERGE (c:IdCounter {name: $name})
ON CREATE SET c.next = $initial
ON MATCH SET c.next = c.next + 1
RETURN c.next AS id`

	getGraphQuery = `MATCH (g:Graph {id: $id})
OPTIONAL MATCH (g)-[:CONTAINS]->(n:Node)
OPTIONAL MATCH (n)-[:EDGE]-(m:Node)
RETURN g.id AS graphId, g.name AS graphName, n.id AS nodeId, n.name AS name, n.desc AS desc,
       collect(DISTINCT m.id) AS adjacencies
ORDER BY nodeId`

	getNodeQuery = `MATCH (n:Node {id: $id})
OPTIONAL MATCH (n)-[:EDGE]-(m:Node)
RETURN n.id AS id, n.name AS name, n.desc AS desc, collect(DISTINCT m.id) AS adjacencies`

	createNodeQuery = `MATCH (g:Graph {id: $graphId})
CREATE (n:Node {id: $id, name: $name, desc: $desc})
CREATE (g)-[:CONTAINS]->(n)
RETURN n.id AS id`

	existingNodesQuery = `UNWIND $ids AS nid
MATCH (m:Node {id: nid})
RETURN collect(DISTINCT m.id) AS found`

	resetNodeQuery = `MATCH (n:Node {id: $id})
OPTIONAL MATCH (n)-[r:EDGE]-()
DELETE r
WITH DISTINCT n
SET n.name = $name, n.desc = $desc`

	linkNodeQuery = `MATCH (n:Node {id: $id})
UNWIND $adjacencies AS nid
MATCH (m:Node {id: nid})
MERGE (n)-[:EDGE]-(m)`

	deleteNodeQuery = `MATCH (n:Node {id: $id})
OPTIONAL MATCH (n)-[:EDGE]-(m:Node)
WITH n, collect(DISTINCT m.id) AS neighbors
OPTIONAL MATCH (g:Graph)-[:CONTAINS]->(n)
WITH n, neighbors, collect(DISTINCT g.id) AS graphs
DETACH DELETE n
RETURN neighbors, graphs`

	graphExistsQuery = `MATCH (g:Graph {id: $id}) RETURN g.id AS id`

	renameGraphQuery = `MATCH (g:Graph {id: $id}) SET g.name = $name`

	addMembersQuery = `MATCH (g:Graph {id: $id})
UNWIND $nodeIds AS nid
MATCH (n:Node {id: nid})
MERGE (g)-[:CONTAINS]->(n)`
)

// GraphStore implements ports.GraphStore on top of an Executor.
type GraphStore struct {
	db     Executor
	logger *zap.Logger
}

var _ ports.GraphStore = (*GraphStore)(nil)

func NewGraphStore(db Executor, logger *zap.Logger) *GraphStore {
	return &GraphStore{db: db, logger: logger}
}

func (s *GraphStore) NextID(ctx context.Context) (int64, error) {
	records, err := s.db.Run(ctx, nextIDQuery, map[string]interface{}{
		"name":    counterName,
		"initial": counterInitial,
	})
	if err != nil {
		return 0, storageErr("next id", err)
	}
	if len(records) != 1 {
		return 0, pkgerrors.NewDatabaseError("next id", fmt.Errorf("expected 1 record, got %d", len(records)))
	}
	id, err := asInt64(records[0], "id")
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("next id", err)
	}
	return id, nil
}

func (s *GraphStore) ListGraphs(ctx context.Context) ([]entities.GraphSummary, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("g", "Graph")).
		Return("g").
		Build()
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list graphs", err)
	}

	records, err := s.db.Read(ctx, query, params)
	if err != nil {
		return nil, storageErr("list graphs", err)
	}

	graphs := make([]entities.GraphSummary, 0, len(records))
	for _, rec := range records {
		props, err := nodeProps(rec, "g")
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list graphs", err)
		}
		id, err := toInt64(props["id"], "g.id")
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list graphs", err)
		}
		name, _ := props["name"].(string)
		graphs = append(graphs, entities.GraphSummary{ID: id, Name: name})
	}
	sort.Slice(graphs, func(i, j int) bool { return graphs[i].ID < graphs[j].ID })
	return graphs, nil
}

func (s *GraphStore) GetGraph(ctx context.Context, id int64) (*entities.GraphWithNodes, error) {
	records, err := s.db.Read(ctx, getGraphQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, storageErr("get graph", err)
	}
	if len(records) == 0 {
		return nil, pkgerrors.NewNotFoundError("graph")
	}

	result := &entities.GraphWithNodes{
		Graph: entities.Graph{ID: id, Name: asString(records[0], "graphName"), NodeIDs: []int64{}},
		Nodes: []entities.Node{},
	}
	for _, rec := range records {
		nodeID, present, err := asNullableInt64(rec, "nodeId")
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("get graph", err)
		}
		if !present {
			continue
		}
		adj, err := asInt64Slice(rec, "adjacencies")
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("get graph", err)
		}
		result.Graph.NodeIDs = append(result.Graph.NodeIDs, nodeID)
		result.Nodes = append(result.Nodes, entities.Node{
			ID:          nodeID,
			Name:        asString(rec, "name"),
			Description: asString(rec, "desc"),
			Adjacencies: adj,
		})
	}
	return result, nil
}

func (s *GraphStore) GetNode(ctx context.Context, id int64) (*entities.Node, error) {
	records, err := s.db.Read(ctx, getNodeQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, storageErr("get node", err)
	}
	if len(records) == 0 {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	adj, err := asInt64Slice(records[0], "adjacencies")
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	return &entities.Node{
		ID:          id,
		Name:        asString(records[0], "name"),
		Description: asString(records[0], "desc"),
		Adjacencies: adj,
	}, nil
}

func (s *GraphStore) CreateNode(ctx context.Context, node *entities.Node, graphID int64) error {
	records, err := s.db.Run(ctx, createNodeQuery, map[string]interface{}{
		"graphId": graphID,
		"id":      node.ID,
		"name":    node.Name,
		"desc":    node.Description,
	})
	if err != nil {
		return storageErr("create node", err)
	}
	if len(records) == 0 {
		return pkgerrors.NewValidationError("graph does not exist")
	}
	return nil
}

func (s *GraphStore) UpdateNode(ctx context.Context, node *entities.Node) ([]int64, error) {
	adjacencies := entities.NormalizeAdjacencies(node.ID, node.Adjacencies)
	var previous []int64

	err := s.db.ExecuteWrite(ctx, func(tx Runner) error {
		records, err := tx.Run(ctx, getNodeQuery, map[string]interface{}{"id": node.ID})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return pkgerrors.NewNotFoundError("node")
		}
		if previous, err = asInt64Slice(records[0], "adjacencies"); err != nil {
			return err
		}

		if err := requireNodes(ctx, tx, adjacencies); err != nil {
			return err
		}

		if _, err := tx.Run(ctx, resetNodeQuery, map[string]interface{}{
			"id":   node.ID,
			"name": node.Name,
			"desc": node.Description,
		}); err != nil {
			return err
		}
		if len(adjacencies) == 0 {
			return nil
		}
		_, err = tx.Run(ctx, linkNodeQuery, map[string]interface{}{
			"id":          node.ID,
			"adjacencies": adjacencies,
		})
		return err
	})
	if err != nil {
		return nil, storageErr("update node", err)
	}
	node.Adjacencies = adjacencies
	return previous, nil
}

func (s *GraphStore) DeleteNode(ctx context.Context, id int64) (*ports.NodeDeletion, error) {
	records, err := s.db.Run(ctx, deleteNodeQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, storageErr("delete node", err)
	}
	if len(records) == 0 {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	neighbors, err := asInt64Slice(records[0], "neighbors")
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("delete node", err)
	}
	graphs, err := asInt64Slice(records[0], "graphs")
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("delete node", err)
	}
	return &ports.NodeDeletion{FormerNeighbors: neighbors, FormerGraphs: graphs}, nil
}

func (s *GraphStore) UpdateGraph(ctx context.Context, id int64, update ports.GraphUpdate) error {
	nodeIDs := entities.UnionIDs(update.NodeIDs)

	err := s.db.ExecuteWrite(ctx, func(tx Runner) error {
		records, err := tx.Run(ctx, graphExistsQuery, map[string]interface{}{"id": id})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return pkgerrors.NewNotFoundError("graph")
		}

		if err := requireNodes(ctx, tx, nodeIDs); err != nil {
			return err
		}

		if update.Name != nil {
			if _, err := tx.Run(ctx, renameGraphQuery, map[string]interface{}{
				"id":   id,
				"name": *update.Name,
			}); err != nil {
				return err
			}
		}

		if len(nodeIDs) == 0 {
			return nil
		}
		_, err = tx.Run(ctx, addMembersQuery, map[string]interface{}{"id": id, "nodeIds": nodeIDs})
		return err
	})
	if err != nil {
		return storageErr("update graph", err)
	}
	return nil
}

func (s *GraphStore) Ping(ctx context.Context) error {
	if err := s.db.VerifyConnectivity(ctx); err != nil {
		return pkgerrors.NewUnavailableError("graph database").WithCause(err)
	}
	return nil
}

// requireNodes fails with a validation error unless every id names an existing node.
func requireNodes(ctx context.Context, tx Runner, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	records, err := tx.Run(ctx, existingNodesQuery, map[string]interface{}{"ids": ids})
	if err != nil {
		return err
	}
	var found []int64
	if len(records) > 0 {
		if found, err = asInt64Slice(records[0], "found"); err != nil {
			return err
		}
	}
	if len(found) == len(ids) {
		return nil
	}

	present := make(map[int64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	missing := make([]int64, 0, len(ids)-len(found))
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return pkgerrors.NewValidationError("referenced node does not exist").
		WithCode(CodeUnknownNode).
		WithDetails(map[string]interface{}{"missing": len(missing)})
}

// storageErr keeps AppErrors raised by the store itself and wraps driver failures.
func storageErr(op string, err error) error {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr
	}
	return pkgerrors.NewDatabaseError(op, err)
}
