package graphdb

import (
	"context"

	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

var schemaStatements = []string{
	"CREATE CONSTRAINT node_id_unique IF NOT EXISTS FOR (n:Node) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT graph_id_unique IF NOT EXISTS FOR (g:Graph) REQUIRE g.id IS UNIQUE",
	"CREATE CONSTRAINT id_counter_name_unique IF NOT EXISTS FOR (c:IdCounter) REQUIRE c.name IS UNIQUE",
}

// EnsureSchema creates the uniqueness constraints. The counter constraint is
// what serialises concurrent MERGEs on the id counter.
func (s *GraphStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Run(ctx, stmt, nil); err != nil {
			return storageErr("ensure schema", err)
		}
	}
	s.logger.Info("graph schema ensured", zap.Int("constraints", len(schemaStatements)))
	return nil
}

func (s *GraphStore) SeedGraph(ctx context.Context, graph entities.GraphSummary) error {
	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("g", "Graph").WithProperties(map[string]interface{}{"id": graph.ID})).
		Set(map[string]interface{}{"g.name": graph.Name}).
		Return("g").
		Build()
	if err != nil {
		return pkgerrors.NewDatabaseError("seed graph", err)
	}
	if _, err := s.db.Run(ctx, query, params); err != nil {
		return storageErr("seed graph", err)
	}
	s.logger.Info("graph seeded", zap.Int64("graph_id", graph.ID), zap.String("name", graph.Name))
	return nil
}
