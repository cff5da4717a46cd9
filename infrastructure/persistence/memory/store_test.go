package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.SeedGraph(context.Background(), entities.GraphSummary{ID: 1, Name: "default"}))
	return s
}

func addNode(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.NextID(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CreateNode(ctx, &entities.Node{ID: id, Name: name}, 1))
	return id
}

func TestStore_AdjacencyIsSymmetric(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	a, b := addNode(t, s, "A"), addNode(t, s, "B")

	prev, err := s.UpdateNode(ctx, &entities.Node{ID: a, Name: "A", Adjacencies: []int64{b, b, a}})
	require.NoError(t, err)
	assert.Empty(t, prev)

	nb, err := s.GetNode(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, nb.Adjacencies)

	prev, err = s.UpdateNode(ctx, &entities.Node{ID: a, Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, []int64{b}, prev)

	nb, err = s.GetNode(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, nb.Adjacencies)
}

func TestStore_UpdateNodeRejectsUnknownNeighbour(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	a := addNode(t, s, "A")

	_, err := s.UpdateNode(ctx, &entities.Node{ID: a, Name: "changed", Adjacencies: []int64{404}})
	require.True(t, pkgerrors.IsValidation(err))

	n, err := s.GetNode(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "A", n.Name)
}

func TestStore_DeleteNodeReportsNeighboursAndGraphs(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	a, b := addNode(t, s, "A"), addNode(t, s, "B")
	_, err := s.UpdateNode(ctx, &entities.Node{ID: a, Name: "A", Adjacencies: []int64{b}})
	require.NoError(t, err)

	del, err := s.DeleteNode(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, &ports.NodeDeletion{FormerNeighbors: []int64{a}, FormerGraphs: []int64{1}}, del)

	na, err := s.GetNode(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, na.Adjacencies)

	g, err := s.GetGraph(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, g.Graph.NodeIDs)

	_, err = s.DeleteNode(ctx, b)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_UpdateGraph(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	a := addNode(t, s, "A")
	name := "renamed"

	require.NoError(t, s.UpdateGraph(ctx, 1, ports.GraphUpdate{Name: &name}))
	g, err := s.GetGraph(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "renamed", g.Graph.Name)
	assert.Equal(t, []int64{a}, g.Graph.NodeIDs)

	require.NoError(t, s.SeedGraph(ctx, entities.GraphSummary{ID: 2, Name: "second"}))
	require.NoError(t, s.UpdateGraph(ctx, 2, ports.GraphUpdate{NodeIDs: []int64{a}}))
	require.NoError(t, s.UpdateGraph(ctx, 2, ports.GraphUpdate{NodeIDs: []int64{}}))
	g, err = s.GetGraph(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, g.Graph.NodeIDs, "an empty list adds nothing and removes nothing")
	g, err = s.GetGraph(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, g.Graph.NodeIDs)

	err = s.UpdateGraph(ctx, 1, ports.GraphUpdate{NodeIDs: []int64{999}})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.True(t, pkgerrors.IsNotFound(s.UpdateGraph(ctx, 3, ports.GraphUpdate{Name: &name})))
}

func TestStore_NextIDConcurrent(t *testing.T) {
	s := NewStore()
	const workers = 50

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextID(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
}

func TestStore_SetError(t *testing.T) {
	s := seeded(t)
	s.RecordCalls()
	boom := errors.New("boom")
	s.SetError("GetNode", boom)

	_, err := s.GetNode(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	s.ClearErrors()
	_, err = s.GetNode(context.Background(), 1)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, []string{"GetNode", "GetNode"}, s.Calls())
}

func TestStore_CallsNotRecordedByDefault(t *testing.T) {
	s := seeded(t)
	for i := 0; i < 10; i++ {
		_, _ = s.GetNode(context.Background(), 1)
	}
	assert.Empty(t, s.Calls())
}
