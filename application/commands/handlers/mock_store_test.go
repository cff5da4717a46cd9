package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
)

type MockGraphStore struct {
	mock.Mock
}

func (m *MockGraphStore) NextID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGraphStore) ListGraphs(ctx context.Context) ([]entities.GraphSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.GraphSummary), args.Error(1)
}

func (m *MockGraphStore) GetGraph(ctx context.Context, id int64) (*entities.GraphWithNodes, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GraphWithNodes), args.Error(1)
}

func (m *MockGraphStore) GetNode(ctx context.Context, id int64) (*entities.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockGraphStore) CreateNode(ctx context.Context, node *entities.Node, graphID int64) error {
	return m.Called(ctx, node, graphID).Error(0)
}

func (m *MockGraphStore) UpdateNode(ctx context.Context, node *entities.Node) ([]int64, error) {
	args := m.Called(ctx, node)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockGraphStore) DeleteNode(ctx context.Context, id int64) (*ports.NodeDeletion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.NodeDeletion), args.Error(1)
}

func (m *MockGraphStore) UpdateGraph(ctx context.Context, id int64, update ports.GraphUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *MockGraphStore) SeedGraph(ctx context.Context, graph entities.GraphSummary) error {
	return m.Called(ctx, graph).Error(0)
}

func (m *MockGraphStore) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGraphStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
