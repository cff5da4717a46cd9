package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/application/commands/bus"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/queries"
	querybus "github.com/mark-henry/mhnodalnetwork/application/queries/bus"
	"github.com/mark-henry/mhnodalnetwork/application/services"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	"github.com/mark-henry/mhnodalnetwork/domain/core/valueobjects"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/cache"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/config"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/di"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/persistence/memory"
	"github.com/mark-henry/mhnodalnetwork/interfaces/http/rest"
	"github.com/mark-henry/mhnodalnetwork/pkg/auth"
	"github.com/mark-henry/mhnodalnetwork/pkg/observability"
)

type server struct {
	handler http.Handler
	store   *memory.Store
	codec   *valueobjects.SlugCodec
	graph   string
}

func newServer(t *testing.T, opts rest.Options) *server {
	t.Helper()
	return buildServer(t, func(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, store ports.GraphStore, logger *zap.Logger) *rest.Router {
		return rest.NewRouter(commandBus, queryBus, store, logger, opts)
	})
}

// newConfiguredServer wires the router the way the binary does, from cfg.
func newConfiguredServer(t *testing.T, cfg *config.Config) *server {
	t.Helper()
	return buildServer(t, func(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, store ports.GraphStore, logger *zap.Logger) *rest.Router {
		return di.ProvideRouter(cfg, commandBus, queryBus, store, nil, nil, logger)
	})
}

type routerFactory func(*bus.CommandBus, *querybus.QueryBus, ports.GraphStore, *zap.Logger) *rest.Router

func buildServer(t *testing.T, build routerFactory) *server {
	t.Helper()
	logger := zap.NewNop()
	codec, err := valueobjects.NewSlugCodec("router tests", 4)
	require.NoError(t, err)

	store := memory.NewStore()
	store.RecordCalls()
	require.NoError(t, store.SeedGraph(context.Background(), entities.GraphSummary{ID: 1, Name: "default"}))

	reads := services.NewReadModels(store, cache.NewLRUCache(100, time.Minute, nil, logger), codec, logger)
	commandBus, err := di.ProvideCommandBus(store, reads, logger)
	require.NoError(t, err)
	queryBus, err := di.ProvideQueryBus(reads, logger)
	require.NoError(t, err)

	router := build(commandBus, queryBus, store, logger)
	return &server{handler: router.Setup(), store: store, codec: codec, graph: codec.MustEncode(1)}
}

func (s *server) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) createNode(t *testing.T, name string) queries.NodeView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/nodes", map[string]interface{}{
		"node": map[string]string{"name": name, "graph_slug": s.graph},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Node queries.NodeView `json:"node"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Node
}

func (s *server) getNode(t *testing.T, slug string) queries.NodeView {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/nodes/"+slug, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Node queries.NodeView `json:"node"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Node
}

func (s *server) getGraph(t *testing.T) queries.GetGraphResult {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/graphs/"+s.graph, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp queries.GetGraphResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error bool   `json:"error"`
		Type  string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	return body.Type
}

func TestEmptyGraph(t *testing.T) {
	s := newServer(t, rest.Options{})

	got := s.getGraph(t)

	assert.Equal(t, s.graph, got.Graph.Slug)
	assert.Equal(t, "default", got.Graph.Name)
	assert.Empty(t, got.Graph.Nodes)
	assert.Empty(t, got.Nodes)
}

func TestListGraphs(t *testing.T) {
	s := newServer(t, rest.Options{})

	rec := s.do(t, http.MethodGet, "/api/graphs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp queries.ListGraphsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []queries.GraphSummaryView{{Slug: s.graph, Name: "default"}}, resp.Graphs)
}

func TestCreateNode_AppearsInGraph(t *testing.T) {
	s := newServer(t, rest.Options{})
	s.getGraph(t)

	node := s.createNode(t, "Alpha")

	assert.Equal(t, "Alpha", node.Name)
	assert.Empty(t, node.Adjacencies)
	got := s.getGraph(t)
	assert.Equal(t, []string{node.Slug}, got.Graph.Nodes)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, node, got.Nodes[0])
}

func TestUpdateNode_LinksAreSymmetric(t *testing.T) {
	s := newServer(t, rest.Options{})
	a := s.createNode(t, "A")
	b := s.createNode(t, "B")
	// warm the cache so the update has something to invalidate
	s.getNode(t, b.Slug)

	rec := s.do(t, http.MethodPut, "/api/nodes/"+a.Slug, map[string]interface{}{
		"node": map[string]interface{}{"name": "A2", "desc": "first", "adjacencies": []string{b.Slug}},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{}`, rec.Body.String())
	gotA := s.getNode(t, a.Slug)
	assert.Equal(t, "A2", gotA.Name)
	assert.Equal(t, "first", gotA.Desc)
	assert.Equal(t, []string{b.Slug}, gotA.Adjacencies)
	assert.Equal(t, []string{a.Slug}, s.getNode(t, b.Slug).Adjacencies)
}

func TestUpdateNode_ClearingAdjacenciesUnlinksBothSides(t *testing.T) {
	s := newServer(t, rest.Options{})
	a := s.createNode(t, "A")
	b := s.createNode(t, "B")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/nodes/"+a.Slug, map[string]interface{}{
		"node": map[string]interface{}{"name": "A", "adjacencies": []string{b.Slug}},
	}).Code)
	s.getNode(t, b.Slug)

	rec := s.do(t, http.MethodPut, "/api/nodes/"+a.Slug, map[string]interface{}{
		"node": map[string]interface{}{"name": "A", "adjacencies": []string{}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.getNode(t, a.Slug).Adjacencies)
	assert.Empty(t, s.getNode(t, b.Slug).Adjacencies)
}

func TestDeleteNode_RemovesNeighbourLink(t *testing.T) {
	s := newServer(t, rest.Options{})
	a := s.createNode(t, "A")
	b := s.createNode(t, "B")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/nodes/"+a.Slug, map[string]interface{}{
		"node": map[string]interface{}{"name": "A", "adjacencies": []string{b.Slug}},
	}).Code)
	s.getGraph(t)

	rec := s.do(t, http.MethodDelete, "/api/nodes/"+a.Slug, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/nodes/"+a.Slug, nil).Code)
	assert.Empty(t, s.getNode(t, b.Slug).Adjacencies)
	assert.Equal(t, []string{b.Slug}, s.getGraph(t).Graph.Nodes)
}

func TestUnknownSlug_NotFoundWithoutStoreCall(t *testing.T) {
	s := newServer(t, rest.Options{})
	before := len(s.store.Calls())

	for _, path := range []string{"/api/nodes/not-a-slug", "/api/graphs/not-a-slug"} {
		rec := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "NOT_FOUND", errorType(t, rec))
	}
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/nodes/not-a-slug", nil).Code)

	assert.Len(t, s.store.Calls(), before)
}

func TestUpdateNode_UnknownAdjacencyIsNotFound(t *testing.T) {
	s := newServer(t, rest.Options{})
	a := s.createNode(t, "A")

	tests := []struct {
		name string
		adj  string
	}{
		{"undecodable slug", "@@@"},
		{"decodable but missing node", s.codec.MustEncode(999)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPut, "/api/nodes/"+a.Slug, map[string]interface{}{
				"node": map[string]interface{}{"name": "A", "adjacencies": []string{tt.adj}},
			})
			assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION", errorType(t, rec))
		})
	}
	assert.Empty(t, s.getNode(t, a.Slug).Adjacencies)
}

func TestCreateNode_BadRequests(t *testing.T) {
	s := newServer(t, rest.Options{})

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing graph slug", map[string]interface{}{"node": map[string]string{"name": "x"}}},
		{"undecodable graph slug", map[string]interface{}{"node": map[string]string{"name": "x", "graph_slug": "@@"}}},
		{"unknown graph", map[string]interface{}{"node": map[string]string{"name": "x", "graph_slug": s.codec.MustEncode(77)}}},
		{"missing name", map[string]interface{}{"node": map[string]string{"graph_slug": s.graph}}},
		{"malformed json", `{"node":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/nodes", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION", errorType(t, rec))
		})
	}
	assert.Empty(t, s.getGraph(t).Nodes)
}

func TestUpdateGraph(t *testing.T) {
	s := newServer(t, rest.Options{})
	a := s.createNode(t, "A")
	b := s.createNode(t, "B")

	t.Run("rename keeps membership when nodes omitted", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/graphs/"+s.graph, map[string]interface{}{
			"graph": map[string]interface{}{"name": "renamed"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := s.getGraph(t)
		assert.Equal(t, "renamed", got.Graph.Name)
		assert.ElementsMatch(t, []string{a.Slug, b.Slug}, got.Graph.Nodes)
	})

	t.Run("node list only adds members", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/graphs/"+s.graph, map[string]interface{}{
			"graph": map[string]interface{}{"name": "", "nodes": []string{b.Slug, b.Slug}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := s.getGraph(t)
		assert.Equal(t, "renamed", got.Graph.Name)
		assert.ElementsMatch(t, []string{a.Slug, b.Slug}, got.Graph.Nodes)
	})

	t.Run("unknown member is not found", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/graphs/"+s.graph, map[string]interface{}{
			"graph": map[string]interface{}{"nodes": []string{s.codec.MustEncode(404)}},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown graph is not found", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/api/graphs/"+s.codec.MustEncode(55), map[string]interface{}{
			"graph": map[string]interface{}{"name": "x"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("listing reflects rename", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/graphs", nil)
		var resp queries.ListGraphsResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "renamed", resp.Graphs[0].Name)
	})
}

func TestStorageFailureIsGeneric500(t *testing.T) {
	s := newServer(t, rest.Options{})
	s.store.SetError("ListGraphs", errors.New("connection refused to 10.0.0.5"))

	rec := s.do(t, http.MethodGet, "/api/graphs", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestStorageFailureIsGeneric500_DefaultConfig(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  func() *config.Config
	}{
		{"defaults", config.Defaults},
		{"debug errors on", func() *config.Config {
			cfg := config.Defaults()
			cfg.DebugErrors = true
			return cfg
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := newConfiguredServer(t, tt.cfg())
			s.store.SetError("ListGraphs", errors.New("neo4j: connection refused to 10.0.0.5"))

			rec := s.do(t, http.MethodGet, "/api/graphs", nil)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			assert.NotContains(t, rec.Body.String(), "stack_trace")
			assert.Contains(t, rec.Body.String(), "An internal error occurred")
		})
	}
}

func TestWriteAuth(t *testing.T) {
	validator, err := auth.NewJWTValidator("secret", "tests")
	require.NoError(t, err)
	s := newServer(t, rest.Options{Auth: validator})
	body := map[string]interface{}{"node": map[string]string{"name": "x", "graph_slug": s.graph}}

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/graphs", nil).Code)

	rec := s.do(t, http.MethodPost, "/api/nodes", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorType(t, rec))

	token, err := validator.IssueToken("editor", time.Minute)
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/nodes", body, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	s := newServer(t, rest.Options{})

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/ready", nil).Code)

	s.store.SetError("Ping", errors.New("down"))
	rec := s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", errorType(t, rec))
}

func TestRequestIDEchoed(t *testing.T) {
	s := newServer(t, rest.Options{})

	rec := s.do(t, http.MethodGet, "/api/nodes/nope", nil, "X-Request-ID", "req-42")

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-42"`)

	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, rest.Options{Metrics: observability.NewCollector("nodalnet_test")})
	s.do(t, http.MethodGet, "/api/graphs", nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nodalnet_test_http_requests_total{method="GET",route="/api/graphs",status="200"} 1`)
}

func TestClientShell(t *testing.T) {
	t.Run("embedded shell for client routes", func(t *testing.T) {
		s := newServer(t, rest.Options{})
		rec := s.do(t, http.MethodGet, "/graph/abc", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<title>nodalnet</title>")
	})

	t.Run("static dir wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom</p>"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
		s := newServer(t, rest.Options{StaticDir: dir})

		assert.Contains(t, s.do(t, http.MethodGet, "/", nil).Body.String(), "custom")
		assert.Contains(t, s.do(t, http.MethodGet, "/app.js", nil).Body.String(), "console.log")
		assert.Contains(t, s.do(t, http.MethodGet, "/deep/link", nil).Body.String(), "custom")
	})

	t.Run("unknown api route stays json", func(t *testing.T) {
		s := newServer(t, rest.Options{})
		rec := s.do(t, http.MethodGet, "/api/nothing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
	})
}
