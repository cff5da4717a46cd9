// Package client is a Go client for the nodalnet HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the server. It matches ErrNotFound,
// ErrBadRequest or ErrUnauthorized through errors.Is when the status says so.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("nodalnet: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("nodalnet: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

// Node is a node as the API returns it.
type Node struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Desc        string   `json:"desc"`
	Adjacencies []string `json:"adjacencies"`
}

// Graph lists the slugs of its member nodes.
type Graph struct {
	Slug  string   `json:"slug"`
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

type GraphSummary struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// GraphWithNodes is the answer of GetGraph.
type GraphWithNodes struct {
	Graph Graph  `json:"graph"`
	Nodes []Node `json:"nodes"`
}

type Option func(*resty.Client)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *resty.Client) { c.SetAuthToken(token) }
}

func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// Client talks to one nodalnet server.
type Client struct {
	http *resty.Client
}

// New creates a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return &Client{http: c}
}

func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) ListGraphs(ctx context.Context) ([]GraphSummary, error) {
	var out struct {
		Graphs []GraphSummary `json:"graphs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/graphs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Graphs, nil
}

func (c *Client) GetGraph(ctx context.Context, slug string) (*GraphWithNodes, error) {
	var out GraphWithNodes
	if err := c.do(ctx, http.MethodGet, "/api/graphs/{slug}", pathSlug(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGraph renames the graph and adds nodes to it. An empty name keeps the
// current one. Nodes already in the graph are never removed.
func (c *Client) UpdateGraph(ctx context.Context, slug, name string, nodes []string) error {
	body := map[string]interface{}{"name": name}
	if nodes != nil {
		body["nodes"] = nodes
	}
	return c.do(ctx, http.MethodPut, "/api/graphs/{slug}", pathSlug(slug), map[string]interface{}{"graph": body}, nil)
}

func (c *Client) GetNode(ctx context.Context, slug string) (*Node, error) {
	var out struct {
		Node Node `json:"node"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/nodes/{slug}", pathSlug(slug), nil, &out); err != nil {
		return nil, err
	}
	return &out.Node, nil
}

func (c *Client) CreateNode(ctx context.Context, graphSlug, name string) (*Node, error) {
	body := map[string]interface{}{"node": map[string]string{"name": name, "graph_slug": graphSlug}}
	var out struct {
		Node Node `json:"node"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/nodes", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Node, nil
}

// UpdateNode saves the node's name, description and complete adjacency list.
func (c *Client) UpdateNode(ctx context.Context, n Node) error {
	adj := n.Adjacencies
	if adj == nil {
		adj = []string{}
	}
	body := map[string]interface{}{"node": map[string]interface{}{
		"name":        n.Name,
		"desc":        n.Desc,
		"adjacencies": adj,
	}}
	return c.do(ctx, http.MethodPut, "/api/nodes/{slug}", pathSlug(n.Slug), body, nil)
}

func (c *Client) DeleteNode(ctx context.Context, slug string) error {
	return c.do(ctx, http.MethodDelete, "/api/nodes/{slug}", pathSlug(slug), nil, nil)
}

func pathSlug(slug string) map[string]string {
	return map[string]string{"slug": slug}
}

func (c *Client) do(ctx context.Context, method, url string, params map[string]string, body, result interface{}) error {
	apiErr := &APIError{}
	req := c.http.R().
		SetContext(ctx).
		SetPathParams(params).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("nodalnet: %s %s: %w", method, url, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return nil
}
