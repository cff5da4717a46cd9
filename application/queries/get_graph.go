package queries

import pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"

// GetGraphQuery loads a graph and all of its nodes.
type GetGraphQuery struct {
	Slug string
}

func (q GetGraphQuery) Validate() error {
	if q.Slug == "" {
		return pkgerrors.NewNotFoundError("graph")
	}
	return nil
}

// GraphView is the cached read model of a graph. Member nodes are referenced
// by slug and cached separately.
type GraphView struct {
	Slug  string   `json:"slug"`
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

// GetGraphResult is a graph with every member node hydrated.
type GetGraphResult struct {
	Graph GraphView  `json:"graph"`
	Nodes []NodeView `json:"nodes"`
}
