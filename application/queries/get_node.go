package queries

import pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"

// GetNodeQuery represents a query to get a single node
type GetNodeQuery struct {
	Slug string
}

func (q GetNodeQuery) Validate() error {
	if q.Slug == "" {
		return pkgerrors.NewNotFoundError("node")
	}
	return nil
}

// NodeView is the cached read model of a node.
type NodeView struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Desc        string   `json:"desc"`
	Adjacencies []string `json:"adjacencies"`
}
