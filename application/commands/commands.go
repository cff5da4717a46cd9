package commands

import (
	"strings"

	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// CreateNodeCommand creates a node inside an existing graph.
type CreateNodeCommand struct {
	Name      string
	GraphSlug string
}

func (c CreateNodeCommand) Validate() error {
	if c.GraphSlug == "" {
		return pkgerrors.NewValidationError("graph_slug is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return pkgerrors.NewValidationError("name is required")
	}
	return nil
}

// UpdateNodeCommand replaces a node's name, description and full adjacency list.
type UpdateNodeCommand struct {
	Slug        string
	Name        string
	Desc        string
	Adjacencies []string
}

func (c UpdateNodeCommand) Validate() error {
	if c.Slug == "" {
		return pkgerrors.NewNotFoundError("node")
	}
	if len(c.Name) > entities.MaxNameLength {
		return pkgerrors.NewValidationError("name is too long")
	}
	return nil
}

// DeleteNodeCommand removes a node and all of its relationships.
type DeleteNodeCommand struct {
	Slug string
}

func (c DeleteNodeCommand) Validate() error {
	if c.Slug == "" {
		return pkgerrors.NewNotFoundError("node")
	}
	return nil
}

// UpdateGraphCommand renames a graph and adds Nodes to it. Nodes already in
// the graph stay; an empty name leaves the name unchanged.
type UpdateGraphCommand struct {
	Slug  string
	Name  string
	Nodes []string
}

func (c UpdateGraphCommand) Validate() error {
	if c.Slug == "" {
		return pkgerrors.NewNotFoundError("graph")
	}
	if len(c.Name) > entities.MaxNameLength {
		return pkgerrors.NewValidationError("name is too long")
	}
	return nil
}
