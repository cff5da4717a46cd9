package entities

import (
	"sort"
	"strings"

	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// MaxNameLength bounds node and graph names.
const MaxNameLength = 512

// Node is a vertex of a graph. Adjacency is symmetric and stored as undirected
// EDGE relationships, so Adjacencies is the set of neighbour ids.
type Node struct {
	ID          int64
	Name        string
	Description string
	Adjacencies []int64
}

// NewNode validates the name of a freshly created node. New nodes have no neighbours.
func NewNode(id int64, name string) (*Node, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Node{ID: id, Name: name, Adjacencies: []int64{}}, nil
}

// NormalizeAdjacencies removes self links and duplicates and sorts the result.
func NormalizeAdjacencies(self int64, ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == self {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnionIDs merges id lists, keeping first-seen order.
func UnionIDs(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func validateName(name string) error {
	if name == "" {
		return pkgerrors.NewValidationError("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return pkgerrors.NewValidationError("name is too long")
	}
	return nil
}
