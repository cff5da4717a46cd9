package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

func TestNewNode(t *testing.T) {
	n, err := NewNode(7, "  Alpha ")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", n.Name)
	assert.Empty(t, n.Adjacencies)
	assert.NotNil(t, n.Adjacencies)

	_, err = NewNode(8, "   ")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNode(9, strings.Repeat("x", MaxNameLength+1))
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNormalizeAdjacencies(t *testing.T) {
	got := NormalizeAdjacencies(3, []int64{5, 3, 1, 5, 2})
	assert.Equal(t, []int64{1, 2, 5}, got)

	assert.Empty(t, NormalizeAdjacencies(1, nil))
}

func TestUnionIDs(t *testing.T) {
	got := UnionIDs([]int64{1, 2, 3}, []int64{2, 3, 4}, nil)
	assert.Equal(t, []int64{1, 2, 3, 4}, got)

	assert.Empty(t, UnionIDs())
}
