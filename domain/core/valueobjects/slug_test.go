package valueobjects

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *SlugCodec {
	t.Helper()
	c, err := NewSlugCodec("test salt", DefaultSlugMinLength)
	require.NoError(t, err)
	return c
}

func TestSlugCodec_RoundTrip(t *testing.T) {
	c := newCodec(t)

	for _, id := range []int64{0, 1, 2, 42, 1000, 1 << 40} {
		slug, err := c.Encode(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(slug), DefaultSlugMinLength)

		got, err := c.Decode(slug)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestSlugCodec_Deterministic(t *testing.T) {
	a := newCodec(t)
	b := newCodec(t)

	assert.Equal(t, a.MustEncode(17), b.MustEncode(17))
	assert.NotEqual(t, a.MustEncode(17), a.MustEncode(18))
}

func TestSlugCodec_SaltChangesSlugs(t *testing.T) {
	a := newCodec(t)
	b, err := NewSlugCodec("other salt", DefaultSlugMinLength)
	require.NoError(t, err)

	assert.NotEqual(t, a.MustEncode(5), b.MustEncode(5))
}

func TestSlugCodec_DecodeRejectsGarbage(t *testing.T) {
	c := newCodec(t)
	pair, err := c.h.EncodeInt64([]int64{1, 2})
	require.NoError(t, err)

	cases := map[string]string{
		"empty":            "",
		"outside alphabet": "!!!!",
		"two numbers":      pair,
		"whitespace":       " " + c.MustEncode(3),
	}
	for name, slug := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode(slug)
			assert.True(t, errors.Is(err, ErrInvalidSlug))
		})
	}
}

func TestSlugCodec_EncodeRejectsNegative(t *testing.T) {
	c := newCodec(t)
	_, err := c.Encode(-1)
	assert.Error(t, err)
}

func TestSlugCodec_DecodeAll(t *testing.T) {
	c := newCodec(t)

	ids, err := c.DecodeAll([]string{c.MustEncode(1), c.MustEncode(9)})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 9}, ids)

	_, err = c.DecodeAll([]string{c.MustEncode(1), "nope!"})
	assert.ErrorIs(t, err, ErrInvalidSlug)
}
