package valueobjects

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// ErrInvalidSlug is returned for any string that is not the encoding of exactly
// one non-negative id under the codec's salt and alphabet.
var ErrInvalidSlug = errors.New("invalid slug")

// DefaultSlugMinLength pads short ids so slugs do not reveal counter values.
const DefaultSlugMinLength = 4

// SlugCodec maps internal numeric ids to opaque URL-safe slugs and back.
// Values are immutable after construction and safe for concurrent use.
type SlugCodec struct {
	h *hashids.HashID
}

// NewSlugCodec builds a codec. Changing salt or minLength invalidates every
// slug previously handed out.
func NewSlugCodec(salt string, minLength int) (*SlugCodec, error) {
	if minLength < 0 {
		return nil, fmt.Errorf("slug min length must not be negative: %d", minLength)
	}
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("creating slug codec: %w", err)
	}
	return &SlugCodec{h: h}, nil
}

// Encode returns the slug for id.
func (c *SlugCodec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("cannot encode negative id %d", id)
	}
	s, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("encoding id %d: %w", id, err)
	}
	return s, nil
}

// MustEncode is Encode for ids that came out of the store and are known valid.
func (c *SlugCodec) MustEncode(id int64) string {
	s, err := c.Encode(id)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode returns the id encoded by slug, or ErrInvalidSlug.
func (c *SlugCodec) Decode(slug string) (int64, error) {
	if slug == "" {
		return 0, ErrInvalidSlug
	}
	ids, err := c.h.DecodeInt64WithError(slug)
	if err != nil || len(ids) != 1 || ids[0] < 0 {
		return 0, ErrInvalidSlug
	}
	// Several strings can decode to the same number; only the canonical one is accepted.
	canonical, err := c.h.EncodeInt64(ids)
	if err != nil || canonical != slug {
		return 0, ErrInvalidSlug
	}
	return ids[0], nil
}

// DecodeAll decodes every slug, failing on the first invalid one.
func (c *SlugCodec) DecodeAll(slugs []string) ([]int64, error) {
	ids := make([]int64, 0, len(slugs))
	for _, s := range slugs {
		id, err := c.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EncodeAll encodes ids in order.
func (c *SlugCodec) EncodeAll(ids []int64) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		s, err := c.Encode(id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
